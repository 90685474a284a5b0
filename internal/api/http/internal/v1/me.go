package v1

import (
	"net/http"
	"time"

	"github.com/joblo-ai/backend/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) initMeRoutes(api *gin.RouterGroup) {
	me := api.Group("/me", h.userIdentityMiddleware)

	me.GET("", h.getMe)

	twoFactor := me.Group("/2fa")
	twoFactor.POST("/authenticator/setup", h.setupAuthenticator)
	twoFactor.POST("/authenticator/verify", h.verifyAuthenticator)
	twoFactor.POST("/enable", h.enableTwoFactor)
	twoFactor.POST("/disable", h.disableTwoFactor)
}

type meResponse struct {
	ID                 string     `json:"id"`
	FirstName          string     `json:"firstName,omitempty"`
	LastName           string     `json:"lastName,omitempty"`
	Email              string     `json:"email,omitempty"`
	Phone              string     `json:"phone,omitempty"`
	CountryCode        string     `json:"countryCode,omitempty"`
	Role               string     `json:"role"`
	EmailVerified      bool       `json:"emailVerified"`
	PhoneVerified      bool       `json:"phoneVerified"`
	TwoFactorActivated bool       `json:"twoFactorActivated"`
	TwoFactorType      string     `json:"twoFactorType,omitempty"`
	LastSigninAt       *time.Time `json:"lastSigninAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
} // @name MeResponse

func newMeResponse(user *domain.User) meResponse {
	return meResponse{
		ID:                 user.ID.String(),
		FirstName:          user.FirstName.String,
		LastName:           user.LastName.String,
		Email:              user.Email.String,
		Phone:              user.Phone.String,
		CountryCode:        user.CountryCode.String,
		Role:               string(user.Role),
		EmailVerified:      user.EmailVerified,
		PhoneVerified:      user.PhoneVerified,
		TwoFactorActivated: user.TwoFactorActivated,
		TwoFactorType:      user.TwoFactorType.String,
		LastSigninAt:       user.LastSigninAt,
		CreatedAt:          user.CreatedAt,
	}
}

// @Summary Current user profile
// @Tags Me
// @Produce json
// @Success 200 {object} meResponse
// @Failure 401 {object} ErrorStruct
// @Security UserAuth
// @Router /me [get]
func (h *Handler) getMe(c *gin.Context) {
	user, ok := getAuthUser(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	c.JSON(http.StatusOK, newMeResponse(user))
}

type totpSetupResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioningUri"`
} // @name TOTPSetupResponse

// @Summary Start authenticator app setup
// @Tags TwoFactor
// @Description Generates a secret; it becomes active only after verification
// @Produce json
// @Success 200 {object} totpSetupResponse
// @Failure 401,403 {object} ErrorStruct
// @Security UserAuth
// @Router /me/2fa/authenticator/setup [post]
func (h *Handler) setupAuthenticator(c *gin.Context) {
	user, ok := getAuthUser(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	setup, err := h.services.TwoFactor.SetupAuthenticator(c.Request.Context(), user.ID)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, totpSetupResponse{
		Secret:          setup.Secret,
		ProvisioningURI: setup.ProvisioningURI,
	})
}

type verifyAuthenticatorRequest struct {
	Code string `json:"code" binding:"required,min=6,max=8"`
}

// @Summary Confirm authenticator app setup
// @Tags TwoFactor
// @Description Verifies a live code and switches two-factor to the authenticator
// @Accept json
// @Produce json
// @Param input body verifyAuthenticatorRequest true "verify input"
// @Success 204
// @Failure 400,401,422 {object} ErrorStruct
// @Security UserAuth
// @Router /me/2fa/authenticator/verify [post]
func (h *Handler) verifyAuthenticator(c *gin.Context) {
	user, ok := getAuthUser(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req verifyAuthenticatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	if err := h.services.TwoFactor.VerifyAuthenticator(c.Request.Context(), user.ID, req.Code); err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type enableTwoFactorRequest struct {
	Type string `json:"type" binding:"required,oneof=AuthenticatorApp Phone Email"`
}

// @Summary Enable two-factor authentication
// @Tags TwoFactor
// @Accept json
// @Produce json
// @Param input body enableTwoFactorRequest true "enable input"
// @Success 204
// @Failure 400,401,409,422 {object} ErrorStruct
// @Security UserAuth
// @Router /me/2fa/enable [post]
func (h *Handler) enableTwoFactor(c *gin.Context) {
	user, ok := getAuthUser(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req enableTwoFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	err := h.services.TwoFactor.Enable(c.Request.Context(), user.ID, domain.TwoFactorType(req.Type))
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Disable two-factor authentication
// @Tags TwoFactor
// @Produce json
// @Success 204
// @Failure 400,401 {object} ErrorStruct
// @Security UserAuth
// @Router /me/2fa/disable [post]
func (h *Handler) disableTwoFactor(c *gin.Context) {
	user, ok := getAuthUser(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.services.TwoFactor.Disable(c.Request.Context(), user.ID); err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
