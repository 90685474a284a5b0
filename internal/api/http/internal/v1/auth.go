package v1

import (
	"net/http"

	"github.com/joblo-ai/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) initAuthRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")

	auth.POST("/signup", h.signUp)
	auth.POST("/signin", h.signIn)
	auth.POST("/signin/totp", h.signInTOTP)
	auth.POST("/refresh", h.refresh)
	auth.POST("/signout", h.userIdentityMiddleware, h.signOut)
	auth.POST("/signout-all", h.userIdentityMiddleware, h.signOutAll)
	auth.POST("/password/reset", h.resetPassword)
	auth.POST("/password/change", h.userIdentityMiddleware, h.changePassword)
	auth.GET("/availability", h.checkAvailability)
}

type tokensResponse struct {
	AccessToken      string `json:"accessToken"`
	AccessExpiresIn  int64  `json:"accessExpiresIn"`
	RefreshToken     string `json:"refreshToken"`
	RefreshExpiresIn int64  `json:"refreshExpiresIn"`
} // @name TokensResponse

func newTokensResponse(tokens *service.Tokens) *tokensResponse {
	if tokens == nil {
		return nil
	}
	return &tokensResponse{
		AccessToken:      tokens.AccessToken,
		AccessExpiresIn:  int64(tokens.AccessTokenTTL.Seconds()),
		RefreshToken:     tokens.RefreshToken,
		RefreshExpiresIn: int64(tokens.RefreshTokenTTL.Seconds()),
	}
}

type signUpRequest struct {
	CodeVerificationID string `json:"codeVerificationId" binding:"required,uuid"`
	FirstName          string `json:"firstName" binding:"required,max=100"`
	LastName           string `json:"lastName" binding:"max=100"`
	Password           string `json:"password" binding:"required,min=8,max=72"`
}

type signUpResponse struct {
	UserID string          `json:"userId"`
	Tokens *tokensResponse `json:"tokens"`
} // @name SignUpResponse

// @Summary Sign up
// @Tags Auth
// @Description Creates an account from a passed pre-signup verification
// @Accept json
// @Produce json
// @Param input body signUpRequest true "sign up input"
// @Success 201 {object} signUpResponse
// @Failure 404,409,422 {object} ErrorStruct
// @Router /auth/signup [post]
func (h *Handler) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	user, tokens, err := h.services.Auth.SignUp(c.Request.Context(), service.SignUpInput{
		CodeVerificationID: uuid.MustParse(req.CodeVerificationID),
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Password:           req.Password,
	})
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, signUpResponse{
		UserID: user.ID.String(),
		Tokens: newTokensResponse(tokens),
	})
}

type signInRequest struct {
	Email              string `json:"email" binding:"omitempty,email"`
	Phone              string `json:"phone" binding:"omitempty,phonenumber"`
	CountryCode        string `json:"countryCode" binding:"omitempty,countrycode"`
	Password           string `json:"password" binding:"required_with=Email"`
	CodeVerificationID string `json:"codeVerificationId" binding:"omitempty,uuid"`
}

type signInResponse struct {
	UserID            string          `json:"userId"`
	TwoFactorRequired bool            `json:"twoFactorRequired"`
	TwoFactorType     string          `json:"twoFactorType,omitempty"`
	Tokens            *tokensResponse `json:"tokens,omitempty"`
} // @name SignInResponse

// @Summary Sign in
// @Tags Auth
// @Description Email sign-in with a password, or phone sign-in with a passed verification; returns tokens, or a two-factor challenge when enabled
// @Accept json
// @Produce json
// @Param input body signInRequest true "sign in input"
// @Success 200 {object} signInResponse
// @Failure 401,403,422 {object} ErrorStruct
// @Router /auth/signin [post]
func (h *Handler) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	input := service.SignInInput{
		Email:       req.Email,
		Phone:       req.Phone,
		CountryCode: req.CountryCode,
		Password:    req.Password,
	}
	if req.CodeVerificationID != "" {
		id := uuid.MustParse(req.CodeVerificationID)
		input.CodeVerificationID = &id
	}

	outcome, err := h.services.Auth.SignIn(c.Request.Context(), input)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, signInResponse{
		UserID:            outcome.User.ID.String(),
		TwoFactorRequired: outcome.TwoFactorRequired,
		TwoFactorType:     string(outcome.TwoFactorType),
		Tokens:            newTokensResponse(outcome.Tokens),
	})
}

type signInTOTPRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
	Code   string `json:"code" binding:"required,min=6,max=8"`
}

// @Summary Complete sign-in with an authenticator code
// @Tags Auth
// @Accept json
// @Produce json
// @Param input body signInTOTPRequest true "totp input"
// @Success 200 {object} tokensResponse
// @Failure 400,404,422 {object} ErrorStruct
// @Router /auth/signin/totp [post]
func (h *Handler) signInTOTP(c *gin.Context) {
	var req signInTOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	tokens, err := h.services.TwoFactor.VerifySigninTOTP(c.Request.Context(),
		uuid.MustParse(req.UserID), req.Code)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, newTokensResponse(tokens))
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// @Summary Refresh tokens
// @Tags Auth
// @Description Rotates the refresh token and issues a new pair
// @Accept json
// @Produce json
// @Param input body refreshRequest true "refresh input"
// @Success 200 {object} tokensResponse
// @Failure 401,422 {object} ErrorStruct
// @Router /auth/refresh [post]
func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	tokens, err := h.services.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, newTokensResponse(tokens))
}

// @Summary Sign out of the current device
// @Tags Auth
// @Produce json
// @Success 204
// @Failure 401 {object} ErrorStruct
// @Security UserAuth
// @Router /auth/signout [post]
func (h *Handler) signOut(c *gin.Context) {
	user, ok := getAuthUser(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.services.Auth.SignOut(c.Request.Context(), user.ID); err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Sign out everywhere
// @Tags Auth
// @Description Invalidates every outstanding access and refresh token
// @Produce json
// @Success 204
// @Failure 401 {object} ErrorStruct
// @Security UserAuth
// @Router /auth/signout-all [post]
func (h *Handler) signOutAll(c *gin.Context) {
	user, ok := getAuthUser(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.services.Auth.SignOutAll(c.Request.Context(), user.ID); err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type resetPasswordRequest struct {
	CodeVerificationID string `json:"codeVerificationId" binding:"required,uuid"`
	Password           string `json:"password" binding:"required,min=8,max=72"`
}

// @Summary Reset password
// @Tags Auth
// @Description Sets a new password from a passed forgot-password verification
// @Accept json
// @Produce json
// @Param input body resetPasswordRequest true "reset input"
// @Success 204
// @Failure 400,404,422 {object} ErrorStruct
// @Router /auth/password/reset [post]
func (h *Handler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	err := h.services.Auth.ResetPassword(c.Request.Context(),
		uuid.MustParse(req.CodeVerificationID), req.Password)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type changePasswordRequest struct {
	CurrentPassword     string `json:"currentPassword" binding:"required"`
	NewPassword         string `json:"newPassword" binding:"required,min=8,max=72"`
	SignOutOtherDevices bool   `json:"signOutOtherDevices"`
}

// @Summary Change password
// @Tags Auth
// @Accept json
// @Produce json
// @Param input body changePasswordRequest true "change input"
// @Success 204
// @Failure 400,401,422 {object} ErrorStruct
// @Security UserAuth
// @Router /auth/password/change [post]
func (h *Handler) changePassword(c *gin.Context) {
	user, ok := getAuthUser(c)
	if !ok {
		errorResponse(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	err := h.services.Auth.ChangePassword(c.Request.Context(), user.ID,
		req.CurrentPassword, req.NewPassword, req.SignOutOtherDevices)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type availabilityResponse struct {
	EmailInUse bool `json:"emailInUse"`
	PhoneInUse bool `json:"phoneInUse"`
} // @name AvailabilityResponse

// @Summary Check contact availability
// @Tags Auth
// @Produce json
// @Param email query string false "email"
// @Param phone query string false "phone"
// @Param countryCode query string false "country code"
// @Success 200 {object} availabilityResponse
// @Failure 400 {object} ErrorStruct
// @Router /auth/availability [get]
func (h *Handler) checkAvailability(c *gin.Context) {
	email := c.Query("email")
	phone := c.Query("phone")
	countryCode := c.Query("countryCode")

	if email == "" && phone == "" {
		errorResponse(c, http.StatusBadRequest, "email or phone is required")
		return
	}

	result, err := h.services.Auth.CheckAvailability(c.Request.Context(), email, phone, countryCode)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, availabilityResponse{
		EmailInUse: result.EmailInUse,
		PhoneInUse: result.PhoneInUse,
	})
}
