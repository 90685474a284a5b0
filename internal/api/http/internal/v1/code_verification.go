package v1

import (
	"net/http"

	"github.com/joblo-ai/backend/internal/domain"
	"github.com/joblo-ai/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) initCodeVerificationRoutes(api *gin.RouterGroup) {
	verifications := api.Group("/code-verifications")

	verifications.POST("", h.optionalUserIdentityMiddleware, h.requestCodeVerification)
	verifications.GET("/:id", h.getCodeVerification)
	verifications.POST("/:id/resend", h.resendCodeVerification)
	verifications.POST("/:id/submit", h.submitCodeVerification)
}

// optionalUserIdentityMiddleware attaches the caller when a valid bearer
// token is present and stays silent otherwise. Purposes that need an
// authenticated user enforce that in the service.
func (h *Handler) optionalUserIdentityMiddleware(c *gin.Context) {
	token, err := parseAuthHeader(c)
	if err != nil {
		c.Next()
		return
	}

	user, err := h.services.Auth.UserByAccessToken(c.Request.Context(), token)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.Set(userCtx, user)
	c.Next()
}

type requestCodeVerificationRequest struct {
	Purpose     string `json:"purpose" binding:"required"`
	Email       string `json:"email" binding:"omitempty,email"`
	Phone       string `json:"phone" binding:"omitempty,phonenumber"`
	CountryCode string `json:"countryCode" binding:"omitempty,countrycode"`
	UseLink     bool   `json:"useLink"`
}

type codeVerificationSubmitResponse struct {
	CodeVerification domain.CodeVerificationView `json:"codeVerification"`
	Tokens           *tokensResponse             `json:"tokens,omitempty"`
} // @name CodeVerificationSubmitResponse

// @Summary Request a verification code
// @Tags CodeVerification
// @Description Issues a code for the purpose and delivers it to the contact
// @Accept json
// @Produce json
// @Param input body requestCodeVerificationRequest true "request input"
// @Success 201 {object} domain.CodeVerificationView
// @Failure 400,404,409,422,429 {object} ErrorStruct
// @Router /code-verifications [post]
func (h *Handler) requestCodeVerification(c *gin.Context) {
	var req requestCodeVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	input := service.CodeVerificationInput{
		Purpose:     domain.CodeVerificationPurpose(req.Purpose),
		Email:       req.Email,
		Phone:       req.Phone,
		CountryCode: req.CountryCode,
		UseLink:     req.UseLink,
	}
	if user, ok := getAuthUser(c); ok {
		input.AuthUser = user
	}

	view, err := h.services.CodeVerifications.Request(c.Request.Context(), input)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// @Summary Get a verification record
// @Tags CodeVerification
// @Produce json
// @Param id path string true "code verification id"
// @Success 200 {object} domain.CodeVerificationView
// @Failure 400,404 {object} ErrorStruct
// @Router /code-verifications/{id} [get]
func (h *Handler) getCodeVerification(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid id")
		return
	}

	view, err := h.services.CodeVerifications.Get(c.Request.Context(), id)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Summary Resend the code for a record
// @Tags CodeVerification
// @Produce json
// @Param id path string true "code verification id"
// @Success 200 {object} domain.CodeVerificationView
// @Failure 400,404,429 {object} ErrorStruct
// @Router /code-verifications/{id}/resend [post]
func (h *Handler) resendCodeVerification(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid id")
		return
	}

	view, err := h.services.CodeVerifications.Resend(c.Request.Context(), id)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

type submitCodeVerificationRequest struct {
	Code string `json:"code" binding:"required,min=4,max=8"`
}

// @Summary Submit a verification code
// @Tags CodeVerification
// @Description Verifies the code and applies the purpose's side effect
// @Accept json
// @Produce json
// @Param id path string true "code verification id"
// @Param input body submitCodeVerificationRequest true "submit input"
// @Success 200 {object} codeVerificationSubmitResponse
// @Failure 400,404,422 {object} ErrorStruct
// @Router /code-verifications/{id}/submit [post]
func (h *Handler) submitCodeVerification(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid id")
		return
	}

	var req submitCodeVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationErrorResponse(c, err)
		return
	}

	outcome, err := h.services.CodeVerifications.Submit(c.Request.Context(), id, req.Code)
	if err != nil {
		serviceErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, codeVerificationSubmitResponse{
		CodeVerification: outcome.View,
		Tokens:           newTokensResponse(outcome.Tokens),
	})
}
