package v1

import (
	"github.com/joblo-ai/backend/internal/config"
	"github.com/joblo-ai/backend/internal/service"
	"github.com/joblo-ai/backend/pkg/auth"

	"github.com/gin-gonic/gin"
)

// @title Joblo Accounts API
// @version 1.0
// @description Account, verification and session management API

// @BasePath /api/v1

// @securityDefinitions.apikey UserAuth
// @in header
// @name Authorization

type Handler struct {
	services     *service.Services
	tokenManager auth.TokenManager
	config       *config.Config
}

func NewHandler(
	services *service.Services,
	tokenManager auth.TokenManager,
	config *config.Config,
) *Handler {
	return &Handler{
		services:     services,
		tokenManager: tokenManager,
		config:       config,
	}
}

func (h *Handler) Init(api *gin.RouterGroup) {
	v1 := api.Group("v1")

	h.initAuthRoutes(v1)
	h.initCodeVerificationRoutes(v1)
	h.initMeRoutes(v1)
}
