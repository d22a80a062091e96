package handlers

import (
	"github.com/gin-gonic/gin"

	"clinic-dashboard-server/internal/config"
	"clinic-dashboard-server/internal/middleware"
	"clinic-dashboard-server/internal/utils"
)

// AuthHandler serves the operator's own session.
type AuthHandler struct {
	Config *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{Config: cfg}
}

// ProfileResponse identifies the authenticated operator.
type ProfileResponse struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// GetProfile handles fetching the currently authenticated operator.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	role, _ := middleware.GetUserRoleFromContext(c)
	utils.Success(c, "Profile fetched successfully", ProfileResponse{UserID: userID, Role: string(role)})
}

// RenewTokenResponse carries a freshly signed access token.
type RenewTokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
}

// RenewToken issues a new access token for the authenticated operator so a
// dashboard left open keeps its session.
func (h *AuthHandler) RenewToken(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	role, _ := middleware.GetUserRoleFromContext(c)

	token, err := utils.GenerateToken(userID, role, h.Config)
	if err != nil {
		utils.InternalServerError(c, "Failed to generate token: "+err.Error())
		return
	}
	utils.Success(c, "Token renewed successfully", RenewTokenResponse{
		AccessToken: token,
		ExpiresIn:   h.Config.JWTExpirationMinutes * 60,
	})
}
