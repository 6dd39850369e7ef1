// Package httpapi exposes the account and token operations over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/authwall/internal/common"
	"github.com/dmitrijs2005/authwall/internal/logging"
	"github.com/dmitrijs2005/authwall/internal/server/models"
	"github.com/dmitrijs2005/authwall/internal/server/services"
)

// AccountService is the account surface the handlers need.
type AccountService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password, fingerprint, userAgent string) (*services.TokenPair, error)
	ConfirmEmail(ctx context.Context, userID, secret string) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUsers(ctx context.Context, ids []string) ([]models.User, error)
}

// TokenService is the token surface the handlers need.
type TokenService interface {
	Refresh(ctx context.Context, authToken, refreshToken, fingerprint, userAgent string) (*services.TokenPair, error)
}

// Handler holds the route handlers for the /api/v1 surface.
type Handler struct {
	accounts AccountService
	tokens   TokenService
	logger   logging.Logger
}

func NewHandler(accounts AccountService, tokens TokenService, logger logging.Logger) *Handler {
	return &Handler{accounts: accounts, tokens: tokens, logger: logger.With("module", "httpapi")}
}

// RegisterRoutes attaches the handlers to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	api.POST("/user", h.RegisterUser)
	api.POST("/token", h.Login)
	api.POST("/refresh", h.Refresh)
	api.PATCH("/confirm", h.ConfirmEmail)
	api.GET("/user/:id", h.GetUser)
	api.GET("/users", h.GetUsers)
}

type registerRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=50"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=5,max=64"`
	Fingerprint string `json:"fingerprint" binding:"required,min=32,max=128"`
}

type loginRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=5,max=64"`
	Fingerprint string `json:"fingerprint" binding:"required,min=32,max=128"`
}

type refreshRequest struct {
	AuthToken    string `json:"auth_token" binding:"required"`
	RefreshToken string `json:"refresh_token" binding:"required"`
	Fingerprint  string `json:"fingerprint" binding:"required,min=32,max=128"`
}

type confirmRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Secret string `json:"secret" binding:"required"`
}

type tokenResponse struct {
	AuthToken    string `json:"auth_token"`
	RefreshToken string `json:"refresh_token"`
}

type userResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		EmailConfirmed: user.EmailConfirmed,
	}
}

// RegisterUser creates an account and immediately logs the new user in, so
// the client holds a token pair without a second round trip.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx := c.Request.Context()

	user, err := h.accounts.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	pair, err := h.accounts.Login(ctx, req.Email, req.Password, req.Fingerprint, c.Request.UserAgent())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":          toUserResponse(user),
		"auth_token":    pair.AuthToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	pair, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password, req.Fingerprint, c.Request.UserAgent())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{AuthToken: pair.AuthToken, RefreshToken: pair.RefreshToken})
}

func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	pair, err := h.tokens.Refresh(c.Request.Context(), req.AuthToken, req.RefreshToken, req.Fingerprint, c.Request.UserAgent())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{AuthToken: pair.AuthToken, RefreshToken: pair.RefreshToken})
}

func (h *Handler) ConfirmEmail(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.accounts.ConfirmEmail(c.Request.Context(), req.UserID, req.Secret); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.accounts.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *Handler) GetUsers(c *gin.Context) {
	ids := c.QueryArray("id")
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one id is required"})
		return
	}

	users, err := h.accounts.GetUsers(c.Request.Context(), ids)
	if err != nil {
		h.writeError(c, err)
		return
	}

	result := make([]userResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, result)
}

// writeError maps service errors to HTTP statuses. Unrecognized errors are
// logged and reported as a bare 500 so internals never leak to clients.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "account already exists"})
	case errors.Is(err, common.ErrEmailHostUnreachable):
		c.JSON(http.StatusBadRequest, gin.H{"error": "email host is unreachable"})
	case errors.Is(err, common.ErrorAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, common.ErrorForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
