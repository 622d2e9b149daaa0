package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/gadgetshop-backend/internal/app/service"
	apperrors "github.com/ikkim/gadgetshop-backend/internal/errors"
	"github.com/ikkim/gadgetshop-backend/internal/middleware"
	"github.com/ikkim/gadgetshop-backend/pkg/util"
)

// TokenRevoker blacklists access tokens until they expire.
type TokenRevoker interface {
	BlacklistToken(ctx context.Context, token string, expiry time.Duration) error
}

type AuthController struct {
	authService service.AuthService
	identity    service.IdentityService
	carts       service.CartService
	sessions    *middleware.IdentityMiddleware
	revoker     TokenRevoker
	jwtSecret   string
}

// NewAuthController wires the auth endpoints. revoker may be nil, in which
// case logout only discards the client's tokens.
func NewAuthController(
	authService service.AuthService,
	identity service.IdentityService,
	carts service.CartService,
	sessions *middleware.IdentityMiddleware,
	revoker TokenRevoker,
	jwtSecret string,
) *AuthController {
	return &AuthController{
		authService: authService,
		identity:    identity,
		carts:       carts,
		sessions:    sessions,
		revoker:     revoker,
		jwtSecret:   jwtSecret,
	}
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=150"`
	Email     string `json:"email" binding:"omitempty,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name" binding:"max=255"`
	LastName  string `json:"last_name" binding:"max=255"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Register handles user registration
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid registration data")
		return
	}

	user, tokens, err := ctrl.authService.Register(service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondServiceError(c, err, "create user")
		return
	}

	ctrl.mergeAnonymousCart(c, user.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
		"tokens":  tokens,
	})
}

// Login authenticates a user and moves the anonymous cart over
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "username and password are required")
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Username, req.Password)
	if err != nil {
		respondServiceError(c, err, "login")
		return
	}

	ctrl.mergeAnonymousCart(c, user.ID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"tokens":  tokens,
	})
}

// Refresh exchanges a refresh token for a new token pair
// POST /api/v1/auth/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "refresh_token is required")
		return
	}

	tokens, err := ctrl.authService.Refresh(req.RefreshToken)
	if err != nil {
		respondServiceError(c, err, "refresh token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Logout revokes the presented access token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	token := middleware.GetAccessToken(c)

	if ctrl.revoker != nil && token != "" {
		if claims, err := util.ValidateAccessToken(token, ctrl.jwtSecret); err == nil && claims.ExpiresAt != nil {
			remaining := time.Until(claims.ExpiresAt.Time)
			if remaining > 0 {
				if err := ctrl.revoker.BlacklistToken(c.Request.Context(), token, remaining); err != nil {
					log.Error("Failed to revoke token", err)
					apperrors.InternalError(c, "failed to log out, try again later")
					return
				}
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetMe returns the authenticated user
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		respondServiceError(c, err, "fetch user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// mergeAnonymousCart moves the cart of the visitor's anonymous session into
// the user's cart and ends that session. Failures are logged only; the
// login itself has already succeeded.
func (ctrl *AuthController) mergeAnonymousCart(c *gin.Context, userID uint) {
	anonToken, err := c.Cookie(ctrl.sessions.CookieName())
	if err != nil || anonToken == "" {
		return
	}

	log := middleware.GetLoggerFromContext(c)
	ctx := c.Request.Context()

	anonymous, err := ctrl.identity.FindAnonymousCustomer(ctx, anonToken)
	if err != nil || anonymous == nil {
		if err != nil {
			log.Warn("Failed to resolve anonymous session on login", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
		return
	}

	customer, err := ctrl.identity.GetOrCreateCustomer(ctx, userID)
	if err != nil {
		log.Error("Failed to provision customer on login", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	if _, err := ctrl.carts.MergeCarts(ctx, anonymous, customer); err != nil {
		log.Error("Failed to merge anonymous cart", err, map[string]interface{}{
			"user_id":               userID,
			"anonymous_customer_id": anonymous.ID,
		})
		return
	}

	if err := ctrl.identity.EndAnonymousSession(ctx, anonToken); err != nil {
		log.Warn("Failed to end anonymous session", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
	ctrl.sessions.ClearSessionCookie(c)
}
