package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/gadgetshop-backend/config"
	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/app/service"
	apperrors "github.com/ikkim/gadgetshop-backend/internal/errors"
)

const (
	CustomerKey    = "customer"
	AnonSessionKey = "anon_session_token"
)

// IdentityMiddleware attaches the acting Customer to every storefront request.
// Registered users are identified by their JWT, everyone else by the
// anonymous session cookie, which is issued on first contact.
type IdentityMiddleware struct {
	identity service.IdentityService
	cookie   config.SessionConfig
}

func NewIdentityMiddleware(identity service.IdentityService, cookie config.SessionConfig) *IdentityMiddleware {
	return &IdentityMiddleware{identity: identity, cookie: cookie}
}

func (m *IdentityMiddleware) ResolveCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		var userID *uint
		if id, ok := GetUserID(c); ok {
			userID = &id
		}
		anonToken, _ := c.Cookie(m.cookie.CookieName)

		resolved, err := m.identity.ResolveCustomer(c.Request.Context(), userID, anonToken)
		if err != nil {
			log.Error("Failed to resolve customer", err, map[string]interface{}{
				"authenticated": userID != nil,
			})
			apperrors.InternalError(c, "")
			c.Abort()
			return
		}

		if resolved.IssuedSession {
			m.SetSessionCookie(c, resolved.SessionToken)
		}
		if resolved.SessionToken != "" {
			c.Set(AnonSessionKey, resolved.SessionToken)
		} else if anonToken != "" {
			c.Set(AnonSessionKey, anonToken)
		}
		c.Set(CustomerKey, resolved.Customer)
		c.Next()
	}
}

func (m *IdentityMiddleware) SetSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.CookieName, token, int(m.cookie.TTL.Seconds()), "/", "", m.cookie.CookieSecure, true)
}

func (m *IdentityMiddleware) ClearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.CookieName, "", -1, "/", "", m.cookie.CookieSecure, true)
}

// GetCustomer returns the customer attached by ResolveCustomer.
func GetCustomer(c *gin.Context) (*model.Customer, bool) {
	v, exists := c.Get(CustomerKey)
	if !exists {
		return nil, false
	}
	customer, ok := v.(*model.Customer)
	return customer, ok && customer != nil
}

// GetAnonymousSession returns the anonymous session token seen on this
// request, if any.
func GetAnonymousSession(c *gin.Context) string {
	return c.GetString(AnonSessionKey)
}

func (m *IdentityMiddleware) CookieName() string {
	return m.cookie.CookieName
}
