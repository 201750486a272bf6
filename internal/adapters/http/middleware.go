package http

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/adapters/signal"
	"github.com/dkeye/Relay/internal/core"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/ratelimit"
)

const sessionUserKey = "user_id"

// Authenticate resolves the caller from a bearer token or, failing that, the
// session cookie. It never rejects; RequireUser does.
func Authenticate(id core.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" && id != nil {
			if !strings.HasPrefix(header, "Bearer ") {
				abortError(c, domain.ErrUnauthorized)
				return
			}
			uid, err := id.Verify(header)
			if err != nil {
				log.Debug().Err(err).Str("module", "adapters.http").Msg("bearer rejected")
				abortError(c, err)
				return
			}
			c.Set(signal.ContextUserKey, uid)
			c.Next()
			return
		}

		if raw, ok := sessions.Default(c).Get(sessionUserKey).(string); ok {
			if uid, err := domain.ParseUserID(raw); err == nil {
				c.Set(signal.ContextUserKey, uid)
			}
		}
		c.Next()
	}
}

func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUser(c); !ok {
			abortError(c, domain.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// RateLimit throttles state-changing requests per client address.
func RateLimit(l ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}
		if !l.Allow(c.Request.Context(), "ip:"+c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited", "message": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) (domain.UserID, bool) {
	v, ok := c.Get(signal.ContextUserKey)
	if !ok {
		return 0, false
	}
	uid, ok := v.(domain.UserID)
	return uid, ok && uid != 0
}

func openSession(c *gin.Context) {
	uid, _ := currentUser(c)
	s := sessions.Default(c)
	s.Set(sessionUserKey, uid.String())
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store_failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": uid})
}

func closeSession(c *gin.Context) {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = s.Save()
	c.Status(http.StatusNoContent)
}
