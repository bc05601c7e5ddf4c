// internal/interfaces/http/middleware/session.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-cart/internal/config"
	"github.com/your-org/storefront-cart/internal/domain/session"
)

const ctxKeySession = "session"

// Session loads the session named by the session cookie, exposes it to
// handlers and saves it afterwards when it was modified. A modified session
// left without values is destroyed instead. Load failures abort with 500;
// save failures are logged only.
func Session(store session.Store, cfg config.SessionConfig, log logrus.FieldLogger) gin.HandlerFunc {
	maxAge := int(cfg.TTL.Seconds())

	return func(c *gin.Context) {
		id, _ := c.Cookie(cfg.CookieName)

		sess, err := store.Load(c.Request.Context(), id)
		if err != nil {
			log.WithError(err).WithField("request_id", GetRequestID(c)).Error("Failed to load session")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load session",
			})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cfg.CookieName, sess.ID, maxAge, "/", "", cfg.CookieSecure, true)
		c.Set(ctxKeySession, sess)

		c.Next()

		if !sess.Modified() {
			return
		}

		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 3*time.Second)
		defer cancel()

		if len(sess.Keys()) == 0 {
			if sess.IsNew() {
				return
			}
			if err := store.Destroy(ctx, sess.ID); err != nil && !errors.Is(err, session.ErrSessionNotFound) {
				log.WithError(err).WithFields(logrus.Fields{
					"request_id": GetRequestID(c),
					"session_id": sess.ID,
				}).Error("Failed to destroy session")
			}
			return
		}

		if err := store.Save(ctx, sess); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"request_id": GetRequestID(c),
				"session_id": sess.ID,
			}).Error("Failed to save session")
		}
	}
}

// GetSession returns the session set by the Session middleware
func GetSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(ctxKeySession)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}
