// internal/interfaces/http/handlers/helpers.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-cart/internal/domain/cart"
	"github.com/your-org/storefront-cart/internal/interfaces/http/middleware"
)

// parseIDParam reads a positive integer path parameter, writing a 400 when it
// is malformed
func parseIDParam(c *gin.Context, name, label string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + label + " ID",
		})
		return 0, false
	}
	return uint(id), true
}

// internalError logs err with request context and writes a 500
func internalError(c *gin.Context, log logrus.FieldLogger, message string, err error) {
	log.WithError(err).WithFields(logrus.Fields{
		"request_id": middleware.GetRequestID(c),
		"path":       c.FullPath(),
	}).Error(message)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": message,
	})
}

// loadCart builds the cart for the request session
func loadCart(c *gin.Context, keys cart.Keys, log logrus.FieldLogger) (*cart.Cart, bool) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Session not available",
		})
		return nil, false
	}

	crt, err := cart.New(sess, keys)
	if err != nil {
		internalError(c, log, "Failed to load cart", err)
		return nil, false
	}
	return crt, true
}
