package ingestion

import (
	"crypto/subtle"
	"net/http"

	httperr "github.com/oa-device/oaParkingMonitor/internal/core/errors"

	"github.com/gin-gonic/gin"
)

// CustomerIDKey is the gin context key the auth middleware stores the
// caller's customer id under.
const CustomerIDKey = "customerID"

// HeaderAuth enforces the edge uploader header credentials.
//
// x-customer-id is always required and names the tenant the upload belongs
// to. x-api-key and x-secret-key are compared against the configured values
// when those are non-empty; an empty configured key disables that check,
// which is how local development runs without credentials.
func HeaderAuth(apiKey, secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID := c.GetHeader("x-customer-id")
		if customerID == "" {
			abortUnauthorized(c, "Missing x-customer-id header")
			return
		}

		if apiKey != "" && subtle.ConstantTimeCompare([]byte(c.GetHeader("x-api-key")), []byte(apiKey)) != 1 {
			abortUnauthorized(c, "Invalid x-api-key header")
			return
		}

		if secretKey != "" && subtle.ConstantTimeCompare([]byte(c.GetHeader("x-secret-key")), []byte(secretKey)) != 1 {
			abortUnauthorized(c, "Invalid x-secret-key header")
			return
		}

		c.Set(CustomerIDKey, customerID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, httperr.ErrorResponse{
		ErrorType: httperr.HttpUnauthorizedError,
		Message:   message,
	})
}
