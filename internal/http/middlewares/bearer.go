package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MarlinZapp/wishes-server/internal/auth"
)

// RequireCredential extracts the raw bearer credential and stashes it on the
// context. It deliberately does NOT verify the token; verification is the
// session guard's first step, so a bad token fails exactly where the binding
// would have happened.
func RequireCredential() gin.HandlerFunc {
	return func(c *gin.Context) {
		cred, err := auth.FromHeader(c.Request.Header)

		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing or invalid Authorization header",
				},
			})
			return
		}

		c.Set(CtxCredential, cred)

		c.Next()
	}
}

// CredentialFromContext returns the raw credential RequireCredential stored.
func CredentialFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxCredential)

	if !ok {
		return "", false
	}

	cred, ok := v.(string)

	return cred, ok
}
