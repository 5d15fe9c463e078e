package webserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/overruled-app/overruled/src/courtapi/types"
)

// The session token is the client-side binding {caseId, role, session}: a
// reconnection convenience with no security weight beyond possession of the
// opaque session id, which is re-validated against the case record on every
// request.

func issueSessionJWT(caseID string, role types.Party, sessionID string, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"caseId":  caseID,
		"role":    string(role),
		"session": sessionID,
		"iat":     time.Now().Unix(),
	})
	return token.SignedString(secret)
}

func SessionMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		tok, err := jwt.Parse(h[7:], func(t *jwt.Token) (interface{}, error) { return secret, nil })
		if err != nil || !tok.Valid {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set("caseId", str(claims["caseId"]))
		c.Set("role", str(claims["role"]))
		c.Set("session", str(claims["session"]))
		c.Next()
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
