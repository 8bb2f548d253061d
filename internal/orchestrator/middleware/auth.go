package middleware

import (
	"time"

	"github.com/fleetops/fleetops/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the (principal_id, principal_kind) pair the rest of the
// auth boundary is built on (spec §6) — identity storage itself lives in
// an external service; this JWT is the only thing the core ever consults.
type Claims struct {
	PrincipalID   string `json:"principal_id"`
	PrincipalKind string `json:"principal_kind"`
	jwt.RegisteredClaims
}

// GenerateJWT mints a bearer token for an already-authenticated principal.
func GenerateJWT(principalID, principalKind string) (string, error) {
	cfg := common.GetConfig()
	claims := &Claims{
		PrincipalID:   principalID,
		PrincipalKind: principalKind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.JWTExpire)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTKey))
}

// JWTAuthMiddleware validates the bearer token and seeds the gin context
// with the caller's principal, transparently rolling the token forward
// when it's within the refresh window of expiring.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := common.GetConfig()
		tokenString, err := common.GetAuthorizationToken(c.GetHeader("Authorization"))
		if err != nil {
			common.Error(c, common.NewErrNo(common.TokenInvalid))
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTKey), nil
		})
		if err != nil || !token.Valid {
			common.Error(c, common.NewErrNo(common.TokenInvalid))
			c.Abort()
			return
		}

		if claims.ExpiresAt.Time.Before(time.Now().Add(cfg.JWTNewExpire)) {
			newToken, err := GenerateJWT(claims.PrincipalID, claims.PrincipalKind)
			if err == nil {
				c.Header("Authorization", "Bearer "+newToken)
			}
		}

		c.Set("principal_id", claims.PrincipalID)
		c.Set("principal_kind", claims.PrincipalKind)
		c.Next()
	}
}

// PrincipalFrom reads the authenticated principal out of the gin context.
func PrincipalFrom(c *gin.Context) (id, kind string) {
	if v, ok := c.Get("principal_id"); ok {
		id, _ = v.(string)
	}
	if v, ok := c.Get("principal_kind"); ok {
		kind, _ = v.(string)
	}
	return
}
