package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/danghoangviet/Twitter-Api-Clone/pkg/config"
	"github.com/danghoangviet/Twitter-Api-Clone/pkg/errno"
	"github.com/danghoangviet/Twitter-Api-Clone/pkg/restapi"
)

// AccessTokenClaims 访问令牌声明
type AccessTokenClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// AuthMiddleware 校验 Authorization Bearer 访问令牌
func AuthMiddleware(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" || token == header {
			restapi.Failed(c, errno.ErrTokenInvalid)
			c.Abort()
			return
		}

		claims := &AccessTokenClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errno.ErrTokenInvalid
			}
			return []byte(cfg.Secret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				restapi.Failed(c, errno.ErrTokenExpired)
			} else {
				restapi.Failed(c, errno.ErrTokenInvalid)
			}
			c.Abort()
			return
		}
		if !parsed.Valid {
			restapi.Failed(c, errno.ErrTokenInvalid)
			c.Abort()
			return
		}
		if cfg.Issuer != "" {
			if iss, _ := claims.GetIssuer(); iss != cfg.Issuer {
				restapi.Failed(c, errno.ErrTokenInvalid)
				c.Abort()
				return
			}
		}

		if claims.UserID != "" {
			c.Set("user_uuid", claims.UserID)
		}
		c.Next()
	}
}
