package api

import (
	"errors"
	"strings"

	"github.com/MyelinBots/bloom-go/internal/apperrors"
	"github.com/MyelinBots/bloom-go/internal/logger"
	"github.com/MyelinBots/bloom-go/internal/services/context_manager"
	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errUnauthenticated = apperrors.New(apperrors.CodeUnauthorized, "missing or invalid token")

// AuthMiddleware verifies HS256 bearer tokens whose subject is the user id.
// Tokens are issued elsewhere.
type AuthMiddleware struct {
	secret []byte
	log    *logger.Logger
}

func NewAuthMiddleware(secret string, baseLog *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		secret: []byte(secret),
		log:    baseLog.With("middleware", "AuthMiddleware"),
	}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := am.authenticate(c.GetHeader("Authorization"))
		if err != nil {
			am.log.Debug("rejected token", "error", err)
			RespondError(c, am.log, errUnauthenticated)
			return
		}
		c.Request = c.Request.WithContext(context_manager.SetUserContext(c.Request.Context(), userID))
		c.Next()
	}
}

func (am *AuthMiddleware) authenticate(header string) (uuid.UUID, error) {
	if len(am.secret) == 0 {
		return uuid.Nil, errors.New("no signing secret configured")
	}
	if len(header) <= 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return uuid.Nil, errors.New("missing bearer token")
	}
	claims := &gojwt.RegisteredClaims{}
	_, err := gojwt.ParseWithClaims(header[7:], claims, func(*gojwt.Token) (interface{}, error) {
		return am.secret, nil
	}, gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}), gojwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(claims.Subject)
}

// currentUser returns the id RequireAuth put on the request.
func currentUser(c *gin.Context) uuid.UUID {
	id, _ := context_manager.GetUserFromContext(c.Request.Context())
	return id
}
