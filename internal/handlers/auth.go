package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SAP-F-2025/quiz-attempt-service/internal/models"
	"github.com/SAP-F-2025/quiz-attempt-service/internal/services"
	"github.com/SAP-F-2025/quiz-attempt-service/internal/utils"
)

const (
	actorKey  = "actor"
	userIDKey = "user_id"

	teacherRoleName = "teacher"
)

var ErrMissingToken = errors.New("missing bearer token")

// TokenParser turns a bearer token into the caller identity.
type TokenParser interface {
	ParseActor(token string) (models.Actor, error)
}

// CasdoorTokenParser validates casdoor-issued JWTs. casdoorsdk.InitConfig must
// have been called first.
type CasdoorTokenParser struct{}

func (CasdoorTokenParser) ParseActor(token string) (models.Actor, error) {
	claims, err := casdoorsdk.ParseJwtToken(token)
	if err != nil {
		return models.Actor{}, err
	}

	roleNames := make([]string, 0, len(claims.Roles))
	for _, role := range claims.Roles {
		if role != nil {
			roleNames = append(roleNames, role.Name)
		}
	}
	return models.Actor{
		ID:   claims.Id,
		Role: roleFromClaims(claims.IsAdmin, roleNames),
	}, nil
}

// roleFromClaims maps casdoor user flags onto our roles. Anyone without the
// admin flag or a teacher role is a student.
func roleFromClaims(isAdmin bool, roleNames []string) models.UserRole {
	if isAdmin {
		return models.RoleAdmin
	}
	for _, name := range roleNames {
		if strings.EqualFold(name, teacherRoleName) {
			return models.RoleTeacher
		}
	}
	return models.RoleStudent
}

// RequestID propagates X-Request-ID, generating one when the caller sent none.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(utils.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(utils.RequestIDKey, requestID)
		c.Writer.Header().Set(utils.RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// AuthMiddleware resolves the actor once per request.
func AuthMiddleware(parser TokenParser, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var actor models.Actor
			actor, err = parser.ParseActor(token)
			if err == nil && actor.ID != "" {
				c.Set(actorKey, actor)
				c.Set(userIDKey, actor.ID)
				c.Next()
				return
			}
		}

		logger.Warn("Rejected unauthenticated request",
			"path", c.Request.URL.Path,
			"request_id", c.GetString(utils.RequestIDKey),
			"error", err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
			Code:    "UNAUTHORIZED",
		})
	}
}

func bearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(header[len(prefix):]), nil
}

// ActorFromContext returns the actor set by AuthMiddleware.
func ActorFromContext(c *gin.Context) (models.Actor, bool) {
	value, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := value.(models.Actor)
	return actor, ok
}
