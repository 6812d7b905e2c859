package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/filmeja/backend/pkg/res"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	authHeaderPrefix = "Bearer "

	contextUserIDKey    = "userID"
	contextUserEmailKey = "userEmail"
)

// TokenClaims клеймы токена платформы аутентификации.
// ID пользователя лежит в стандартном клейме sub.
type TokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenValidator интерфейс проверки bearer-токена
type TokenValidator interface {
	Validate(tokenString string) (*TokenClaims, error)
}

// JWTMiddleware проверяет bearer-токен и кладет личность пользователя в контекст
type JWTMiddleware struct {
	validator TokenValidator
	log       *zap.SugaredLogger
}

// NewJWTMiddleware создает новый middleware аутентификации
func NewJWTMiddleware(validator TokenValidator, log *zap.SugaredLogger) *JWTMiddleware {
	return &JWTMiddleware{
		validator: validator,
		log:       log,
	}
}

// RequireAuth отклоняет запросы без валидного bearer-токена
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.handleAuthError(c, "Missing authorization token")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, authHeaderPrefix)
		claims, err := m.validator.Validate(tokenString)
		if err != nil {
			m.handleAuthError(c, fmt.Sprintf("Token validation failed: %v", err))
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			m.handleAuthError(c, "User ID (sub) missing or malformed in token")
			return
		}

		c.Set(contextUserIDKey, userID)
		c.Set(contextUserEmailKey, claims.Email)
		m.log.Debugw("User authenticated", "user_id", userID)
		c.Next()
	}
}

func (m *JWTMiddleware) handleAuthError(c *gin.Context, message string) {
	m.log.Warnw("Authentication failed", "path", c.Request.URL.Path, "error", message)
	res.JsonResponse(c.Writer, res.ErrorResponse{
		Error: message,
		Code:  "unauthorized",
	}, http.StatusUnauthorized)
	c.Abort()
}

// UserID возвращает ID аутентифицированного пользователя из контекста
func UserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(contextUserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

// UserEmail возвращает email аутентифицированного пользователя из контекста
func UserEmail(c *gin.Context) (string, bool) {
	value, exists := c.Get(contextUserEmailKey)
	if !exists {
		return "", false
	}
	email, ok := value.(string)
	return email, ok
}

// DefaultTokenValidator реализация валидатора по умолчанию (HS256)
type DefaultTokenValidator struct {
	Secret []byte
}

// Validate проверяет подпись и срок действия токена
func (v *DefaultTokenValidator) Validate(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.Secret, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, errors.New("malformed token")
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, errors.New("invalid token signature")
		case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, errors.New("token expired")
		default:
			return nil, fmt.Errorf("invalid token: %w", err)
		}
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token claims")
}
