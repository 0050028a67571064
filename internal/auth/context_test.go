package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithUserIDAndGetUserIDFromContext(t *testing.T) {
	t.Run("Store and retrieve user ID from context", func(t *testing.T) {
		ctx := WithUserID(context.Background(), "user-123")

		retrievedID, err := GetUserIDFromContext(ctx)
		assert.NoError(t, err)
		assert.Equal(t, "user-123", retrievedID)
	})

	t.Run("Error when user ID not in context", func(t *testing.T) {
		_, err := GetUserIDFromContext(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not found in context")
	})

	t.Run("Error when context value is not a string", func(t *testing.T) {
		// Создаем контекст с неправильным типом значения
		ctx := context.WithValue(context.Background(), userIDKey, 42)

		_, err := GetUserIDFromContext(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not found in context")
	})

	t.Run("Error when user ID is empty", func(t *testing.T) {
		_, err := GetUserIDFromContext(WithUserID(context.Background(), ""))
		assert.Error(t, err)
	})
}

func TestExtractTokenFromHeader(t *testing.T) {
	t.Run("Valid Bearer token", func(t *testing.T) {
		assert.Equal(t, "token123", extractTokenFromHeader("Bearer token123"))
	})

	t.Run("Invalid format - no Bearer prefix", func(t *testing.T) {
		assert.Equal(t, "", extractTokenFromHeader("NotBearer token123"))
	})

	t.Run("Invalid format - no space", func(t *testing.T) {
		assert.Equal(t, "", extractTokenFromHeader("Bearertoken123"))
	})

	t.Run("Empty header", func(t *testing.T) {
		assert.Equal(t, "", extractTokenFromHeader(""))
	})
}

func TestIssueToken(t *testing.T) {
	secret := []byte("test_jwt_secret")

	t.Run("Issued token carries the user id", func(t *testing.T) {
		tokenString, err := IssueToken(secret, "user-1", "alice", time.Now())
		require.NoError(t, err)

		userID, err := parseUserID(tokenString, secret)
		require.NoError(t, err)
		assert.Equal(t, "user-1", userID)
	})

	t.Run("Empty secret is rejected", func(t *testing.T) {
		_, err := IssueToken(nil, "user-1", "alice", time.Now())
		assert.Error(t, err)
	})
}

func TestAuthMiddleware(t *testing.T) {
	// Создаем тестовый обработчик, который будет проверять наличие userID в контексте
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := GetUserIDFromContext(r.Context())
		if err == nil {
			fmt.Fprintf(w, "User ID: %s", userID)
		} else {
			fmt.Fprint(w, "No user ID in context")
		}
	})

	testSecret := []byte("test_jwt_secret")
	handler := AuthMiddleware(testSecret)(testHandler)

	sign := func(t *testing.T, claims jwt.MapClaims, secret []byte) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenString, err := token.SignedString(secret)
		require.NoError(t, err)
		return tokenString
	}

	serve := func(h http.Handler, authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	t.Run("Valid token", func(t *testing.T) {
		tokenString := sign(t, jwt.MapClaims{
			"user_id":  "123",
			"username": "testuser",
			"exp":      time.Now().Add(time.Hour).Unix(),
		}, testSecret)

		w := serve(handler, "Bearer "+tokenString)
		assert.Equal(t, "User ID: 123", w.Body.String())
	})

	t.Run("Invalid token signature", func(t *testing.T) {
		tokenString := sign(t, jwt.MapClaims{
			"user_id": "123",
			"exp":     time.Now().Add(time.Hour).Unix(),
		}, []byte("wrong_secret"))

		w := serve(handler, "Bearer "+tokenString)
		assert.Equal(t, "No user ID in context", w.Body.String())
	})

	t.Run("Expired token", func(t *testing.T) {
		tokenString := sign(t, jwt.MapClaims{
			"user_id": "123",
			"exp":     time.Now().Add(-time.Hour).Unix(),
		}, testSecret)

		w := serve(handler, "Bearer "+tokenString)
		assert.Equal(t, "No user ID in context", w.Body.String())
	})

	t.Run("Numeric user_id claim is ignored", func(t *testing.T) {
		tokenString := sign(t, jwt.MapClaims{
			"user_id": float64(123),
			"exp":     time.Now().Add(time.Hour).Unix(),
		}, testSecret)

		w := serve(handler, "Bearer "+tokenString)
		assert.Equal(t, "No user ID in context", w.Body.String())
	})

	t.Run("No token", func(t *testing.T) {
		w := serve(handler, "")
		assert.Equal(t, "No user ID in context", w.Body.String())
	})

	t.Run("Invalid token format", func(t *testing.T) {
		w := serve(handler, "InvalidFormat")
		assert.Equal(t, "No user ID in context", w.Body.String())
	})

	t.Run("No JWT secret", func(t *testing.T) {
		tokenString := sign(t, jwt.MapClaims{
			"user_id": "123",
			"exp":     time.Now().Add(time.Hour).Unix(),
		}, testSecret)

		w := serve(AuthMiddleware(nil)(testHandler), "Bearer "+tokenString)

		// Проверяем статус код 500
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "JWT secret not set")
	})
}
