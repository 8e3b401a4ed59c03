package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims *JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

func accessClaims(userID string) *JWTClaims {
	return &JWTClaims{
		UserID:    userID,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func setupAuthRouter() *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(testSecret))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("userID")})
	})
	return r
}

func doAuthRequest(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.NewString()

	t.Run("valid token sets user", func(t *testing.T) {
		r := setupAuthRouter()
		rec := doAuthRequest(r, "Bearer "+signToken(t, testSecret, accessClaims(userID)))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if body := parseBody(t, rec); body["user_id"] != userID {
			t.Errorf("expected user %s, got %v", userID, body["user_id"])
		}
	})

	t.Run("subject fallback", func(t *testing.T) {
		claims := accessClaims("")
		claims.Subject = userID
		r := setupAuthRouter()
		rec := doAuthRequest(r, "Bearer "+signToken(t, testSecret, claims))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	tests := []struct {
		name   string
		header func(t *testing.T) string
	}{
		{"missing header", func(t *testing.T) string { return "" }},
		{"wrong scheme", func(t *testing.T) string { return "Basic abc" }},
		{"wrong secret", func(t *testing.T) string {
			return "Bearer " + signToken(t, "other", accessClaims(userID))
		}},
		{"expired", func(t *testing.T) string {
			claims := accessClaims(userID)
			claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
			return "Bearer " + signToken(t, testSecret, claims)
		}},
		{"refresh token", func(t *testing.T) string {
			claims := accessClaims(userID)
			claims.TokenType = "refresh"
			return "Bearer " + signToken(t, testSecret, claims)
		}},
		{"non uuid user", func(t *testing.T) string {
			return "Bearer " + signToken(t, testSecret, accessClaims("42"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupAuthRouter()
			rec := doAuthRequest(r, tt.header(t))

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			errObj, ok := parseBody(t, rec)["error"].(map[string]interface{})
			if !ok || errObj["code"] != "UNAUTHORIZED" {
				t.Errorf("expected UNAUTHORIZED error, got %v", rec.Body.String())
			}
		})
	}
}
