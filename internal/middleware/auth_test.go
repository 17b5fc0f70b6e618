package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(secret, zap.NewNop()))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString(ContextUserID), "role": c.GetString(ContextRole)})
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	valid := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"employeeId": "EMP7",
		"role":       "employee",
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
	expired := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"id":  "admin-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"id": "admin-1"})
	noSubject := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"role": "admin"})

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{"bearer header", "/me", "Bearer " + valid, http.StatusOK},
		{"query token", "/me?token=" + valid, "", http.StatusOK},
		{"missing token", "/me", "", http.StatusUnauthorized},
		{"expired", "/me", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong key", "/me", "Bearer " + wrongKey, http.StatusUnauthorized},
		{"no user claim", "/me", "Bearer " + noSubject, http.StatusUnauthorized},
	}

	r := newRouter(testSecret)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestJWTAuthSetsContext(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"employeeId": "EMP7", "role": "employee"})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	newRouter(testSecret).ServeHTTP(w, req)

	if body := w.Body.String(); body != `{"role":"employee","user":"EMP7"}` {
		t.Errorf("body = %s", body)
	}
}

func TestJWTAuthDisabledWithoutSecret(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	newRouter("").ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
