package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing"

func TestGenerate_Success(t *testing.T) {
	m := NewManager(testSecret, 0)

	token, err := m.Generate("user-123", "test@example.com")

	require.NoError(t, err)
	assert.True(t, len(token) > 50, "JWT should be reasonably long")
	assert.Equal(t, 3, len(strings.Split(token, ".")), "JWT should have 3 parts")
}

func TestGenerate_MissingSecret(t *testing.T) {
	_, err := NewManager("", 0).Generate("user-123", "test@example.com")
	assert.ErrorIs(t, err, ErrMissingSecret)

	var m *Manager
	_, err = m.Validate("anything")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestGenerate_RequiresUserID(t *testing.T) {
	_, err := NewManager(testSecret, 0).Generate("", "test@example.com")
	assert.Error(t, err)
}

func TestValidate_ValidToken(t *testing.T) {
	m := NewManager(testSecret, 0)

	token, err := m.Generate("user-123", "test@example.com")
	require.NoError(t, err)

	claims, err := m.Validate(token)

	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, "user-123", claims.Subject)
}

func TestValidate_ExpiredToken(t *testing.T) {
	m := NewManager(testSecret, time.Hour)

	token, err := m.Generate("user-123", "test@example.com")
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired token should be rejected")
}

func TestValidate_TamperedToken(t *testing.T) {
	m := NewManager(testSecret, 0)

	token, err := m.Generate("user-123", "test@example.com")
	require.NoError(t, err)

	// tamper with the token by changing a character
	_, err = m.Validate(token[:len(token)-5] + "XXXXX")
	assert.Error(t, err, "tampered token should be rejected")
}

func TestValidate_WrongSecret(t *testing.T) {
	token, err := NewManager(testSecret, 0).Generate("user-123", "test@example.com")
	require.NoError(t, err)

	_, err = NewManager("different-secret-key", 0).Validate(token)
	assert.Error(t, err, "token signed with different secret should be rejected")
}

func TestValidate_AlgorithmConfusionAttack(t *testing.T) {
	claims := Claims{
		UserID: "attacker",
		Email:  "attacker@evil.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	tokenString, _ := token.SignedString(jwt.UnsafeAllowNoneSignatureType) //nolint:errcheck // test code

	_, err := NewManager(testSecret, 0).Validate(tokenString)
	assert.Error(t, err, "token with 'none' algorithm should be rejected")
}

func TestValidate_MalformedToken(t *testing.T) {
	m := NewManager(testSecret, 0)

	for _, token := range []string{
		"",
		"not.a.jwt",
		"only.two",
		"too.many.parts.in.this.token",
		"<script>alert('xss')</script>",
	} {
		_, err := m.Validate(token)
		assert.Error(t, err, "malformed token '%s' should be rejected", token)
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := NewManager(testSecret, 0)
	valid, err := m.Generate("user-123", "test@example.com")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/me", m.Middleware(), func(c *gin.Context) {
				userID, _ := GetUserID(c)
				c.String(http.StatusOK, userID)
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "user-123", w.Body.String())
			}
		})
	}
}

func TestOptionalMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := NewManager(testSecret, 0)
	valid, err := m.Generate("user-123", "")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/", m.OptionalMiddleware(), func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			userID = "anonymous"
		}
		c.String(http.StatusOK, userID)
	})

	for header, want := range map[string]string{
		"":                "anonymous",
		"Bearer garbage":  "anonymous",
		"Bearer " + valid: "user-123",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, w.Body.String())
	}
}
