package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/inamate/nestboard/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc := NewService(st, "test-secret")
	svc.cost = bcrypt.MinCost
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	reg, err := svc.Register(ctx, "ada@example.com", "correct horse", "Ada")
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "ada@example.com", reg.User.Email)

	userID, err := svc.ValidateToken(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, userID)

	login, err := svc.Login(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "ada@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Register(ctx, "ada@example.com", "another one", "Ada 2")
	assert.ErrorIs(t, err, ErrEmailTaken)

	u, err := svc.GetUser(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.DisplayName)

	_, err = svc.GetUser(ctx, "user_missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestValidateTokenRejects(t *testing.T) {
	svc := newTestService(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user_1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	expiredStr, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	otherKey := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user_1"})
	otherKeyStr, err := otherKey.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "nestboard",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	noSubjectStr, err := noSubject.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	otherIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "someone-else",
		"sub": "user_1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	otherIssuerStr, err := otherIssuer.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"iss": "nestboard", "sub": "user_1"})
	noExpiryStr, err := noExpiry.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	otherMethod := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"iss": "nestboard",
		"sub": "user_1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	otherMethodStr, err := otherMethod.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", expiredStr},
		{"wrong key", otherKeyStr},
		{"missing subject", noSubjectStr},
		{"other issuer", otherIssuerStr},
		{"no expiry", noExpiryStr},
		{"other method", otherMethodStr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.IssueToken("user_1")
	require.NoError(t, err)

	var seen string
	h := svc.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/boards", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, "user_1", seen)
			} else {
				assert.Empty(t, seen)
			}
		})
	}
}

func TestHandlerRegisterValidation(t *testing.T) {
	h := NewHandler(newTestService(t))

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"bad json", "{", http.StatusBadRequest},
		{"missing fields", `{"email":"a@example.com"}`, http.StatusBadRequest},
		{"short password", `{"email":"a@example.com","password":"short","displayName":"A"}`, http.StatusBadRequest},
		{"ok", `{"email":"a@example.com","password":"long enough","displayName":"A"}`, http.StatusCreated},
		{"taken", `{"email":"a@example.com","password":"long enough","displayName":"A"}`, http.StatusConflict},
		{"taken in another case", `{"email":" A@Example.com","password":"long enough","displayName":"A"}`, http.StatusConflict},
		{"blank display name", `{"email":"b@example.com","password":"long enough","displayName":"  "}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			h.Register(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHandlerLoginAndMe(t *testing.T) {
	svc := newTestService(t)
	h := NewHandler(svc)
	_, err := svc.Register(context.Background(), "ada@example.com", "correct horse", "Ada")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		bytes.NewBufferString(`{"email":"ada@example.com","password":"correct horse"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var result AuthResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))

	me := svc.AuthMiddleware(http.HandlerFunc(h.Me))
	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+result.Token)
	rec = httptest.NewRecorder()
	me.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var user User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
	assert.Equal(t, "Ada", user.DisplayName)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/login",
		bytes.NewBufferString(`{"email":"ada@example.com","password":"nope nope"}`))
	rec = httptest.NewRecorder()
	h.Login(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		header string
		want   string
		ok     bool
	}{
		{"bearer header", http.MethodPost, "/api/boards", "Bearer abc", "abc", true},
		{"lowercase scheme", http.MethodGet, "/api/boards", "bearer abc", "abc", true},
		{"query on get", http.MethodGet, "/ws/board/b?token=xyz", "", "xyz", true},
		{"header wins over query", http.MethodGet, "/x?token=xyz", "Bearer abc", "abc", true},
		{"query ignored on post", http.MethodPost, "/x?token=xyz", "", "", false},
		{"empty bearer", http.MethodGet, "/x", "Bearer ", "", false},
		{"nothing", http.MethodGet, "/x", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, err := TokenFromRequest(req)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
