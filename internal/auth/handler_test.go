package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/translation-arena/backend/internal/database"
	"github.com/translation-arena/backend/internal/middleware"
	"github.com/translation-arena/backend/internal/models"
)

var secret = []byte("auth-test-secret")

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	db, err := database.Connect(database.DriverSQLite, database.SQLiteDSN(filepath.Join(t.TempDir(), "auth.db")))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db, database.DriverSQLite))

	h := NewHandler(db, secret, time.Hour)
	r := mux.NewRouter()
	r.HandleFunc("/auth/register", h.Register).Methods("POST")
	r.HandleFunc("/auth/login", h.Login).Methods("POST")
	r.Handle("/auth/me", middleware.Auth(secret)(http.HandlerFunc(h.GetCurrentUser))).Methods("GET")
	return r
}

func post(r http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", path, bytes.NewReader(b)))
	return rec
}

func TestRegisterLoginMe(t *testing.T) {
	r := newTestRouter(t)

	rec := post(r, "/auth/register", models.RegisterRequest{Email: " Layla@Example.com ", Name: "Layla Haddad", Password: "correct horse"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var reg models.AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reg))
	assert.Equal(t, "layla@example.com", reg.User.Email)
	assert.Regexp(t, `^laylahaddad\d{4}$`, reg.User.Username)

	claims, err := middleware.ParseToken(secret, reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.Username, claims.Username)

	rec = post(r, "/auth/login", models.LoginRequest{Email: "layla@example.com", Password: "correct horse"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login models.AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&login))
	assert.Equal(t, reg.User.ID, login.User.ID)

	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	me := httptest.NewRecorder()
	r.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), reg.User.Username)
}

func TestRegister_Errors(t *testing.T) {
	r := newTestRouter(t)
	require.Equal(t, http.StatusCreated,
		post(r, "/auth/register", models.RegisterRequest{Email: "a@b.c", Name: "Amal", Password: "12345678"}).Code)

	tests := []struct {
		name string
		req  models.RegisterRequest
		want int
	}{
		{"missing name", models.RegisterRequest{Email: "x@y.z", Password: "12345678"}, http.StatusBadRequest},
		{"short password", models.RegisterRequest{Email: "x@y.z", Name: "X", Password: "short"}, http.StatusBadRequest},
		{"duplicate email", models.RegisterRequest{Email: "A@B.C", Name: "Other", Password: "12345678"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, post(r, "/auth/register", tt.req).Code)
		})
	}
}

func TestLogin_Rejects(t *testing.T) {
	r := newTestRouter(t)
	post(r, "/auth/register", models.RegisterRequest{Email: "a@b.c", Name: "Amal", Password: "12345678"})

	assert.Equal(t, http.StatusUnauthorized, post(r, "/auth/login", models.LoginRequest{Email: "a@b.c", Password: "wrong-password"}).Code)
	assert.Equal(t, http.StatusUnauthorized, post(r, "/auth/login", models.LoginRequest{Email: "no@one.x", Password: "12345678"}).Code)
	assert.Equal(t, http.StatusBadRequest, post(r, "/auth/login", models.LoginRequest{Email: "a@b.c"}).Code)
}

func TestUniqueViolation(t *testing.T) {
	pg := errors.New(`pq: duplicate key value violates unique constraint "users_username_key"`)
	lite := errors.New("UNIQUE constraint failed: users.email")

	assert.True(t, uniqueViolation(pg, "username"))
	assert.False(t, uniqueViolation(pg, "email"))
	assert.True(t, uniqueViolation(lite, "email"))
	assert.False(t, uniqueViolation(lite, "username"))
}
