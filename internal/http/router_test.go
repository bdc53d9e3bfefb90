package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/splax/usersvc/internal/config"
	"github.com/splax/usersvc/internal/domain"
	"github.com/splax/usersvc/internal/repository"
	"github.com/splax/usersvc/internal/service/user"
	"github.com/splax/usersvc/internal/ws"
	jwtpkg "github.com/splax/usersvc/pkg/jwt"
)

const testSecret = "router-test-secret"

// userStoreFake enforces the same contract as the postgres store: records are
// validated before the write and user id uniqueness is guaranteed.
type userStoreFake struct {
	mu     sync.Mutex
	users  []domain.User
	nextID int64
}

func (f *userStoreFake) CreateUser(_ context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrInvalidUser, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.UserID == u.UserID {
			return repository.ErrDuplicateUserID
		}
	}
	f.nextID++
	u.ID = f.nextID
	f.users = append(f.users, *u)
	return nil
}

func (f *userStoreFake) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *userStoreFake) GetUserByUserID(_ context.Context, userID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.UserID == userID {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *userStoreFake) ListUsers(_ context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.User, len(f.users))
	copy(out, f.users)
	return out, nil
}

func (f *userStoreFake) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupRouter(t *testing.T) (*Router, *userStoreFake) {
	t.Helper()
	store := &userStoreFake{}
	cfg := config.Config{JWTSecret: testSecret, TokenTTL: time.Hour}
	hub := ws.NewHub()
	svc := user.New(store, hub, newLogger(), cfg)
	router := NewRouter(newLogger(), svc, hub, NewMemoryRateLimiter(), nil)
	t.Cleanup(func() {
		router.Close()
		hub.Close()
	})
	return router, store
}

func registrationBody() map[string]string {
	return map[string]string{
		"firstName":      "John",
		"lastName":       "Johnson",
		"email":          "test@test.com",
		"password":       "123456789",
		"repeatPassword": "123456789",
	}
}

func doJSON(t *testing.T, router *Router, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestCreateUserReturnsUserDetails(t *testing.T) {
	router, store := setupRouter(t)

	rr := doJSON(t, router, http.MethodPost, "/users", registrationBody(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var created userRest
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.FirstName != "John" || created.LastName != "Johnson" || created.Email != "test@test.com" {
		t.Fatalf("returned user details incorrect: %+v", created)
	}
	if strings.TrimSpace(created.UserID) == "" {
		t.Fatal("user id should not be empty")
	}
	if store.count() != 1 {
		t.Fatalf("expected one stored user, got %d", store.count())
	}

	stored, err := store.GetUserByUserID(context.Background(), created.UserID)
	if err != nil {
		t.Fatalf("stored user lookup: %v", err)
	}
	if string(stored.EncryptedPassword) == "123456789" {
		t.Fatal("password must not be stored as plaintext")
	}
}

func TestCreateUserRejectsPasswordMismatch(t *testing.T) {
	router, store := setupRouter(t)

	body := registrationBody()
	body["repeatPassword"] = "different"
	rr := doJSON(t, router, http.MethodPost, "/users", body, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if store.count() != 0 {
		t.Fatalf("no record should be created, got %d", store.count())
	}
}

func TestCreateUserRejectsOverlongFirstName(t *testing.T) {
	router, store := setupRouter(t)

	body := registrationBody()
	body["firstName"] = strings.Repeat("*", domain.NameMaxLen+1)
	rr := doJSON(t, router, http.MethodPost, "/users", body, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
	if store.count() != 0 {
		t.Fatalf("store must stay unchanged, got %d records", store.count())
	}
}

func TestCreateUserRejectsInvalidJSON(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestGetUsersWithoutTokenReturns403(t *testing.T) {
	router, _ := setupRouter(t)

	rr := doJSON(t, router, http.MethodGet, "/users", nil, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for missing token, got %d", rr.Code)
	}
}

func TestLoginReturnsTokenAndUserIDHeaders(t *testing.T) {
	router, _ := setupRouter(t)

	created := createTestUser(t, router)
	rr := doJSON(t, router, http.MethodPost, "/users/login", map[string]string{
		"email":    "test@test.com",
		"password": "123456789",
	}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	authHeader := rr.Header().Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		t.Fatalf("expected bearer Authorization header, got %q", authHeader)
	}
	if got := rr.Header().Get("UserID"); got != created.UserID {
		t.Fatalf("expected UserID header %q, got %q", created.UserID, got)
	}

	claims, err := jwtpkg.Parse(strings.TrimPrefix(authHeader, "Bearer "), testSecret)
	if err != nil {
		t.Fatalf("token in header should verify: %v", err)
	}
	if claims.UserID != created.UserID {
		t.Fatalf("token subject %q does not match user id %q", claims.UserID, created.UserID)
	}
}

func TestLoginRejectsBadCredentialsIdentically(t *testing.T) {
	router, _ := setupRouter(t)
	createTestUser(t, router)

	wrongPassword := doJSON(t, router, http.MethodPost, "/users/login", map[string]string{
		"email":    "test@test.com",
		"password": "wrong",
	}, nil)
	unknownEmail := doJSON(t, router, http.MethodPost, "/users/login", map[string]string{
		"email":    "nobody@test.com",
		"password": "123456789",
	}, nil)

	if wrongPassword.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both failures, got %d and %d", wrongPassword.Code, unknownEmail.Code)
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Fatalf("responses must not reveal which credential failed: %q vs %q",
			wrongPassword.Body.String(), unknownEmail.Body.String())
	}
	if wrongPassword.Header().Get("Authorization") != "" {
		t.Fatal("failed login must not return a token")
	}
}

func TestGetUsersWithValidTokenReturnsRegisteredUsers(t *testing.T) {
	router, _ := setupRouter(t)

	created := createTestUser(t, router)
	token := loginTestUser(t, router)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	rr := doJSON(t, router, http.MethodGet, "/users", nil, header)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var listed []map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected exactly 1 user, got %d", len(listed))
	}
	if listed[0]["userId"] != created.UserID {
		t.Fatalf("unexpected user id in listing: %v", listed[0]["userId"])
	}
	for key := range listed[0] {
		if strings.Contains(strings.ToLower(key), "password") {
			t.Fatalf("listing leaked password field %q", key)
		}
	}
}

func TestInvalidTokensRejectedSameAsMissing(t *testing.T) {
	router, _ := setupRouter(t)
	createTestUser(t, router)
	token := loginTestUser(t, router)

	missing := doJSON(t, router, http.MethodGet, "/users", nil, nil)

	tampered := token + "xx"
	header := http.Header{}
	header.Set("Authorization", "Bearer "+tampered)
	tamperedResp := doJSON(t, router, http.MethodGet, "/users", nil, header)

	expired, err := jwtpkg.GenerateToken("user-123", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("generate expired token: %v", err)
	}
	header = http.Header{}
	header.Set("Authorization", "Bearer "+expired)
	expiredResp := doJSON(t, router, http.MethodGet, "/users", nil, header)

	for name, rr := range map[string]*httptest.ResponseRecorder{
		"missing":  missing,
		"tampered": tamperedResp,
		"expired":  expiredResp,
	} {
		if rr.Code != http.StatusForbidden {
			t.Fatalf("%s token: expected 403, got %d", name, rr.Code)
		}
		if rr.Body.String() != missing.Body.String() {
			t.Fatalf("%s token: rejection body differs from missing-token body", name)
		}
	}
}

func TestSignupRateLimitReturns429(t *testing.T) {
	router, _ := setupRouter(t)

	var last *httptest.ResponseRecorder
	for i := 0; i <= rateLimitSignup; i++ {
		body := registrationBody()
		body["email"] = fmt.Sprintf("user%d@test.com", i)
		last = doJSON(t, router, http.MethodPost, "/users", body, nil)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exceeding signup limit, got %d", last.Code)
	}
	if last.Header().Get("X-RateLimit-Limit") == "" {
		t.Fatal("expected rate limit headers on limited response")
	}
}

func TestHealthzReportsDatabaseState(t *testing.T) {
	store := &userStoreFake{}
	cfg := config.Config{JWTSecret: testSecret, TokenTTL: time.Hour}
	svc := user.New(store, nil, newLogger(), cfg)
	router := NewRouter(newLogger(), svc, nil, NewMemoryRateLimiter(), func(context.Context) error {
		return nil
	})
	t.Cleanup(router.Close)

	rr := doJSON(t, router, http.MethodGet, "/healthz", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode healthz: %v", err)
	}
	if payload["status"] != "ok" {
		t.Fatalf("unexpected health status: %v", payload["status"])
	}
}

func createTestUser(t *testing.T, router *Router) userRest {
	t.Helper()
	rr := doJSON(t, router, http.MethodPost, "/users", registrationBody(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("setup registration failed with %d: %s", rr.Code, rr.Body.String())
	}
	var created userRest
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode created user: %v", err)
	}
	return created
}

func loginTestUser(t *testing.T, router *Router) string {
	t.Helper()
	rr := doJSON(t, router, http.MethodPost, "/users/login", map[string]string{
		"email":    "test@test.com",
		"password": "123456789",
	}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("setup login failed with %d: %s", rr.Code, rr.Body.String())
	}
	return strings.TrimPrefix(rr.Header().Get("Authorization"), "Bearer ")
}
