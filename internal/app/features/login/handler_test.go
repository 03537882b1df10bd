package login_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/munawwara-care/mcadmin/internal/app/features/login"
	"github.com/munawwara-care/mcadmin/internal/app/system/auth"
	"github.com/munawwara-care/mcadmin/internal/app/system/metrics"
	"github.com/munawwara-care/mcadmin/internal/app/system/ratelimit"
	"github.com/munawwara-care/mcadmin/internal/domain/models"
	"github.com/munawwara-care/mcadmin/internal/testutil"
	"github.com/munawwara-care/mcadmin/internal/testutil/memstore"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

const secret = "login-handler-test-secret-0123456789abcdef"

type env struct {
	h     *login.Handler
	m     *metrics.Metrics
	admin models.User
}

func newEnv(t *testing.T, limiter ratelimit.Limiter) *env {
	t.Helper()
	db := memstore.New()
	admin := db.PutUser(models.User{
		FullName: "Site Admin",
		Email:    "admin@munawwara.test",
		Password: testutil.HashPassword(t, "s3cret"),
		Role:     models.RoleAdmin,
		Active:   true,
	})
	db.PutUser(models.User{
		FullName: "Mod",
		Email:    "mod@munawwara.test",
		Password: testutil.HashPassword(t, "modpw"),
		Role:     models.RoleModerator,
		Active:   true,
	})
	gw, err := auth.NewGateway(secret, 0, db.Users, zap.NewNop())
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	m := metrics.New(prometheus.NewRegistry())
	h := login.NewHandler(gw, limiter, time.Minute, nil, m, zap.NewNop())
	return &env{h: h, m: m, admin: admin}
}

func post(t *testing.T, h http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", body))
	return rec
}

func TestHandleLogin_Success(t *testing.T) {
	e := newEnv(t, nil)

	rec := post(t, login.Routes(e.h), map[string]string{
		"email":    " Admin@Munawwara.test ",
		"password": "s3cret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}

	body := testutil.DecodeJSON(t, rec)
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	if body["message"] != "Admin Login Successful" {
		t.Errorf("message = %v", body["message"])
	}
	if tok, _ := body["token"].(string); tok == "" {
		t.Error("expected a token")
	}
	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("user = %T, want object", body["user"])
	}
	if user["id"] != e.admin.ID.Hex() || user["email"] != "admin@munawwara.test" || user["role"] != "admin" {
		t.Errorf("user = %v", user)
	}
	if _, leaked := user["password"]; leaked {
		t.Error("password must not be returned")
	}
	if got := promtest.ToFloat64(e.m.LoginAttempts.WithLabelValues(metrics.LoginSuccess)); got != 1 {
		t.Errorf("success counter = %v, want 1", got)
	}
}

func TestHandleLogin_TokenOpensAdminRoutes(t *testing.T) {
	e := newEnv(t, nil)

	rec := post(t, login.Routes(e.h), map[string]string{"email": "admin@munawwara.test", "password": "s3cret"})
	token := testutil.DecodeJSON(t, rec)["token"].(string)

	guarded := e.h.Gateway.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := auth.CurrentUser(r)
		_, _ = w.Write([]byte(p.ID))
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	out := httptest.NewRecorder()
	guarded.ServeHTTP(out, req)

	if out.Code != http.StatusOK || out.Body.String() != e.admin.ID.Hex() {
		t.Errorf("guarded route: %d %q", out.Code, out.Body.String())
	}
}

func TestHandleLogin_Failures(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		status  int
		message string
		outcome string
	}{
		{"missing password", map[string]string{"email": "admin@munawwara.test"}, http.StatusBadRequest, "Please provide email and password", metrics.LoginMissingFields},
		{"empty body", nil, http.StatusBadRequest, "Please provide email and password", metrics.LoginMissingFields},
		{"unknown email", map[string]string{"email": "nobody@munawwara.test", "password": "x"}, http.StatusUnauthorized, "Invalid credentials", metrics.LoginInvalid},
		{"wrong password", map[string]string{"email": "admin@munawwara.test", "password": "nope"}, http.StatusUnauthorized, "Invalid credentials", metrics.LoginInvalid},
		{"moderator", map[string]string{"email": "mod@munawwara.test", "password": "modpw"}, http.StatusForbidden, "Access denied. Admins only.", metrics.LoginForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, nil)

			rec := post(t, login.Routes(e.h), tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d; body=%s", rec.Code, tt.status, rec.Body.String())
			}
			body := testutil.DecodeJSON(t, rec)
			if body["success"] != false {
				t.Errorf("success = %v, want false", body["success"])
			}
			if body["message"] != tt.message {
				t.Errorf("message = %v, want %q", body["message"], tt.message)
			}
			if _, ok := body["token"]; ok {
				t.Error("no token expected on failure")
			}
			if got := promtest.ToFloat64(e.m.LoginAttempts.WithLabelValues(tt.outcome)); got != 1 {
				t.Errorf("%s counter = %v, want 1", tt.outcome, got)
			}
		})
	}
}

func TestHandleLogin_MalformedJSON(t *testing.T) {
	e := newEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	login.Routes(e.h).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg := testutil.DecodeJSON(t, rec)["message"]; msg != "Invalid JSON body" {
		t.Errorf("message = %v", msg)
	}
}

func TestRoutes_RateLimited(t *testing.T) {
	limiter := ratelimit.NewMemory(2, time.Minute)
	defer limiter.Close()
	e := newEnv(t, limiter)
	r := login.Routes(e.h)

	creds := map[string]string{"email": "admin@munawwara.test", "password": "nope"}
	for i := 0; i < 2; i++ {
		if rec := post(t, r, creds); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i+1, rec.Code)
		}
	}

	rec := post(t, r, creds)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
	if got := promtest.ToFloat64(e.m.LoginAttempts.WithLabelValues(metrics.LoginRateLimited)); got != 1 {
		t.Errorf("rate_limited counter = %v, want 1", got)
	}
}
