package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/munawwara-care/mcadmin/internal/app/system/auth"
	"github.com/munawwara-care/mcadmin/internal/app/workflow"
	"github.com/munawwara-care/mcadmin/internal/domain/models"
	"github.com/munawwara-care/mcadmin/internal/testutil/memstore"
	"go.uber.org/zap"
)

// TestJWTSecret signs tokens in handler tests.
const TestJWTSecret = "handler-test-secret-0123456789abcdefghij"

// Harness is an in-memory admin backend: a workflow service over memstore,
// a gateway and a signed-in admin.
type Harness struct {
	DB      *memstore.DB
	Svc     *workflow.Service
	Gateway *auth.Gateway
	Admin   models.User
	Token   string
}

// NewHarness seeds one admin and issues a token for it.
func NewHarness(t *testing.T) *Harness {
	t.Helper()
	db := memstore.New()
	admin := db.PutUser(models.User{
		FullName: "Site Admin",
		Email:    "admin@munawwara.test",
		Password: HashPassword(t, "s3cret"),
		Role:     models.RoleAdmin,
		Active:   true,
	})

	gw, err := auth.NewGateway(TestJWTSecret, 0, db.Users, zap.NewNop())
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	token, err := gw.IssueToken(&admin)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	svc := workflow.New(db.Users, db.Pilgrims, db.Requests, db.Groups, zap.NewNop())
	svc.Tx = db.Tx()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return base }

	return &Harness{DB: db, Svc: svc, Gateway: gw, Admin: admin, Token: token}
}

// Do sends a request to h as the harness admin. A nil body sends none.
func (hs *Harness) Do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return hs.DoWithToken(t, h, method, target, body, hs.Token)
}

// DoWithToken is Do with an explicit bearer token; "" sends no header.
func (hs *Harness) DoWithToken(t *testing.T, h http.Handler, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		req = httptest.NewRequest(method, target, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// SeedPilgrim stores a pilgrim with a phone derived from its name.
func (hs *Harness) SeedPilgrim(name, email string, verified bool) models.Pilgrim {
	phone := "+96650" + name
	return hs.DB.PutPilgrim(models.Pilgrim{
		FullName:      name,
		Email:         email,
		PhoneNumber:   &phone,
		NationalID:    "NID-" + name,
		Password:      "$2a$10$pilgrimhash",
		Role:          models.RolePilgrim,
		Active:        true,
		EmailVerified: verified,
	})
}

// ModeratorToken signs a token for a freshly stored moderator.
func (hs *Harness) ModeratorToken(t *testing.T) string {
	t.Helper()
	mod := hs.DB.PutUser(models.User{
		FullName: "Some Moderator",
		Email:    "somemod@munawwara.test",
		Password: "x",
		Role:     models.RoleModerator,
		Active:   true,
	})
	token, err := hs.Gateway.IssueToken(&mod)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return token
}

// Status fails the test unless rec has the wanted status.
func Status(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body=%s", rec.Code, want, rec.Body.String())
	}
}
