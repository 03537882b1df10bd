// internal/app/features/login/handler.go
package login

import (
	"net/http"
	"time"

	"github.com/munawwara-care/mcadmin/internal/app/store/audit"
	"github.com/munawwara-care/mcadmin/internal/app/system/apierr"
	"github.com/munawwara-care/mcadmin/internal/app/system/auditlog"
	"github.com/munawwara-care/mcadmin/internal/app/system/auth"
	"github.com/munawwara-care/mcadmin/internal/app/system/metrics"
	"github.com/munawwara-care/mcadmin/internal/app/system/normalize"
	"github.com/munawwara-care/mcadmin/internal/app/system/ratelimit"
	"github.com/munawwara-care/mcadmin/internal/app/system/respond"
	"github.com/munawwara-care/mcadmin/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the admin login endpoint. Limiter, AuditLog and Metrics
// are optional.
type Handler struct {
	Gateway    *auth.Gateway
	Limiter    ratelimit.Limiter
	RetryAfter time.Duration
	AuditLog   *auditlog.Logger
	Metrics    *metrics.Metrics
	Log        *zap.Logger
}

func NewHandler(gw *auth.Gateway, limiter ratelimit.Limiter, retryAfter time.Duration, al *auditlog.Logger, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		Gateway:    gw,
		Limiter:    limiter,
		RetryAfter: retryAfter,
		AuditLog:   al,
		Metrics:    m,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /api/admin/login.
//
//	200 {success, message, token, user}
//	400 missing fields, 401 bad credentials, 403 not an admin
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "admin login")
	defer cancel()

	token, user, err := h.Gateway.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		h.recordFailure(r, req.Email, err)
		respond.Error(w, r, h.Log, err)
		return
	}

	h.Metrics.RecordLogin(metrics.LoginSuccess)
	if oid, err := primitive.ObjectIDFromHex(user.ID); err == nil {
		h.AuditLog.LoginSuccess(r.Context(), oid, user.Email)
	}
	h.Log.Info("admin logged in", zap.String("user_id", user.ID))

	respond.OK(w, respond.M{
		"message": "Admin Login Successful",
		"token":   token,
		"user":    user,
	})
}

func (h *Handler) recordFailure(r *http.Request, email string, err error) {
	email = normalize.Email(email)
	switch apierr.KindOf(err) {
	case apierr.KindValidation:
		h.Metrics.RecordLogin(metrics.LoginMissingFields)
		h.AuditLog.LoginFailed(r.Context(), audit.EventLoginFailedMissingFields, email, "missing email or password")
	case apierr.KindUnauthorized:
		h.Metrics.RecordLogin(metrics.LoginInvalid)
		h.AuditLog.LoginFailed(r.Context(), audit.EventLoginFailedInvalid, email, "invalid credentials")
	case apierr.KindForbidden:
		h.Metrics.RecordLogin(metrics.LoginForbidden)
		h.AuditLog.LoginFailed(r.Context(), audit.EventLoginFailedNotAdmin, email, "account is not an admin")
	default:
		h.Metrics.RecordLogin(metrics.LoginError)
	}
}

// onLimited runs when the rate limiter turns a request away.
func (h *Handler) onLimited(r *http.Request) {
	h.Metrics.RecordLogin(metrics.LoginRateLimited)
	h.AuditLog.LoginFailed(r.Context(), audit.EventLoginFailedRateLimit, "", "rate limit exceeded")
}
