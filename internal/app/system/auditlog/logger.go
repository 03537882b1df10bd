// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/munawwara-care/mcadmin/internal/app/store/audit"
	"github.com/munawwara-care/mcadmin/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for login events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for admin actions (approvals, deletions, moderator creation).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
}

// Store persists audit events. *audit.Store satisfies it.
type Store interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger provides convenience methods for logging audit events.
// It logs to MongoDB (via Store) and/or structured logs (via zap).
type Logger struct {
	store  Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil when neither category
// writes to the database.
func New(store Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Request metadata                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

type metaKey struct{}

type requestMeta struct {
	RequestID string
	IP        string
	UserAgent string
}

// Middleware stamps each request with a request id, the client IP and the
// user agent so events logged deeper in the call chain can carry them.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := requestMeta{
			RequestID: uuid.NewString(),
			IP:        ratelimit.ClientIP(r),
			UserAgent: r.UserAgent(),
		}
		w.Header().Set("X-Request-ID", meta.RequestID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), metaKey{}, meta)))
	})
}

func metaFrom(ctx context.Context) requestMeta {
	m, _ := ctx.Value(metaKey{}).(requestMeta)
	return m
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if event.TargetID != nil {
		fields = append(fields, zap.String("target_id", event.TargetID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all"
	}
	if setting == "off" {
		return
	}

	meta := metaFrom(ctx)
	if event.RequestID == "" {
		event.RequestID = meta.RequestID
	}
	if event.IP == "" {
		event.IP = meta.IP
	}
	if event.UserAgent == "" {
		event.UserAgent = meta.UserAgent
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful admin login.
func (l *Logger) LoginSuccess(ctx context.Context, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		TargetID:  &userID,
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// LoginFailed logs a rejected login. eventType is one of the
// audit.EventLoginFailed* constants.
func (l *Logger) LoginFailed(ctx context.Context, eventType, attemptedEmail, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		Success:       false,
		FailureReason: reason,
		Details:       map[string]string{"attempted_email": attemptedEmail},
	})
}

// --- Admin Events ---

// ModeratorCreated logs when an admin creates a moderator directly.
func (l *Logger) ModeratorCreated(ctx context.Context, actorID, moderatorID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventModeratorCreated,
		ActorID:   actorPtr(actorID),
		TargetID:  &moderatorID,
		Success:   true,
		Details:   map[string]string{"email": email},
	})
}

// ModeratorRequestApproved logs a promotion.
func (l *Logger) ModeratorRequestApproved(ctx context.Context, actorID, requestID, pilgrimID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventModeratorRequestApproved,
		ActorID:   actorPtr(actorID),
		TargetID:  &requestID,
		Success:   true,
		Details:   map[string]string{"pilgrim_id": pilgrimID.Hex()},
	})
}

// ModeratorRequestRejected logs a rejection.
func (l *Logger) ModeratorRequestRejected(ctx context.Context, actorID, requestID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventModeratorRequestRejected,
		ActorID:   actorPtr(actorID),
		TargetID:  &requestID,
		Success:   true,
	})
}

// AccountDeactivated logs a soft delete. store is "users" or "pilgrims".
func (l *Logger) AccountDeactivated(ctx context.Context, actorID, accountID primitive.ObjectID, store string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventAccountDeactivated,
		ActorID:   actorPtr(actorID),
		TargetID:  &accountID,
		Success:   true,
		Details:   map[string]string{"store": store},
	})
}

// AccountDeleted logs a hard delete and the number of requests it removed.
func (l *Logger) AccountDeleted(ctx context.Context, actorID, accountID primitive.ObjectID, store string, requestsRemoved int64) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventAccountDeleted,
		ActorID:   actorPtr(actorID),
		TargetID:  &accountID,
		Success:   true,
		Details: map[string]string{
			"store":            store,
			"requests_removed": strconv.FormatInt(requestsRemoved, 10),
		},
	})
}

// GroupDeleted logs a group deletion.
func (l *Logger) GroupDeleted(ctx context.Context, actorID, groupID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventGroupDeleted,
		ActorID:   actorPtr(actorID),
		TargetID:  &groupID,
		Success:   true,
	})
}

// AdminBootstrapped logs the startup creation or promotion of the configured admin.
func (l *Logger) AdminBootstrapped(ctx context.Context, userID primitive.ObjectID, email string, created bool) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventAdminBootstrapped,
		TargetID:  &userID,
		Success:   true,
		Details: map[string]string{
			"email":   email,
			"created": strconv.FormatBool(created),
		},
	})
}

// actorPtr returns nil for the zero id (system actions).
func actorPtr(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}
