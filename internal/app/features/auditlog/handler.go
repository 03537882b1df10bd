// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"

	"github.com/munawwara-care/mcadmin/internal/app/store/audit"
	"github.com/munawwara-care/mcadmin/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// EventSource reads audit events. *audit.Store satisfies it.
type EventSource interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
	CountByFilter(ctx context.Context, filter audit.QueryFilter) (int64, error)
}

// UserLookup resolves account ids to names. *userstore.Store satisfies it.
type UserLookup interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

// Handler serves the audit trail to admins.
type Handler struct {
	Events EventSource
	Users  UserLookup
	Log    *zap.Logger
}

func NewHandler(events EventSource, users UserLookup, logger *zap.Logger) *Handler {
	return &Handler{
		Events: events,
		Users:  users,
		Log:    logger,
	}
}
