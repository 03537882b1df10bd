// internal/app/workflow/stores.go
package workflow

import (
	"context"
	"time"

	"github.com/munawwara-care/mcadmin/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore is the credential store (admins and moderators).
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	LinkModerator(ctx context.Context, p models.Pilgrim) (created bool, err error)
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	List(ctx context.Context, role string) ([]models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

// PilgrimStore is the pilgrim profile store.
type PilgrimStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Pilgrim, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role string) (int64, error)
	SetActive(ctx context.Context, id primitive.ObjectID, active bool) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context) ([]models.Pilgrim, error)
}

// RequestStore is the moderator request ledger.
type RequestStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.ModeratorRequest, error)
	ListPending(ctx context.Context) ([]models.PendingRequest, error)
	MarkApproved(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
	MarkRejected(ctx context.Context, id primitive.ObjectID, at time.Time) (int64, error)
	DeleteByPilgrim(ctx context.Context, pilgrimID primitive.ObjectID) (int64, error)
	CountPending(ctx context.Context) (int64, error)
}

// GroupStore is the group store.
type GroupStore interface {
	List(ctx context.Context) ([]models.Group, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// TxRunner runs fn as one unit of work.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// AuditSink receives admin events. *auditlog.Logger satisfies it.
type AuditSink interface {
	ModeratorCreated(ctx context.Context, actorID, moderatorID primitive.ObjectID, email string)
	ModeratorRequestApproved(ctx context.Context, actorID, requestID, pilgrimID primitive.ObjectID)
	ModeratorRequestRejected(ctx context.Context, actorID, requestID primitive.ObjectID)
	AccountDeactivated(ctx context.Context, actorID, accountID primitive.ObjectID, store string)
	AccountDeleted(ctx context.Context, actorID, accountID primitive.ObjectID, store string, requestsRemoved int64)
	GroupDeleted(ctx context.Context, actorID, groupID primitive.ObjectID)
}

// directTx runs fn without a transaction.
type directTx struct{}

func (directTx) Run(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
