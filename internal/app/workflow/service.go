// internal/app/workflow/service.go
//
// Package workflow implements the admin operations: moderator request
// approval and rejection, account deactivation and deletion, moderator
// creation, listings and statistics. It is the only writer of request status
// and account roles, and talks to storage solely through the interfaces in
// stores.go.
package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/munawwara-care/mcadmin/internal/app/system/apierr"
	"github.com/munawwara-care/mcadmin/internal/app/system/auth"
	"github.com/munawwara-care/mcadmin/internal/app/system/metrics"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Service wires the stores together. Tx, Audit, Metrics and Now are optional.
type Service struct {
	Users    UserStore
	Pilgrims PilgrimStore
	Requests RequestStore
	Groups   GroupStore

	Tx      TxRunner
	Audit   AuditSink
	Metrics *metrics.Metrics
	Log     *zap.Logger
	Now     func() time.Time
}

// New returns a Service over the given stores with a no-op unit of work.
func New(users UserStore, pilgrims PilgrimStore, requests RequestStore, groups GroupStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Users:    users,
		Pilgrims: pilgrims,
		Requests: requests,
		Groups:   groups,
		Tx:       directTx{},
		Log:      logger,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}

func (s *Service) tx() TxRunner {
	if s.Tx == nil {
		return directTx{}
	}
	return s.Tx
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// record counts the outcome of operation and returns err unchanged.
func (s *Service) record(operation string, err error) error {
	s.Metrics.RecordOperation(operation, err)
	return err
}

// parseID treats a malformed id as a missing record.
func parseID(id, notFound string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apierr.NotFound(notFound)
	}
	return oid, nil
}

// actorID is the admin performing the call, or the zero id outside a request.
func actorID(ctx context.Context) primitive.ObjectID {
	p, ok := auth.FromContext(ctx)
	if !ok {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

func isNoDocs(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
