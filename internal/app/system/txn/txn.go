// Package txn runs a group of store writes as one MongoDB transaction when
// the deployment supports it.
//
// Standalone servers (typical in development) reject transactions; there the
// Runner logs a warning and runs the writes sequentially, each of which is
// still atomic per document.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Runner executes units of work.
type Runner struct {
	client *mongo.Client
	log    *zap.Logger
}

// New returns a Runner bound to client. A nil client yields a Runner that
// always runs work without a transaction.
func New(client *mongo.Client, logger *zap.Logger) *Runner {
	return &Runner{client: client, log: logger}
}

// Run executes fn inside a transaction. The context passed to fn carries the
// session and must be used for every store call that belongs to the unit.
//
// fn is invoked at most twice: once inside the transaction and, only if the
// server reported that transactions are unsupported before anything was
// committed, once more without one. Transient transaction errors are not
// retried.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil || r.client == nil {
		return fn(ctx)
	}

	sess, err := r.client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return r.fallback(ctx, fn, err)
		}
		return err
	}
	defer sess.EndSession(ctx)

	err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sess.StartTransaction(); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			_ = sess.AbortTransaction(context.WithoutCancel(ctx))
			return err
		}
		return sess.CommitTransaction(sc)
	})
	if err != nil && IsNotSupported(err) {
		return r.fallback(ctx, fn, err)
	}
	return err
}

func (r *Runner) fallback(ctx context.Context, fn func(ctx context.Context) error, cause error) error {
	if r.log != nil {
		r.log.Warn("transactions not supported; running writes sequentially", zap.Error(cause))
	}
	return fn(ctx)
}

// IsNotSupported reports whether err means the server cannot run
// multi-document transactions (standalone mongod, unsupported operation).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation: "Transaction numbers are only allowed on a replica set member"
			51,  // legacy IllegalOperation
			263: // OperationNotSupportedInTransaction
			return true
		}
	}

	s := strings.ToLower(err.Error())
	hasTxn := strings.Contains(s, "transaction")
	switch {
	case hasTxn && strings.Contains(s, "replica set"):
		return true
	case hasTxn && strings.Contains(s, "session"):
		return true
	case strings.Contains(s, "session") && strings.Contains(s, "not supported"):
		return true
	case strings.Contains(s, "illegal operation"):
		return true
	}
	return false
}

// IsWriteConflict reports whether err is a transaction write conflict: two
// transactions touched the same document and this one lost. The server
// labels it TransientTransactionError.
func IsWriteConflict(err error) bool {
	if err == nil {
		return false
	}
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.HasErrorCode(112) || se.HasErrorLabel("TransientTransactionError")
}
