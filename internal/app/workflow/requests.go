// internal/app/workflow/requests.go
package workflow

import (
	"context"

	"github.com/munawwara-care/mcadmin/internal/app/system/apierr"
	"github.com/munawwara-care/mcadmin/internal/app/system/txn"
	"github.com/munawwara-care/mcadmin/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	msgRequestNotFound  = "Request not found"
	msgAlreadyApproved  = "Request already approved"
	msgAlreadyRejected  = "Request already rejected"
	msgPilgrimNotFound  = "Pilgrim not found"
	msgEmailNotVerified = "Pilgrim email must be verified before approval"
)

// ListPendingRequests returns pending requests, newest first, each joined
// with the requesting pilgrim's identity fields.
func (s *Service) ListPendingRequests(ctx context.Context) ([]models.PendingRequest, error) {
	out, err := s.Requests.ListPending(ctx)
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return out, nil
}

// Approve promotes the pilgrim behind requestID to moderator and returns the
// pilgrim's display name.
//
// Every check runs before any write. The writes (ledger transition, user
// linkage, pilgrim role mirror) run as one unit of work; the ledger
// transition only applies while the request is still pending, so of two
// concurrent approvals exactly one succeeds.
func (s *Service) Approve(ctx context.Context, requestID string) (string, error) {
	name, err := s.approve(ctx, requestID)
	return name, s.record("approve", err)
}

func (s *Service) approve(ctx context.Context, requestID string) (string, error) {
	rid, err := parseID(requestID, msgRequestNotFound)
	if err != nil {
		return "", err
	}

	req, err := s.Requests.GetByID(ctx, rid)
	if isNoDocs(err) {
		return "", apierr.NotFound(msgRequestNotFound)
	}
	if err != nil {
		return "", apierr.Internal(err)
	}
	if err := terminal(req.Status); err != nil {
		return "", err
	}

	pilgrim, err := s.Pilgrims.GetByID(ctx, req.PilgrimID)
	if isNoDocs(err) {
		return "", apierr.NotFound(msgPilgrimNotFound)
	}
	if err != nil {
		return "", apierr.Internal(err)
	}
	if !pilgrim.EmailVerified {
		return "", apierr.Validation(msgEmailNotVerified)
	}

	var created bool
	err = s.tx().Run(ctx, func(ctx context.Context) error {
		ok, err := s.Requests.MarkApproved(ctx, rid, s.now())
		if err != nil {
			return err
		}
		if !ok {
			// Lost a race with another approve or reject.
			return s.lostRace(ctx, rid)
		}
		if created, err = s.Users.LinkModerator(ctx, *pilgrim); err != nil {
			return err
		}
		_, err = s.Pilgrims.SetRole(ctx, pilgrim.ID, models.RoleModerator)
		return err
	})
	if txn.IsWriteConflict(err) {
		// Another transaction holds the request; this one was aborted.
		return "", apierr.Internal(s.lostRace(ctx, rid))
	}
	if err != nil {
		return "", apierr.Internal(err)
	}

	s.log().Info("moderator request approved",
		zap.String("request_id", rid.Hex()),
		zap.String("pilgrim_id", pilgrim.ID.Hex()),
		zap.Bool("user_created", created))
	if s.Audit != nil {
		s.Audit.ModeratorRequestApproved(ctx, actorID(ctx), rid, pilgrim.ID)
	}
	return pilgrim.FullName, nil
}

// terminal rejects approval of a request that already left pending.
func terminal(status string) error {
	switch status {
	case models.RequestApproved:
		return apierr.Conflict(msgAlreadyApproved)
	case models.RequestRejected:
		return apierr.Conflict(msgAlreadyRejected)
	}
	return nil
}

func (s *Service) lostRace(ctx context.Context, rid primitive.ObjectID) error {
	req, err := s.Requests.GetByID(ctx, rid)
	if isNoDocs(err) {
		return apierr.NotFound(msgRequestNotFound)
	}
	if err != nil {
		return err
	}
	if err := terminal(req.Status); err != nil {
		return err
	}
	return apierr.Conflict(msgAlreadyApproved)
}

// Reject marks the request rejected whatever its current status, refreshing
// updated_at. Rejecting an approved request does not demote the moderator.
func (s *Service) Reject(ctx context.Context, requestID string) error {
	return s.record("reject", s.reject(ctx, requestID))
}

func (s *Service) reject(ctx context.Context, requestID string) error {
	rid, err := parseID(requestID, msgRequestNotFound)
	if err != nil {
		return err
	}
	n, err := s.Requests.MarkRejected(ctx, rid, s.now())
	if err != nil {
		return apierr.Internal(err)
	}
	if n == 0 {
		return apierr.NotFound(msgRequestNotFound)
	}
	if s.Audit != nil {
		s.Audit.ModeratorRequestRejected(ctx, actorID(ctx), rid)
	}
	return nil
}
