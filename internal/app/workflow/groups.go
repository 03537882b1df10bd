// internal/app/workflow/groups.go
package workflow

import (
	"context"
	"time"

	"github.com/munawwara-care/mcadmin/internal/app/system/apierr"
	"github.com/munawwara-care/mcadmin/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const msgGroupNotFound = "Group not found"

// ModeratorRef is a group moderator resolved to display fields.
type ModeratorRef struct {
	ID       primitive.ObjectID `json:"id"`
	FullName string             `json:"full_name"`
	Email    string             `json:"email"`
}

// CreatorRef is a group creator resolved to a display name.
type CreatorRef struct {
	ID       primitive.ObjectID `json:"id"`
	FullName string             `json:"full_name"`
}

// GroupView is a group with moderators and creator resolved. Moderator ids
// that no longer resolve are dropped; an unresolvable creator is nil.
type GroupView struct {
	ID         primitive.ObjectID   `json:"id"`
	Name       string               `json:"group_name"`
	PilgrimIDs []primitive.ObjectID `json:"pilgrim_ids"`
	Moderators []ModeratorRef       `json:"moderator_ids"`
	CreatedBy  *CreatorRef          `json:"created_by"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// ListGroups returns every group with moderators and creator resolved from
// the credential store in a single lookup.
func (s *Service) ListGroups(ctx context.Context) ([]GroupView, error) {
	groups, err := s.Groups.List(ctx)
	if err != nil {
		return nil, apierr.Internal(err)
	}

	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	add := func(id primitive.ObjectID) {
		if id.IsZero() {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, g := range groups {
		for _, m := range g.ModeratorIDs {
			add(m)
		}
		add(g.CreatedBy)
	}

	byID := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) > 0 {
		users, err := s.Users.FindByIDs(ctx, ids)
		if err != nil {
			return nil, apierr.Internal(err)
		}
		for _, u := range users {
			byID[u.ID] = u
		}
	}

	out := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		v := GroupView{
			ID:         g.ID,
			Name:       g.Name,
			PilgrimIDs: g.PilgrimIDs,
			Moderators: []ModeratorRef{},
			CreatedAt:  g.CreatedAt,
			UpdatedAt:  g.UpdatedAt,
		}
		if v.PilgrimIDs == nil {
			v.PilgrimIDs = []primitive.ObjectID{}
		}
		for _, m := range g.ModeratorIDs {
			if u, ok := byID[m]; ok {
				v.Moderators = append(v.Moderators, ModeratorRef{ID: u.ID, FullName: u.FullName, Email: u.Email})
			}
		}
		if u, ok := byID[g.CreatedBy]; ok {
			v.CreatedBy = &CreatorRef{ID: u.ID, FullName: u.FullName}
		}
		out = append(out, v)
	}
	return out, nil
}

// HardDeleteGroup removes the group. Member accounts are untouched.
func (s *Service) HardDeleteGroup(ctx context.Context, id string) error {
	return s.record("hard_delete_group", s.hardDeleteGroup(ctx, id))
}

func (s *Service) hardDeleteGroup(ctx context.Context, id string) error {
	oid, err := parseID(id, msgGroupNotFound)
	if err != nil {
		return err
	}
	n, err := s.Groups.Delete(ctx, oid)
	if err != nil {
		return apierr.Internal(err)
	}
	if n == 0 {
		return apierr.NotFound(msgGroupNotFound)
	}
	s.log().Info("group deleted", zap.String("group_id", oid.Hex()))
	if s.Audit != nil {
		s.Audit.GroupDeleted(ctx, actorID(ctx), oid)
	}
	return nil
}
