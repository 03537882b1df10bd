// internal/app/workflow/stats.go
package workflow

import (
	"context"

	"github.com/munawwara-care/mcadmin/internal/app/system/apierr"
	"github.com/munawwara-care/mcadmin/internal/domain/models"
)

// Stats is the dashboard summary. Pilgrims are counted from the pilgrim
// store; TotalUsers counts the credential store only.
type Stats struct {
	TotalUsers               int64 `json:"total_users"`
	Moderators               int64 `json:"moderators"`
	Pilgrims                 int64 `json:"pilgrims"`
	Groups                   int64 `json:"groups"`
	PendingModeratorRequests int64 `json:"pending_moderator_requests"`
}

// Stats counts accounts, groups and pending requests.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var err error

	if st.TotalUsers, err = s.Users.Count(ctx); err != nil {
		return Stats{}, apierr.Internal(err)
	}
	if st.Moderators, err = s.Users.CountByRole(ctx, models.RoleModerator); err != nil {
		return Stats{}, apierr.Internal(err)
	}
	if st.Pilgrims, err = s.Pilgrims.Count(ctx); err != nil {
		return Stats{}, apierr.Internal(err)
	}
	if st.Groups, err = s.Groups.Count(ctx); err != nil {
		return Stats{}, apierr.Internal(err)
	}
	if st.PendingModeratorRequests, err = s.Requests.CountPending(ctx); err != nil {
		return Stats{}, apierr.Internal(err)
	}
	return st, nil
}
