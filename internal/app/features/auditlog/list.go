// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/munawwara-care/mcadmin/internal/app/store/audit"
	"github.com/munawwara-care/mcadmin/internal/app/system/apierr"
	"github.com/munawwara-care/mcadmin/internal/app/system/paging"
	"github.com/munawwara-care/mcadmin/internal/app/system/respond"
	"github.com/munawwara-care/mcadmin/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// ServeList handles GET /api/admin/audit-events.
//
// Query parameters: category, event_type, start_date and end_date
// (YYYY-MM-DD, end inclusive) and page (1-based, 50 per page).
//
//	{ "success":true, "count":n, "page":{…}, "data":[…] }
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	eventType := strings.TrimSpace(q.Get("event_type"))
	startDate := strings.TrimSpace(q.Get("start_date"))
	endDate := strings.TrimSpace(q.Get("end_date"))
	page := paging.ParsePage(r)

	known := eventTypesForCategory(category)
	if known == nil {
		respond.Error(w, r, h.Log, apierr.Validation("Invalid category. Use: auth or admin"))
		return
	}
	if eventType != "" && !contains(known, eventType) {
		respond.Error(w, r, h.Log, apierr.Validation("Invalid event_type"))
		return
	}

	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     paging.PageSize,
		Offset:    paging.Offset(page),
	}
	if startDate != "" {
		t, err := time.Parse(dateLayout, startDate)
		if err != nil {
			respond.Error(w, r, h.Log, apierr.Validation("Invalid start_date. Use YYYY-MM-DD"))
			return
		}
		filter.StartTime = &t
	}
	if endDate != "" {
		t, err := time.Parse(dateLayout, endDate)
		if err != nil {
			respond.Error(w, r, h.Log, apierr.Validation("Invalid end_date. Use YYYY-MM-DD"))
			return
		}
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		respond.Error(w, r, h.Log, apierr.Internal(err))
		return
	}

	names := h.resolveNames(ctx, events)

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		}
		if e.ActorID != nil {
			item.ActorName = nameOr(names, *e.ActorID)
		}
		if e.TargetID != nil {
			item.TargetName = nameOr(names, *e.TargetID)
		}
		items = append(items, item)
	}

	respond.OK(w, respond.M{
		"count": len(items),
		"page":  paging.NewInfo(page, total),
		"data":  items,
	})
}

// resolveNames batch-fetches account names for every actor and target.
// A lookup failure is logged and leaves the ids unresolved.
func (h *Handler) resolveNames(ctx context.Context, events []audit.Event) map[primitive.ObjectID]string {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, e := range events {
		for _, id := range []*primitive.ObjectID{e.ActorID, e.TargetID} {
			if id == nil {
				continue
			}
			if _, ok := seen[*id]; ok {
				continue
			}
			seen[*id] = struct{}{}
			ids = append(ids, *id)
		}
	}

	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 || h.Users == nil {
		return names
	}
	users, err := h.Users.FindByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
		return names
	}
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	return names
}

func nameOr(names map[primitive.ObjectID]string, id primitive.ObjectID) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id.Hex()
}
