// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/munawwara-care/mcadmin/internal/app/store/audit"
)

// listItem is one audit event with actor and target resolved to names.
// Ids that no longer resolve fall back to their hex form.
type listItem struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	ActorName     string            `json:"actor,omitempty"`
	TargetName    string            `json:"target,omitempty"`
	IP            string            `json:"ip"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedInvalid,
		audit.EventLoginFailedNotAdmin,
		audit.EventLoginFailedMissingFields,
		audit.EventLoginFailedRateLimit,
	}

	adminEvents := []string{
		audit.EventModeratorCreated,
		audit.EventModeratorRequestApproved,
		audit.EventModeratorRequestRejected,
		audit.EventAccountDeactivated,
		audit.EventAccountDeleted,
		audit.EventGroupDeleted,
		audit.EventAdminBootstrapped,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents))
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		return all
	default:
		return nil
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
