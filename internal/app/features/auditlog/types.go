// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/salescrm/internal/app/store/audit"
)

// listItem is one audit event with the actor and affected user resolved to
// names where possible.
type listItem struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Category   string            `json:"category"`
	EventType  string            `json:"event_type"`
	ActorName  string            `json:"actor,omitempty"`
	TargetName string            `json:"user,omitempty"`
	TargetID   string            `json:"target_id,omitempty"`
	IP         string            `json:"ip,omitempty"`
	Success    bool              `json:"success"`
	Reason     string            `json:"failure_reason,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

// listData is the audit log page.
type listData struct {
	Items      []listItem `json:"items"`
	Category   string     `json:"category,omitempty"`
	EventType  string     `json:"event_type,omitempty"`
	EventTypes []string   `json:"event_types"`
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	Total      int64      `json:"total"`
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedUserDisabled,
		audit.EventLogout,
		audit.EventPasswordChanged,
	}
	adminEvents := []string{
		audit.EventUserCreated,
		audit.EventUserUpdated,
		audit.EventTerritoryCreated,
		audit.EventTerritoryUpdated,
	}
	salesEvents := []string{
		audit.EventLeadConverted,
		audit.EventLeadConvertRejected,
		audit.EventRecordDeleted,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAdmin:
		return adminEvents
	case audit.CategorySales:
		return salesEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(adminEvents)+len(salesEvents))
		all = append(all, authEvents...)
		all = append(all, adminEvents...)
		return append(all, salesEvents...)
	default:
		return nil
	}
}
