// internal/app/features/activities/form.go
package activities

import (
	"net/http"

	"github.com/dalemusser/salescrm/internal/app/system/formutil"
	"github.com/dalemusser/salescrm/internal/app/system/htmlsanitize"
	"github.com/dalemusser/salescrm/internal/app/system/normalize"
	"github.com/dalemusser/salescrm/internal/domain/models"
)

func validPriority(p string) bool {
	switch p {
	case models.PriorityLow, models.PriorityNormal, models.PriorityHigh:
		return true
	}
	return false
}

func validDirection(d string) bool {
	return d == models.CallIncoming || d == models.CallOutgoing
}

// activityFromForm reads the fields that apply to the handler's kind and
// ignores the rest.
func (h *Handler) activityFromForm(r *http.Request) (models.Activity, string) {
	a := models.Activity{
		Subject:     formutil.Text(r, "subject"),
		Status:      normalize.Status(formutil.Text(r, "status")),
		Description: htmlsanitize.StripTags(formutil.Text(r, "description")),
	}
	if a.Status != "" && !h.Activities.ValidStatus(a.Status) {
		return a, "Unknown status."
	}

	switch h.Activities.Kind() {
	case models.ActivityTask:
		a.Priority = normalize.Status(formutil.Text(r, "priority"))
		if a.Priority != "" && !validPriority(a.Priority) {
			return a, "Unknown priority."
		}
		due, err := formutil.OptionalDate(r, "due_date")
		if err != nil {
			return a, "Due date must be YYYY-MM-DD."
		}
		a.DueDate = due

	case models.ActivityCall:
		a.Direction = normalize.Status(formutil.Text(r, "direction"))
		if a.Direction != "" && !validDirection(a.Direction) {
			return a, "Direction must be incoming or outgoing."
		}
		startAt, err := formutil.OptionalDateTime(r, "start_time")
		if err != nil {
			return a, "Invalid start time."
		}
		a.StartTime = startAt
		mins, err := formutil.Int(r, "duration_minutes", 0)
		if err != nil {
			return a, "Duration must be a whole number of minutes."
		}
		a.DurationMinutes = mins

	case models.ActivityMeeting:
		a.Location = formutil.Text(r, "location")
		startAt, err := formutil.OptionalDateTime(r, "start_time")
		if err != nil {
			return a, "Invalid start time."
		}
		a.StartTime = startAt
		endAt, err := formutil.OptionalDateTime(r, "end_time")
		if err != nil {
			return a, "Invalid end time."
		}
		a.EndTime = endAt
	}

	var err error
	if a.AccountID, err = formutil.OptionalID(r, "related_account_id"); err != nil {
		return a, "Invalid account."
	}
	if a.ContactID, err = formutil.OptionalID(r, "related_contact_id"); err != nil {
		return a, "Invalid contact."
	}
	if a.LeadID, err = formutil.OptionalID(r, "related_lead_id"); err != nil {
		return a, "Invalid lead."
	}
	if a.DealID, err = formutil.OptionalID(r, "related_deal_id"); err != nil {
		return a, "Invalid deal."
	}
	if a.AssignedTo, err = formutil.OptionalID(r, "assigned_to"); err != nil {
		return a, "Invalid assignee."
	}
	return a, ""
}
