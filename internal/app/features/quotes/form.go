// internal/app/features/quotes/form.go
package quotes

import (
	"errors"
	"net/http"

	"github.com/dalemusser/salescrm/internal/app/system/formutil"
	"github.com/dalemusser/salescrm/internal/app/system/htmlsanitize"
	"github.com/dalemusser/salescrm/internal/app/system/normalize"
	"github.com/dalemusser/salescrm/internal/domain/models"
)

func validStatus(s string) bool {
	switch s {
	case models.QuoteDraft, models.QuotePresented, models.QuoteAccepted, models.QuoteRejected:
		return true
	}
	return false
}

// quoteFromForm reads the editable quote fields. account_id is never read;
// the store copies it from the deal.
func quoteFromForm(r *http.Request) (models.Quote, string) {
	q := models.Quote{
		Status: normalize.Status(formutil.Text(r, "status")),
		Notes:  htmlsanitize.StripTags(formutil.Text(r, "notes")),
	}
	if q.Status != "" && !validStatus(q.Status) {
		return q, "Unknown quote status."
	}

	deal, err := formutil.RequiredID(r, "deal_id")
	if errors.Is(err, formutil.ErrRequired) {
		return q, "A deal is required."
	}
	if err != nil {
		return q, "Invalid deal."
	}
	q.DealID = deal

	contact, err := formutil.OptionalID(r, "contact_id")
	if err != nil {
		return q, "Invalid contact."
	}
	q.ContactID = contact

	presented, err := formutil.OptionalDate(r, "presented_date")
	if err != nil {
		return q, "Presented date must be YYYY-MM-DD."
	}
	q.PresentedDate = presented

	days, err := formutil.Int(r, "validity_days", 0)
	if err != nil {
		return q, "Validity must be a whole number of days."
	}
	q.ValidityDays = days

	total, err := formutil.OptionalCents(r, "total")
	if err != nil {
		return q, "Total must be a positive number with at most two decimals."
	}
	q.TotalCents = total

	assignee, err := formutil.OptionalID(r, "assigned_to")
	if err != nil {
		return q, "Invalid assignee."
	}
	q.AssignedTo = assignee
	return q, ""
}
