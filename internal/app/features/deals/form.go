// internal/app/features/deals/form.go
package deals

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/salescrm/internal/app/system/formutil"
	"github.com/dalemusser/salescrm/internal/app/system/htmlsanitize"
	"github.com/dalemusser/salescrm/internal/domain/models"
)

// dealForm is the submitted deal plus the fields the caller may leave
// empty to keep (edit) or default (create).
type dealForm struct {
	Deal      models.Deal
	CloseDate *time.Time
}

func dealFromForm(r *http.Request) (dealForm, string) {
	f := dealForm{Deal: models.Deal{
		Name:        formutil.Text(r, "name"),
		Stage:       models.DealStage(formutil.Text(r, "stage")),
		Currency:    strings.ToUpper(formutil.Text(r, "currency")),
		Description: htmlsanitize.StripTags(formutil.Text(r, "description")),
	}}

	acct, err := formutil.RequiredID(r, "account_id")
	if errors.Is(err, formutil.ErrRequired) {
		return f, "An account is required."
	}
	if err != nil {
		return f, "Invalid account."
	}
	f.Deal.AccountID = acct

	contact, err := formutil.OptionalID(r, "primary_contact_id")
	if err != nil {
		return f, "Invalid contact."
	}
	f.Deal.PrimaryContactID = contact

	amount, err := formutil.Cents(r, "amount")
	if err != nil {
		return f, "Amount must be a positive number with at most two decimals."
	}
	f.Deal.AmountCents = amount

	closeDate, err := formutil.OptionalDate(r, "close_date")
	if err != nil {
		return f, "Close date must be YYYY-MM-DD."
	}
	f.CloseDate = closeDate

	assignee, err := formutil.OptionalID(r, "assigned_to")
	if err != nil {
		return f, "Invalid assignee."
	}
	f.Deal.AssignedTo = assignee
	return f, ""
}
