// internal/app/features/leads/convert.go
package leads

import (
	"context"
	"fmt"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/auth"
	"github.com/dalemusser/salescrm/internal/app/system/leadconvert"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
)

type converted struct {
	LeadID     string `json:"lead_id"`
	AccountID  string `json:"account_id"`
	ContactID  string `json:"contact_id"`
	DealID     string `json:"deal_id"`
	DealNumber string `json:"deal_number"`
	Redirect   string `json:"redirect"`
}

type refused struct {
	Reason  leadconvert.Reason `json:"reason"`
	Error   string             `json:"error"`
	BackURL string             `json:"back_url"`
}

// refusal maps a failure reason to the JSON status and the flash kind.
func refusal(reason leadconvert.Reason) (int, string) {
	switch reason {
	case leadconvert.ReasonNotFound:
		return http.StatusNotFound, auth.FlashError
	case leadconvert.ReasonForbidden:
		return http.StatusForbidden, auth.FlashError
	case leadconvert.ReasonAlreadyConverted:
		return http.StatusConflict, auth.FlashWarning
	case leadconvert.ReasonInvalidStatus:
		return http.StatusUnprocessableEntity, auth.FlashWarning
	case leadconvert.ReasonNameCollision:
		return http.StatusConflict, auth.FlashError
	default:
		return http.StatusInternalServerError, auth.FlashError
	}
}

// HandleConvert handles POST /leads/{id}/convert.
//
// Browsers are redirected with a flash message: to the new account on
// success, back to the lead (or the list, if it is gone) otherwise.
// Callers sending Accept: application/json get the outcome as JSON.
func (h *Handler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/leads")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Converter.Convert(ctx, id, actor)
	if err != nil {
		reason := leadconvert.ReasonOf(err)
		msg := leadconvert.MessageOf(err)
		back := "/leads/" + id.Hex()
		if reason == leadconvert.ReasonNotFound {
			back = "/leads"
		}
		h.AuditLog.LeadConvertRejected(ctx, r, actor.ID, id, string(reason))

		status, kind := refusal(reason)
		respond.Redirect(w, r, h.SessionMgr, status,
			refused{Reason: reason, Error: msg, BackURL: back},
			kind, msg, back)
		return
	}

	h.AuditLog.LeadConverted(ctx, r, actor.ID, id, res.AccountID, res.ContactID, res.DealID)

	dest := "/accounts/" + res.AccountID.Hex()
	respond.Redirect(w, r, h.SessionMgr, http.StatusOK,
		converted{
			LeadID:     id.Hex(),
			AccountID:  res.AccountID.Hex(),
			ContactID:  res.ContactID.Hex(),
			DealID:     res.DealID.Hex(),
			DealNumber: res.DealNumber,
			Redirect:   dest,
		},
		auth.FlashSuccess, fmt.Sprintf("Lead '%s' converted successfully!", res.LeadName), dest)
}
