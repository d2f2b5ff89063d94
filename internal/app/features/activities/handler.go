// internal/app/features/activities/handler.go
package activities

import (
	"context"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	accountstore "github.com/dalemusser/salescrm/internal/app/store/accounts"
	activitystore "github.com/dalemusser/salescrm/internal/app/store/activities"
	contactstore "github.com/dalemusser/salescrm/internal/app/store/contacts"
	dealstore "github.com/dalemusser/salescrm/internal/app/store/deals"
	leadstore "github.com/dalemusser/salescrm/internal/app/store/leads"
	"github.com/dalemusser/salescrm/internal/app/system/auditlog"
	"github.com/dalemusser/salescrm/internal/app/system/scope"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves one activity kind. Tasks, calls, and meetings each get
// their own Handler mounted at their own base path.
type Handler struct {
	Activities *activitystore.Store
	Accounts   *accountstore.Store
	Contacts   *contactstore.Store
	Leads      *leadstore.Store
	Deals      *dealstore.Store
	Kind       recordpolicy.Kind
	Base       string
	Policy     *recordpolicy.Policy
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
}

// kinds maps each activity kind to its policy kind and URL base.
var kinds = map[models.ActivityKind]struct {
	policy recordpolicy.Kind
	base   string
}{
	models.ActivityTask:    {recordpolicy.Tasks, "/tasks"},
	models.ActivityCall:    {recordpolicy.Calls, "/calls"},
	models.ActivityMeeting: {recordpolicy.Meetings, "/meetings"},
}

func NewHandler(
	db *mongo.Database,
	kind models.ActivityKind,
	policy *recordpolicy.Policy,
	errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	k, ok := kinds[kind]
	if !ok {
		panic("activities: unknown kind " + string(kind))
	}
	return &Handler{
		Activities: activitystore.New(db, kind),
		Accounts:   accountstore.New(db),
		Contacts:   contactstore.New(db),
		Leads:      leadstore.New(db),
		Deals:      dealstore.New(db),
		Kind:       k.policy,
		Base:       k.base,
		Policy:     policy,
		Log:        logger.With(zap.String("activity_kind", string(kind))),
		ErrLog:     errLog,
		AuditLog:   audit,
	}
}

func (h *Handler) isTask() bool { return h.Activities.Kind() == models.ActivityTask }

// related is one related_* reference on an activity.
type related struct {
	id, was *primitive.ObjectID
	kind    recordpolicy.Kind
	missing string
	load    func(context.Context, primitive.ObjectID) (scope.Record, error)
}

// checkRelated returns the message for the first related record that is
// missing or outside the actor's scope, or "" when all are visible.
// References unchanged from prev are not rechecked.
func (h *Handler) checkRelated(ctx context.Context, actor recordpolicy.Actor, a models.Activity, prev *models.Activity) (string, error) {
	var was models.Activity
	if prev != nil {
		was = *prev
	}
	refs := []related{
		{a.AccountID, was.AccountID, recordpolicy.Accounts, "Account not found.",
			func(ctx context.Context, id primitive.ObjectID) (scope.Record, error) { return h.Accounts.GetByID(ctx, id) }},
		{a.ContactID, was.ContactID, recordpolicy.Contacts, "Contact not found.",
			func(ctx context.Context, id primitive.ObjectID) (scope.Record, error) { return h.Contacts.GetByID(ctx, id) }},
		{a.LeadID, was.LeadID, recordpolicy.Leads, "Lead not found.",
			func(ctx context.Context, id primitive.ObjectID) (scope.Record, error) { return h.Leads.GetByID(ctx, id) }},
		{a.DealID, was.DealID, recordpolicy.Deals, "Deal not found.",
			func(ctx context.Context, id primitive.ObjectID) (scope.Record, error) { return h.Deals.GetByID(ctx, id) }},
	}
	for _, ref := range refs {
		if ref.id == nil || (prev != nil && models.SameID(ref.id, ref.was)) {
			continue
		}
		rec, err := ref.load(ctx, *ref.id)
		if err == mongo.ErrNoDocuments {
			return ref.missing, nil
		}
		if err != nil {
			return "", err
		}
		if !h.Policy.CanAccess(ctx, actor, ref.kind, rec) {
			return ref.missing, nil
		}
	}
	return "", nil
}
