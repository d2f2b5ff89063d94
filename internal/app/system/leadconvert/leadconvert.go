// Package leadconvert turns a qualified Lead into a new Account, Contact
// and Deal in one transaction.
//
// Preconditions are checked in order and the first failure wins:
// the lead exists, the actor may access it, it is not CONVERTED, it is not
// LOST, it is QUALIFIED, and the derived account name is free. The name is
// checked inside the transaction after the lead is re-read, so a converter
// that lost a race reports already_converted rather than a collision with
// the winner's account. The lead is flipped with a compare-and-swap on
// QUALIFIED so concurrent converters cannot both commit.
package leadconvert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/htmlsanitize"
	"github.com/dalemusser/salescrm/internal/app/system/metrics"
	"github.com/dalemusser/salescrm/internal/app/system/normalize"
	"github.com/dalemusser/salescrm/internal/app/system/scope"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Defaults applied by New when Config leaves them empty.
const (
	DefaultCurrency  = "PHP"
	DefaultCloseDays = 30
)

// Store is the persistence the workflow needs. Methods called inside
// WithTransaction receive the transaction's context and must use it.
type Store interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	// GetLead returns ErrLeadNotFound for a missing lead.
	GetLead(ctx context.Context, id primitive.ObjectID) (models.Lead, error)
	AccountNameExists(ctx context.Context, name string) (bool, error)
	// CreateAccount returns ErrAccountNameTaken when the name is in use.
	CreateAccount(ctx context.Context, a models.Account) (models.Account, error)
	CreateContact(ctx context.Context, c models.Contact) (models.Contact, error)
	CreateDeal(ctx context.Context, d models.Deal) (models.Deal, error)
	// MarkLeadConverted flips QUALIFIED to CONVERTED and reports whether it did.
	MarkLeadConverted(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// Authorizer decides whether an actor may act on a record.
// *recordpolicy.Policy implements it.
type Authorizer interface {
	CanAccess(ctx context.Context, a recordpolicy.Actor, k recordpolicy.Kind, rec scope.Record) bool
}

// Config holds the deal defaults.
type Config struct {
	Currency  string
	CloseDays int
	Now       func() time.Time
}

// Result identifies the records a successful conversion created.
type Result struct {
	LeadName   string
	AccountID  primitive.ObjectID
	ContactID  primitive.ObjectID
	DealID     primitive.ObjectID
	DealNumber string
}

// Converter runs the conversion workflow.
type Converter struct {
	store Store
	auth  Authorizer
	cfg   Config
	log   *zap.Logger
}

// New builds a Converter.
func New(store Store, auth Authorizer, cfg Config, logger *zap.Logger) *Converter {
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}
	if cfg.CloseDays <= 0 {
		cfg.CloseDays = DefaultCloseDays
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{store: store, auth: auth, cfg: cfg, log: logger}
}

// AccountName is the name the converted account will carry.
func AccountName(l models.Lead) string {
	if name := normalize.Name(l.CompanyName); name != "" {
		return name
	}
	return normalize.Name(fmt.Sprintf("%s's Company (from Lead)", l.FullName()))
}

// checkStatus applies the status preconditions in order.
func checkStatus(l models.Lead) *Failure {
	switch l.Status {
	case models.LeadConverted:
		return fail(ReasonAlreadyConverted, "Lead '%s' is already converted.", l.FullName())
	case models.LeadLost:
		return fail(ReasonInvalidStatus, "Cannot convert a 'Lost' lead.")
	case models.LeadQualified:
		return nil
	}
	return fail(ReasonInvalidStatus, "Lead '%s' must be 'Qualified' to be converted.", l.FullName())
}

func nameCollision(name string) *Failure {
	return fail(ReasonNameCollision,
		"An account with the name '%s' already exists. Cannot convert lead automatically. Please resolve manually.", name)
}

// Convert converts leadID on behalf of actor. Every error it returns is a
// *Failure; nothing is written unless it returns nil.
func (c *Converter) Convert(ctx context.Context, leadID primitive.ObjectID, actor recordpolicy.Actor) (Result, error) {
	res, err := c.convert(ctx, leadID, actor)
	reason := ReasonOf(err)
	if err == nil {
		metrics.RecordConversion("success")
		c.log.Info("lead converted",
			zap.String("lead_id", leadID.Hex()),
			zap.String("actor_id", actor.ID.Hex()),
			zap.String("account_id", res.AccountID.Hex()),
			zap.String("deal_number", res.DealNumber))
		return res, nil
	}

	metrics.RecordConversion(string(reason))
	if reason == ReasonInternal {
		c.log.Error("lead conversion failed",
			zap.String("lead_id", leadID.Hex()),
			zap.String("actor_id", actor.ID.Hex()),
			zap.Error(err))
		var f *Failure
		if !errors.As(err, &f) {
			err = &Failure{Reason: ReasonInternal, Message: MessageOf(err), Err: err}
		}
	} else {
		c.log.Info("lead conversion refused",
			zap.String("lead_id", leadID.Hex()),
			zap.String("actor_id", actor.ID.Hex()),
			zap.String("reason", string(reason)))
	}
	return Result{}, err
}

func (c *Converter) convert(ctx context.Context, leadID primitive.ObjectID, actor recordpolicy.Actor) (Result, error) {
	lead, err := c.store.GetLead(ctx, leadID)
	if errors.Is(err, ErrLeadNotFound) {
		return Result{}, fail(ReasonNotFound, "Lead with ID %s not found.", leadID.Hex())
	}
	if err != nil {
		return Result{}, err
	}

	if c.auth == nil || !c.auth.CanAccess(ctx, actor, recordpolicy.Leads, lead) {
		return Result{}, fail(ReasonForbidden, "You do not have permission to convert this lead.")
	}

	if f := checkStatus(lead); f != nil {
		return Result{}, f
	}

	var res Result
	err = c.store.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		res, err = c.apply(ctx, leadID, actor)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// apply runs inside the transaction. It may be called more than once when
// the store retries a transient conflict, so it re-reads everything.
func (c *Converter) apply(ctx context.Context, leadID primitive.ObjectID, actor recordpolicy.Actor) (Result, error) {
	lead, err := c.store.GetLead(ctx, leadID)
	if errors.Is(err, ErrLeadNotFound) {
		return Result{}, fail(ReasonNotFound, "Lead with ID %s not found.", leadID.Hex())
	}
	if err != nil {
		return Result{}, err
	}
	if f := checkStatus(lead); f != nil {
		return Result{}, f
	}

	name := AccountName(lead)
	taken, err := c.store.AccountNameExists(ctx, name)
	if err != nil {
		return Result{}, err
	}
	if taken {
		return Result{}, nameCollision(name)
	}

	owner := lead.AssignedTo
	if owner == nil {
		owner = models.Ptr(actor.ID)
	}
	ownership := models.Ownership{AssignedTo: owner, CreatedBy: models.Ptr(actor.ID)}
	fullName := lead.FullName()
	notes := htmlsanitize.StripTags(lead.Notes)

	account, err := c.store.CreateAccount(ctx, models.Account{
		Name:           name,
		Phone:          lead.WorkPhone,
		BillingAddress: lead.Address,
		Status:         models.AccountActive,
		TerritoryID:    lead.TerritoryID,
		Ownership:      ownership,
	})
	if errors.Is(err, ErrAccountNameTaken) {
		return Result{}, nameCollision(name)
	}
	if err != nil {
		return Result{}, fmt.Errorf("create account: %w", err)
	}

	contact, err := c.store.CreateContact(ctx, models.Contact{
		AccountID:    models.Ptr(account.ID),
		FirstName:    lead.FirstName,
		LastName:     lead.LastName,
		Title:        lead.Title,
		Department:   lead.Department,
		Email:        lead.Email,
		WorkPhone:    lead.WorkPhone,
		MobilePhone1: lead.MobilePhone1,
		MobilePhone2: lead.MobilePhone2,
		Notes:        "Converted from Lead: " + fullName + "\n" + notes,
		Ownership:    ownership,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create contact: %w", err)
	}

	now := c.cfg.Now().UTC()
	closeDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, c.cfg.CloseDays)

	deal, err := c.store.CreateDeal(ctx, models.Deal{
		Name:             fmt.Sprintf("%s - Opportunity from Lead %s", account.Name, lead.LastName),
		AccountID:        account.ID,
		PrimaryContactID: models.Ptr(contact.ID),
		Stage:            models.StageQualification,
		Probability:      models.StageQualification.Probability(),
		AmountCents:      0,
		Currency:         c.cfg.Currency,
		CloseDate:        closeDate,
		Description:      "Created from converted Lead: " + fullName + "\nAmount needs review.\n" + notes,
		Ownership:        ownership,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create deal: %w", err)
	}

	flipped, err := c.store.MarkLeadConverted(ctx, leadID)
	if err != nil {
		return Result{}, fmt.Errorf("mark lead converted: %w", err)
	}
	if !flipped {
		return Result{}, fail(ReasonAlreadyConverted, "Lead '%s' is already converted.", fullName)
	}

	return Result{
		LeadName:   fullName,
		AccountID:  account.ID,
		ContactID:  contact.ID,
		DealID:     deal.ID,
		DealNumber: deal.Number,
	}, nil
}
