package leadconvert_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/leadconvert"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// northDirectory: manager runs North, alice sells in North.
type northDirectory struct {
	manager, north, alice primitive.ObjectID
}

func (d northDirectory) ManagedTerritoryIDs(_ context.Context, m primitive.ObjectID) ([]primitive.ObjectID, error) {
	if m == d.manager {
		return []primitive.ObjectID{d.north}, nil
	}
	return nil, nil
}

func (d northDirectory) SalesTeamIDs(context.Context, []primitive.ObjectID, primitive.ObjectID) ([]primitive.ObjectID, error) {
	return []primitive.ObjectID{d.alice}, nil
}

func (d northDirectory) AccountIDsInTerritories(context.Context, []primitive.ObjectID) ([]primitive.ObjectID, error) {
	return nil, nil
}

type fixture struct {
	store   *memStore
	conv    *leadconvert.Converter
	dir     northDirectory
	alice   recordpolicy.Actor
	bob     recordpolicy.Actor
	manager recordpolicy.Actor
	admin   recordpolicy.Actor
	now     time.Time
}

func newFixture() *fixture {
	dir := northDirectory{manager: oid(), north: oid(), alice: oid()}
	store := newMemStore()
	now := time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)
	policy := recordpolicy.New(dir, zap.NewNop())
	return &fixture{
		store:   store,
		conv:    leadconvert.New(store, policy, leadconvert.Config{Now: func() time.Time { return now }}, zap.NewNop()),
		dir:     dir,
		alice:   recordpolicy.Actor{ID: dir.alice, Role: models.RoleSales},
		bob:     recordpolicy.Actor{ID: oid(), Role: models.RoleSales},
		manager: recordpolicy.Actor{ID: dir.manager, Role: models.RoleManager},
		admin:   recordpolicy.Actor{ID: oid(), Role: models.RoleAdmin},
		now:     now,
	}
}

func oid() primitive.ObjectID { return primitive.NewObjectID() }

func (f *fixture) addLead(status models.LeadStatus, mutate ...func(*models.Lead)) models.Lead {
	l := models.Lead{
		ID:          oid(),
		FirstName:   "Juan",
		LastName:    "Dela Cruz",
		CompanyName: "Acme Trading",
		WorkPhone:   "+63 2 555 0100",
		Address:     "1 Ayala Ave",
		Email:       "juan@acme.test",
		Notes:       "Met at <b>expo</b>",
		Status:      status,
		TerritoryID: &f.dir.north,
		Ownership:   models.Ownership{AssignedTo: models.Ptr(f.dir.alice), CreatedBy: models.Ptr(f.dir.alice)},
	}
	for _, m := range mutate {
		m(&l)
	}
	f.store.leads[l.ID] = l
	return l
}

func requireReason(t *testing.T, err error, want leadconvert.Reason) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, leadconvert.ReasonOf(err), "error: %v", err)
	var f *leadconvert.Failure
	require.True(t, errors.As(err, &f))
	require.NotEmpty(t, f.Message)
}

func TestConvert_Success(t *testing.T) {
	f := newFixture()
	lead := f.addLead(models.LeadQualified)

	res, err := f.conv.Convert(context.Background(), lead.ID, f.alice)
	require.NoError(t, err)
	require.Equal(t, [3]int{1, 1, 1}, f.store.counts())
	require.Equal(t, models.LeadConverted, f.store.lead(lead.ID).Status)

	acct := f.store.accounts[res.AccountID]
	require.Equal(t, "Acme Trading", acct.Name)
	require.Equal(t, lead.WorkPhone, acct.Phone)
	require.Equal(t, lead.Address, acct.BillingAddress)
	require.Equal(t, f.dir.north, *acct.TerritoryID)
	require.Equal(t, f.dir.alice, *acct.AssignedTo)
	require.Equal(t, f.alice.ID, *acct.CreatedBy)

	contact := f.store.contacts[res.ContactID]
	require.Equal(t, res.AccountID, *contact.AccountID)
	require.Equal(t, "Converted from Lead: Juan Dela Cruz\nMet at expo", contact.Notes)
	require.Equal(t, lead.Email, contact.Email)

	deal := f.store.deals[res.DealID]
	require.Equal(t, "Acme Trading - Opportunity from Lead Dela Cruz", deal.Name)
	require.Equal(t, res.AccountID, deal.AccountID)
	require.Equal(t, res.ContactID, *deal.PrimaryContactID)
	require.Equal(t, models.StageQualification, deal.Stage)
	require.Equal(t, 25, deal.Probability)
	require.Zero(t, deal.AmountCents)
	require.Equal(t, "PHP", deal.Currency)
	require.Equal(t, time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), deal.CloseDate)
	require.True(t, strings.HasPrefix(deal.Description, "Created from converted Lead: Juan Dela Cruz\nAmount needs review.\n"))
}

func TestConvert_UnassignedLeadGoesToActor(t *testing.T) {
	f := newFixture()
	lead := f.addLead(models.LeadQualified, func(l *models.Lead) {
		l.CompanyName = ""
		l.AssignedTo = nil
	})

	res, err := f.conv.Convert(context.Background(), lead.ID, f.alice)
	require.NoError(t, err)
	acct := f.store.accounts[res.AccountID]
	require.Equal(t, "Juan Dela Cruz's Company (from Lead)", acct.Name)
	require.Equal(t, f.alice.ID, *acct.AssignedTo)
	require.Equal(t, f.alice.ID, *f.store.deals[res.DealID].AssignedTo)
}

func TestConvert_IsIdempotent(t *testing.T) {
	f := newFixture()
	lead := f.addLead(models.LeadQualified)

	_, err := f.conv.Convert(context.Background(), lead.ID, f.alice)
	require.NoError(t, err)
	txns := f.store.txns

	_, err = f.conv.Convert(context.Background(), lead.ID, f.alice)
	requireReason(t, err, leadconvert.ReasonAlreadyConverted)
	require.Equal(t, [3]int{1, 1, 1}, f.store.counts())
	require.Equal(t, txns, f.store.txns, "second attempt must not open a transaction")
}

func TestConvert_StatusGate(t *testing.T) {
	for _, st := range []models.LeadStatus{models.LeadNew, models.LeadContacted, models.LeadLost} {
		t.Run(string(st), func(t *testing.T) {
			f := newFixture()
			lead := f.addLead(st)
			_, err := f.conv.Convert(context.Background(), lead.ID, f.admin)
			requireReason(t, err, leadconvert.ReasonInvalidStatus)
			require.Equal(t, [3]int{0, 0, 0}, f.store.counts())
			require.Equal(t, st, f.store.lead(lead.ID).Status)
		})
	}

	f := newFixture()
	lost := f.addLead(models.LeadLost)
	_, err := f.conv.Convert(context.Background(), lost.ID, f.admin)
	require.Equal(t, "Cannot convert a 'Lost' lead.", leadconvert.MessageOf(err))
}

func TestConvert_NotFound(t *testing.T) {
	f := newFixture()
	id := oid()
	_, err := f.conv.Convert(context.Background(), id, f.admin)
	requireReason(t, err, leadconvert.ReasonNotFound)
	require.Equal(t, "Lead with ID "+id.Hex()+" not found.", leadconvert.MessageOf(err))
}

// Permission is checked before status, so an outsider learns nothing about
// a converted lead.
func TestConvert_PermissionBeforeStatus(t *testing.T) {
	f := newFixture()
	lead := f.addLead(models.LeadConverted)
	_, err := f.conv.Convert(context.Background(), lead.ID, f.bob)
	requireReason(t, err, leadconvert.ReasonForbidden)
}

func TestConvert_PermissionScenario(t *testing.T) {
	f := newFixture()
	lead := f.addLead(models.LeadQualified)

	_, err := f.conv.Convert(context.Background(), lead.ID, f.bob)
	requireReason(t, err, leadconvert.ReasonForbidden)
	require.Equal(t, [3]int{0, 0, 0}, f.store.counts())
	require.Equal(t, models.LeadQualified, f.store.lead(lead.ID).Status)

	res, err := f.conv.Convert(context.Background(), lead.ID, f.manager)
	require.NoError(t, err)
	require.False(t, res.AccountID.IsZero())
	require.Equal(t, [3]int{1, 1, 1}, f.store.counts())
	require.Equal(t, models.LeadConverted, f.store.lead(lead.ID).Status)

	// Created by the manager, still owned by Alice.
	acct := f.store.accounts[res.AccountID]
	require.Equal(t, f.manager.ID, *acct.CreatedBy)
	require.Equal(t, f.dir.alice, *acct.AssignedTo)
}

func TestConvert_UnknownRoleIsForbidden(t *testing.T) {
	f := newFixture()
	lead := f.addLead(models.LeadQualified)
	_, err := f.conv.Convert(context.Background(), lead.ID, recordpolicy.Actor{ID: f.dir.alice, Role: "GUEST"})
	requireReason(t, err, leadconvert.ReasonForbidden)
}

func TestConvert_NameCollision(t *testing.T) {
	f := newFixture()
	existing := oid()
	f.store.accounts[existing] = models.Account{ID: existing, Name: "Acme Trading"}
	lead := f.addLead(models.LeadQualified)

	_, err := f.conv.Convert(context.Background(), lead.ID, f.alice)
	requireReason(t, err, leadconvert.ReasonNameCollision)
	require.Contains(t, leadconvert.MessageOf(err), "An account with the name 'Acme Trading' already exists.")
	require.Equal(t, [3]int{1, 0, 0}, f.store.counts())
	require.Equal(t, models.LeadQualified, f.store.lead(lead.ID).Status)
}

func TestConvert_RollsBackOnFailure(t *testing.T) {
	for _, step := range []string{"contact", "deal", "mark"} {
		t.Run(step, func(t *testing.T) {
			f := newFixture()
			f.store.failOn = step
			lead := f.addLead(models.LeadQualified)

			_, err := f.conv.Convert(context.Background(), lead.ID, f.alice)
			requireReason(t, err, leadconvert.ReasonInternal)
			require.ErrorIs(t, err, errInjected)
			require.Equal(t, [3]int{0, 0, 0}, f.store.counts())
			require.Equal(t, models.LeadQualified, f.store.lead(lead.ID).Status)
		})
	}
}

func TestConvert_ConcurrentAttemptsHaveOneWinner(t *testing.T) {
	f := newFixture()
	lead := f.addLead(models.LeadQualified)

	const attempts = 16
	var wg sync.WaitGroup
	reasons := make([]leadconvert.Reason, attempts)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := f.conv.Convert(context.Background(), lead.ID, f.alice)
			reasons[i] = leadconvert.ReasonOf(err)
		}(i)
	}
	close(start)
	wg.Wait()

	wins := 0
	for _, r := range reasons {
		switch r {
		case "":
			wins++
		case leadconvert.ReasonAlreadyConverted:
		default:
			t.Fatalf("unexpected reason %q", r)
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, [3]int{1, 1, 1}, f.store.counts())
	require.Equal(t, models.LeadConverted, f.store.lead(lead.ID).Status)
}

func TestReasonOf(t *testing.T) {
	require.Equal(t, leadconvert.Reason(""), leadconvert.ReasonOf(nil))
	require.Equal(t, leadconvert.ReasonInternal, leadconvert.ReasonOf(errors.New("boom")))
}
