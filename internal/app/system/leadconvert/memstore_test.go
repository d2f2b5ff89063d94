package leadconvert_test

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/dalemusser/salescrm/internal/app/system/leadconvert"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type txKey struct{}

// memStore is a serializable in-memory Store. A transaction holds the lock
// for its whole duration and restores a snapshot when fn fails.
type memStore struct {
	mu       sync.Mutex
	leads    map[primitive.ObjectID]models.Lead
	accounts map[primitive.ObjectID]models.Account
	contacts map[primitive.ObjectID]models.Contact
	deals    map[primitive.ObjectID]models.Deal
	seq      int
	failOn   string // "contact", "deal" or "mark"
	txns     int
}

var errInjected = errors.New("injected failure")

func newMemStore() *memStore {
	return &memStore{
		leads:    map[primitive.ObjectID]models.Lead{},
		accounts: map[primitive.ObjectID]models.Account{},
		contacts: map[primitive.ObjectID]models.Contact{},
		deals:    map[primitive.ObjectID]models.Deal{},
	}
}

func (s *memStore) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns++

	leads, accounts := maps.Clone(s.leads), maps.Clone(s.accounts)
	contacts, deals := maps.Clone(s.contacts), maps.Clone(s.deals)
	seq := s.seq

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.leads, s.accounts, s.contacts, s.deals, s.seq = leads, accounts, contacts, deals, seq
		return err
	}
	return nil
}

func (s *memStore) GetLead(ctx context.Context, id primitive.ObjectID) (models.Lead, error) {
	defer s.lock(ctx)()
	l, ok := s.leads[id]
	if !ok {
		return models.Lead{}, leadconvert.ErrLeadNotFound
	}
	return l, nil
}

func (s *memStore) AccountNameExists(ctx context.Context, name string) (bool, error) {
	defer s.lock(ctx)()
	for _, a := range s.accounts {
		if a.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) CreateAccount(ctx context.Context, a models.Account) (models.Account, error) {
	defer s.lock(ctx)()
	for _, existing := range s.accounts {
		if existing.Name == a.Name {
			return models.Account{}, leadconvert.ErrAccountNameTaken
		}
	}
	a.ID = primitive.NewObjectID()
	s.accounts[a.ID] = a
	return a, nil
}

func (s *memStore) CreateContact(ctx context.Context, c models.Contact) (models.Contact, error) {
	defer s.lock(ctx)()
	if s.failOn == "contact" {
		return models.Contact{}, errInjected
	}
	c.ID = primitive.NewObjectID()
	s.contacts[c.ID] = c
	return c, nil
}

func (s *memStore) CreateDeal(ctx context.Context, d models.Deal) (models.Deal, error) {
	defer s.lock(ctx)()
	if s.failOn == "deal" {
		return models.Deal{}, errInjected
	}
	s.seq++
	d.ID = primitive.NewObjectID()
	d.Number = fmt.Sprintf("D25-%05d", s.seq)
	s.deals[d.ID] = d
	return d, nil
}

func (s *memStore) MarkLeadConverted(ctx context.Context, id primitive.ObjectID) (bool, error) {
	defer s.lock(ctx)()
	if s.failOn == "mark" {
		return false, errInjected
	}
	l, ok := s.leads[id]
	if !ok || l.Status != models.LeadQualified {
		return false, nil
	}
	l.Status = models.LeadConverted
	s.leads[id] = l
	return true, nil
}

// counts returns the number of accounts, contacts and deals.
func (s *memStore) counts() [3]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return [3]int{len(s.accounts), len(s.contacts), len(s.deals)}
}

func (s *memStore) lead(id primitive.ObjectID) models.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leads[id]
}
