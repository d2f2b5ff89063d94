// Package conversionstore is the MongoDB backing for lead conversion.
package conversionstore

import (
	"context"
	"errors"

	accountstore "github.com/dalemusser/salescrm/internal/app/store/accounts"
	contactstore "github.com/dalemusser/salescrm/internal/app/store/contacts"
	dealstore "github.com/dalemusser/salescrm/internal/app/store/deals"
	leadstore "github.com/dalemusser/salescrm/internal/app/store/leads"
	"github.com/dalemusser/salescrm/internal/app/system/leadconvert"
	"github.com/dalemusser/salescrm/internal/app/system/txn"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store implements leadconvert.Store. Writes made with the context passed
// to WithTransaction's callback join that transaction.
type Store struct {
	db       *mongo.Database
	leads    *leadstore.Store
	accounts *accountstore.Store
	contacts *contactstore.Store
	deals    *dealstore.Store
}

var _ leadconvert.Store = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{
		db:       db,
		leads:    leadstore.New(db),
		accounts: accountstore.New(db),
		contacts: contactstore.New(db),
		deals:    dealstore.New(db),
	}
}

// WithTransaction never runs fn outside a transaction. A deployment without
// transaction support fails the conversion.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return txn.RunStrict(ctx, s.db, fn)
}

func (s *Store) GetLead(ctx context.Context, id primitive.ObjectID) (models.Lead, error) {
	l, err := s.leads.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Lead{}, leadconvert.ErrLeadNotFound
	}
	return l, err
}

func (s *Store) AccountNameExists(ctx context.Context, name string) (bool, error) {
	return s.accounts.NameExists(ctx, name)
}

func (s *Store) CreateAccount(ctx context.Context, a models.Account) (models.Account, error) {
	created, err := s.accounts.Create(ctx, a)
	if errors.Is(err, accountstore.ErrDuplicateAccount) {
		return models.Account{}, leadconvert.ErrAccountNameTaken
	}
	return created, err
}

func (s *Store) CreateContact(ctx context.Context, c models.Contact) (models.Contact, error) {
	return s.contacts.Create(ctx, c)
}

func (s *Store) CreateDeal(ctx context.Context, d models.Deal) (models.Deal, error) {
	return s.deals.Create(ctx, d)
}

func (s *Store) MarkLeadConverted(ctx context.Context, id primitive.ObjectID) (bool, error) {
	return s.leads.MarkConverted(ctx, id)
}
