// internal/app/store/quotes/quotestore.go
package quotestore

import (
	"context"
	"errors"
	"time"

	counterstore "github.com/dalemusser/salescrm/internal/app/store/counters"
	"github.com/dalemusser/salescrm/internal/app/system/normalize"
	"github.com/dalemusser/salescrm/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultValidityDays applies when a quote is saved without a validity window.
const DefaultValidityDays = 30

type Store struct {
	c        *mongo.Collection
	deals    *mongo.Collection
	counters *counterstore.Store
}

var (
	ErrDuplicateNumber = errors.New("a quote with this number already exists")
	// ErrDealNotFound is returned when a quote references a missing deal.
	ErrDealNotFound = errors.New("quote deal does not exist")
	errBadStatus    = models.ValidationError("unknown quote status")
)

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("quotes"),
		deals:    db.Collection("deals"),
		counters: counterstore.New(db),
	}
}

func validStatus(s string) bool {
	switch s {
	case models.QuoteDraft, models.QuotePresented, models.QuoteAccepted, models.QuoteRejected:
		return true
	}
	return false
}

// dealAccount returns the account of the quote's deal. account_id is always
// derived, never taken from input.
func (s *Store) dealAccount(ctx context.Context, dealID primitive.ObjectID) (*primitive.ObjectID, error) {
	var d struct {
		AccountID primitive.ObjectID `bson:"account_id"`
	}
	err := s.deals.FindOne(ctx, bson.M{"_id": dealID},
		options.FindOne().SetProjection(bson.M{"account_id": 1})).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, ErrDealNotFound
	}
	if err != nil {
		return nil, err
	}
	return models.Ptr(d.AccountID), nil
}

func (s *Store) prepare(ctx context.Context, q *models.Quote) error {
	q.Status = normalize.Status(q.Status)
	if q.Status == "" {
		q.Status = models.QuoteDraft
	}
	if !validStatus(q.Status) {
		return errBadStatus
	}
	if q.ValidityDays <= 0 {
		q.ValidityDays = DefaultValidityDays
	}
	acct, err := s.dealAccount(ctx, q.DealID)
	if err != nil {
		return err
	}
	q.AccountID = acct
	return nil
}

func (s *Store) Create(ctx context.Context, q models.Quote) (models.Quote, error) {
	if err := s.prepare(ctx, &q); err != nil {
		return models.Quote{}, err
	}
	if q.Number == "" {
		n, err := s.counters.Next(ctx, counterstore.PrefixQuote)
		if err != nil {
			return models.Quote{}, err
		}
		q.Number = n
	}
	now := time.Now().UTC()
	q.ID = primitive.NewObjectID()
	q.CreatedAt = now
	q.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, q); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Quote{}, ErrDuplicateNumber
		}
		return models.Quote{}, err
	}
	return q, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Quote, error) {
	var q models.Quote
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&q); err != nil {
		return models.Quote{}, err
	}
	return q, nil
}

// Update rewrites the editable fields of a quote and re-derives account_id.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, q models.Quote) error {
	if err := s.prepare(ctx, &q); err != nil {
		return err
	}
	set := bson.M{
		"deal_id":        q.DealID,
		"account_id":     q.AccountID,
		"contact_id":     q.ContactID,
		"presented_date": q.PresentedDate,
		"validity_days":  q.ValidityDays,
		"status":         q.Status,
		"total_cents":    q.TotalCents,
		"notes":          q.Notes,
		"assigned_to":    q.AssignedTo,
		"updated_at":     time.Now().UTC(),
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a quote by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Find returns quotes matching the given filter with optional find options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Quote, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Quote
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stream calls fn for each quote matching filter without loading the
// result set. Iteration stops at the first error.
func (s *Store) Stream(ctx context.Context, filter bson.M, opts *options.FindOptions, fn func(models.Quote) error) error {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var rec models.Quote
		if err := cur.Decode(&rec); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return cur.Err()
}

// Count returns the number of quotes matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
