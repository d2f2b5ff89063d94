// internal/app/store/deals/dealstore.go
package dealstore

import (
	"context"
	"errors"
	"time"

	counterstore "github.com/dalemusser/salescrm/internal/app/store/counters"
	"github.com/dalemusser/salescrm/internal/app/system/normalize"
	"github.com/dalemusser/salescrm/internal/app/system/txn"
	"github.com/dalemusser/salescrm/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	db       *mongo.Database
	c        *mongo.Collection
	quotes   *mongo.Collection
	counters *counterstore.Store
}

var (
	ErrDuplicateNumber = errors.New("a deal with this number already exists")
	errNameNeeded      = models.ValidationError("deal name is required")
	errAccountNeeded   = models.ValidationError("deal must belong to an account")
	errBadStage        = models.ValidationError("unknown deal stage")
)

func New(db *mongo.Database) *Store {
	return &Store{
		db:       db,
		c:        db.Collection("deals"),
		quotes:   db.Collection("quotes"),
		counters: counterstore.New(db),
	}
}

func checkWritable(d *models.Deal) error {
	d.Name = normalize.Name(d.Name)
	if d.Name == "" {
		return errNameNeeded
	}
	if d.AccountID.IsZero() {
		return errAccountNeeded
	}
	d.Stage = models.DealStage(normalize.Status(string(d.Stage)))
	if d.Stage == "" {
		d.Stage = models.StageProspecting
	}
	if !d.Stage.Valid() {
		return errBadStage
	}
	d.Probability = d.Stage.Probability()
	return nil
}

// Create inserts a deal, assigning the next deal number when Number is
// empty. Probability always follows the stage.
func (s *Store) Create(ctx context.Context, d models.Deal) (models.Deal, error) {
	if err := checkWritable(&d); err != nil {
		return models.Deal{}, err
	}
	if d.Number == "" {
		n, err := s.counters.Next(ctx, counterstore.PrefixDeal)
		if err != nil {
			return models.Deal{}, err
		}
		d.Number = n
	}
	now := time.Now().UTC()
	d.ID = primitive.NewObjectID()
	d.NameCI = text.Fold(d.Name)
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Deal{}, ErrDuplicateNumber
		}
		return models.Deal{}, err
	}
	return d, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Deal, error) {
	var d models.Deal
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return models.Deal{}, err
	}
	return d, nil
}

// Update rewrites the editable fields of a deal. The number is immutable.
// Quotes follow the deal to its new account in the same write.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, d models.Deal) error {
	if err := checkWritable(&d); err != nil {
		return err
	}
	set := bson.M{
		"name":               d.Name,
		"name_ci":            text.Fold(d.Name),
		"account_id":         d.AccountID,
		"primary_contact_id": d.PrimaryContactID,
		"stage":              d.Stage,
		"probability":        d.Probability,
		"amount_cents":       d.AmountCents,
		"currency":           d.Currency,
		"close_date":         d.CloseDate,
		"description":        d.Description,
		"assigned_to":        d.AssignedTo,
		"updated_at":         time.Now().UTC(),
	}
	return txn.Run(ctx, s.db, nil, func(ctx context.Context) error {
		res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return mongo.ErrNoDocuments
		}
		_, err = s.quotes.UpdateMany(ctx,
			bson.M{"deal_id": id, "account_id": bson.M{"$ne": d.AccountID}},
			bson.M{"$set": bson.M{"account_id": d.AccountID, "updated_at": set["updated_at"]}})
		return err
	})
}

// Delete removes a deal by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Find returns deals matching the given filter with optional find options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Deal, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Deal
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stream calls fn for each deal matching filter without loading the
// result set. Iteration stops at the first error.
func (s *Store) Stream(ctx context.Context, filter bson.M, opts *options.FindOptions, fn func(models.Deal) error) error {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var rec models.Deal
		if err := cur.Decode(&rec); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return cur.Err()
}

// Count returns the number of deals matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
