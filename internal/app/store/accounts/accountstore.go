// internal/app/store/accounts/accountstore.go
package accountstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/salescrm/internal/app/system/normalize"
	"github.com/dalemusser/salescrm/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateAccount = errors.New("an account with this name already exists")
	errNameNeeded       = models.ValidationError("account name is required")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("accounts")}
}

// Create inserts an account. Names are unique across all accounts.
func (s *Store) Create(ctx context.Context, a models.Account) (models.Account, error) {
	a.Name = normalize.Name(a.Name)
	if a.Name == "" {
		return models.Account{}, errNameNeeded
	}
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.NameCI = text.Fold(a.Name)
	if a.Status == "" {
		a.Status = models.AccountActive
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Account{}, ErrDuplicateAccount
		}
		return models.Account{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Account, error) {
	var a models.Account
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		return models.Account{}, err
	}
	return a, nil
}

// NameExists reports whether an account already uses name exactly.
func (s *Store) NameExists(ctx context.Context, name string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"name": normalize.Name(name)},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Update rewrites the editable fields of an account. created_by never changes.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, a models.Account) error {
	name := normalize.Name(a.Name)
	if name == "" {
		return errNameNeeded
	}
	set := bson.M{
		"name":             name,
		"name_ci":          text.Fold(name),
		"website":          a.Website,
		"phone":            a.Phone,
		"billing_address":  a.BillingAddress,
		"shipping_address": a.ShippingAddress,
		"industry":         a.Industry,
		"status":           a.Status,
		"territory_id":     a.TerritoryID,
		"assigned_to":      a.AssignedTo,
		"updated_at":       time.Now().UTC(),
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateAccount
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes an account by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Find returns accounts matching the given filter with optional find options.
// The caller is responsible for building the filter and options (scope, paging, sorting).
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Account, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Account
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stream calls fn for each account matching filter without loading the
// result set. Iteration stops at the first error.
func (s *Store) Stream(ctx context.Context, filter bson.M, opts *options.FindOptions, fn func(models.Account) error) error {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var rec models.Account
		if err := cur.Decode(&rec); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return cur.Err()
}

// Count returns the number of accounts matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
