// internal/app/store/contacts/contactstore.go
package contactstore

import (
	"context"
	"time"

	"github.com/dalemusser/salescrm/internal/app/system/normalize"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var errLastNameNeeded = models.ValidationError("contact last name is required")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("contacts")}
}

func (s *Store) Create(ctx context.Context, c models.Contact) (models.Contact, error) {
	c.FirstName = normalize.Name(c.FirstName)
	c.LastName = normalize.Name(c.LastName)
	if c.LastName == "" {
		return models.Contact{}, errLastNameNeeded
	}
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Email = normalize.Email(c.Email)
	c.NameCI = text.Fold(c.FullName())
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Contact{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Contact, error) {
	var c models.Contact
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Contact{}, err
	}
	return c, nil
}

// Update rewrites the editable fields of a contact.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, c models.Contact) error {
	c.FirstName = normalize.Name(c.FirstName)
	c.LastName = normalize.Name(c.LastName)
	if c.LastName == "" {
		return errLastNameNeeded
	}
	set := bson.M{
		"first_name":     c.FirstName,
		"last_name":      c.LastName,
		"name_ci":        text.Fold(c.FullName()),
		"account_id":     c.AccountID,
		"title":          c.Title,
		"department":     c.Department,
		"email":          normalize.Email(c.Email),
		"work_phone":     c.WorkPhone,
		"mobile_phone_1": c.MobilePhone1,
		"mobile_phone_2": c.MobilePhone2,
		"notes":          c.Notes,
		"assigned_to":    c.AssignedTo,
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

// Delete removes a contact by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Find returns contacts matching the given filter with optional find options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Contact, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Contact
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stream calls fn for each contact matching filter without loading the
// result set. Iteration stops at the first error.
func (s *Store) Stream(ctx context.Context, filter bson.M, opts *options.FindOptions, fn func(models.Contact) error) error {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var rec models.Contact
		if err := cur.Decode(&rec); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return cur.Err()
}

// Count returns the number of contacts matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
