// internal/app/store/territories/territorystore.go
package territorystore

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
	ErrDuplicateTerritory = errors.New("a territory with this name already exists")
	errNameNeeded         = models.ValidationError("territory name is required")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("territories")}
}

func (s *Store) Create(ctx context.Context, t models.Territory) (models.Territory, error) {
	t.Name = normalize.Name(t.Name)
	if t.Name == "" {
		return models.Territory{}, errNameNeeded
	}
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.NameCI = text.Fold(t.Name)
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Territory{}, ErrDuplicateTerritory
		}
		return models.Territory{}, err
	}
	return t, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Territory, error) {
	var t models.Territory
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return models.Territory{}, err
	}
	return t, nil
}

// Update rewrites name, description and manager. A nil manager leaves the
// territory unmanaged.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, t models.Territory) error {
	name := normalize.Name(t.Name)
	if name == "" {
		return errNameNeeded
	}
	set := bson.M{
		"name":        name,
		"name_ci":     text.Fold(name),
		"description": t.Description,
		"updated_at":  time.Now().UTC(),
	}
	doc := bson.M{"$set": set}
	if t.ManagerID != nil {
		set["manager_id"] = *t.ManagerID
	} else {
		doc["$unset"] = bson.M{"manager_id": ""}
	}

	res, err := s.c.UpdateByID(ctx, id, doc)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateTerritory
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ManagedBy returns the ids of territories whose manager is managerID.
func (s *Store) ManagedBy(ctx context.Context, managerID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"manager_id": managerID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// Find returns territories matching the given filter with optional find options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Territory, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Territory
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of territories matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
