// Package teamscope answers the territory and team questions behind
// manager visibility. Every call reads current state; nothing is cached.
package teamscope

import (
	"context"

	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Directory implements recordpolicy.Directory over MongoDB.
type Directory struct {
	territories *mongo.Collection
	users       *mongo.Collection
	accounts    *mongo.Collection
}

// New creates a Directory that queries the given database.
func New(db *mongo.Database) *Directory {
	return &Directory{
		territories: db.Collection("territories"),
		users:       db.Collection("users"),
		accounts:    db.Collection("accounts"),
	}
}

// ManagedTerritoryIDs returns the territories whose manager is managerID.
func (d *Directory) ManagedTerritoryIDs(ctx context.Context, managerID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return distinctIDs(ctx, d.territories, "_id", bson.M{"manager_id": managerID})
}

// SalesTeamIDs returns SALES users assigned to any of territoryIDs,
// excluding the given user. Disabled users stay on the team so their
// records remain visible to the manager.
func (d *Directory) SalesTeamIDs(ctx context.Context, territoryIDs []primitive.ObjectID, exclude primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(territoryIDs) == 0 {
		return nil, nil
	}
	return distinctIDs(ctx, d.users, "_id", bson.M{
		"role":         models.RoleSales,
		"territory_id": bson.M{"$in": territoryIDs},
		"_id":          bson.M{"$ne": exclude},
	})
}

// AccountIDsInTerritories returns accounts assigned to any of territoryIDs.
func (d *Directory) AccountIDsInTerritories(ctx context.Context, territoryIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(territoryIDs) == 0 {
		return nil, nil
	}
	return distinctIDs(ctx, d.accounts, "_id", bson.M{"territory_id": bson.M{"$in": territoryIDs}})
}

func distinctIDs(ctx context.Context, c *mongo.Collection, field string, filter bson.M) ([]primitive.ObjectID, error) {
	cur, err := c.Find(ctx, filter, options.Find().SetProjection(bson.M{field: 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row bson.M
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		if id, ok := row[field].(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, cur.Err()
}
