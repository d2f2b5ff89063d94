// Package cascade deletes a record together with the records that depend
// on it. Each delete runs in one transaction when the deployment supports it.
//
// Dependents:
//   - account: its contacts, deals, quotes, and activities related to any of them
//   - deal: its quotes and related activities
//   - contact: related activities; deal primary contact and quote contact are cleared
//   - lead: related activities
package cascade

import (
	"context"

	"github.com/dalemusser/salescrm/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Deleter removes records and their dependents.
type Deleter struct {
	db  *mongo.Database
	log *zap.Logger
}

func New(db *mongo.Database, log *zap.Logger) *Deleter {
	return &Deleter{db: db, log: log}
}

func (d *Deleter) coll(name string) *mongo.Collection { return d.db.Collection(name) }

func (d *Deleter) ids(ctx context.Context, coll string, filter bson.M) ([]primitive.ObjectID, error) {
	cur, err := d.coll(coll).Find(ctx, filter, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []primitive.ObjectID{} // never nil; $in rejects null
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out = append(out, row.ID)
	}
	return out, cur.Err()
}

func (d *Deleter) deleteOne(ctx context.Context, coll string, id primitive.ObjectID) (int64, error) {
	res, err := d.coll(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (d *Deleter) deleteMany(ctx context.Context, coll string, filter bson.M) error {
	_, err := d.coll(coll).DeleteMany(ctx, filter)
	return err
}

// Account deletes an account and everything attached to it. It returns the
// number of accounts deleted (0 or 1).
func (d *Deleter) Account(ctx context.Context, id primitive.ObjectID) (int64, error) {
	var deleted int64
	err := txn.Run(ctx, d.db, d.log, func(ctx context.Context) error {
		contacts, err := d.ids(ctx, "contacts", bson.M{"account_id": id})
		if err != nil {
			return err
		}
		deals, err := d.ids(ctx, "deals", bson.M{"account_id": id})
		if err != nil {
			return err
		}

		if err := d.deleteMany(ctx, "activities", bson.M{"$or": bson.A{
			bson.M{"related_account_id": id},
			bson.M{"related_contact_id": bson.M{"$in": contacts}},
			bson.M{"related_deal_id": bson.M{"$in": deals}},
		}}); err != nil {
			return err
		}
		if err := d.deleteMany(ctx, "quotes", bson.M{"$or": bson.A{
			bson.M{"account_id": id},
			bson.M{"deal_id": bson.M{"$in": deals}},
		}}); err != nil {
			return err
		}
		if err := d.deleteMany(ctx, "deals", bson.M{"account_id": id}); err != nil {
			return err
		}
		if err := d.deleteMany(ctx, "contacts", bson.M{"account_id": id}); err != nil {
			return err
		}
		deleted, err = d.deleteOne(ctx, "accounts", id)
		return err
	})
	return deleted, err
}

// Deal deletes a deal, its quotes and related activities.
func (d *Deleter) Deal(ctx context.Context, id primitive.ObjectID) (int64, error) {
	var deleted int64
	err := txn.Run(ctx, d.db, d.log, func(ctx context.Context) error {
		if err := d.deleteMany(ctx, "activities", bson.M{"related_deal_id": id}); err != nil {
			return err
		}
		if err := d.deleteMany(ctx, "quotes", bson.M{"deal_id": id}); err != nil {
			return err
		}
		var err error
		deleted, err = d.deleteOne(ctx, "deals", id)
		return err
	})
	return deleted, err
}

// Contact deletes a contact and its related activities, and clears
// references to it from deals and quotes.
func (d *Deleter) Contact(ctx context.Context, id primitive.ObjectID) (int64, error) {
	var deleted int64
	err := txn.Run(ctx, d.db, d.log, func(ctx context.Context) error {
		if err := d.deleteMany(ctx, "activities", bson.M{"related_contact_id": id}); err != nil {
			return err
		}
		if _, err := d.coll("deals").UpdateMany(ctx,
			bson.M{"primary_contact_id": id},
			bson.M{"$unset": bson.M{"primary_contact_id": ""}}); err != nil {
			return err
		}
		if _, err := d.coll("quotes").UpdateMany(ctx,
			bson.M{"contact_id": id},
			bson.M{"$unset": bson.M{"contact_id": ""}}); err != nil {
			return err
		}
		var err error
		deleted, err = d.deleteOne(ctx, "contacts", id)
		return err
	})
	return deleted, err
}

// Lead deletes a lead and its related activities.
func (d *Deleter) Lead(ctx context.Context, id primitive.ObjectID) (int64, error) {
	var deleted int64
	err := txn.Run(ctx, d.db, d.log, func(ctx context.Context) error {
		if err := d.deleteMany(ctx, "activities", bson.M{"related_lead_id": id}); err != nil {
			return err
		}
		var err error
		deleted, err = d.deleteOne(ctx, "leads", id)
		return err
	})
	return deleted, err
}
