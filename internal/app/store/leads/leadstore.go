// internal/app/store/leads/leadstore.go
package leadstore

import (
	"context"
	"errors"
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

var (
	// ErrConverted is returned when editing a lead that has been converted.
	ErrConverted = errors.New("lead has already been converted")
	// ErrConvertViaWorkflow is returned when a plain write tries to set CONVERTED.
	ErrConvertViaWorkflow = errors.New("leads become CONVERTED only through conversion")

	errLastNameNeeded = models.ValidationError("lead last name is required")
	errBadStatus      = models.ValidationError("unknown lead status")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("leads")}
}

func checkWritable(l *models.Lead) error {
	l.FirstName = normalize.Name(l.FirstName)
	l.LastName = normalize.Name(l.LastName)
	if l.LastName == "" {
		return errLastNameNeeded
	}
	l.Status = models.LeadStatus(normalize.Status(string(l.Status)))
	if l.Status == "" {
		l.Status = models.LeadNew
	}
	if !l.Status.Valid() {
		return errBadStatus
	}
	if l.Status == models.LeadConverted {
		return ErrConvertViaWorkflow
	}
	return nil
}

func (s *Store) Create(ctx context.Context, l models.Lead) (models.Lead, error) {
	if err := checkWritable(&l); err != nil {
		return models.Lead{}, err
	}
	now := time.Now().UTC()
	l.ID = primitive.NewObjectID()
	l.Email = normalize.Email(l.Email)
	l.NameCI = text.Fold(l.FullName())
	l.CreatedAt = now
	l.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, l); err != nil {
		return models.Lead{}, err
	}
	return l, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Lead, error) {
	var l models.Lead
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		return models.Lead{}, err
	}
	return l, nil
}

// Update rewrites the editable fields of a lead. Converted leads are frozen.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, l models.Lead) error {
	if err := checkWritable(&l); err != nil {
		return err
	}
	set := bson.M{
		"first_name":     l.FirstName,
		"last_name":      l.LastName,
		"name_ci":        text.Fold(l.FullName()),
		"company_name":   l.CompanyName,
		"title":          l.Title,
		"department":     l.Department,
		"email":          normalize.Email(l.Email),
		"work_phone":     l.WorkPhone,
		"mobile_phone_1": l.MobilePhone1,
		"mobile_phone_2": l.MobilePhone2,
		"address":        l.Address,
		"notes":          l.Notes,
		"status":         l.Status,
		"source":         l.Source,
		"territory_id":   l.TerritoryID,
		"assigned_to":    l.AssignedTo,
		"updated_at":     time.Now().UTC(),
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.LeadConverted}},
		bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrConverted
	}
	return nil
}

// MarkConverted flips a QUALIFIED lead to CONVERTED. It reports false when
// the lead was not QUALIFIED at the time of the write, which is how a
// concurrent converter loses the race.
func (s *Store) MarkConverted(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.LeadQualified},
		bson.M{"$set": bson.M{
			"status":     models.LeadConverted,
			"updated_at": time.Now().UTC(),
		}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// Delete removes a lead by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Find returns leads matching the given filter with optional find options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Lead, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Lead
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stream calls fn for each lead matching filter without loading the whole
// result set. Iteration stops at the first error.
func (s *Store) Stream(ctx context.Context, filter bson.M, opts *options.FindOptions, fn func(models.Lead) error) error {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var l models.Lead
		if err := cur.Decode(&l); err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
	}
	return cur.Err()
}

// Count returns the number of leads matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
