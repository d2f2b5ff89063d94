// internal/app/store/activities/activitystore.go
package activitystore

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

// Store holds tasks, calls and meetings in one collection, discriminated
// by kind. Every read and write is pinned to the store's kind.
type Store struct {
	c    *mongo.Collection
	kind models.ActivityKind
}

var (
	errSubjectNeeded = models.ValidationError("subject is required")
	errBadStatus     = models.ValidationError("unknown status for this activity kind")
	errBadTimes      = models.ValidationError("end time must be after start time")
)

func New(db *mongo.Database, kind models.ActivityKind) *Store {
	return &Store{c: db.Collection("activities"), kind: kind}
}

// Kind returns the activity kind this store serves.
func (s *Store) Kind() models.ActivityKind { return s.kind }

// DefaultStatus is the initial status for new activities of this kind.
func (s *Store) DefaultStatus() string {
	if s.kind == models.ActivityTask {
		return models.TaskNotStarted
	}
	return models.EventPlanned
}

// ValidStatus reports whether st applies to this kind.
func (s *Store) ValidStatus(st string) bool {
	if s.kind == models.ActivityTask {
		switch st {
		case models.TaskNotStarted, models.TaskInProgress, models.TaskCompleted, models.TaskDeferred:
			return true
		}
		return false
	}
	switch st {
	case models.EventPlanned, models.EventHeld, models.EventNotHeld, models.EventCancelled:
		return true
	}
	return false
}

func (s *Store) checkWritable(a *models.Activity) error {
	a.Kind = s.kind
	a.Subject = normalize.Name(a.Subject)
	if a.Subject == "" {
		return errSubjectNeeded
	}
	a.Status = normalize.Status(a.Status)
	if a.Status == "" {
		a.Status = s.DefaultStatus()
	}
	if !s.ValidStatus(a.Status) {
		return errBadStatus
	}
	if a.StartTime != nil && a.EndTime != nil && !a.EndTime.After(*a.StartTime) {
		return errBadTimes
	}
	a.SubjectCI = text.Fold(a.Subject)
	return nil
}

// pin restricts filter to the store's kind.
func (s *Store) pin(filter bson.M) bson.M {
	if len(filter) == 0 {
		return bson.M{"kind": s.kind}
	}
	return bson.M{"$and": bson.A{bson.M{"kind": s.kind}, filter}}
}

func (s *Store) Create(ctx context.Context, a models.Activity) (models.Activity, error) {
	if err := s.checkWritable(&a); err != nil {
		return models.Activity{}, err
	}
	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Activity{}, err
	}
	return a, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Activity, error) {
	var a models.Activity
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "kind": s.kind}).Decode(&a); err != nil {
		return models.Activity{}, err
	}
	return a, nil
}

// Update rewrites the editable fields of an activity.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, a models.Activity) error {
	if err := s.checkWritable(&a); err != nil {
		return err
	}
	set := bson.M{
		"subject":            a.Subject,
		"subject_ci":         a.SubjectCI,
		"status":             a.Status,
		"priority":           a.Priority,
		"due_date":           a.DueDate,
		"start_time":         a.StartTime,
		"end_time":           a.EndTime,
		"duration_minutes":   a.DurationMinutes,
		"direction":          a.Direction,
		"location":           a.Location,
		"description":        a.Description,
		"related_account_id": a.AccountID,
		"related_contact_id": a.ContactID,
		"related_lead_id":    a.LeadID,
		"related_deal_id":    a.DealID,
		"assigned_to":        a.AssignedTo,
		"updated_at":         time.Now().UTC(),
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "kind": s.kind}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes an activity by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "kind": s.kind})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Find returns activities of this kind matching filter.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Activity, error) {
	cur, err := s.c.Find(ctx, s.pin(filter), opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Activity
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stream calls fn for each activity of this kind matching filter without
// loading the result set. Iteration stops at the first error.
func (s *Store) Stream(ctx context.Context, filter bson.M, opts *options.FindOptions, fn func(models.Activity) error) error {
	cur, err := s.c.Find(ctx, s.pin(filter), opts)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var rec models.Activity
		if err := cur.Decode(&rec); err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return cur.Err()
}

// Count returns the number of activities of this kind matching filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, s.pin(filter))
}
