// Package counterstore hands out yearly document numbers such as D25-00001.
package counterstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Number prefixes.
const (
	PrefixDeal  = "D"
	PrefixQuote = "Q"
)

type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("counters"), now: time.Now}
}

// Next reserves the next number for prefix in the current year and
// formats it as <prefix><yy>-<nnnnn>. Sequences restart every year.
// When ctx carries a session the increment joins its transaction.
func (s *Store) Next(ctx context.Context, prefix string) (string, error) {
	yy := s.now().UTC().Year() % 100
	key := fmt.Sprintf("%s%02d", prefix, yy)

	var row struct {
		Seq int64 `bson:"seq"`
	}
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&row)
	if err != nil {
		return "", fmt.Errorf("next %s number: %w", prefix, err)
	}
	return Format(prefix, yy, row.Seq), nil
}

// Format renders a document number.
func Format(prefix string, yy int, seq int64) string {
	return fmt.Sprintf("%s%02d-%05d", prefix, yy, seq)
}
