package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Territory is a named sales region. It has at most one manager; sales
// associates join it through users.territory_id.
type Territory struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	Name        string              `bson:"name" json:"name"`
	NameCI      string              `bson:"name_ci" json:"-"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	ManagerID   *primitive.ObjectID `bson:"manager_id,omitempty" json:"manager_id,omitempty"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updated_at"`
}
