package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityKind names the three activity collections.
type ActivityKind string

const (
	ActivityTask    ActivityKind = "task"
	ActivityCall    ActivityKind = "call"
	ActivityMeeting ActivityKind = "meeting"
)

// Activity status values. Tasks use the first group, calls and meetings
// the second.
const (
	TaskNotStarted = "NOT_STARTED"
	TaskInProgress = "IN_PROGRESS"
	TaskCompleted  = "COMPLETED"
	TaskDeferred   = "DEFERRED"

	EventPlanned   = "PLANNED"
	EventHeld      = "HELD"
	EventNotHeld   = "NOT_HELD"
	EventCancelled = "CANCELLED"
)

// Task priorities and call directions.
const (
	PriorityLow    = "LOW"
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"

	CallIncoming = "INCOMING"
	CallOutgoing = "OUTGOING"
)

// Activity is a task, call, or meeting. Fields that do not apply to a kind
// are left empty. Activities carry no territory signal.
type Activity struct {
	ID              primitive.ObjectID  `bson:"_id" json:"id"`
	Kind            ActivityKind        `bson:"kind" json:"kind"`
	Subject         string              `bson:"subject" json:"subject"`
	SubjectCI       string              `bson:"subject_ci" json:"-"`
	Status          string              `bson:"status" json:"status"`
	// Priority and DueDate are task fields. StartTime is set for calls and
	// meetings, EndTime for meetings only.
	Priority        string              `bson:"priority,omitempty" json:"priority,omitempty"`
	DueDate         *time.Time          `bson:"due_date,omitempty" json:"due_date,omitempty"`
	StartTime       *time.Time          `bson:"start_time,omitempty" json:"start_time,omitempty"`
	EndTime         *time.Time          `bson:"end_time,omitempty" json:"end_time,omitempty"`
	DurationMinutes int                 `bson:"duration_minutes,omitempty" json:"duration_minutes,omitempty"`
	Direction       string              `bson:"direction,omitempty" json:"direction,omitempty"` // call: INCOMING | OUTGOING
	Location        string              `bson:"location,omitempty" json:"location,omitempty"`
	Description     string              `bson:"description,omitempty" json:"description,omitempty"`
	AccountID       *primitive.ObjectID `bson:"related_account_id,omitempty" json:"related_account_id,omitempty"`
	ContactID       *primitive.ObjectID `bson:"related_contact_id,omitempty" json:"related_contact_id,omitempty"`
	LeadID          *primitive.ObjectID `bson:"related_lead_id,omitempty" json:"related_lead_id,omitempty"`
	DealID          *primitive.ObjectID `bson:"related_deal_id,omitempty" json:"related_deal_id,omitempty"`

	Ownership `bson:",inline"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ScopeRef returns the reference stored under a scoping field. Related
// accounts are not a scoping signal for activities.
func (a Activity) ScopeRef(field string) primitive.ObjectID {
	return refOrNil(a.Ownership, field, nil, nil)
}
