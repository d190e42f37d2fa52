package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoalType is the measurement a personal goal tracks.
type GoalType string

const (
	GoalWeight  GoalType = "weight"
	GoalWaist   GoalType = "waist"
	GoalBodyFat GoalType = "body_fat"
)

// GoalRecord is an optional coach-defined numeric goal for an assignment.
// TargetValue is the intended change amount, not an absolute target.
// Exactly one record per assignment carries IsPrimary=true; the repository
// demotes the others before promoting a new one.
type GoalRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AssignmentID  primitive.ObjectID `bson:"assignmentId" json:"assignmentId"`
	GoalType      GoalType           `bson:"goalType" json:"goalType"`
	GoalName      string             `bson:"goalName" json:"goalName"`
	StartingValue float64            `bson:"startingValue" json:"startingValue"`
	CurrentValue  float64            `bson:"currentValue" json:"currentValue"`
	TargetValue   float64            `bson:"targetValue" json:"targetValue"`
	Unit          string             `bson:"unit" json:"unit"`
	Deadline      *time.Time         `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Motivation    string             `bson:"motivation,omitempty" json:"motivation,omitempty"`
	AutoTrack     bool               `bson:"autoTrack" json:"autoTrack"`
	IsPrimary     bool               `bson:"isPrimary" json:"isPrimary"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// GoalProgress is the derived progress of a goal. Deadline tiering is a
// presentation concern; DaysToDeadline is informational only.
type GoalProgress struct {
	GoalID         primitive.ObjectID `json:"goalId"`
	Change         float64            `json:"change"`
	Percentage     int                `json:"percentage"`
	Achieved       bool               `json:"achieved"`
	Remaining      float64            `json:"remaining"`
	DaysToDeadline *int               `json:"daysToDeadline,omitempty"`
}
