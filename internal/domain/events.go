package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntrySource distinguishes organic client data from coach adjustments.
type EntrySource string

const (
	SourceClient EntrySource = "client"
	SourceManual EntrySource = "manual"
)

// WorkoutCompletion is one logged workout day. Owned by the workout
// subsystem; the engine reads and (for manual adjustments) writes rows
// through the workout rule only.
type WorkoutCompletion struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientID   primitive.ObjectID  `bson:"clientId" json:"clientId"`
	Date       time.Time           `bson:"date" json:"date"`
	Completed  bool                `bson:"completed" json:"completed"`
	Source     EntrySource         `bson:"source" json:"source"`
	Note       string              `bson:"note,omitempty" json:"note,omitempty"`
	AdjustedBy *primitive.ObjectID `bson:"adjustedBy,omitempty" json:"adjustedBy,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
}

// MealProgressDay is one day of meal tracking. A day is "tracked" when any
// of MealsConsumed, ManualIntake or CompletionPercentage shows activity.
type MealProgressDay struct {
	ID                   primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientID             primitive.ObjectID  `bson:"clientId" json:"clientId"`
	Date                 time.Time           `bson:"date" json:"date"`
	MealsConsumed        int                 `bson:"mealsConsumed" json:"mealsConsumed"`
	ManualIntake         *float64            `bson:"manualIntake,omitempty" json:"manualIntake,omitempty"`
	CompletionPercentage int                 `bson:"completionPercentage" json:"completionPercentage"`
	Source               EntrySource         `bson:"source" json:"source"`
	Note                 string              `bson:"note,omitempty" json:"note,omitempty"`
	AdjustedBy           *primitive.ObjectID `bson:"adjustedBy,omitempty" json:"adjustedBy,omitempty"`
	CreatedAt            time.Time           `bson:"createdAt" json:"createdAt"`
}

// Tracked reports whether the day counts toward the 45-day meal requirement.
// Note: this is deliberately looser than the streak predicate (>=50%).
func (m MealProgressDay) Tracked() bool {
	return m.MealsConsumed > 0 || m.ManualIntake != nil || m.CompletionPercentage > 0
}

// WeighIn is one weigh-in entry. Only Friday entries count toward the
// weekly weigh-in requirement.
type WeighIn struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientID   primitive.ObjectID  `bson:"clientId" json:"clientId"`
	Date       time.Time           `bson:"date" json:"date"`
	Weight     float64             `bson:"weight" json:"weight"`
	Source     EntrySource         `bson:"source" json:"source"`
	Note       string              `bson:"note,omitempty" json:"note,omitempty"`
	AdjustedBy *primitive.ObjectID `bson:"adjustedBy,omitempty" json:"adjustedBy,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
}

// IsFridayWeighIn reports whether the entry lands on a Friday.
func (w WeighIn) IsFridayWeighIn() bool {
	return w.Date.Weekday() == time.Friday
}

// PhotoType is the camera angle of a progress photo.
type PhotoType string

const (
	PhotoFront PhotoType = "front"
	PhotoSide  PhotoType = "side"
)

// ProgressPhoto is one progress photo row. A Friday with both a front and a
// side photo forms a complete set.
type ProgressPhoto struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientID   primitive.ObjectID  `bson:"clientId" json:"clientId"`
	Date       time.Time           `bson:"date" json:"date"`
	Type       PhotoType           `bson:"type" json:"type"`
	ObjectKey  string              `bson:"objectKey" json:"objectKey"`
	Source     EntrySource         `bson:"source" json:"source"`
	Note       string              `bson:"note,omitempty" json:"note,omitempty"`
	AdjustedBy *primitive.ObjectID `bson:"adjustedBy,omitempty" json:"adjustedBy,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
}

// CallStatus is the lifecycle state of a coaching call.
type CallStatus string

const (
	CallScheduled CallStatus = "scheduled"
	CallCompleted CallStatus = "completed"
	CallMissed    CallStatus = "missed"
)

// CompletedCall is one coaching call row. Only status "completed" counts.
type CompletedCall struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientID      primitive.ObjectID  `bson:"clientId" json:"clientId"`
	PlanID        primitive.ObjectID  `bson:"planId" json:"planId"`
	ScheduledDate time.Time           `bson:"scheduledDate" json:"scheduledDate"`
	Status        CallStatus          `bson:"status" json:"status"`
	Source        EntrySource         `bson:"source" json:"source"`
	Note          string              `bson:"note,omitempty" json:"note,omitempty"`
	AdjustedBy    *primitive.ObjectID `bson:"adjustedBy,omitempty" json:"adjustedBy,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
}

// CallPlan is a coach's call schedule template. Manual call insertion needs
// a plan id to attach the synthetic call to.
type CallPlan struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID   primitive.ObjectID `bson:"coachId" json:"coachId"`
	Name      string             `bson:"name" json:"name"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
