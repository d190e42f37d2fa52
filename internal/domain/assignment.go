package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChallengeLengthDays is the fixed length of a challenge before pause extension.
const ChallengeLengthDays = 56

// ChallengeAssignment is a coach-issued 56-day challenge for a client.
// At most one assignment per client may have IsActive=true at a time;
// the store enforces this with a partial unique index (see mongo package).
type ChallengeAssignment struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID        primitive.ObjectID `bson:"clientId" json:"clientId"`
	CoachID         primitive.ObjectID `bson:"coachId" json:"coachId"`
	StartDate       time.Time          `bson:"startDate" json:"startDate"`
	EndDate         time.Time          `bson:"endDate" json:"endDate"`
	IsActive        bool               `bson:"isActive" json:"isActive"`
	IsPaused        bool               `bson:"isPaused" json:"isPaused"`
	PauseReason     string             `bson:"pauseReason,omitempty" json:"pauseReason,omitempty"`
	PausedAt        *time.Time         `bson:"pausedAt,omitempty" json:"pausedAt,omitempty"`
	TotalPausedDays int                `bson:"totalPausedDays" json:"totalPausedDays"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ChallengeWindow is the derived active date range for an assignment.
// It is computed per request and never persisted. Today carries the
// caller-supplied evaluation date so every downstream computation is
// deterministic.
type ChallengeWindow struct {
	EffectiveStart time.Time `json:"effectiveStart"`
	EffectiveEnd   time.Time `json:"effectiveEnd"`
	CurrentDay     int       `json:"currentDay"`
	DaysRemaining  int       `json:"daysRemaining"`
	Today          time.Time `json:"-"`
}

// Contains reports whether d falls inside [EffectiveStart, EffectiveEnd].
func (w ChallengeWindow) Contains(d time.Time) bool {
	return !d.Before(w.EffectiveStart) && !d.After(w.EffectiveEnd)
}
