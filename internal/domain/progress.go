package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequirementKind identifies one of the five compliance dimensions.
type RequirementKind string

const (
	RequirementWorkout RequirementKind = "workout"
	RequirementMeal    RequirementKind = "meal"
	RequirementWeight  RequirementKind = "weight"
	RequirementPhoto   RequirementKind = "photo"
	RequirementCall    RequirementKind = "call"
)

// RequirementKinds lists all kinds in rollup order.
var RequirementKinds = []RequirementKind{
	RequirementWorkout,
	RequirementMeal,
	RequirementWeight,
	RequirementPhoto,
	RequirementCall,
}

// Required returns the threshold a client must reach for this kind.
func (k RequirementKind) Required() int {
	switch k {
	case RequirementWorkout:
		return 24
	case RequirementMeal:
		return 45
	case RequirementWeight, RequirementPhoto, RequirementCall:
		return 8
	}
	return 0
}

// Valid reports whether k names a known requirement.
func (k RequirementKind) Valid() bool {
	return k.Required() > 0
}

// RequirementStatus is the evaluated state of one requirement for one client.
type RequirementStatus struct {
	Kind          RequirementKind     `json:"kind"`
	Current       int                 `json:"current"`
	Required      int                 `json:"required"`
	Met           bool                `json:"met"`
	Percentage    int                 `json:"percentage"`
	LastEntryDate *time.Time          `json:"lastEntryDate,omitempty"`
	LastEntryRef  *primitive.ObjectID `json:"lastEntryRef,omitempty"`
	// Failed marks a status that could not be read from the store and was
	// zeroed instead of aborting the whole rollup.
	Failed bool `json:"failed,omitempty"`
}

// ChallengeProgress combines the five requirement statuses.
// AllMet drives the money-back-eligible flag; there is no partial credit.
type ChallengeProgress struct {
	Statuses       []RequirementStatus `json:"statuses"`
	AllMet         bool                `json:"allMet"`
	CompletedCount int                 `json:"completedCount"`
}

// Status returns the status for kind, or nil if absent.
func (p ChallengeProgress) Status(kind RequirementKind) *RequirementStatus {
	for i := range p.Statuses {
		if p.Statuses[i].Kind == kind {
			return &p.Statuses[i]
		}
	}
	return nil
}

// EntryRef identifies the event row(s) an adjustment would remove.
// Photos remove a front+side pair, so IDs may hold two ids for one date.
type EntryRef struct {
	Date time.Time
	IDs  []primitive.ObjectID
}
