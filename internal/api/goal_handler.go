package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
	"github.com/kerstenscheffer/my-arc-sub008/internal/engine"
	"github.com/kerstenscheffer/my-arc-sub008/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoalHandler exposes coach-defined personal goals and their progress.
type GoalHandler struct {
	goalService      service.GoalService
	challengeService service.ChallengeService
}

// NewGoalHandler creates a new GoalHandler.
func NewGoalHandler(goalService service.GoalService, challengeService service.ChallengeService) *GoalHandler {
	return &GoalHandler{
		goalService:      goalService,
		challengeService: challengeService,
	}
}

// --- Request/Response Structs ---

type CreateGoalRequest struct {
	GoalType      domain.GoalType `json:"goalType" binding:"required,oneof=weight waist body_fat"`
	GoalName      string          `json:"goalName" binding:"required"`
	StartingValue float64         `json:"startingValue"`
	TargetValue   float64         `json:"targetValue" binding:"required"`
	Unit          string          `json:"unit"`
	Deadline      *time.Time      `json:"deadline,omitempty"`
	Motivation    string          `json:"motivation,omitempty"`
	AutoTrack     bool            `json:"autoTrack"`
	IsPrimary     bool            `json:"isPrimary"`
}

type UpdateGoalRequest struct {
	GoalName     string     `json:"goalName" binding:"required"`
	CurrentValue float64    `json:"currentValue"`
	TargetValue  float64    `json:"targetValue" binding:"required"`
	Unit         string     `json:"unit"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Motivation   string     `json:"motivation,omitempty"`
	AutoTrack    bool       `json:"autoTrack"`
}

type GoalProgressResponse struct {
	Goal     domain.GoalRecord   `json:"goal"`
	Progress domain.GoalProgress `json:"progress"`
}

// --- Handler Methods ---

// CreateGoal adds a goal to an assignment. Coach only.
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	assignmentID, ok := parseObjectIDParam(c, "assignmentId")
	if !ok {
		return
	}

	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	goal := &domain.GoalRecord{
		AssignmentID:  assignmentID,
		GoalType:      req.GoalType,
		GoalName:      req.GoalName,
		StartingValue: req.StartingValue,
		CurrentValue:  req.StartingValue,
		TargetValue:   req.TargetValue,
		Unit:          req.Unit,
		Deadline:      req.Deadline,
		Motivation:    req.Motivation,
		AutoTrack:     req.AutoTrack,
		IsPrimary:     req.IsPrimary,
	}

	created, err := h.goalService.CreateGoal(c.Request.Context(), goal)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to create goal")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetGoals lists an assignment's goals, primary first.
func (h *GoalHandler) GetGoals(c *gin.Context) {
	assignmentID, ok := parseObjectIDParam(c, "assignmentId")
	if !ok {
		return
	}

	goals, err := h.goalService.GetGoals(c.Request.Context(), assignmentID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load goals")
		return
	}

	c.JSON(http.StatusOK, goals)
}

// UpdateGoal persists coach edits to a goal. Coach only.
func (h *GoalHandler) UpdateGoal(c *gin.Context) {
	goalID, ok := parseObjectIDParam(c, "goalId")
	if !ok {
		return
	}

	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	goal := &domain.GoalRecord{
		ID:           goalID,
		GoalName:     req.GoalName,
		CurrentValue: req.CurrentValue,
		TargetValue:  req.TargetValue,
		Unit:         req.Unit,
		Deadline:     req.Deadline,
		Motivation:   req.Motivation,
		AutoTrack:    req.AutoTrack,
	}

	if err := h.goalService.UpdateGoal(c.Request.Context(), goal); err != nil {
		if errors.Is(err, service.ErrGoalNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update goal")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "goal updated"})
}

// SetPrimaryGoal promotes one goal and demotes the rest. Coach only.
func (h *GoalHandler) SetPrimaryGoal(c *gin.Context) {
	assignmentID, ok := parseObjectIDParam(c, "assignmentId")
	if !ok {
		return
	}
	goalID, ok := parseObjectIDParam(c, "goalId")
	if !ok {
		return
	}

	if err := h.goalService.SetPrimaryGoal(c.Request.Context(), assignmentID, goalID); err != nil {
		if errors.Is(err, service.ErrGoalNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to set primary goal")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "primary goal updated"})
}

// GetPrimaryGoalProgress evaluates the primary goal for a client's active
// challenge, syncing from the latest weigh-in when the goal auto-tracks.
func (h *GoalHandler) GetPrimaryGoalProgress(c *gin.Context) {
	role, err := getUserRoleFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user role from token")
		return
	}
	var clientID primitive.ObjectID
	if role == domain.RoleClient {
		clientID, err = getUserObjectIDFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
			return
		}
	} else {
		var ok bool
		clientID, ok = parseObjectIDParam(c, "clientId")
		if !ok {
			return
		}
	}

	assignment, err := h.challengeService.GetActiveAssignment(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load challenge")
		}
		return
	}

	window, err := engine.ResolveWindow(assignment, time.Now().UTC())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to resolve challenge window")
		return
	}

	goal, progress, err := h.goalService.GetPrimaryGoalProgress(c.Request.Context(), assignment.ID, clientID, &window)
	if err != nil {
		if errors.Is(err, service.ErrNoPrimaryGoal) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to evaluate goal progress")
		}
		return
	}

	c.JSON(http.StatusOK, GoalProgressResponse{Goal: *goal, Progress: *progress})
}
