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

// ChallengeHandler exposes the assignment lifecycle, the compliance rollup,
// manual adjustments and streaks over HTTP.
type ChallengeHandler struct {
	challengeService service.ChallengeService
}

// NewChallengeHandler creates a new ChallengeHandler.
func NewChallengeHandler(challengeService service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

// --- Request/Response Structs ---

type IssueChallengeRequest struct {
	StartDate time.Time `json:"startDate" binding:"required"`
}

type PauseChallengeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ProgressResponse is the full compliance picture for a client's active
// challenge. MoneyBackEligible mirrors AllMet; there is no partial credit.
type ProgressResponse struct {
	Window            domain.ChallengeWindow   `json:"window"`
	Progress          domain.ChallengeProgress `json:"progress"`
	MoneyBackEligible bool                     `json:"moneyBackEligible"`
}

type StreakResponse struct {
	Kind   domain.RequirementKind `json:"kind"`
	Streak int                    `json:"streak"`
}

// --- Handler Methods ---

// IssueChallenge starts a new 56-day challenge for a client. Coach only.
func (h *ChallengeHandler) IssueChallenge(c *gin.Context) {
	coachID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	clientID, ok := parseObjectIDParam(c, "clientId")
	if !ok {
		return
	}

	var req IssueChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	assignment, err := h.challengeService.IssueChallenge(c.Request.Context(), coachID, clientID, req.StartDate)
	if err != nil {
		if errors.Is(err, service.ErrActiveAssignmentExists) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to issue challenge")
		}
		return
	}

	c.JSON(http.StatusCreated, assignment)
}

// GetChallenge returns a client's active assignment.
func (h *ChallengeHandler) GetChallenge(c *gin.Context) {
	clientID, ok := h.resolveClientID(c)
	if !ok {
		return
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

	c.JSON(http.StatusOK, assignment)
}

// GetProgress evaluates all five requirements for the active challenge.
func (h *ChallengeHandler) GetProgress(c *gin.Context) {
	clientID, ok := h.resolveClientID(c)
	if !ok {
		return
	}

	window, progress, err := h.challengeService.GetProgress(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to evaluate progress")
		}
		return
	}

	c.JSON(http.StatusOK, ProgressResponse{
		Window:            *window,
		Progress:          *progress,
		MoneyBackEligible: progress.AllMet,
	})
}

// AddRequirementEntry inserts one manual entry for a requirement. Coach only.
func (h *ChallengeHandler) AddRequirementEntry(c *gin.Context) {
	coachID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	clientID, ok := parseObjectIDParam(c, "clientId")
	if !ok {
		return
	}
	kind, ok := parseRequirementKind(c)
	if !ok {
		return
	}

	status, err := h.challengeService.AddRequirementEntry(c.Request.Context(), clientID, kind, coachID)
	if err != nil {
		h.writeAdjustmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// RemoveRequirementEntry removes the most recent entry for a requirement.
// Coach only.
func (h *ChallengeHandler) RemoveRequirementEntry(c *gin.Context) {
	clientID, ok := parseObjectIDParam(c, "clientId")
	if !ok {
		return
	}
	kind, ok := parseRequirementKind(c)
	if !ok {
		return
	}

	status, err := h.challengeService.RemoveRequirementEntry(c.Request.Context(), clientID, kind)
	if err != nil {
		h.writeAdjustmentError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// GetStreak returns the consecutive-day streak for one requirement.
func (h *ChallengeHandler) GetStreak(c *gin.Context) {
	clientID, ok := h.resolveClientID(c)
	if !ok {
		return
	}
	kind, ok := parseRequirementKind(c)
	if !ok {
		return
	}

	streak, err := h.challengeService.GetStreak(c.Request.Context(), clientID, kind)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to compute streak")
		}
		return
	}

	c.JSON(http.StatusOK, StreakResponse{Kind: kind, Streak: streak})
}

// PauseChallenge pauses an assignment. Coach only.
func (h *ChallengeHandler) PauseChallenge(c *gin.Context) {
	coachID, err := getUserObjectIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	assignmentID, ok := parseObjectIDParam(c, "assignmentId")
	if !ok {
		return
	}

	var req PauseChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	err = h.challengeService.PauseChallenge(c.Request.Context(), assignmentID, req.Reason, coachID)
	if err != nil {
		h.writeLifecycleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "challenge paused"})
}

// ResumeChallenge resumes a paused assignment, extending its window by the
// number of whole days it was paused. Coach only.
func (h *ChallengeHandler) ResumeChallenge(c *gin.Context) {
	assignmentID, ok := parseObjectIDParam(c, "assignmentId")
	if !ok {
		return
	}

	err := h.challengeService.ResumeChallenge(c.Request.Context(), assignmentID)
	if err != nil {
		h.writeLifecycleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "challenge resumed"})
}

// DeactivateChallenge ends an assignment. Coach only.
func (h *ChallengeHandler) DeactivateChallenge(c *gin.Context) {
	assignmentID, ok := parseObjectIDParam(c, "assignmentId")
	if !ok {
		return
	}

	err := h.challengeService.DeactivateChallenge(c.Request.Context(), assignmentID)
	if err != nil {
		h.writeLifecycleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "challenge deactivated"})
}

// --- Helpers ---

// resolveClientID returns the client the request is about: clients always act
// on themselves, coaches name the client in the path.
func (h *ChallengeHandler) resolveClientID(c *gin.Context) (primitive.ObjectID, bool) {
	role, err := getUserRoleFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user role from token")
		return primitive.NilObjectID, false
	}
	if role == domain.RoleClient {
		id, err := getUserObjectIDFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
			return primitive.NilObjectID, false
		}
		return id, true
	}
	return parseObjectIDParam(c, "clientId")
}

func parseObjectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s format", name))
		return primitive.NilObjectID, false
	}
	return id, true
}

func parseRequirementKind(c *gin.Context) (domain.RequirementKind, bool) {
	kind := domain.RequirementKind(c.Param("kind"))
	if !kind.Valid() {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Unknown requirement kind %q", c.Param("kind")))
		return "", false
	}
	return kind, true
}

// writeAdjustmentError maps engine adjustment errors to HTTP statuses.
func (h *ChallengeHandler) writeAdjustmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrNoSlotAvailable),
		errors.Is(err, engine.ErrSlotAlreadyTaken),
		errors.Is(err, engine.ErrNothingToRemove):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrNoCallPlanConfigured):
		abortWithError(c, http.StatusUnprocessableEntity, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Adjustment failed")
	}
}

// writeLifecycleError maps pause/resume/deactivate errors to HTTP statuses.
func (h *ChallengeHandler) writeLifecycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAssignmentInactive),
		errors.Is(err, service.ErrAlreadyPaused),
		errors.Is(err, service.ErrNotPaused):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Challenge update failed")
	}
}
