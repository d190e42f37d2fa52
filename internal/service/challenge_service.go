package service

import (
	"context"
	"errors"
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
	"github.com/kerstenscheffer/my-arc-sub008/internal/engine"
	"github.com/kerstenscheffer/my-arc-sub008/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrAssignmentNotFound     = errors.New("challenge assignment not found")
	ErrActiveAssignmentExists = errors.New("client already has an active challenge")
	ErrAssignmentInactive     = errors.New("challenge assignment is not active")
	ErrAlreadyPaused          = errors.New("challenge is already paused")
	ErrNotPaused              = errors.New("challenge is not paused")
)

// ChallengeService owns the assignment lifecycle and fronts the compliance
// engine for callers that start from an assignment rather than a window.
type ChallengeService interface {
	IssueChallenge(ctx context.Context, coachID, clientID primitive.ObjectID, startDate time.Time) (*domain.ChallengeAssignment, error)
	GetActiveAssignment(ctx context.Context, clientID primitive.ObjectID) (*domain.ChallengeAssignment, error)
	GetProgress(ctx context.Context, clientID primitive.ObjectID) (*domain.ChallengeWindow, *domain.ChallengeProgress, error)
	AddRequirementEntry(ctx context.Context, clientID primitive.ObjectID, kind domain.RequirementKind, adjustedBy primitive.ObjectID) (*domain.RequirementStatus, error)
	RemoveRequirementEntry(ctx context.Context, clientID primitive.ObjectID, kind domain.RequirementKind) (*domain.RequirementStatus, error)
	GetStreak(ctx context.Context, clientID primitive.ObjectID, kind domain.RequirementKind) (int, error)
	PauseChallenge(ctx context.Context, assignmentID primitive.ObjectID, reason string, actor primitive.ObjectID) error
	ResumeChallenge(ctx context.Context, assignmentID primitive.ObjectID) error
	DeactivateChallenge(ctx context.Context, assignmentID primitive.ObjectID) error
}

// challengeService implements the ChallengeService interface.
type challengeService struct {
	assignmentRepo repository.AssignmentRepository
	engine         *engine.Engine
	now            func() time.Time
}

// NewChallengeService creates a new instance of challengeService.
func NewChallengeService(assignmentRepo repository.AssignmentRepository, eng *engine.Engine) ChallengeService {
	return &challengeService{
		assignmentRepo: assignmentRepo,
		engine:         eng,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// IssueChallenge creates a new active 56-day assignment. The end date is the
// last challenge day, so the window spans exactly ChallengeLengthDays
// inclusive dates before pause extension.
func (s *challengeService) IssueChallenge(ctx context.Context, coachID, clientID primitive.ObjectID, startDate time.Time) (*domain.ChallengeAssignment, error) {
	if coachID == primitive.NilObjectID || clientID == primitive.NilObjectID {
		return nil, errors.New("coach ID and client ID are required")
	}
	start := startDate.UTC().Truncate(24 * time.Hour)
	assignment := &domain.ChallengeAssignment{
		ClientID:  clientID,
		CoachID:   coachID,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, domain.ChallengeLengthDays-1),
		IsActive:  true,
	}

	id, err := s.assignmentRepo.Create(ctx, assignment)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// The partial unique index caught a second active assignment.
			return nil, ErrActiveAssignmentExists
		}
		return nil, err
	}
	assignment.ID = id
	logrus.Infof("challenge issued for client %s by coach %s starting %s",
		clientID.Hex(), coachID.Hex(), start.Format("2006-01-02"))
	return assignment, nil
}

// GetActiveAssignment returns the client's single active assignment.
func (s *challengeService) GetActiveAssignment(ctx context.Context, clientID primitive.ObjectID) (*domain.ChallengeAssignment, error) {
	assignment, err := s.assignmentRepo.GetActiveByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return assignment, nil
}

// GetProgress resolves the client's window and evaluates all requirements.
func (s *challengeService) GetProgress(ctx context.Context, clientID primitive.ObjectID) (*domain.ChallengeWindow, *domain.ChallengeProgress, error) {
	assignment, err := s.GetActiveAssignment(ctx, clientID)
	if err != nil {
		return nil, nil, err
	}
	window, err := engine.ResolveWindow(assignment, s.now())
	if err != nil {
		return nil, nil, err
	}
	progress := s.engine.EvaluateChallenge(ctx, clientID, window)
	return &window, &progress, nil
}

// AddRequirementEntry inserts one manual entry for the client's active window.
func (s *challengeService) AddRequirementEntry(ctx context.Context, clientID primitive.ObjectID, kind domain.RequirementKind, adjustedBy primitive.ObjectID) (*domain.RequirementStatus, error) {
	window, err := s.activeWindow(ctx, clientID)
	if err != nil {
		return nil, err
	}
	status, err := s.engine.AddRequirementEntry(ctx, clientID, window, kind, adjustedBy)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// RemoveRequirementEntry removes the most recent manual-or-organic entry.
func (s *challengeService) RemoveRequirementEntry(ctx context.Context, clientID primitive.ObjectID, kind domain.RequirementKind) (*domain.RequirementStatus, error) {
	window, err := s.activeWindow(ctx, clientID)
	if err != nil {
		return nil, err
	}
	status, err := s.engine.RemoveRequirementEntry(ctx, clientID, window, kind)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// GetStreak computes the consecutive-day streak for one requirement.
func (s *challengeService) GetStreak(ctx context.Context, clientID primitive.ObjectID, kind domain.RequirementKind) (int, error) {
	window, err := s.activeWindow(ctx, clientID)
	if err != nil {
		return 0, err
	}
	return s.engine.Streak(ctx, clientID, window, kind)
}

func (s *challengeService) activeWindow(ctx context.Context, clientID primitive.ObjectID) (domain.ChallengeWindow, error) {
	assignment, err := s.GetActiveAssignment(ctx, clientID)
	if err != nil {
		return domain.ChallengeWindow{}, err
	}
	return engine.ResolveWindow(assignment, s.now())
}

// PauseChallenge marks the assignment paused. Paused days are only added to
// the total on resume, when the day count is final.
func (s *challengeService) PauseChallenge(ctx context.Context, assignmentID primitive.ObjectID, reason string, actor primitive.ObjectID) error {
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if !assignment.IsActive {
		return ErrAssignmentInactive
	}
	if assignment.IsPaused {
		return ErrAlreadyPaused
	}

	now := s.now()
	assignment.IsPaused = true
	assignment.PauseReason = reason
	assignment.PausedAt = &now

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return err
	}
	logrus.Infof("challenge %s paused by %s: %s", assignmentID.Hex(), actor.Hex(), reason)
	return nil
}

// ResumeChallenge unpauses the assignment and adds the elapsed whole calendar
// days to totalPausedDays, extending the effective end by the same amount.
func (s *challengeService) ResumeChallenge(ctx context.Context, assignmentID primitive.ObjectID) error {
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if !assignment.IsPaused || assignment.PausedAt == nil {
		return ErrNotPaused
	}

	pausedDays := wholeDaysBetween(*assignment.PausedAt, s.now())
	if pausedDays < 0 {
		pausedDays = 0
	}
	assignment.TotalPausedDays += pausedDays
	assignment.IsPaused = false
	assignment.PauseReason = ""
	assignment.PausedAt = nil

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		return err
	}
	logrus.Infof("challenge %s resumed after %d paused day(s)", assignmentID.Hex(), pausedDays)
	return nil
}

// DeactivateChallenge ends the assignment. Goals and event logs persist as a
// historical record; assignments are never deleted.
func (s *challengeService) DeactivateChallenge(ctx context.Context, assignmentID primitive.ObjectID) error {
	assignment, err := s.getAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	assignment.IsActive = false
	assignment.IsPaused = false
	assignment.PausedAt = nil
	return s.assignmentRepo.Update(ctx, assignment)
}

func (s *challengeService) getAssignment(ctx context.Context, assignmentID primitive.ObjectID) (*domain.ChallengeAssignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return assignment, nil
}

// wholeDaysBetween counts calendar-day boundaries crossed between a and b.
func wholeDaysBetween(a, b time.Time) int {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start) / (24 * time.Hour))
}
