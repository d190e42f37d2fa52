package api

import (
	"net/http"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
	"github.com/kerstenscheffer/my-arc-sub008/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires all HTTP routes. Manual adjustments, pause/resume and
// goal management are coach-gated; clients read their own challenge state.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	challengeService service.ChallengeService,
	goalService service.GoalService,
	photoService service.PhotoService,
) {
	authHandler := NewAuthHandler(authService)
	challengeHandler := NewChallengeHandler(challengeService)
	goalHandler := NewGoalHandler(goalService, challengeService)
	photoHandler := NewPhotoHandler(photoService, challengeService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Client Self-Service Routes ---
		clientGroup := protected.Group("/my", RoleMiddleware(domain.RoleClient))
		{
			// GET /api/v1/my/challenge
			clientGroup.GET("/challenge", challengeHandler.GetChallenge)
			// GET /api/v1/my/challenge/progress
			clientGroup.GET("/challenge/progress", challengeHandler.GetProgress)
			// GET /api/v1/my/challenge/streaks/{kind}
			clientGroup.GET("/challenge/streaks/:kind", challengeHandler.GetStreak)
			// GET /api/v1/my/challenge/goal
			clientGroup.GET("/challenge/goal", goalHandler.GetPrimaryGoalProgress)
			// GET /api/v1/my/challenge/photos
			clientGroup.GET("/challenge/photos", photoHandler.GetChallengePhotos)

			// POST /api/v1/my/photos/upload-url
			clientGroup.POST("/photos/upload-url", photoHandler.RequestUploadURL)
			// POST /api/v1/my/photos
			clientGroup.POST("/photos", photoHandler.ConfirmUpload)
		}

		// --- Coach Routes ---
		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(domain.RoleCoach))
		{
			// --- Challenge Lifecycle ---
			// POST /api/v1/coach/clients/{clientId}/challenge
			coachGroup.POST("/clients/:clientId/challenge", challengeHandler.IssueChallenge)
			// GET /api/v1/coach/clients/{clientId}/challenge
			coachGroup.GET("/clients/:clientId/challenge", challengeHandler.GetChallenge)
			// GET /api/v1/coach/clients/{clientId}/challenge/progress
			coachGroup.GET("/clients/:clientId/challenge/progress", challengeHandler.GetProgress)
			// GET /api/v1/coach/clients/{clientId}/challenge/streaks/{kind}
			coachGroup.GET("/clients/:clientId/challenge/streaks/:kind", challengeHandler.GetStreak)
			// GET /api/v1/coach/clients/{clientId}/challenge/goal
			coachGroup.GET("/clients/:clientId/challenge/goal", goalHandler.GetPrimaryGoalProgress)
			// GET /api/v1/coach/clients/{clientId}/challenge/photos
			coachGroup.GET("/clients/:clientId/challenge/photos", photoHandler.GetChallengePhotos)

			// --- Manual Adjustments ---
			// POST /api/v1/coach/clients/{clientId}/challenge/requirements/{kind}/entries
			coachGroup.POST("/clients/:clientId/challenge/requirements/:kind/entries", challengeHandler.AddRequirementEntry)
			// DELETE /api/v1/coach/clients/{clientId}/challenge/requirements/{kind}/entries
			coachGroup.DELETE("/clients/:clientId/challenge/requirements/:kind/entries", challengeHandler.RemoveRequirementEntry)

			// --- Pause / Resume / Deactivate ---
			// POST /api/v1/coach/assignments/{assignmentId}/pause
			coachGroup.POST("/assignments/:assignmentId/pause", challengeHandler.PauseChallenge)
			// POST /api/v1/coach/assignments/{assignmentId}/resume
			coachGroup.POST("/assignments/:assignmentId/resume", challengeHandler.ResumeChallenge)
			// POST /api/v1/coach/assignments/{assignmentId}/deactivate
			coachGroup.POST("/assignments/:assignmentId/deactivate", challengeHandler.DeactivateChallenge)

			// --- Goal Management ---
			// POST /api/v1/coach/assignments/{assignmentId}/goals
			coachGroup.POST("/assignments/:assignmentId/goals", goalHandler.CreateGoal)
			// GET /api/v1/coach/assignments/{assignmentId}/goals
			coachGroup.GET("/assignments/:assignmentId/goals", goalHandler.GetGoals)
			// PUT /api/v1/coach/goals/{goalId}
			coachGroup.PUT("/goals/:goalId", goalHandler.UpdateGoal)
			// PUT /api/v1/coach/assignments/{assignmentId}/goals/{goalId}/primary
			coachGroup.PUT("/assignments/:assignmentId/goals/:goalId/primary", goalHandler.SetPrimaryGoal)
		}
	}
}
