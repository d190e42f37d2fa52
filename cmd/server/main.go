package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/api"
	"github.com/kerstenscheffer/my-arc-sub008/internal/config"
	"github.com/kerstenscheffer/my-arc-sub008/internal/engine"
	"github.com/kerstenscheffer/my-arc-sub008/internal/repository/mongo"
	"github.com/kerstenscheffer/my-arc-sub008/internal/service"
	"github.com/kerstenscheffer/my-arc-sub008/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.Info("Starting MY ARC challenge server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.Fatalf("FATAL: Could not load config: %v", err)
	}
	logrus.Info("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logrus.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		logrus.Info("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logrus.Errorf("Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logrus.Info("Database connection established.")

	// --- Ensure Indexes ---
	logrus.Info("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureAssignmentIndexes(ctx, appDB.Collection("challenge_assignments"))
		mongo.EnsureGoalIndexes(ctx, appDB.Collection("goals"))
		mongo.EnsureWorkoutLogIndexes(ctx, appDB.Collection("workout_logs"))
		mongo.EnsureMealLogIndexes(ctx, appDB.Collection("meal_progress_days"))
		mongo.EnsureWeighInIndexes(ctx, appDB.Collection("weigh_ins"))
		mongo.EnsurePhotoIndexes(ctx, appDB.Collection("progress_photos"))
		mongo.EnsureCallIndexes(ctx, appDB.Collection("completed_calls"))
		logrus.Info("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	logrus.Info("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		logrus.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	logrus.Info("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	assignmentRepo := mongo.NewMongoAssignmentRepository(appDB)
	goalRepo := mongo.NewMongoGoalRepository(appDB)
	workoutLogRepo := mongo.NewMongoWorkoutLogRepository(appDB)
	mealLogRepo := mongo.NewMongoMealLogRepository(appDB)
	weighInRepo := mongo.NewMongoWeighInRepository(appDB)
	photoRepo := mongo.NewMongoPhotoRepository(appDB)
	callRepo := mongo.NewMongoCallRepository(appDB)

	// --- Initialize Engine ---
	complianceEngine := engine.NewDefault(engine.Deps{
		Workouts: workoutLogRepo,
		Meals:    mealLogRepo,
		WeighIns: weighInRepo,
		Photos:   photoRepo,
		Calls:    callRepo,
		Users:    userRepo,
	})
	goalCalculator := engine.NewGoalCalculator(goalRepo, weighInRepo)

	// --- Initialize Services ---
	logrus.Info("Initializing services...")
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	challengeService := service.NewChallengeService(assignmentRepo, complianceEngine)
	goalService := service.NewGoalService(goalRepo, goalCalculator)
	photoService := service.NewPhotoService(photoRepo, fileStorage)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	logrus.Info("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, authService, challengeService, goalService, photoService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logrus.Infof("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("FATAL: ListenAndServe error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// In-flight requests get 5 seconds to finish.
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logrus.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exiting.")
}
