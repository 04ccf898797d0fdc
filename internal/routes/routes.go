package routes

import (
	"context"
	"fmt"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saeid-a/GymDashBack/internal/ai"
	"github.com/saeid-a/GymDashBack/internal/config"
	"github.com/saeid-a/GymDashBack/internal/handlers"
	"github.com/saeid-a/GymDashBack/internal/logger"
	"github.com/saeid-a/GymDashBack/internal/middleware"
	"github.com/saeid-a/GymDashBack/internal/models"
	"github.com/saeid-a/GymDashBack/internal/repository"
	"github.com/saeid-a/GymDashBack/internal/services"
	livews "github.com/saeid-a/GymDashBack/internal/websocket"
)

// RegisterRoutes wires repositories, services and handlers onto app. The live
// feed hub runs until ctx is cancelled.
func RegisterRoutes(ctx context.Context, app *fiber.App, cfg *config.Config, db *pgxpool.Pool) error {
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	planRepo := repository.NewWorkoutPlanRepository(db)
	metricRepo := repository.NewBodyMetricRepository(db)
	photoRepo := repository.NewProgressPhotoRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)

	var storageService services.StorageService
	if cfg.StorageEnabled() {
		storageService = services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	} else {
		logger.L().Warn("supabase storage not configured; progress photos are disabled")
	}

	var notifier services.PlanNotifier
	if cfg.EmailEnabled() {
		notifier = services.NewResendNotifier(cfg.ResendAPIKey, cfg.EmailFrom)
	}

	liveHub := livews.NewHub()
	go liveHub.Run(ctx)

	profileService := services.NewProfileService(profileRepo)
	rosterService := services.NewRosterService(rosterRepo, userRepo, planRepo)
	planService := services.NewPlanService(planRepo, userRepo, profileRepo, rosterRepo, notifier, liveHub)
	metricService := services.NewMetricService(metricRepo, rosterRepo)
	photoService := services.NewPhotoService(photoRepo, storageService, rosterRepo)
	taskService := services.NewTaskService(taskRepo)
	financeService := services.NewFinanceService(transactionRepo, rosterRepo)
	dashboardService := services.NewDashboardService(planRepo, metricRepo, taskRepo, rosterService, financeService)

	aiService, err := newAIService(cfg, planService, metricService, profileRepo, userRepo, rosterRepo)
	if err != nil {
		return err
	}

	authHandler := handlers.NewAuthHandler(userRepo, profileRepo, cfg.JWTSecret)
	profileHandler := handlers.NewProfileHandler(profileService)
	rosterHandler := handlers.NewRosterHandler(rosterService)
	planHandler := handlers.NewPlanHandler(planService)
	metricHandler := handlers.NewMetricHandler(metricService)
	photoHandler := handlers.NewPhotoHandler(photoService)
	taskHandler := handlers.NewTaskHandler(taskService)
	financeHandler := handlers.NewFinanceHandler(financeService)
	aiHandler := handlers.NewAIHandler(aiService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	liveHandler := handlers.NewLiveHandler(liveHub, cfg.JWTSecret)

	staffOnly := middleware.RequireRoles(models.RoleTrainer, models.RoleGym)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	// Registered ahead of the /v1 group so the query token is accepted.
	api.Use("/v1/ws", liveHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(liveHandler.HandleWebSocket))

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	authProtected.Get("/profile", profileHandler.GetProfile)
	authProtected.Put("/profile", profileHandler.UpdateProfile)

	authProtected.Get("/dashboard", dashboardHandler.Overview)

	roster := authProtected.Group("/roster", staffOnly)
	roster.Get("", rosterHandler.ListStudents)
	roster.Post("", rosterHandler.AddStudent)
	roster.Delete("/:studentId", rosterHandler.RemoveStudent)

	plans := authProtected.Group("/plans")
	plans.Get("/templates", staffOnly, planHandler.ListTemplates)
	plans.Post("/templates", staffOnly, planHandler.CreateTemplate)
	plans.Put("/templates/:id", staffOnly, planHandler.UpdateTemplate)
	plans.Delete("/templates/:id", staffOnly, planHandler.DeleteTemplate)
	plans.Post("/templates/:id/duplicate", staffOnly, planHandler.DuplicateTemplate)
	plans.Post("/templates/:id/assign", staffOnly, planHandler.AssignTemplate)
	plans.Get("/:id", planHandler.GetPlan)
	plans.Put("/:id/exercises/:exerciseId", planHandler.SetExerciseCompletion)
	plans.Post("/:id/reset", planHandler.ResetPlanProgress)

	students := authProtected.Group("/students/:studentId")
	students.Get("/plans", planHandler.ListStudentPlans)
	students.Get("/plans/active", planHandler.GetActivePlan)
	students.Put("/plans/active", planHandler.SetActivePlan)
	students.Post("/metrics", metricHandler.Record)
	students.Get("/metrics", metricHandler.List)
	students.Get("/metrics/series", metricHandler.Series)
	students.Get("/metrics/summary", metricHandler.Summary)
	students.Get("/metrics/latest", metricHandler.Latest)
	students.Post("/photos", photoHandler.Upload)
	students.Get("/photos", photoHandler.List)

	authProtected.Delete("/metrics/:id", metricHandler.Delete)
	authProtected.Get("/photos/:id/download", photoHandler.Download)
	authProtected.Delete("/photos/:id", photoHandler.Delete)

	tasks := authProtected.Group("/tasks")
	tasks.Get("", taskHandler.Board)
	tasks.Post("", taskHandler.Create)
	tasks.Put("/:id", taskHandler.Update)
	tasks.Put("/:id/move", taskHandler.Move)
	tasks.Delete("/:id", taskHandler.Delete)

	transactions := authProtected.Group("/transactions")
	transactions.Get("", financeHandler.List)
	transactions.Post("", staffOnly, financeHandler.Create)
	transactions.Post("/:id/pay", staffOnly, financeHandler.MarkPaid)
	authProtected.Get("/finance/summary", staffOnly, financeHandler.Summary)

	aiRoutes := authProtected.Group("/ai")
	aiRoutes.Post("/workout-plans", staffOnly, aiHandler.GenerateWorkoutPlan)
	aiRoutes.Post("/exercises/describe", aiHandler.DescribeExercise)
	aiRoutes.Get("/students/:studentId/analysis", aiHandler.AnalyzePerformance)

	return registerDocsRoutes(app, cfg)
}

// newAIService leaves the client unset when no provider is configured, so the
// AI endpoints answer 503.
func newAIService(
	cfg *config.Config,
	plans *services.PlanService,
	metrics *services.MetricService,
	profileRepo *repository.ProfileRepository,
	userRepo *repository.UserRepository,
	rosterRepo *repository.RosterRepository,
) (*services.AIService, error) {
	if !cfg.AIEnabled() {
		logger.L().Warn("llm provider not configured; ai endpoints are disabled")
		return services.NewAIService(nil, nil, plans, metrics, profileRepo, userRepo, rosterRepo), nil
	}

	catalogue, err := ai.DefaultCatalogue()
	if err != nil {
		return nil, fmt.Errorf("load prompt catalogue: %w", err)
	}
	client := ai.NewClient(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	return services.NewAIService(client, catalogue, plans, metrics, profileRepo, userRepo, rosterRepo), nil
}
