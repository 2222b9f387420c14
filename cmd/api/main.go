package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/justsurfingit/hiretrack/internal/config"
	"github.com/justsurfingit/hiretrack/internal/database"
	"github.com/justsurfingit/hiretrack/internal/handlers"
	"github.com/justsurfingit/hiretrack/internal/models"
	"github.com/justsurfingit/hiretrack/internal/services"
)

func main() {
	// 1. Environment & Config
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}
	cfg := config.Load()

	// 2. Database Connection
	db := database.Connect(cfg.DSN)

	// 3. Core Services
	activityService := services.NewActivityService(db)
	pipelineService := services.NewPipelineService(db)
	slaService := services.NewSlaService(db, activityService, cfg.ScanBatchSize)
	dispositionService := services.NewDispositionService(db, activityService)

	// 4. Action Executors
	// Real executors come from the notification/tasking subsystems; until they
	// are plugged in, every action type gets the logging stand-in.
	registry := services.NewExecutorRegistry()
	for _, actionType := range []string{
		models.ActionTypeSendEmail,
		models.ActionTypeAddTag,
		models.ActionTypeCreateTask,
		models.ActionTypeRequestFeedback,
	} {
		registry.Register(actionType, services.LoggingExecutor(actionType))
	}

	// 5. Workflow Engine + Delayed-Action Queue
	taskQueue := services.NewTaskQueueService(db, registry)
	taskQueue.Start(time.Duration(cfg.QueuePollSeconds) * time.Second)
	workflowService := services.NewWorkflowService(db, activityService, taskQueue, registry)

	// 6. Escalation Scheduler (daily sweep)
	escalationService := services.NewEscalationService(db, slaService, activityService)
	if err := escalationService.Start(cfg.EscalationCron); err != nil {
		log.Fatal("Failed to start escalation scheduler:", err)
	}

	// 7. Handlers
	pipelineHandler := handlers.NewPipelineHandler(pipelineService)
	slaHandler := handlers.NewSlaHandler(slaService, escalationService)
	workflowHandler := handlers.NewWorkflowHandler(workflowService)
	dispositionHandler := handlers.NewDispositionHandler(dispositionService)

	// 8. Router & CORS
	r := gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true // For development only
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	// 9. Routes
	api := r.Group("/api/v1")
	{
		api.GET("/health", handlers.HealthCheck)

		api.GET("/pipelines", pipelineHandler.ListPipelines)
		api.POST("/pipelines", pipelineHandler.CreatePipeline)
		api.GET("/pipelines/:id", pipelineHandler.GetPipeline)
		api.PUT("/pipelines/:id/default", pipelineHandler.SetDefault)
		api.PUT("/pipelines/:id/stages/reorder", pipelineHandler.ReorderStages)
		api.DELETE("/stages/:id", pipelineHandler.RemoveStage)

		api.POST("/transitions", workflowHandler.NotifyTransition)
		api.POST("/workflows", workflowHandler.CreateAutomation)
		api.GET("/workflows", workflowHandler.ListAutomations)
		api.PUT("/workflows/:id/active", workflowHandler.SetActive)

		api.GET("/applications/:id/sla", slaHandler.EvaluateApplication)
		api.GET("/sla/escalations", slaHandler.GetEscalations)
		api.POST("/sla/sweep", slaHandler.TriggerSweep)
		api.GET("/jobs/:id/sla-stats", slaHandler.GetJobSlaStats)
		api.GET("/jobs/:id/stages/:stageId/dwell", slaHandler.GetStageDwell)

		api.GET("/dispositions/reasons", dispositionHandler.GetReasons)
		api.POST("/applications/:id/disposition", dispositionHandler.RecordDisposition)
		api.GET("/dispositions/analytics", dispositionHandler.GetAnalytics)
	}

	log.Printf("🚀 Server starting on %s...", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
