package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/atwboard/backend/internal/config"
	"github.com/atwboard/backend/internal/core/ports"
	"github.com/atwboard/backend/internal/core/services"
	"github.com/atwboard/backend/internal/infrastructure/db"
	"github.com/atwboard/backend/internal/infrastructure/logger"
	"github.com/atwboard/backend/internal/notify"
	"github.com/atwboard/backend/internal/transport/http/handlers"
	httpmw "github.com/atwboard/backend/internal/transport/http/middleware"
)

type RouterConfig struct {
	DB     *gorm.DB
	Logger *logger.Logger
	Config *config.Config
	Hub    *notify.Hub
}

// SetupRoutes wires repositories, services, and handlers onto the app. The
// executor service is returned so main can auto-start it.
func SetupRoutes(app *fiber.App, cfg RouterConfig) ports.ExecutorService {
	// Initialize repositories
	taskRepo := db.NewTaskRepository(cfg.DB, cfg.Logger)
	projectRepo := db.NewProjectRepository(cfg.DB, cfg.Logger)

	// Initialize services
	taskService := services.NewTaskService(services.TaskServiceConfig{
		TaskRepo:    taskRepo,
		ProjectRepo: projectRepo,
		Notifier:    cfg.Hub,
		Logger:      cfg.Logger,
	})

	syncService := services.NewSyncService(services.SyncServiceConfig{
		Config:   cfg.Config.Sync,
		TaskRepo: taskRepo,
		Notifier: cfg.Hub,
		Logger:   cfg.Logger,
	})

	executorService := services.NewExecutorService(services.ExecutorServiceConfig{
		Config:   cfg.Config.Executor,
		TaskRepo: taskRepo,
		Tasks:    taskService,
		Sync:     syncService,
		Notifier: cfg.Hub,
		Logger:   cfg.Logger,
	})

	projectService := services.NewProjectService(services.ProjectServiceConfig{
		ProjectRepo: projectRepo,
		Logger:      cfg.Logger,
	})

	logService := services.NewLogService(services.LogServiceConfig{
		Path:   cfg.Config.Executor.LogPath,
		Logger: cfg.Logger,
	})

	// Initialize handlers
	taskHandler := handlers.NewTaskHandler(taskService, cfg.Logger)
	executorHandler := handlers.NewExecutorHandler(executorService, cfg.Logger)
	workflowHandler := handlers.NewWorkflowHandler(executorService, logService, cfg.Logger)
	projectHandler := handlers.NewProjectHandler(projectService, cfg.Logger)
	syncHandler := handlers.NewSyncHandler(syncService, cfg.Logger)
	notificationHandler := handlers.NewNotificationHandler(cfg.Hub, cfg.Logger)

	// Notification WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws/notifications", websocket.New(cfg.Hub.Handle))

	api := app.Group("/api")

	// Task routes. Fixed paths come before /:id so they are not captured
	// as task refs.
	tasks := api.Group("/tasks", httpmw.AdminAuth(cfg.Config))
	tasks.Get("/", taskHandler.ListTasks)
	tasks.Post("/", taskHandler.CreateTask)
	tasks.Get("/dashboard", taskHandler.GetDashboard)
	tasks.Get("/summary", taskHandler.GetSummary)
	tasks.Get("/blocked", taskHandler.GetBlocked)
	tasks.Get("/:id", taskHandler.GetTask)
	tasks.Delete("/:id", taskHandler.DeleteTask)
	tasks.Post("/:id/approve", taskHandler.ApproveTask)
	tasks.Post("/:id/unblock", taskHandler.UnblockTask)
	tasks.Post("/:id/finish", taskHandler.FinishTask)
	tasks.Post("/:id/reset", taskHandler.ResetTask)
	tasks.Post("/:id/done", taskHandler.MarkTaskDone)
	tasks.Post("/:id/priority", taskHandler.UpdatePriority)
	tasks.Post("/:id/type", taskHandler.UpdateType)
	tasks.Post("/:id/categorize", taskHandler.CategorizeTask)
	tasks.Get("/:id/files", taskHandler.ListFiles)
	tasks.Get("/:id/files/read", taskHandler.ReadFile)

	// Workflow routes
	workflow := api.Group("/workflow", httpmw.AdminAuth(cfg.Config))
	workflow.Get("/queue", executorHandler.GetQueue)
	workflow.Delete("/queue", executorHandler.ClearQueue)
	workflow.Post("/run/:id", executorHandler.RunTask)
	workflow.Post("/stop/:id", executorHandler.StopTask)
	workflow.Get("/status/:id", workflowHandler.GetWorkflowStatus)
	workflow.Get("/types", workflowHandler.GetWorkflowTypes)
	workflow.Post("/pass/:id", taskHandler.PassTesting)
	workflow.Post("/fail/:id", taskHandler.FailTesting)
	workflow.Post("/fix/:id", workflowHandler.FixTask)
	workflow.Post("/timesheet/:id", workflowHandler.SubmitTimesheet)
	workflow.Get("/logs", workflowHandler.GetLogs)
	workflow.Delete("/logs", workflowHandler.ClearLogs)

	// Executor routes
	executor := api.Group("/executor", httpmw.AdminAuth(cfg.Config))
	executor.Get("/status", executorHandler.GetStatus)
	executor.Post("/start", executorHandler.Start)
	executor.Post("/stop", executorHandler.Stop)
	executor.Post("/stop-task/:id", executorHandler.StopTask)
	executor.Post("/run-all", executorHandler.RunAll)

	// Project routes
	projects := api.Group("/projects", httpmw.AdminAuth(cfg.Config))
	projects.Get("/", projectHandler.ListProjects)
	projects.Get("/:name", projectHandler.GetProject)
	projects.Post("/:name/check-env", projectHandler.CheckRemoteEnv)

	// Sync routes
	sync := api.Group("/sync", httpmw.AdminAuth(cfg.Config))
	sync.Post("/tasks", syncHandler.SyncTasks)
	sync.Post("/data", syncHandler.SyncData)

	// Notification debug routes
	notifications := api.Group("/notifications", httpmw.AdminAuth(cfg.Config))
	notifications.Post("/test", notificationHandler.SendTest)
	notifications.Get("/debug", notificationHandler.Debug)

	return executorService
}
