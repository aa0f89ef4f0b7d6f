package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskhub/internal/config"
	"taskhub/internal/handlers"
	"taskhub/internal/logger"
	"taskhub/internal/middleware"
	"taskhub/internal/repository/task/inmemory"
	"taskhub/internal/repository/task/postgres"
	"taskhub/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	shutdowns []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// storage - полный контракт хранилища приложения
type storage interface {
	service.TaskRepository
	service.UserRepository
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	repo, err := a.initStorage(ctx)
	if err != nil {
		return err
	}

	userService := service.NewUserService(repo)
	taskService := service.NewTaskService(repo)
	assignmentService := service.NewAssignmentService(repo, repo)
	commentService := service.NewCommentService(repo)

	taskHandler := handlers.NewTaskHandler(taskService)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService)
	commentHandler := handlers.NewCommentHandler(commentService)
	userHandler := handlers.NewUserHandler(userService)

	a.router = a.buildRouter(userService, taskHandler, assignmentHandler, commentHandler, userHandler)

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return nil
}

func (a *App) initStorage(ctx context.Context) (storage, error) {
	switch a.config.Repository.Type {
	case "postgres":
		pg, err := postgres.New(ctx, a.config.Database.URL,
			a.config.Database.MaxConnections, a.config.Database.MinConnections)
		if err != nil {
			return nil, fmt.Errorf("подключение к PostgreSQL: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("миграции: %w", err)
		}
		a.shutdowns = append(a.shutdowns, pg.Close)
		return pg, nil

	case "inmemory":
		logger.Warn("App: Используется inmemory хранилище, данные не переживут рестарт")
		return inmemory.New(), nil

	default:
		return nil, fmt.Errorf("неизвестный тип хранилища: %s", a.config.Repository.Type)
	}
}

func (a *App) buildRouter(
	auth middleware.Authenticator,
	taskHandler *handlers.TaskHandler,
	assignmentHandler *handlers.AssignmentHandler,
	commentHandler *handlers.CommentHandler,
	userHandler *handlers.UserHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if a.config.Server.RateLimit > 0 {
		r.Use(middleware.RateLimit(a.config.Server.RateLimit))
	}

	r.Get("/health", taskHandler.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		// регистрация - единственная открытая операция
		r.Post("/register", userHandler.Register)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BasicAuth(auth))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.GetActiveUsers)
				r.Get("/me", userHandler.GetMe)
				r.Post("/me/password", userHandler.ChangePassword)
				r.Post("/{id}/activate", userHandler.ActivateUser)
				r.Post("/{id}/deactivate", userHandler.DeactivateUser)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.GetTasks)
				r.Post("/", taskHandler.CreateTask)
				r.Get("/my", taskHandler.GetMyTasks)
				r.Get("/assigned", taskHandler.GetAssignedTasks)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", taskHandler.GetTaskByID)
					r.Put("/", taskHandler.UpdateTaskByID)
					r.Delete("/", taskHandler.DeleteTaskByID)
					r.Get("/detail", taskHandler.GetTaskDetail)
					r.Post("/restore", taskHandler.RestoreTaskByID)
					r.Get("/history", taskHandler.GetTaskHistory)

					r.Get("/assignments", assignmentHandler.GetTaskAssignments)
					r.Post("/assignments", assignmentHandler.AssignUser)
					r.Delete("/assignments/{userID}", assignmentHandler.UnassignUser)

					r.Get("/comments", commentHandler.GetTaskComments)
					r.Post("/comments", commentHandler.CreateComment)
				})
			})

			r.Route("/assignments", func(r chi.Router) {
				r.Get("/", assignmentHandler.GetAssignments)
				r.Post("/{id}/accept", assignmentHandler.AcceptAssignment)
				r.Post("/{id}/reject", assignmentHandler.RejectAssignment)
			})

			r.Get("/comments", commentHandler.GetComments)
			r.Put("/comments/{id}", commentHandler.UpdateComment)
		})
	})

	return r
}

func (a *App) Run() error {
	errCh := make(chan error, 1)

	go func() {
		logger.Info("App: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("работа сервера: %w", err)
	case sig := <-stop:
		logger.Info("App: Получен сигнал завершения", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		logger.Error("App: Ошибка остановки сервера", err)
	}

	// shutdown-функции выполняются в обратном порядке регистрации
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}

	return nil
}
