package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/application/commands"
	"github.com/mugi0227/nagi-scheduler/internal/productivity/application/queries"
	productivityServices "github.com/mugi0227/nagi-scheduler/internal/productivity/application/services"
	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	"github.com/mugi0227/nagi-scheduler/internal/productivity/infrastructure/persistence"
	scheduleCommands "github.com/mugi0227/nagi-scheduler/internal/scheduling/application/commands"
	scheduleQueries "github.com/mugi0227/nagi-scheduler/internal/scheduling/application/queries"
	schedulerServices "github.com/mugi0227/nagi-scheduler/internal/scheduling/application/services"
	schedulingDomain "github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	scheduleCache "github.com/mugi0227/nagi-scheduler/internal/scheduling/infrastructure/cache"
	schedulePersistence "github.com/mugi0227/nagi-scheduler/internal/scheduling/infrastructure/persistence"
	scheduleResilience "github.com/mugi0227/nagi-scheduler/internal/scheduling/infrastructure/resilience"
	sharedApplication "github.com/mugi0227/nagi-scheduler/internal/shared/application"
	"github.com/mugi0227/nagi-scheduler/internal/shared/infrastructure/database"
	_ "github.com/mugi0227/nagi-scheduler/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/mugi0227/nagi-scheduler/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/mugi0227/nagi-scheduler/internal/shared/infrastructure/eventbus"
	"github.com/mugi0227/nagi-scheduler/internal/shared/infrastructure/migrations"
	"github.com/mugi0227/nagi-scheduler/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/mugi0227/nagi-scheduler/internal/shared/infrastructure/persistence"
	"github.com/mugi0227/nagi-scheduler/pkg/config"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies: task management
// (productivity) and the adaptive daily-plan engine (scheduling), wired
// on top of the shared database/outbox/eventbus infrastructure.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DB       *pgxpool.Pool
	DBConn   database.Connection // abstract connection for driver-agnostic access
	DBDriver database.Driver

	// Redis, used by the plan read cache when configured.
	RedisClient *redis.Client

	// Repositories
	TaskRepo          task.Repository
	PriorityScoreRepo task.PriorityScoreRepository
	PlanRepo          schedulingDomain.DailySchedulePlanRepository
	SettingsRepo      schedulingDomain.ScheduleSettingsRepository
	OutboxRepo        outbox.Repository

	// Publishers
	EventPublisher eventbus.Publisher

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Task Command Handlers
	CreateTaskHandler   *commands.CreateTaskHandler
	CompleteTaskHandler *commands.CompleteTaskHandler
	ArchiveTaskHandler  *commands.ArchiveTaskHandler
	StartTaskHandler    *commands.StartTaskHandler
	UpdateTaskHandler   *commands.UpdateTaskHandler

	// Task Query Handlers
	ListTasksHandler *queries.ListTasksHandler
	GetTaskHandler   *queries.GetTaskHandler

	// Priority Engine
	PriorityRecalcHandler *commands.RecalculatePrioritiesHandler

	// Scheduling engine
	PlanGenerator           *schedulerServices.PlanGenerator
	GeneratePlanHandler     *scheduleCommands.GeneratePlanHandler
	MoveTimeBlockHandler    *scheduleCommands.MoveTimeBlockHandler
	GetPlanHandler          *scheduleQueries.GetPlanHandler
	CheckFeasibilityHandler *scheduleQueries.CheckFeasibilityHandler
	GetTodayTasksHandler    *scheduleQueries.GetTodayTasksHandler
	Driver                  *schedulerServices.Driver

	// Outbox Processor
	OutboxProcessor *outbox.Processor
}

// NewContainer creates and wires all dependencies against PostgreSQL.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	dbConn, err := database.NewConnection(ctx, database.Config{Driver: database.DriverPostgres, URL: cfg.DatabaseURL})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := dbConn.Ping(ctx); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	pgConn, ok := dbConn.(interface{ Pool() *pgxpool.Pool })
	if !ok {
		dbConn.Close()
		return nil, fmt.Errorf("postgres connection does not expose Pool()")
	}
	pool := pgConn.Pool()
	c.DB = pool
	c.DBConn = dbConn
	c.DBDriver = database.DriverPostgres
	logger.Info("connected to database")

	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				dbConn.Close()
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, plan reads will skip the cache", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				if !cfg.IsDevelopment() {
					dbConn.Close()
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, plan reads will skip the cache", "error", err)
			} else {
				c.RedisClient = redisClient
				logger.Info("connected to Redis")
			}
		}
	}

	c.TaskRepo = persistence.NewPostgresTaskRepositoryFromPool(pool)
	c.PriorityScoreRepo = persistence.NewPostgresPriorityScoreRepository(pool)
	c.OutboxRepo = outbox.NewPostgresRepository(pool)
	c.UnitOfWork = sharedPersistence.NewPostgresUnitOfWork(pool)

	var planRepo schedulingDomain.DailySchedulePlanRepository = schedulePersistence.NewPostgresPlanRepository(dbConn)
	planRepo = scheduleResilience.NewCircuitPlanRepository(planRepo, scheduleResilience.DefaultCircuitBreakerConfig(), logger)
	if c.RedisClient != nil {
		planRepo = scheduleCache.NewRedisPlanCache(planRepo, c.RedisClient, 5*time.Minute)
	}
	c.PlanRepo = planRepo
	c.SettingsRepo = schedulePersistence.NewPostgresSettingsRepository(dbConn)

	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("RabbitMQ not available, using noop publisher")
			c.EventPublisher = eventbus.NewNoopPublisher(logger)
		} else {
			dbConn.Close()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
	} else {
		c.EventPublisher = publisher
	}

	c.wireHandlers(cfg, logger)

	processorConfig := outbox.ProcessorConfig{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxRetries:   cfg.OutboxMaxRetries,
	}
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorConfig, logger)

	return c, nil
}

// wireHandlers builds every application handler from the repositories a
// constructor already populated on c. Shared between NewContainer and
// NewLocalContainer so the two drivers never diverge in wiring shape.
func (c *Container) wireHandlers(cfg *config.Config, logger *slog.Logger) {
	c.CreateTaskHandler = commands.NewCreateTaskHandler(c.TaskRepo, c.OutboxRepo, c.UnitOfWork)
	c.CompleteTaskHandler = commands.NewCompleteTaskHandler(c.TaskRepo, c.OutboxRepo, c.UnitOfWork)
	c.ArchiveTaskHandler = commands.NewArchiveTaskHandler(c.TaskRepo, c.OutboxRepo, c.UnitOfWork)
	c.StartTaskHandler = commands.NewStartTaskHandler(c.TaskRepo, c.OutboxRepo, c.UnitOfWork)
	c.UpdateTaskHandler = commands.NewUpdateTaskHandler(c.TaskRepo, c.OutboxRepo, c.UnitOfWork)

	c.ListTasksHandler = queries.NewListTasksHandler(c.TaskRepo)
	c.GetTaskHandler = queries.NewGetTaskHandler(c.TaskRepo)

	priorityEngine := productivityServices.NewPriorityEngine()
	c.PriorityRecalcHandler = commands.NewRecalculatePrioritiesHandler(c.TaskRepo, c.PriorityScoreRepo, priorityEngine, c.UnitOfWork)

	scheduleDefaults := schedulingDomain.ScheduleDefaults{
		WorkdayStart:          cfg.ScheduleWorkdayStart,
		WorkdayEnd:            cfg.ScheduleWorkdayEnd,
		BufferHours:           cfg.ScheduleBufferHours,
		BreakAfterTaskMinutes: cfg.ScheduleBreakAfterTaskMinutes,
	}

	c.PlanGenerator = schedulerServices.NewPlanGenerator(c.TaskRepo, c.SettingsRepo, c.PlanRepo, scheduleDefaults)
	c.GeneratePlanHandler = scheduleCommands.NewGeneratePlanHandler(c.PlanGenerator, c.PlanRepo, c.UnitOfWork)
	c.MoveTimeBlockHandler = scheduleCommands.NewMoveTimeBlockHandler(c.PlanRepo, c.TaskRepo, c.UnitOfWork)
	c.GetPlanHandler = scheduleQueries.NewGetPlanHandler(c.PlanRepo, c.TaskRepo)
	c.CheckFeasibilityHandler = scheduleQueries.NewCheckFeasibilityHandler(c.TaskRepo, c.SettingsRepo, scheduleDefaults)
	c.GetTodayTasksHandler = scheduleQueries.NewGetTodayTasksHandler(c.PlanRepo)

	driverConfig := schedulerServices.DriverConfig{
		PlanGenerationInterval:  cfg.DriverPlanGenerationInterval,
		HeartbeatInterval:       cfg.DriverHeartbeatInterval,
		RetrospectiveInterval:   cfg.DriverRetrospectiveInterval,
		NotificationWindowStart: cfg.DriverNotificationWindowStart,
		NotificationWindowEnd:   cfg.DriverNotificationWindowEnd,
		NotificationLimitPerDay: cfg.DriverNotificationLimitPerDay,
		NotificationCooldown:    cfg.DriverNotificationCooldown,
	}

	userID, err := uuid.Parse(cfg.UserID)
	if err == nil {
		users := schedulerServices.NewSingleUserLister(userID)
		notifier := schedulerServices.NewLogHeartbeatNotifier(logger)
		c.Driver = schedulerServices.NewDriver(c.PlanGenerator, c.TaskRepo, users, notifier, driverConfig, logger)
	} else {
		logger.Warn("skipping periodic driver, no valid operator user id configured", "error", err)
	}
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.Driver != nil && c.Driver.IsRunning() {
		c.Driver.Stop()
	}

	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("PostgreSQL connection closed")
	}

	if c.DBConn != nil && c.DBDriver == database.DriverSQLite {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing SQLite connection", "error", err)
		} else {
			c.Logger.Info("SQLite connection closed")
		}
	}
}

// NewDevelopmentContainer creates a container for local development
// without external services, useful for testing CLI structure without a
// database.
func NewDevelopmentContainer(logger *slog.Logger) *Container {
	c := &Container{
		Config: &config.Config{AppEnv: "development"},
		Logger: logger,
	}

	c.OutboxRepo = outbox.NewInMemoryRepository()
	c.EventPublisher = eventbus.NewNoopPublisher(logger)

	return c
}

// NewLocalContainer creates a container for local mode with SQLite.
// This provides zero-config operation without requiring PostgreSQL,
// Redis, or RabbitMQ.
func NewLocalContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	conn, err := initSQLiteConnection(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
	}

	factory := NewRepositoryFactory(conn)

	taskRepo, err := factory.TaskRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to create task repository: %w", err)
	}
	c.TaskRepo = taskRepo
	c.PriorityScoreRepo = persistence.NewSQLitePriorityScoreRepository(conn.DB())

	planRepo, err := factory.PlanRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to create plan repository: %w", err)
	}
	c.PlanRepo = planRepo

	settingsRepo, err := factory.ScheduleSettingsRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to create settings repository: %w", err)
	}
	c.SettingsRepo = settingsRepo

	outboxRepo, err := factory.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to create outbox repository: %w", err)
	}
	c.OutboxRepo = outboxRepo

	c.EventPublisher = eventbus.NewNoopPublisher(logger)
	c.UnitOfWork = sharedPersistence.NewSQLiteUnitOfWork(conn.DB())

	c.wireHandlers(cfg, logger)

	c.DBConn = conn
	c.DBDriver = database.DriverSQLite

	logger.Info("local mode container initialized",
		"database", cfg.SQLitePath,
		"driver", "sqlite",
	)

	return c, nil
}

// sqliteConnection is a type that implements database.Connection and exposes DB()
type sqliteConnection interface {
	database.Connection
	DB() *sql.DB
}

// initSQLiteConnection initializes the SQLite database connection with auto-migration.
func initSQLiteConnection(ctx context.Context, cfg *config.Config, logger *slog.Logger) (sqliteConnection, error) {
	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite connection: %w", err)
	}

	sqliteConn, ok := conn.(sqliteConnection)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("expected SQLite connection with DB() method, got %T", conn)
	}

	if err := runSQLiteMigrations(ctx, sqliteConn.DB(), logger); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := ensureLocalUserExists(ctx, sqliteConn.DB(), cfg.UserID, logger); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure local user exists: %w", err)
	}

	return sqliteConn, nil
}

// runSQLiteMigrations applies SQLite schema migrations.
func runSQLiteMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	logger.Info("running SQLite migrations")
	if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
		return err
	}
	logger.Info("SQLite migrations completed successfully")
	return nil
}

// ensureLocalUserExists creates the local user in SQLite if they don't exist.
func ensureLocalUserExists(ctx context.Context, db *sql.DB, userID string, logger *slog.Logger) error {
	var exists int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", userID).Scan(&exists)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check user existence: %w", err)
	}

	now := time.Now().Format(time.RFC3339)
	_, err = db.ExecContext(ctx,
		"INSERT INTO users (id, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		userID, "local@orbita.local", "Local User", now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create local user: %w", err)
	}

	logger.Info("created local user", "user_id", userID)
	return nil
}
