package app

import (
	"database/sql"
	"fmt"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/task"
	productivityPersistence "github.com/mugi0227/nagi-scheduler/internal/productivity/infrastructure/persistence"
	schedulingDomain "github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	schedulingPersistence "github.com/mugi0227/nagi-scheduler/internal/scheduling/infrastructure/persistence"
	"github.com/mugi0227/nagi-scheduler/internal/shared/infrastructure/database"
	"github.com/mugi0227/nagi-scheduler/internal/shared/infrastructure/outbox"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// TaskRepository creates a task repository for the configured driver.
func (f *RepositoryFactory) TaskRepository() (task.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return productivityPersistence.NewPostgresTaskRepositoryFromPool(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return productivityPersistence.NewSQLiteTaskRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// PlanRepository creates a daily schedule plan repository for the configured driver.
func (f *RepositoryFactory) PlanRepository() (schedulingDomain.DailySchedulePlanRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return schedulingPersistence.NewPostgresPlanRepository(f.conn), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return schedulingPersistence.NewSQLitePlanRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// ScheduleSettingsRepository creates a schedule settings repository for the configured driver.
func (f *RepositoryFactory) ScheduleSettingsRepository() (schedulingDomain.ScheduleSettingsRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return schedulingPersistence.NewPostgresSettingsRepository(f.conn), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return schedulingPersistence.NewSQLiteSettingsRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// OutboxRepository creates an outbox repository for the configured driver.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return outbox.NewPostgresRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return outbox.NewSQLiteRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// Helper methods to get underlying database connections

func (f *RepositoryFactory) getPostgresPool() (*pgxpool.Pool, error) {
	pgConn, ok := f.conn.(interface{ Pool() *pgxpool.Pool })
	if !ok {
		return nil, fmt.Errorf("postgres connection does not expose Pool()")
	}
	return pgConn.Pool(), nil
}

func (f *RepositoryFactory) getSQLiteDB() (*sql.DB, error) {
	sqliteConn, ok := f.conn.(interface{ DB() *sql.DB })
	if !ok {
		return nil, fmt.Errorf("sqlite connection does not expose DB()")
	}
	return sqliteConn.DB(), nil
}

// Driver returns the database driver type.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// Connection returns the underlying database connection.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}
