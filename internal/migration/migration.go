package migration

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	auditdomain "github.com/crowngraphics/portal/internal/audit/domain"
	authdomain "github.com/crowngraphics/portal/internal/auth/domain"
	jobdomain "github.com/crowngraphics/portal/internal/job/domain"
	userdomain "github.com/crowngraphics/portal/internal/user/domain"
	"github.com/crowngraphics/portal/pkg/db"
)

//go:embed sql/postgres/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "sql/postgres"

// RunMigrations brings the schema up to date. Postgres runs the versioned
// SQL files; sqlite and mysql run the gorm model migrations.
func RunMigrations(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if db.DialectName(conn) == db.TypePostgres {
		return runSQLMigrations(conn)
	}
	return runModelMigrations(conn)
}

func runSQLMigrations(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

func modelMigrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "000001_init",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&userdomain.User{},
					&authdomain.Session{},
					&jobdomain.Job{},
					&jobdomain.LineItem{},
					&auditdomain.JobLog{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("job_logs", "job_line_items", "jobs", "sessions", "users")
			},
		},
	}
}

func runModelMigrations(conn *gorm.DB) error {
	m := gormigrate.New(conn, gormigrate.DefaultOptions, modelMigrations())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
