package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/crowngraphics/portal/internal/authctx"
	"github.com/crowngraphics/portal/internal/clock"
	"github.com/crowngraphics/portal/internal/config"
	"github.com/crowngraphics/portal/internal/migration"
	"github.com/crowngraphics/portal/internal/seed"
	"github.com/crowngraphics/portal/internal/user"
	userdomain "github.com/crowngraphics/portal/internal/user/domain"
	"github.com/crowngraphics/portal/pkg/db"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const usage = `usage: portalctl <command> [flags]

commands:
  init-db        create or upgrade the schema and seed the first admin
  create-user    add a staff or admin account
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "init-db":
		err = initDB(os.Args[2:])
	case "create-user":
		err = createUser(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initDB(args []string) error {
	fs := flag.NewFlagSet("init-db", flag.ExitOnError)
	skipSeed := fs.Bool("skip-seed", false, "do not create the ADMIN_USER account")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withApp(func(ctx context.Context, conn *gorm.DB, cfg config.Config, users userdomain.Service, log *zap.Logger) error {
		if err := migration.RunMigrations(conn); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Printf("schema ready (%s)\n", db.DialectName(conn))
		if *skipSeed {
			return nil
		}
		return seed.EnsureAdmin(ctx, users, cfg, log)
	})
}

func createUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	username := fs.StringP("username", "u", "", "login name")
	password := fs.StringP("password", "p", "", "initial password")
	role := fs.String("role", userdomain.RoleStaff, "staff or admin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		fs.PrintDefaults()
		return fmt.Errorf("username and password are required")
	}

	return withApp(func(ctx context.Context, conn *gorm.DB, _ config.Config, users userdomain.Service, _ *zap.Logger) error {
		if err := migration.RunMigrations(conn); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		ctx = authctx.WithIdentity(ctx, authctx.Identity{Username: "portalctl", Role: authctx.RoleAdmin})
		created, err := users.Create(ctx, userdomain.CreateUserRequest{
			Username: *username,
			Password: *password,
			Role:     *role,
		})
		if err != nil {
			return err
		}
		fmt.Printf("user %q created (%s)\n", created.Username, created.Role)
		return nil
	})
}

type command func(ctx context.Context, conn *gorm.DB, cfg config.Config, users userdomain.Service, log *zap.Logger) error

// withApp builds the minimal object graph a command needs and tears it down
// when the command returns.
func withApp(run command) error {
	var (
		conn  *gorm.DB
		cfg   config.Config
		users userdomain.Service
		log   *zap.Logger
	)

	app := fx.New(
		fx.NopLogger,
		config.Module,
		fx.Provide(newLogger),
		fx.Provide(newSnowflake),
		db.Module,
		clock.Module,
		user.Module,
		fx.Populate(&conn, &cfg, &users, &log),
	)
	if err := app.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := app.Stop(context.Background()); err != nil {
			log.Warn("shutdown failed", zap.Error(err))
		}
		_ = log.Sync()
	}()

	return run(ctx, conn, cfg, users, log)
}

func newLogger() (*zap.Logger, error) {
	return zap.NewDevelopment()
}

func newSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(2)
}
