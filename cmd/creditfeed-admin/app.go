package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/target/creditfeed/config"
	"github.com/target/creditfeed/internal/bootstrap"
	domainauth "github.com/target/creditfeed/internal/domain/auth"
	"github.com/target/creditfeed/internal/domain/model"
	"github.com/target/creditfeed/internal/migrate"
	"github.com/target/creditfeed/internal/service"
)

// adminAuth provisions admin accounts.
type adminAuth interface {
	CreateAdmin(ctx context.Context, in service.CreateAdminInput) (*model.User, error)
}

// adminUsers changes roles and credits of existing accounts.
type adminUsers interface {
	SetRole(ctx context.Context, email string, role domainauth.Role) (*model.User, error)
	UpdateCreditsByEmail(ctx context.Context, email string, credits int64) (*model.User, error)
}

// migrator applies and reports schema migrations.
type migrator interface {
	Run(ctx context.Context) error
	Status(ctx context.Context) ([]migrate.Migration, error)
}

// backend is everything a command may touch once connected.
type backend struct {
	Auth   adminAuth
	Users  adminUsers
	Schema migrator
	Close  func() error
}

// app carries the process-level hooks commands run against. Tests replace connect and
// readPassword.
type app struct {
	logger       *slog.Logger
	connect      func(ctx context.Context) (*backend, error)
	readPassword func(prompt string, out io.Writer) (string, error)
	timeout      time.Duration
}

func defaultApp() *app {
	logger := bootstrap.InitLogger(slog.LevelWarn)
	return &app{
		logger:       logger,
		connect:      func(ctx context.Context) (*backend, error) { return connectBackend(ctx, logger) },
		readPassword: readTerminalPassword,
	}
}

func connectBackend(ctx context.Context, logger *slog.Logger) (*backend, error) {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return nil, err
	}
	// The CLI never serves metrics or needs the login throttle.
	cfg.Observability.Metrics.Enabled = false
	cfg.Auth.Throttle = config.LoginThrottleConfig{}

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{Config: &cfg, DB: db, Logger: logger})
	if err != nil {
		if cerr := db.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close db: %w", cerr))
		}
		return nil, fmt.Errorf("build services: %w", err)
	}
	return &backend{
		Auth:   services.Auth,
		Users:  services.Users,
		Schema: sqlMigrator{db: db},
		Close:  db.Close,
	}, nil
}

type sqlMigrator struct {
	db *sql.DB
}

func (m sqlMigrator) Run(ctx context.Context) error { return migrate.Run(ctx, m.db) }

func (m sqlMigrator) Status(ctx context.Context) ([]migrate.Migration, error) {
	return migrate.Status(ctx, m.db)
}

// withBackend connects, runs fn and closes the connection.
func (a *app) withBackend(ctx context.Context, fn func(context.Context, *backend) error) error {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	b, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if b.Close == nil {
			return
		}
		if cerr := b.Close(); cerr != nil {
			a.logger.Warn("close backend failed", "error", cerr)
		}
	}()
	return fn(ctx, b)
}

var errPasswordMismatch = errors.New("passwords do not match")

func readTerminalPassword(prompt string, out io.Writer) (string, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return "", err
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("password prompt requires a terminal; use --password-stdin")
	}
	raw, err := term.ReadPassword(fd)
	if _, nlErr := fmt.Fprintln(out); nlErr != nil && err == nil {
		err = nlErr
	}
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

// readPasswordLine reads a single password line from r, for non-interactive use.
func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
