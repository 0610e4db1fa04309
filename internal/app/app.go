package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"twitnot/internal/config"
	"twitnot/internal/mail"
	"twitnot/internal/model"
	"twitnot/internal/store"
	"twitnot/internal/twitnot"
	"twitnot/internal/twitter"
)

// App is the application layer between the CLI and the service. It
// constructs all dependencies from config, exposes CLI-shaped
// operations, and manages the store lifecycle on Close.
type App struct {
	cfg     *config.Config
	store   *store.SQLiteStore
	service *twitnot.Service
	logFile *os.File
}

// NewApp creates a fully wired App from the given config. operation
// identifies the CLI command being run (e.g. "AddUser", "SyncAll").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.DatabaseFile, nil)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if err := st.CheckMigrations(); err != nil {
		st.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	notifier, err := mail.NewNotifierFromConfig(cfg.Notifier)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("creating notifier: %w", err)
	}

	logger, logFile, err := newLogger(cfg.LogDir, operation)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := twitnot.NewService(st, twitter.NewClient(), notifier, twitnot.Settings{
		ConsumerKey:      cfg.ConsumerKey,
		ConsumerSecret:   cfg.ConsumerSecret,
		NotificationFrom: cfg.NotificationFrom,
		NotificationTos:  cfg.NotificationTos,
	}, &slogAdapter{l: logger})

	return &App{
		cfg:     cfg,
		store:   st,
		service: svc,
		logFile: logFile,
	}, nil
}

// InitializeStore creates the database file's directory and brings the
// schema to the latest version. Used by `config init`; does not require
// a valid API configuration.
func InitializeStore(databaseFile string) error {
	if dir := filepath.Dir(databaseFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	st, err := store.Open(databaseFile, nil)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if err := st.Migrate(); err != nil {
		return fmt.Errorf("migrating store: %w", err)
	}
	return nil
}

// AddUser starts tracking a screen name and imports one timeline page
// without notifying. Returns the number of tweets imported.
func (a *App) AddUser(ctx context.Context, screenName string) (int, error) {
	return a.service.ImportUser(ctx, screenName)
}

// RemoveUser stops tracking a screen name, removing the user and all
// imported tweets atomically. Unknown screen names are a no-op.
func (a *App) RemoveUser(ctx context.Context, screenName string) error {
	return a.service.RemoveUser(ctx, screenName)
}

// ListUsers returns every tracked user.
func (a *App) ListUsers(ctx context.Context) ([]*model.User, error) {
	return a.service.ListUsers(ctx)
}

// ListTweets returns the most recent imported tweets for a screen name.
func (a *App) ListTweets(ctx context.Context, screenName string, limit int) ([]*model.Tweet, error) {
	return a.service.ListTweets(ctx, screenName, limit)
}

// CheckUpdate runs a sync pass for a single tracked screen name.
func (a *App) CheckUpdate(ctx context.Context, screenName string) (twitnot.SyncResult, error) {
	return a.service.SyncOne(ctx, screenName)
}

// CheckUpdateAll runs a sync pass over every tracked user. report is
// called after each user completes, so partial progress is visible even
// when a later user aborts the batch.
func (a *App) CheckUpdateAll(ctx context.Context, report func(user *model.User, res twitnot.SyncResult)) error {
	return a.service.SyncAll(ctx, report)
}

// Close releases the store and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
