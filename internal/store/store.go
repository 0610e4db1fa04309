package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"twitnot/internal/model"
	"twitnot/internal/store/migrations"
	"twitnot/internal/twitnot"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx,
// so the same query methods serve both connection- and
// transaction-scoped stores.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// SQLiteStore implements the twitnot.Store interface using SQLite.
type SQLiteStore struct {
	db    *sql.DB // nil on a transaction-scoped view
	q     querier
	clock twitnot.Clock
	path  string
}

// Open opens or creates the backing file and configures the connection.
// path can be a file path or ":memory:" for an in-memory database.
// clock may be nil, in which case wall-clock time is used.
func Open(path string, clock twitnot.Clock) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection: the store's transaction contract requires that no
	// other operation interleaves while a transaction is open.
	db.SetMaxOpenConns(1)

	// Foreign keys are OFF by default in SQLite; the schema relies on
	// tweets.user_id being enforced for the connection lifetime.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if clock == nil {
		clock = twitnot.RealClock{}
	}

	return &SQLiteStore{db: db, q: db, clock: clock, path: path}, nil
}

// Migrate brings the schema to the latest version.
func (s *SQLiteStore) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Path returns the database file path (or ":memory:").
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) GetUserByScreenName(screenName string) (*model.User, error) {
	row := s.q.QueryRow(`SELECT id, screen_name, created_at FROM users WHERE screen_name = ?`, screenName)

	var u model.User
	if err := row.Scan(&u.ID, &u.ScreenName, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // not found
		}
		return nil, fmt.Errorf("finding user by screen name: %w", err)
	}
	return &u, nil
}

func (s *SQLiteStore) InsertUser(screenName string) (*model.User, error) {
	now := s.clock.Now().UTC()

	res, err := s.q.Exec(`INSERT INTO users (screen_name, created_at) VALUES (?, ?)`, screenName, now)
	if err != nil {
		return nil, fmt.Errorf("inserting user: %w", mapSQLiteError(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading inserted user id: %w", err)
	}

	return &model.User{ID: id, ScreenName: screenName, CreatedAt: now}, nil
}

func (s *SQLiteStore) DeleteUser(id int64) error {
	res, err := s.q.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", mapSQLiteError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("deleting user %d: %w", id, twitnot.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteTweetsByUser(userID int64) error {
	res, err := s.q.Exec(`DELETE FROM tweets WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("deleting tweets: %w", mapSQLiteError(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting tweets: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("deleting tweets for user %d: %w", userID, twitnot.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) GetTweet(id int64) (*model.Tweet, error) {
	row := s.q.QueryRow(`SELECT id, user_id, user_name, created_at, text, retweets, raw_json
		FROM tweets WHERE id = ?`, id)

	var t model.Tweet
	if err := row.Scan(&t.ID, &t.UserID, &t.UserName, &t.CreatedAt, &t.Text, &t.Retweets, &t.RawJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // not found
		}
		return nil, fmt.Errorf("finding tweet: %w", err)
	}
	return &t, nil
}

func (s *SQLiteStore) InsertTweet(tweet *model.Tweet) (*model.Tweet, error) {
	_, err := s.q.Exec(`INSERT INTO tweets (id, user_id, user_name, created_at, text, retweets, raw_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tweet.ID, tweet.UserID, tweet.UserName, tweet.CreatedAt, tweet.Text, tweet.Retweets, tweet.RawJSON)
	if err != nil {
		return nil, fmt.Errorf("inserting tweet: %w", mapSQLiteError(err))
	}

	stored := *tweet
	return &stored, nil
}

func (s *SQLiteStore) ListTweetsByUser(userID int64, limit int) ([]*model.Tweet, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := s.q.Query(`SELECT id, user_id, user_name, created_at, text, retweets, raw_json
		FROM tweets WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing tweets: %w", err)
	}
	defer rows.Close()

	var tweets []*model.Tweet
	for rows.Next() {
		var t model.Tweet
		if err := rows.Scan(&t.ID, &t.UserID, &t.UserName, &t.CreatedAt, &t.Text, &t.Retweets, &t.RawJSON); err != nil {
			return nil, fmt.Errorf("scanning tweet: %w", err)
		}
		tweets = append(tweets, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing tweets: %w", err)
	}
	return tweets, nil
}

func (s *SQLiteStore) ListAllUsers() ([]*model.User, error) {
	rows, err := s.q.Query(`SELECT id, screen_name, created_at FROM users`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.ScreenName, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// WithTx runs body with a transaction-scoped view of the store. The
// transaction commits only when body returns nil; every other path,
// including an error raised partway through body, rolls back.
func (s *SQLiteStore) WithTx(body func(tx twitnot.Store) error) error {
	if s.db == nil {
		return fmt.Errorf("nested transactions are not supported")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	txStore := &SQLiteStore{q: tx, clock: s.clock, path: s.path}
	if err := body(txStore); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// mapSQLiteError translates sqlite constraint failures into the store's
// error taxonomy so callers can branch with errors.Is.
func mapSQLiteError(err error) error {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return err
	}
	switch serr.ExtendedCode {
	case sqlite3.ErrConstraintUnique:
		return twitnot.ErrUniqueViolation
	case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintForeignKey:
		return twitnot.ErrConstraintViolation
	}
	return err
}

// Compile-time check that SQLiteStore implements the Store interface.
var _ twitnot.Store = (*SQLiteStore)(nil)
