package twitnot

import "twitnot/internal/model"

// Store provides metadata persistence for tracked users and imported
// tweets. Lookup methods return nil (not an error) when the row is
// absent; delete methods return ErrNotFound when zero rows matched.
type Store interface {
	// GetUserByScreenName returns the user with the given handle, or nil.
	GetUserByScreenName(screenName string) (*model.User, error)

	// InsertUser creates a tracked user and returns the stored row with
	// its assigned id and timestamp. Returns ErrUniqueViolation if the
	// screen name is already tracked.
	InsertUser(screenName string) (*model.User, error)

	// DeleteUser removes a user row. Returns ErrNotFound when no row matched.
	DeleteUser(id int64) error

	// DeleteTweetsByUser removes all tweets owned by the user.
	// Returns ErrNotFound when no rows matched.
	DeleteTweetsByUser(userID int64) error

	// GetTweet returns the tweet with the given remote id, or nil.
	// This is the dedup check: a primary-key lookup.
	GetTweet(id int64) (*model.Tweet, error)

	// InsertTweet stores a new tweet and returns the stored row.
	// Returns ErrConstraintViolation if the id is already present or
	// the user id references no tracked user.
	InsertTweet(tweet *model.Tweet) (*model.Tweet, error)

	// ListTweetsByUser returns the user's tweets ordered by created_at
	// descending, truncated to limit.
	ListTweetsByUser(userID int64, limit int) ([]*model.Tweet, error)

	// ListAllUsers returns every tracked user.
	ListAllUsers() ([]*model.User, error)

	// WithTx runs body inside a transaction. The transaction commits
	// only if body returns nil; any error (including one raised partway
	// through body) rolls back every change.
	WithTx(body func(tx Store) error) error

	// Close closes the underlying connection.
	Close() error
}
