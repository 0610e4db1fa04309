package twitnot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"twitnot/internal/model"
)

// Settings is the immutable configuration the service needs: API
// credentials for the token exchange and the notification addressing.
type Settings struct {
	ConsumerKey      string
	ConsumerSecret   string
	NotificationFrom string
	NotificationTos  []string
}

// SyncResult reports what one sync pass did for one user.
type SyncResult struct {
	Inserted int // tweets newly imported
	Notified int // notification mails sent
}

// Service is the orchestration layer: it coordinates the store, the
// timeline fetcher and the notifier to perform the high-level
// operations needed by the CLI.
type Service struct {
	store    Store
	fetcher  TimelineFetcher
	notifier Notifier
	settings Settings
	logger   Logger
}

// NewService creates a Service with the provided dependencies.
func NewService(store Store, fetcher TimelineFetcher, notifier Notifier, settings Settings, logger Logger) *Service {
	return &Service{
		store:    store,
		fetcher:  fetcher,
		notifier: notifier,
		settings: settings,
		logger:   logger,
	}
}

// AddUser starts tracking a screen name. Idempotent: if the user is
// already tracked, the existing row is returned unchanged.
func (s *Service) AddUser(ctx context.Context, screenName string) (*model.User, error) {
	_ = ctx

	existing, err := s.store.GetUserByScreenName(screenName)
	if err != nil {
		return nil, fmt.Errorf("looking up user %q: %w", screenName, err)
	}
	if existing != nil {
		return existing, nil
	}

	user, err := s.store.InsertUser(screenName)
	if err != nil {
		return nil, fmt.Errorf("tracking user %q: %w", screenName, err)
	}

	s.logger.Info("user tracked", "screen_name", screenName, "id", user.ID)
	return user, nil
}

// RemoveUser stops tracking a screen name. An unknown screen name is a
// no-op. Otherwise the user row and all of the user's tweets are
// removed in one transaction: on any failure nothing is committed.
func (s *Service) RemoveUser(ctx context.Context, screenName string) error {
	_ = ctx

	user, err := s.store.GetUserByScreenName(screenName)
	if err != nil {
		return fmt.Errorf("looking up user %q: %w", screenName, err)
	}
	if user == nil {
		return nil
	}

	err = s.store.WithTx(func(tx Store) error {
		// A user tracked but never synced has no tweet rows; that must
		// not block removal.
		if err := tx.DeleteTweetsByUser(user.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("deleting tweets: %w", err)
		}
		if err := tx.DeleteUser(user.ID); err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("removing user %q: %w", screenName, err)
	}

	s.logger.Info("user removed", "screen_name", screenName, "id", user.ID)
	return nil
}

// ImportUser ensures the screen name is tracked and imports one page of
// its timeline without sending notifications. Returns the number of
// tweets imported. This backs the `add` command: the initial import
// seeds the store so the first check-update doesn't notify for history.
func (s *Service) ImportUser(ctx context.Context, screenName string) (int, error) {
	user, err := s.AddUser(ctx, screenName)
	if err != nil {
		return 0, err
	}

	token, err := s.FetchToken(ctx)
	if err != nil {
		return 0, err
	}

	items, err := s.fetcher.FetchUserTimeline(ctx, token, user.ScreenName, 0)
	if err != nil {
		return 0, fmt.Errorf("fetching timeline for %q: %w", user.ScreenName, err)
	}

	inserted := 0
	for _, item := range items {
		stored, err := s.importItem(user, item)
		if err != nil {
			return inserted, err
		}
		if stored != nil {
			inserted++
		}
	}

	s.logger.Info("import complete", "screen_name", user.ScreenName, "inserted", inserted)
	return inserted, nil
}

// FetchToken performs the client-credentials token exchange with the
// configured consumer key and secret.
func (s *Service) FetchToken(ctx context.Context) (string, error) {
	token, err := s.fetcher.FetchAccessToken(ctx, s.settings.ConsumerKey, s.settings.ConsumerSecret)
	if err != nil {
		return "", fmt.Errorf("fetching access token: %w", err)
	}
	return token, nil
}

// SyncUser fetches one page of the user's timeline and processes the
// items in the exact order returned. Each previously unseen item is
// imported; a notification is sent for it unless the item reshares a
// tweet already present in the store. The dedup check always reads
// live store state, so a reshare whose original was inserted earlier
// in the same pass is suppressed.
//
// Re-running against an unchanged remote page yields (0, 0): the
// existence check precedes every insert and every notify decision.
func (s *Service) SyncUser(ctx context.Context, token string, user *model.User) (SyncResult, error) {
	var res SyncResult

	items, err := s.fetcher.FetchUserTimeline(ctx, token, user.ScreenName, 0)
	if err != nil {
		return res, fmt.Errorf("fetching timeline for %q: %w", user.ScreenName, err)
	}

	for _, item := range items {
		stored, err := s.importItem(user, item)
		if err != nil {
			return res, err
		}
		if stored == nil {
			continue // already imported: no count, no notification
		}
		res.Inserted++

		// Suppress the notification when the reshared original is
		// already known. For a plain post RetweetedStatusID is 0,
		// which never matches a stored tweet.
		original, err := s.store.GetTweet(int64(item.RetweetedStatusID))
		if err != nil {
			return res, fmt.Errorf("checking reshared tweet %d: %w", item.RetweetedStatusID, err)
		}
		if original != nil {
			s.logger.Debug("notification suppressed",
				"tweet", stored.ID, "original", original.ID)
			continue
		}

		if err := s.notify(ctx, user, stored); err != nil {
			return res, err
		}
		res.Notified++
	}

	s.logger.Info("sync complete", "screen_name", user.ScreenName,
		"inserted", res.Inserted, "notified", res.Notified)
	return res, nil
}

// SyncOne runs a single-user sync pass. Returns ErrNotFound when the
// screen name is not tracked.
func (s *Service) SyncOne(ctx context.Context, screenName string) (SyncResult, error) {
	user, err := s.store.GetUserByScreenName(screenName)
	if err != nil {
		return SyncResult{}, fmt.Errorf("looking up user %q: %w", screenName, err)
	}
	if user == nil {
		return SyncResult{}, fmt.Errorf("screen name %q is not tracked: %w", screenName, ErrNotFound)
	}

	token, err := s.FetchToken(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	return s.SyncUser(ctx, token, user)
}

// SyncAll runs a sync pass over every tracked user, strictly
// sequentially, reusing one access token. report is called after each
// user completes, before the next user starts. The batch aborts on the
// first user's error: earlier users' work is already committed, but
// remaining users are not attempted.
func (s *Service) SyncAll(ctx context.Context, report func(user *model.User, res SyncResult)) error {
	users, err := s.store.ListAllUsers()
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}
	if len(users) == 0 {
		return nil
	}

	token, err := s.FetchToken(ctx)
	if err != nil {
		return err
	}

	for _, user := range users {
		res, err := s.SyncUser(ctx, token, user)
		if err != nil {
			return err
		}
		if report != nil {
			report(user, res)
		}
	}
	return nil
}

// ListUsers returns every tracked user.
func (s *Service) ListUsers(ctx context.Context) ([]*model.User, error) {
	_ = ctx
	users, err := s.store.ListAllUsers()
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// ListTweets returns the most recent imported tweets for a screen name,
// newest first. Returns ErrNotFound when the screen name is not tracked.
func (s *Service) ListTweets(ctx context.Context, screenName string, limit int) ([]*model.Tweet, error) {
	_ = ctx
	user, err := s.store.GetUserByScreenName(screenName)
	if err != nil {
		return nil, fmt.Errorf("looking up user %q: %w", screenName, err)
	}
	if user == nil {
		return nil, fmt.Errorf("screen name %q is not tracked: %w", screenName, ErrNotFound)
	}
	tweets, err := s.store.ListTweetsByUser(user.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing tweets for %q: %w", screenName, err)
	}
	return tweets, nil
}

// importItem inserts a fetched item unless its id is already present.
// Returns the stored tweet, or nil when the item was skipped.
func (s *Service) importItem(user *model.User, item FetchedTweet) (*model.Tweet, error) {
	existing, err := s.store.GetTweet(int64(item.ID))
	if err != nil {
		return nil, fmt.Errorf("checking tweet %d: %w", item.ID, err)
	}
	if existing != nil {
		return nil, nil
	}

	createdAt, err := time.Parse(time.RubyDate, item.CreatedAt)
	if err != nil {
		return nil, &ParseError{Field: "created_at", Value: item.CreatedAt, Err: err}
	}

	retweets := 0
	if item.IsRetweet {
		retweets = 1
	}

	stored, err := s.store.InsertTweet(&model.Tweet{
		ID:        int64(item.ID),
		UserID:    user.ID,
		UserName:  item.UserName,
		CreatedAt: createdAt.UTC(),
		Text:      item.Text,
		Retweets:  retweets,
		RawJSON:   item.RawJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("inserting tweet %d: %w", item.ID, err)
	}
	return stored, nil
}

// notify sends the new-post mail for one imported tweet. When the
// tweet is a reshare of a post we have never seen, the mail carries the
// reshare's own text and display name, not the original's.
func (s *Service) notify(ctx context.Context, user *model.User, tweet *model.Tweet) error {
	subject := "【更新通知】" + tweet.UserName
	body := fmt.Sprintf("%s\n\nURL: http://twitter.com/%s/status/%d",
		tweet.Text, user.ScreenName, tweet.ID)

	if err := s.notifier.Send(ctx, s.settings.NotificationFrom, s.settings.NotificationTos, subject, body); err != nil {
		return fmt.Errorf("notifying for tweet %d: %w", tweet.ID, err)
	}

	s.logger.Debug("notification sent", "tweet", tweet.ID, "recipients", len(s.settings.NotificationTos))
	return nil
}
