package store_test

import (
	"errors"
	"testing"
	"time"

	"twitnot/internal/model"
	"twitnot/internal/testutil"
	"twitnot/internal/twitnot"
)

func insertTweet(t *testing.T, s twitnot.Store, id, userID int64, createdAt time.Time, text string) *model.Tweet {
	t.Helper()
	tweet, err := s.InsertTweet(&model.Tweet{
		ID:        id,
		UserID:    userID,
		UserName:  "Alice",
		CreatedAt: createdAt,
		Text:      text,
		RawJSON:   "{}",
	})
	if err != nil {
		t.Fatalf("inserting tweet %d: %v", id, err)
	}
	return tweet
}

func TestUsers(t *testing.T) {
	t.Run("insert and find", func(t *testing.T) {
		s := testutil.NewTestStore(t)

		user, err := s.InsertUser("alice")
		if err != nil {
			t.Fatalf("InsertUser: %v", err)
		}
		if user.ID == 0 {
			t.Error("expected a non-zero id")
		}

		found, err := s.GetUserByScreenName("alice")
		if err != nil {
			t.Fatalf("GetUserByScreenName: %v", err)
		}
		if found == nil {
			t.Fatal("expected to find the user")
		}
		if found.ID != user.ID || found.ScreenName != "alice" {
			t.Errorf("unexpected user %+v", found)
		}
	})

	t.Run("lookup miss returns nil", func(t *testing.T) {
		s := testutil.NewTestStore(t)

		found, err := s.GetUserByScreenName("nobody")
		if err != nil {
			t.Fatalf("GetUserByScreenName: %v", err)
		}
		if found != nil {
			t.Errorf("expected nil, got %+v", found)
		}
	})

	t.Run("duplicate screen name is a unique violation", func(t *testing.T) {
		s := testutil.NewTestStore(t)

		if _, err := s.InsertUser("alice"); err != nil {
			t.Fatalf("InsertUser: %v", err)
		}
		_, err := s.InsertUser("alice")
		if !errors.Is(err, twitnot.ErrUniqueViolation) {
			t.Errorf("expected ErrUniqueViolation, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		s := testutil.NewTestStore(t)

		user, err := s.InsertUser("alice")
		if err != nil {
			t.Fatalf("InsertUser: %v", err)
		}
		if err := s.DeleteUser(user.ID); err != nil {
			t.Fatalf("DeleteUser: %v", err)
		}

		found, err := s.GetUserByScreenName("alice")
		if err != nil {
			t.Fatalf("GetUserByScreenName: %v", err)
		}
		if found != nil {
			t.Errorf("expected the user to be gone, got %+v", found)
		}
	})

	t.Run("delete of a missing user is ErrNotFound", func(t *testing.T) {
		s := testutil.NewTestStore(t)

		if err := s.DeleteUser(42); !errors.Is(err, twitnot.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list all", func(t *testing.T) {
		s := testutil.NewTestStore(t)

		for _, name := range []string{"alice", "bob"} {
			if _, err := s.InsertUser(name); err != nil {
				t.Fatalf("InsertUser %s: %v", name, err)
			}
		}

		users, err := s.ListAllUsers()
		if err != nil {
			t.Fatalf("ListAllUsers: %v", err)
		}
		if len(users) != 2 {
			t.Errorf("expected 2 users, got %d", len(users))
		}
	})
}

func TestTweets(t *testing.T) {
	base := time.Date(2023, 6, 14, 10, 0, 0, 0, time.UTC)

	t.Run("insert and find", func(t *testing.T) {
		s := testutil.NewTestStore(t)
		user, _ := s.InsertUser("alice")

		insertTweet(t, s, 10, user.ID, base, "hello")

		found, err := s.GetTweet(10)
		if err != nil {
			t.Fatalf("GetTweet: %v", err)
		}
		if found == nil {
			t.Fatal("expected to find the tweet")
		}
		if found.Text != "hello" || found.UserID != user.ID {
			t.Errorf("unexpected tweet %+v", found)
		}
		if !found.CreatedAt.Equal(base) {
			t.Errorf("expected created_at %v, got %v", base, found.CreatedAt)
		}
	})

	t.Run("lookup miss returns nil", func(t *testing.T) {
		s := testutil.NewTestStore(t)

		found, err := s.GetTweet(99)
		if err != nil {
			t.Fatalf("GetTweet: %v", err)
		}
		if found != nil {
			t.Errorf("expected nil, got %+v", found)
		}
	})

	t.Run("duplicate id is a constraint violation", func(t *testing.T) {
		s := testutil.NewTestStore(t)
		user, _ := s.InsertUser("alice")

		insertTweet(t, s, 10, user.ID, base, "hello")
		_, err := s.InsertTweet(&model.Tweet{ID: 10, UserID: user.ID, CreatedAt: base, RawJSON: "{}"})
		if !errors.Is(err, twitnot.ErrConstraintViolation) {
			t.Errorf("expected ErrConstraintViolation, got %v", err)
		}
	})

	t.Run("unknown user id is a constraint violation", func(t *testing.T) {
		s := testutil.NewTestStore(t)

		_, err := s.InsertTweet(&model.Tweet{ID: 10, UserID: 42, CreatedAt: base, RawJSON: "{}"})
		if !errors.Is(err, twitnot.ErrConstraintViolation) {
			t.Errorf("expected ErrConstraintViolation, got %v", err)
		}
	})

	t.Run("list newest first with limit", func(t *testing.T) {
		s := testutil.NewTestStore(t)
		user, _ := s.InsertUser("alice")

		insertTweet(t, s, 1, user.ID, base.Add(-2*time.Hour), "old")
		insertTweet(t, s, 2, user.ID, base.Add(-time.Hour), "mid")
		insertTweet(t, s, 3, user.ID, base, "new")

		tweets, err := s.ListTweetsByUser(user.ID, 2)
		if err != nil {
			t.Fatalf("ListTweetsByUser: %v", err)
		}
		if len(tweets) != 2 {
			t.Fatalf("expected 2 tweets, got %d", len(tweets))
		}
		if tweets[0].Text != "new" || tweets[1].Text != "mid" {
			t.Errorf("unexpected order: %q, %q", tweets[0].Text, tweets[1].Text)
		}
	})

	t.Run("zero limit lists everything", func(t *testing.T) {
		s := testutil.NewTestStore(t)
		user, _ := s.InsertUser("alice")

		insertTweet(t, s, 1, user.ID, base.Add(-time.Hour), "old")
		insertTweet(t, s, 2, user.ID, base, "new")

		tweets, err := s.ListTweetsByUser(user.ID, 0)
		if err != nil {
			t.Fatalf("ListTweetsByUser: %v", err)
		}
		if len(tweets) != 2 {
			t.Errorf("expected 2 tweets, got %d", len(tweets))
		}
	})

	t.Run("delete by user", func(t *testing.T) {
		s := testutil.NewTestStore(t)
		user, _ := s.InsertUser("alice")

		insertTweet(t, s, 1, user.ID, base, "one")
		insertTweet(t, s, 2, user.ID, base, "two")

		if err := s.DeleteTweetsByUser(user.ID); err != nil {
			t.Fatalf("DeleteTweetsByUser: %v", err)
		}
		tweets, err := s.ListTweetsByUser(user.ID, 0)
		if err != nil {
			t.Fatalf("ListTweetsByUser: %v", err)
		}
		if len(tweets) != 0 {
			t.Errorf("expected no tweets, got %d", len(tweets))
		}
	})

	t.Run("delete by user with no tweets is ErrNotFound", func(t *testing.T) {
		s := testutil.NewTestStore(t)
		user, _ := s.InsertUser("alice")

		if err := s.DeleteTweetsByUser(user.ID); !errors.Is(err, twitnot.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestWithTx(t *testing.T) {
	base := time.Date(2023, 6, 14, 10, 0, 0, 0, time.UTC)

	t.Run("commits on success", func(t *testing.T) {
		s := testutil.NewTestStore(t)
		user, _ := s.InsertUser("alice")
		insertTweet(t, s, 1, user.ID, base, "one")

		err := s.WithTx(func(tx twitnot.Store) error {
			if err := tx.DeleteTweetsByUser(user.ID); err != nil {
				return err
			}
			return tx.DeleteUser(user.ID)
		})
		if err != nil {
			t.Fatalf("WithTx: %v", err)
		}

		found, err := s.GetUserByScreenName("alice")
		if err != nil {
			t.Fatalf("GetUserByScreenName: %v", err)
		}
		if found != nil {
			t.Error("expected the user to be gone")
		}
	})

	t.Run("rolls back on error", func(t *testing.T) {
		s := testutil.NewTestStore(t)
		user, _ := s.InsertUser("alice")
		insertTweet(t, s, 1, user.ID, base, "one")

		boom := errors.New("boom")
		err := s.WithTx(func(tx twitnot.Store) error {
			if err := tx.DeleteTweetsByUser(user.ID); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected the body's error, got %v", err)
		}

		// The tweet deletion must not have been committed.
		tweets, err := s.ListTweetsByUser(user.ID, 0)
		if err != nil {
			t.Fatalf("ListTweetsByUser: %v", err)
		}
		if len(tweets) != 1 {
			t.Errorf("expected the tweet to survive the rollback, got %d rows", len(tweets))
		}
	})

	t.Run("rejects nesting", func(t *testing.T) {
		s := testutil.NewTestStore(t)

		err := s.WithTx(func(tx twitnot.Store) error {
			return tx.WithTx(func(twitnot.Store) error { return nil })
		})
		if err == nil {
			t.Fatal("expected nested WithTx to fail")
		}
	})
}
