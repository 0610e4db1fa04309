package model

import "time"

// User is a tracked remote account.
type User struct {
	ID         int64     // Local surrogate id, assigned by the store
	ScreenName string    // Remote account handle, globally unique
	CreatedAt  time.Time // When tracking started (local time)
}

// Tweet is an imported remote post. Rows are immutable after insert:
// a tweet is only ever read again or deleted along with its user.
type Tweet struct {
	ID        int64     // Remote post id (not store-assigned)
	UserID    int64     // Foreign key to User
	UserName  string    // Display name captured at import time
	CreatedAt time.Time // Remote post timestamp
	Text      string
	Retweets  int    // 1 when the post is itself a reshare, else 0
	RawJSON   string // Original item payload, kept verbatim for audit
}
