package twitnot

import "context"

// FetchedTweet is a raw remote timeline item as returned by the API,
// before import. CreatedAt is kept as the remote's textual timestamp;
// the sync engine parses it during import.
type FetchedTweet struct {
	ID                uint64
	CreatedAt         string
	UserName          string
	Text              string
	IsRetweet         bool
	RetweetedStatusID uint64 // 0 when the item is not a reshare
	RawJSON           string
}

// TimelineFetcher yields raw remote post records for a screen name.
type TimelineFetcher interface {
	// FetchAccessToken performs the client-credentials token exchange.
	// A non-success response surfaces as an *HTTPError.
	FetchAccessToken(ctx context.Context, consumerKey, consumerSecret string) (string, error)

	// FetchUserTimeline returns a single page of the user's timeline in
	// the order the remote returned it. No pagination is attempted.
	// count == 0 leaves the page size to the remote's default.
	FetchUserTimeline(ctx context.Context, token, screenName string, count int) ([]FetchedTweet, error)
}
