package testutil

import (
	"context"

	"twitnot/internal/twitnot"
)

// StubFetcher serves canned timeline pages keyed by screen name.
type StubFetcher struct {
	Token    string
	TokenErr error
	Pages    map[string][]twitnot.FetchedTweet
	PageErr  map[string]error

	TokenCalls    int
	TimelineCalls int
}

func (f *StubFetcher) FetchAccessToken(ctx context.Context, consumerKey, consumerSecret string) (string, error) {
	f.TokenCalls++
	if f.TokenErr != nil {
		return "", f.TokenErr
	}
	if f.Token == "" {
		return "stub-token", nil
	}
	return f.Token, nil
}

func (f *StubFetcher) FetchUserTimeline(ctx context.Context, token, screenName string, count int) ([]twitnot.FetchedTweet, error) {
	f.TimelineCalls++
	if err := f.PageErr[screenName]; err != nil {
		return nil, err
	}
	return f.Pages[screenName], nil
}
