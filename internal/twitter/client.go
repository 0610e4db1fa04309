package twitter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"twitnot/internal/twitnot"
)

const (
	defaultBaseURL = "https://api.twitter.com"
	userAgent      = "twitnot/0.1"
)

// Client is an HTTP TimelineFetcher for the Twitter REST API: app-only
// OAuth2 token exchange plus the v1.1 user timeline endpoint. Requests
// go through a rate limiter and a bounded retry loop that honors
// Retry-After on 429/5xx responses.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseBackoff time.Duration
}

func NewClient() *Client {
	return &Client{
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(2), 10),
		maxAttempts: 5,
		baseBackoff: 500 * time.Millisecond,
	}
}

// FetchAccessToken performs the client-credentials exchange. A
// non-success status surfaces as an *twitnot.HTTPError carrying the
// response body.
func (c *Client) FetchAccessToken(ctx context.Context, consumerKey, consumerSecret string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(consumerKey + ":" + consumerSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", httpError(resp)
	}

	var raw struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", &twitnot.ParseError{Field: "token response", Value: "", Err: err}
	}
	if raw.AccessToken == "" {
		return "", &twitnot.ParseError{Field: "token response", Value: "", Err: fmt.Errorf("no access_token in response")}
	}
	return raw.AccessToken, nil
}

// FetchUserTimeline returns a single page of the user's timeline, in
// the order the remote returned it. count == 0 omits the count
// parameter, leaving the page size to the remote's default.
func (c *Client) FetchUserTimeline(ctx context.Context, token, screenName string, count int) ([]twitnot.FetchedTweet, error) {
	params := url.Values{}
	params.Set("screen_name", screenName)
	if count > 0 {
		params.Set("count", strconv.Itoa(count))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/1.1/statuses/user_timeline.json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building timeline request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httpError(resp)
	}

	// Each entry is kept as raw JSON so the store can retain the
	// original payload verbatim.
	var entries []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, &twitnot.ParseError{Field: "timeline response", Value: "", Err: err}
	}

	out := make([]twitnot.FetchedTweet, 0, len(entries))
	for _, entry := range entries {
		var item struct {
			ID        uint64 `json:"id"`
			CreatedAt string `json:"created_at"`
			Text      string `json:"text"`
			User      struct {
				Name string `json:"name"`
			} `json:"user"`
			RetweetedStatus *struct {
				ID uint64 `json:"id"`
			} `json:"retweeted_status"`
		}
		if err := json.Unmarshal(entry, &item); err != nil {
			return nil, &twitnot.ParseError{Field: "timeline entry", Value: string(entry), Err: err}
		}

		ft := twitnot.FetchedTweet{
			ID:        item.ID,
			CreatedAt: item.CreatedAt,
			UserName:  item.User.Name,
			Text:      item.Text,
			RawJSON:   string(entry),
		}
		if item.RetweetedStatus != nil {
			ft.IsRetweet = true
			ft.RetweetedStatusID = item.RetweetedStatus.ID
		}
		out = append(out, ft)
	}
	return out, nil
}

// httpError drains the response body into an HTTPError.
func httpError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading error response: %w", err)
	}
	return &twitnot.HTTPError{Status: resp.StatusCode, Body: string(body)}
}

// doWithRetry sends the request, retrying 429 and 5xx responses with
// exponential backoff. A Retry-After header, in either seconds or HTTP
// date form, overrides the computed backoff.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	backoff := c.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		attemptReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}
			attemptReq.Body = body
		}
		resp, err := c.httpClient.Do(attemptReq)
		if err == nil {
			if resp.StatusCode != http.StatusTooManyRequests && (resp.StatusCode < 500 || resp.StatusCode > 599) {
				return resp, nil
			}

			wait := backoff
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := strconv.Atoi(ra); err == nil {
					wait = time.Duration(secs) * time.Second
				} else if t, err := http.ParseTime(ra); err == nil {
					if d := time.Until(t); d > 0 {
						wait = d
					}
				}
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)

			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
			continue
		}

		lastErr = err
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxAttempts, lastErr)
}

var _ twitnot.TimelineFetcher = (*Client)(nil)
