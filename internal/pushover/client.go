package pushover

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/noahxzhu/autotab/internal/notify"
	"golang.org/x/time/rate"
)

const DefaultEndpoint = "https://api.pushover.net/1/messages.json"

type Options struct {
	Endpoint      string
	RetryMax      int
	RatePerMinute int
}

type Client struct {
	Token string
	User  string

	endpoint string
	http     *retryablehttp.Client
	limiter  *rate.Limiter
}

func NewClient(token, user string, opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.RatePerMinute <= 0 {
		opts.RatePerMinute = 30
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = stdlog.New(io.Discard, "", 0)
	retryClient.RetryMax = opts.RetryMax

	return &Client{
		Token:    token,
		User:     user,
		endpoint: opts.Endpoint,
		http:     retryClient,
		limiter:  rate.NewLimiter(rate.Limit(float64(opts.RatePerMinute)/60), 1),
	}
}

func (c *Client) SendMessage(ctx context.Context, title, message string) error {
	if c.Token == "" || c.User == "" {
		return fmt.Errorf("pushover credentials are not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	params := url.Values{}
	params.Set("token", c.Token)
	params.Set("user", c.User)
	params.Set("title", title)
	params.Set("message", message)
	params.Set("html", "1")

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pushover api error: status %s, body %s", resp.Status, string(body))
	}

	return nil
}

// Show implements notify.Notifier.
func (c *Client) Show(ctx context.Context, n notify.Notification) error {
	return c.SendMessage(ctx, n.Title, n.Message)
}
