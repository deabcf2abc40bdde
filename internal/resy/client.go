package resy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.resy.com"

	defaultUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"
)

// Client talks to the Resy REST API. It requires an API key and auth token
// captured from an authenticated browser session.
type Client struct {
	hc      *http.Client
	creds   Credentials
	baseURL string
	limiter *rate.Limiter
}

type Credentials struct {
	APIKey    string
	AuthToken string
}

type Option func(*Client)

// WithBaseURL points the client at a different API host (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithRateLimit caps outgoing requests per second. A zero limit disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func New(creds Credentials, opts ...Option) *Client {
	c := &Client{
		hc:      &http.Client{Timeout: 10 * time.Second},
		creds:   creds,
		baseURL: DefaultBaseURL,
		limiter: rate.NewLimiter(rate.Limit(2), 4),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Ping checks that the credentials are accepted by the API.
func (c *Client) Ping(ctx context.Context) error {
	status, body, err := c.do(ctx, http.MethodGet, "/2/user", "", nil, nil)
	if err != nil {
		return err
	}
	if status >= 400 {
		var r struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &r)
		if r.Message != "" {
			return fmt.Errorf("resy ping failed: %s (status=%d)", r.Message, status)
		}
		return fmt.Errorf("resy ping failed (status=%d)", status)
	}
	return nil
}

// VenueBySlug looks a venue up by its url slug.
func (c *Client) VenueBySlug(ctx context.Context, slug, location string) (Venue, error) {
	q := url.Values{}
	q.Set("url_slug", slug)
	if location != "" {
		q.Set("location", location)
	}
	return c.venue(ctx, q)
}

// VenueByID looks a venue up by its platform id.
func (c *Client) VenueByID(ctx context.Context, id, location string) (Venue, error) {
	q := url.Values{}
	q.Set("id", id)
	if location != "" {
		q.Set("location", location)
	}
	return c.venue(ctx, q)
}

func (c *Client) venue(ctx context.Context, q url.Values) (Venue, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/3/venue", "", q, nil)
	if err != nil {
		return Venue{}, err
	}
	if status != http.StatusOK {
		return Venue{}, &GatewayError{Op: "venue lookup", Status: status, Body: string(body)}
	}
	var rec venueRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return Venue{}, fmt.Errorf("decode venue: %w", err)
	}
	v := rec.venue()
	if v.ID == "" {
		return Venue{}, ErrMissingVenueID
	}
	return v, nil
}

// SearchVenues runs a free-text venue search.
func (c *Client) SearchVenues(ctx context.Context, p SearchParams) ([]Venue, error) {
	p = p.withDefaults()
	q := url.Values{}
	q.Set("query", p.Query)
	q.Set("lat", p.Lat)
	q.Set("lng", p.Lng)
	q.Set("day", p.Day.Format(DateLayout))
	q.Set("party_size", strconv.Itoa(p.PartySize))
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("location", p.Location)
	q.Set("radius", strconv.Itoa(p.Radius))

	status, body, err := c.do(ctx, http.MethodGet, "/3/venues/search", "", q, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &GatewayError{Op: "venue search", Status: status, Body: string(body)}
	}
	var res struct {
		Venues []venueRecord `json:"venues"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode search: %w", err)
	}
	out := make([]Venue, 0, len(res.Venues))
	for _, r := range res.Venues {
		out = append(out, r.venue())
	}
	return out, nil
}

// CreateReservation books configRef directly, skipping the browser checkout.
// Only a 201 response counts as success; the call is never retried. A 201
// whose body does not decode returns ErrUndecodedConfirmation with Raw set.
func (c *Client) CreateReservation(ctx context.Context, configRef string, partySize int, date time.Time) (Confirmation, error) {
	if configRef == "" {
		return Confirmation{}, errors.New("config ref required")
	}
	if partySize < 1 {
		return Confirmation{}, errors.New("party size must be >= 1")
	}
	jb, err := json.Marshal(reservationRequest{
		ConfigID:  configRef,
		PartySize: partySize,
		Date:      date.Format(DateLayout),
	})
	if err != nil {
		return Confirmation{}, err
	}
	status, body, err := c.do(ctx, http.MethodPost, "/3/reservation", "application/json", nil, jb)
	if err != nil {
		return Confirmation{}, err
	}
	if status != http.StatusCreated {
		return Confirmation{}, &GatewayError{Op: "create reservation", Status: status, Body: string(body)}
	}
	var conf Confirmation
	err = json.Unmarshal(body, &conf)
	conf.Raw = json.RawMessage(body)
	if err != nil {
		return conf, fmt.Errorf("%w: %v", ErrUndecodedConfirmation, err)
	}
	return conf, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, query url.Values, body []byte) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Add("user-agent", defaultUA)
	req.Header.Add("accept", "application/json")
	req.Header.Add("origin", "https://resy.com")
	req.Header.Add("referer", "https://resy.com/")
	req.Header.Add("x-origin", "https://resy.com")
	req.Header.Add("cache-control", "no-cache")
	if contentType != "" {
		req.Header.Add("content-type", contentType)
	}
	req.Header.Add("authorization", fmt.Sprintf(`ResyAPI api_key="%s"`, c.creds.APIKey))
	req.Header.Add("x-resy-auth-token", c.creds.AuthToken)
	req.Header.Add("x-resy-universal-auth", c.creds.AuthToken)
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, err
	}
	return res.StatusCode, b, nil
}
