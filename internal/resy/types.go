package resy

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Search defaults used when the caller leaves a field unset.
const (
	DefaultLocation    = "orlando-fl"
	DefaultLat         = "28.538300"
	DefaultLng         = "-81.379200"
	DefaultSearchLimit = 25
	DefaultRadius      = 20
)

var ErrMissingVenueID = errors.New("venue record has no platform id")

// ErrUndecodedConfirmation means the reservation was created but the
// confirmation body could not be read.
var ErrUndecodedConfirmation = errors.New("reservation created but confirmation is unreadable")

// Venue is a resolved venue identity.
type Venue struct {
	ID           string
	Slug         string
	Name         string
	Neighborhood string
}

type SearchParams struct {
	Query     string
	Lat       string
	Lng       string
	Day       time.Time
	PartySize int
	Limit     int
	Location  string
	Radius    int
}

func (p SearchParams) withDefaults() SearchParams {
	if p.Lat == "" {
		p.Lat = DefaultLat
	}
	if p.Lng == "" {
		p.Lng = DefaultLng
	}
	if p.Day.IsZero() {
		p.Day = time.Now()
	}
	if p.PartySize < 1 {
		p.PartySize = 2
	}
	if p.Limit < 1 {
		p.Limit = DefaultSearchLimit
	}
	if p.Location == "" {
		p.Location = DefaultLocation
	}
	if p.Radius < 1 {
		p.Radius = DefaultRadius
	}
	return p
}

// Confirmation is the booking record returned by a successful create.
type Confirmation struct {
	ResyToken     string          `json:"resy_token"`
	ReservationID int64           `json:"reservation_id"`
	Raw           json.RawMessage `json:"-"`
}

// GatewayError carries the status and body of a non-success API response.
type GatewayError struct {
	Op     string
	Status int
	Body   string
}

func (e *GatewayError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("resy %s failed (status=%d): %s", e.Op, e.Status, body)
}

type venueRecord struct {
	ID struct {
		Resy json.Number `json:"resy"`
	} `json:"id"`
	Name     string `json:"name"`
	URLSlug  string `json:"url_slug"`
	Location struct {
		Neighborhood string `json:"neighborhood"`
	} `json:"location"`
}

func (r venueRecord) venue() Venue {
	return Venue{
		ID:           r.ID.Resy.String(),
		Slug:         r.URLSlug,
		Name:         r.Name,
		Neighborhood: r.Location.Neighborhood,
	}
}

type reservationRequest struct {
	ConfigID  string `json:"config_id"`
	PartySize int    `json:"party_size"`
	Date      string `json:"date"`
}
