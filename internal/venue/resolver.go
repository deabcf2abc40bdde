// Package venue maps free text or a Resy URL to a canonical venue.
package venue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/example/resy-booker/internal/logging"
	"github.com/example/resy-booker/internal/resy"
)

//go:generate mockgen -source=resolver.go -destination=mocks/mock_lookup.go -package=mocks

// ErrNotFound means neither the direct lookup nor the search produced a match.
var ErrNotFound = errors.New("venue not found")

// Lookup is the part of the REST API the resolver needs.
type Lookup interface {
	VenueBySlug(ctx context.Context, slug, location string) (resy.Venue, error)
	VenueByID(ctx context.Context, id, location string) (resy.Venue, error)
	SearchVenues(ctx context.Context, p resy.SearchParams) ([]resy.Venue, error)
}

type Resolver struct {
	Lookup   Lookup
	Location string
	Lat      string
	Lng      string
	// PartySize and Day only shape the search request.
	PartySize int
	Now       func() time.Time
	Logger    *slog.Logger
}

func NewResolver(l Lookup, logger *slog.Logger) *Resolver {
	return &Resolver{
		Lookup:   l,
		Location: resy.DefaultLocation,
		Lat:      resy.DefaultLat,
		Lng:      resy.DefaultLng,
		Now:      time.Now,
		Logger:   logging.Component(logger, "venue"),
	}
}

// Resolve returns the venue named by input. A numeric id (bare or as the last
// URL segment) is looked up by id and a URL by its slug; lookup failures fall
// through to a text search. Nothing is cached.
func (r *Resolver) Resolve(ctx context.Context, input string) (resy.Venue, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return resy.Venue{}, ErrNotFound
	}

	term, isURL := SlugFromURL(input)
	if !isURL {
		term = input
	}
	if isURL || isVenueID(term) {
		via, lookup := "slug", r.Lookup.VenueBySlug
		if isVenueID(term) {
			via, lookup = "id", r.Lookup.VenueByID
		}
		v, err := lookup(ctx, term, r.Location)
		if err == nil {
			r.Logger.Info("venue resolved", slog.String("via", via), slog.String("slug", v.Slug), slog.String("venue_id", v.ID))
			return v, nil
		}
		r.Logger.Warn("venue lookup failed, falling back to search", slog.String("by", via), slog.String("key", term), slog.Any("error", err))
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	results, err := r.Lookup.SearchVenues(ctx, resy.SearchParams{
		Query:     term,
		Lat:       r.Lat,
		Lng:       r.Lng,
		Day:       now(),
		PartySize: r.PartySize,
		Location:  r.Location,
	})
	if err != nil {
		r.Logger.Warn("venue search failed", slog.String("query", term), slog.Any("error", err))
		return resy.Venue{}, fmt.Errorf("%w: %q: %v", ErrNotFound, term, err)
	}
	v, ok := match(term, results)
	if !ok {
		r.Logger.Info("venue search had no exact match", slog.String("query", term), slog.Int("results", len(results)))
		return resy.Venue{}, fmt.Errorf("%w: %q", ErrNotFound, term)
	}
	r.Logger.Info("venue resolved", slog.String("via", "search"), slog.String("slug", v.Slug), slog.String("venue_id", v.ID))
	return v, nil
}

// match prefers an exact slug over a case-insensitive name match.
func match(term string, vs []resy.Venue) (resy.Venue, bool) {
	for _, v := range vs {
		if v.ID != "" && v.Slug == term {
			return v, true
		}
	}
	for _, v := range vs {
		if v.ID != "" && strings.EqualFold(v.Name, term) {
			return v, true
		}
	}
	return resy.Venue{}, false
}

// SlugFromURL extracts the venue slug from a platform URL. The segment after
// "venues" wins; otherwise the trailing segment is used.
func SlugFromURL(input string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(input))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		if !strings.Contains(strings.ToLower(input), "resy.com/") {
			return "", false
		}
		u, err = url.Parse("https://" + strings.TrimPrefix(strings.TrimSpace(input), "//"))
		if err != nil {
			return "", false
		}
	}
	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	for i, p := range parts {
		if p == "venues" && i+1 < len(parts) {
			return parts[i+1], true
		}
	}
	return parts[len(parts)-1], true
}

func isVenueID(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
