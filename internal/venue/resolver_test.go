package venue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/resy-booker/internal/logging"
	"github.com/example/resy-booker/internal/resy"
	"github.com/example/resy-booker/internal/venue"
	"github.com/example/resy-booker/internal/venue/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var edoboy = resy.Venue{ID: "58848", Slug: "edoboy", Name: "Edoboy", Neighborhood: "Mills 50"}

func newResolver(t *testing.T) (*venue.Resolver, *mocks.MockLookup) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := mocks.NewMockLookup(ctrl)
	r := venue.NewResolver(m, logging.Discard())
	r.Now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
	return r, m
}

func TestResolveURLUsesDirectLookupOnly(t *testing.T) {
	r, m := newResolver(t)
	m.EXPECT().VenueBySlug(gomock.Any(), "edoboy", "orlando-fl").Return(edoboy, nil)
	m.EXPECT().SearchVenues(gomock.Any(), gomock.Any()).Times(0)

	v, err := r.Resolve(context.Background(), "https://platform.example/cities/x/venues/edoboy")
	require.NoError(t, err)
	assert.Equal(t, edoboy, v)
}

func TestResolveURLFallsBackToSearchOnLookupFailure(t *testing.T) {
	r, m := newResolver(t)
	gomock.InOrder(
		m.EXPECT().VenueBySlug(gomock.Any(), "edoboy", gomock.Any()).
			Return(resy.Venue{}, &resy.GatewayError{Op: "venue lookup", Status: 500}),
		m.EXPECT().SearchVenues(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p resy.SearchParams) ([]resy.Venue, error) {
				assert.Equal(t, "edoboy", p.Query)
				assert.Equal(t, "orlando-fl", p.Location)
				return []resy.Venue{{ID: "1", Slug: "edoboy-annex", Name: "Edoboy Annex"}, edoboy}, nil
			}),
	)

	v, err := r.Resolve(context.Background(), "https://resy.com/cities/orlando-fl/venues/edoboy?date=2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, edoboy, v)
}

func TestResolveNumericInputLooksUpByID(t *testing.T) {
	r, m := newResolver(t)
	m.EXPECT().VenueByID(gomock.Any(), "58848", "orlando-fl").Return(edoboy, nil)
	m.EXPECT().VenueBySlug(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	m.EXPECT().SearchVenues(gomock.Any(), gomock.Any()).Times(0)

	v, err := r.Resolve(context.Background(), " 58848 ")
	require.NoError(t, err)
	assert.Equal(t, edoboy, v)
}

func TestResolveURLWithNumericSegmentLooksUpByID(t *testing.T) {
	r, m := newResolver(t)
	m.EXPECT().VenueByID(gomock.Any(), "58848", gomock.Any()).Return(edoboy, nil)
	m.EXPECT().VenueBySlug(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	v, err := r.Resolve(context.Background(), "https://resy.com/cities/orlando-fl/venues/58848")
	require.NoError(t, err)
	assert.Equal(t, edoboy, v)
}

func TestResolveIDLookupFailureFallsBackToSearch(t *testing.T) {
	r, m := newResolver(t)
	gomock.InOrder(
		m.EXPECT().VenueByID(gomock.Any(), "58848", gomock.Any()).
			Return(resy.Venue{}, &resy.GatewayError{Op: "venue lookup", Status: 404}),
		m.EXPECT().SearchVenues(gomock.Any(), gomock.Any()).Return(nil, nil),
	)

	_, err := r.Resolve(context.Background(), "58848")
	assert.ErrorIs(t, err, venue.ErrNotFound)
}

func TestResolveTextMatchesNameCaseInsensitively(t *testing.T) {
	r, m := newResolver(t)
	m.EXPECT().VenueBySlug(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	m.EXPECT().SearchVenues(gomock.Any(), gomock.Any()).
		Return([]resy.Venue{{ID: "7", Slug: "kabooki-sushi-east", Name: "Kabooki Sushi"}, edoboy}, nil)

	v, err := r.Resolve(context.Background(), "EDOBOY")
	require.NoError(t, err)
	assert.Equal(t, "58848", v.ID)
}

func TestResolvePrefersSlugOverName(t *testing.T) {
	r, m := newResolver(t)
	byName := resy.Venue{ID: "1", Slug: "other", Name: "edoboy"}
	m.EXPECT().SearchVenues(gomock.Any(), gomock.Any()).Return([]resy.Venue{byName, edoboy}, nil)

	v, err := r.Resolve(context.Background(), "edoboy")
	require.NoError(t, err)
	assert.Equal(t, edoboy, v)
}

func TestResolveTextWithoutExactMatchIsNotFound(t *testing.T) {
	r, m := newResolver(t)
	m.EXPECT().SearchVenues(gomock.Any(), gomock.Any()).
		Return([]resy.Venue{{ID: "1", Slug: "edoboy-annex", Name: "Edoboy Annex"}}, nil)

	_, err := r.Resolve(context.Background(), "edo")
	assert.ErrorIs(t, err, venue.ErrNotFound)
}

func TestResolveSearchFailureIsNotFound(t *testing.T) {
	r, m := newResolver(t)
	m.EXPECT().VenueBySlug(gomock.Any(), gomock.Any(), gomock.Any()).Return(resy.Venue{}, errors.New("dial tcp: refused"))
	m.EXPECT().SearchVenues(gomock.Any(), gomock.Any()).Return(nil, errors.New("dial tcp: refused"))

	_, err := r.Resolve(context.Background(), "https://resy.com/cities/orlando-fl/venues/edoboy")
	assert.ErrorIs(t, err, venue.ErrNotFound)
}

func TestResolveEmptyInput(t *testing.T) {
	r, _ := newResolver(t)
	_, err := r.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, venue.ErrNotFound)
}

func TestSlugFromURL(t *testing.T) {
	cases := []struct {
		in   string
		slug string
		ok   bool
	}{
		{"https://resy.com/cities/orlando-fl/venues/edoboy", "edoboy", true},
		{"https://resy.com/cities/orlando-fl/venues/edoboy/", "edoboy", true},
		{"https://resy.com/cities/orlando-fl/venues/edoboy/menu", "edoboy", true},
		{"resy.com/cities/ny/venues/lilia?date=2025-06-01&seats=2", "lilia", true},
		{"https://resy.com/cities/ny/lilia", "lilia", true},
		{"edoboy", "", false},
		{"https://resy.com/", "", false},
	}
	for _, c := range cases {
		slug, ok := venue.SlugFromURL(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.slug, slug, c.in)
	}
}
