package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/example/resy-booker/internal/availability"
	"github.com/example/resy-booker/internal/booker"
	"github.com/example/resy-booker/internal/booking"
	"github.com/example/resy-booker/internal/browser"
	"github.com/example/resy-booker/internal/config"
	"github.com/example/resy-booker/internal/db"
	"github.com/example/resy-booker/internal/logging"
	"github.com/example/resy-booker/internal/migrate"
	"github.com/example/resy-booker/internal/resy"
	"github.com/example/resy-booker/internal/session"
	"github.com/example/resy-booker/internal/venue"
)

// app holds everything a command needs, built from the environment.
type app struct {
	cfg    config.Config
	log    *slog.Logger
	client *resy.Client
	db     *db.DB
	store  *session.Store
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg: cfg,
		log: logger,
		client: resy.New(
			resy.Credentials{APIKey: cfg.ResyAPIKey, AuthToken: cfg.ResyAuthToken},
			resy.WithBaseURL(cfg.APIBaseURL),
		),
	}

	var p session.Persister
	switch cfg.SessionBackend {
	case config.SessionBackendPostgres:
		d, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := d.Ping(ctx); err != nil {
			d.Close()
			return nil, fmt.Errorf("db ping: %w", err)
		}
		if _, err := migrate.Up(ctx, d, logger); err != nil {
			d.Close()
			return nil, err
		}
		a.db = d
		p = session.NewPGStore(d)
	default:
		hashKey, blockKey := cfg.SessionHashKey, cfg.SessionBlockKey
		if len(hashKey) == 0 && cfg.SessionPassphrase != "" {
			if hashKey, blockKey, err = session.DeriveKeys(cfg.SessionPassphrase); err != nil {
				return nil, err
			}
		}
		p = session.NewFileStore(cfg.SessionFile, hashKey, blockKey)
	}

	a.store = session.NewStore(p, logger)
	a.store.LoginURL = strings.TrimRight(cfg.SiteURL, "/") + "/login"
	a.store.LoginTimeout = cfg.LoginTimeout
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}

func (a *app) driver() browser.Driver {
	return browser.RodDriver{
		Headless: a.cfg.Headless,
		Bin:      a.cfg.BrowserBin,
		Logger:   logging.Component(a.log, "browser"),
	}
}

func (a *app) resolver(partySize int) *venue.Resolver {
	r := venue.NewResolver(a.client, a.log)
	r.Location = a.cfg.Location
	r.Lat = a.cfg.Lat
	r.Lng = a.cfg.Lng
	r.PartySize = partySize
	return r
}

func (a *app) scanner() *availability.Scanner {
	s := availability.NewScanner(a.log)
	s.SiteURL = a.cfg.SiteURL
	s.City = a.cfg.Location
	s.Location = a.cfg.TimeLocation()
	s.PageLoadTimeout = a.cfg.PageLoadTimeout
	s.SlotTimeout = a.cfg.SlotTimeout
	return s
}

func (a *app) workflow() *booking.Workflow {
	wf := booking.NewWorkflow(a.log)
	wf.StepTimeout = a.cfg.StepTimeout
	wf.SettleDelay = a.cfg.SettleDelay
	return wf
}

func (a *app) booker(partySize int) *booker.Booker {
	return booker.New(a.driver(), a.store, a.resolver(partySize), a.scanner(), a.workflow(), a.log)
}

// parseDate reads a YYYY-MM-DD date in the venue timezone.
func (a *app) parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(resy.DateLayout, strings.TrimSpace(s), a.cfg.TimeLocation())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return d, nil
}

func (a *app) partySize(n int) int {
	if n > 0 {
		return n
	}
	return a.cfg.DefaultPartySize
}
