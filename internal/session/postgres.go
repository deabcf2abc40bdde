package session

import (
	"context"

	"github.com/example/resy-booker/internal/db"
)

const defaultRowName = "default"

// PGStore keeps the session as one row of browser_sessions.
type PGStore struct {
	DB   db.Execer
	Name string
}

func NewPGStore(d db.Execer) *PGStore {
	return &PGStore{DB: d, Name: defaultRowName}
}

func (p *PGStore) Load(ctx context.Context) (State, bool, error) {
	var b []byte
	err := p.DB.QueryRow(ctx, `SELECT state FROM browser_sessions WHERE name=$1`, p.Name).Scan(&b)
	if db.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, db.WrapNotFound(err)
	}
	if len(b) == 0 {
		return nil, false, nil
	}
	return State(b), true, nil
}

func (p *PGStore) Save(ctx context.Context, st State) error {
	return p.DB.Exec(ctx, `
INSERT INTO browser_sessions(name, state) VALUES ($1,$2)
ON CONFLICT (name) DO UPDATE SET state=EXCLUDED.state, updated_at=now()`, p.Name, []byte(st))
}

func (p *PGStore) Clear(ctx context.Context) error {
	return p.DB.Exec(ctx, `DELETE FROM browser_sessions WHERE name=$1`, p.Name)
}
