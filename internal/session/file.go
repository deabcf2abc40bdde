package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gorilla/securecookie"
)

const codecName = "resy_session"

// FileStore keeps the session in a single file. With a hash key configured
// the contents are authenticated (and encrypted when a block key is set too).
type FileStore struct {
	Path  string
	codec *securecookie.SecureCookie
}

func NewFileStore(path string, hashKey, blockKey []byte) *FileStore {
	fs := &FileStore{Path: path}
	if len(hashKey) > 0 {
		sc := securecookie.New(hashKey, blockKey)
		// cookie jars are larger than a single cookie and never expire here
		sc.MaxLength(0)
		sc.MaxAge(0)
		sc.SetSerializer(securecookie.NopEncoder{})
		fs.codec = sc
	}
	return fs
}

func (f *FileStore) Load(ctx context.Context) (State, bool, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(b) == 0 {
		return nil, false, nil
	}
	if f.codec == nil {
		return State(b), true, nil
	}
	var raw []byte
	if err := f.codec.Decode(codecName, string(b), &raw); err != nil {
		return nil, false, fmt.Errorf("unseal %s: %w", f.Path, err)
	}
	return State(raw), true, nil
}

func (f *FileStore) Save(ctx context.Context, st State) error {
	out := []byte(st)
	if f.codec != nil {
		enc, err := f.codec.Encode(codecName, []byte(st))
		if err != nil {
			return fmt.Errorf("seal session: %w", err)
		}
		out = []byte(enc)
	}
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}

func (f *FileStore) Clear(ctx context.Context) error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
