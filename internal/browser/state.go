package browser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-rod/rod/lib/proto"
)

// storageState is the serialized session: cookies plus the localStorage of
// the origin the page was on when it was captured.
type storageState struct {
	Cookies []*proto.NetworkCookie `json:"cookies"`
	Origins []originStorage        `json:"origins,omitempty"`
}

type originStorage struct {
	Origin       string            `json:"origin"`
	LocalStorage map[string]string `json:"localStorage"`
}

// decodeState also accepts the older format, a bare JSON array of cookies.
func decodeState(b []byte) (storageState, error) {
	var st storageState
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &st.Cookies); err != nil {
			return storageState{}, fmt.Errorf("decode session state: %w", err)
		}
		return st, nil
	}
	if err := json.Unmarshal(trimmed, &st); err != nil {
		return storageState{}, fmt.Errorf("decode session state: %w", err)
	}
	return st, nil
}

// usable drops opaque origins (about:blank reports "null") and empty storage.
func (o originStorage) usable() bool {
	return o.Origin != "" && o.Origin != "null" && len(o.LocalStorage) > 0
}

// restoreScript builds a script that seeds localStorage on every new document
// whose origin was captured. Keys the site has already set are left alone.
func restoreScript(origins []originStorage) (string, bool) {
	byOrigin := make(map[string]map[string]string)
	for _, o := range origins {
		if o.usable() {
			byOrigin[o.Origin] = o.LocalStorage
		}
	}
	if len(byOrigin) == 0 {
		return "", false
	}
	b, err := json.Marshal(byOrigin)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf(`(() => {
  const saved = %s;
  const items = saved[location.origin];
  if (!items) return;
  try {
    for (const [k, v] of Object.entries(items)) {
      if (localStorage.getItem(k) === null) localStorage.setItem(k, v);
    }
  } catch (e) {}
})();`, b), true
}

const captureStorageJS = `() => {
  const items = {};
  for (let i = 0; i < localStorage.length; i++) {
    const k = localStorage.key(i);
    items[k] = localStorage.getItem(k);
  }
  return {origin: location.origin, localStorage: items};
}`

func originNames(origins []originStorage) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		out = append(out, o.Origin)
	}
	sort.Strings(out)
	return out
}
