package draft

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const localIDPrefix = "temp_"

// ID identifies a sub-entity. It is a tagged union: either a local
// placeholder minted on the client for an item the service has never seen,
// or a server-assigned numeric ID. Reconciliation after an upsert is the
// only way a local ID becomes a persisted one.
type ID struct {
	token  string
	server int64
}

// NewLocalID mints a placeholder ID for a not-yet-persisted item.
func NewLocalID() ID {
	return ID{token: fmt.Sprintf("%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])}
}

// PersistedID wraps a server-assigned ID.
func PersistedID(server int64) ID {
	return ID{server: server}
}

// ParseID decodes a wire identifier: "temp_…" tokens stay local, numeric
// strings become persisted IDs. Anything else is treated as local so a
// malformed ID can never collide with a real row.
func ParseID(s string) ID {
	if rest, ok := strings.CutPrefix(s, localIDPrefix); ok {
		return ID{token: rest}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
		return PersistedID(n)
	}
	return ID{token: s}
}

// IsLocal reports whether the item has not been persisted yet.
func (id ID) IsLocal() bool {
	return id.token != ""
}

// IsZero reports an unset ID.
func (id ID) IsZero() bool {
	return id.token == "" && id.server == 0
}

// Server returns the server-assigned ID when the item is persisted.
func (id ID) Server() (int64, bool) {
	if id.IsLocal() || id.server == 0 {
		return 0, false
	}
	return id.server, true
}

// String renders the wire form: "temp_<token>" or the decimal server ID.
func (id ID) String() string {
	if id.IsLocal() {
		return localIDPrefix + id.token
	}
	return strconv.FormatInt(id.server, 10)
}

// MarshalJSON encodes the wire form.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON accepts both string IDs and bare numbers.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("draft: decode id %s: %w", data, err)
		}
		*id = PersistedID(n)
		return nil
	}
	*id = ParseID(s)
	return nil
}
