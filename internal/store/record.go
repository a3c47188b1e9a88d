// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DateLayout is the added_date format written to the vault file.
const DateLayout = "2006-01-02 15:04:05"

// Record is one stored account. Username is the unique key of the record
// map; Cookie is the secret.
type Record struct {
	Username  string    `json:"username"`
	Cookie    string    `json:"cookie"`
	AddedDate Timestamp `json:"added_date"`
	Note      string    `json:"note"`
}

// String keeps cookies out of formatted output.
func (r Record) String() string {
	return fmt.Sprintf("%s (added %s)", r.Username, r.AddedDate)
}

// GoString keeps cookies out of %#v output.
func (r Record) GoString() string { return "store.Record{" + r.String() + "}" }

func (r Record) validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return errors.New("username is required")
	}
	if strings.TrimSpace(r.Cookie) == "" {
		return errors.New("cookie is required")
	}
	return nil
}

// Timestamp is the added_date of a record. Values written by older releases
// that match no known layout are kept verbatim so a load/save cycle never
// rewrites them.
type Timestamp struct {
	t   time.Time
	raw string
}

// NewTimestamp wraps t, truncated to whole seconds.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t.Truncate(time.Second)}
}

// Time returns the parsed time and whether the stored value was parseable.
func (ts Timestamp) Time() (time.Time, bool) {
	return ts.t, ts.raw == "" && !ts.t.IsZero()
}

// Equal reports whether two timestamps hold the same value.
func (ts Timestamp) Equal(other Timestamp) bool {
	return ts.raw == other.raw && ts.t.Equal(other.t)
}

// IsZero reports whether no date is stored.
func (ts Timestamp) IsZero() bool { return ts.raw == "" && ts.t.IsZero() }

func (ts Timestamp) String() string {
	switch {
	case ts.raw != "":
		return ts.raw
	case ts.t.IsZero():
		return ""
	default:
		return ts.t.Format(DateLayout)
	}
}

// MarshalJSON writes the date in DateLayout.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

// UnmarshalJSON accepts DateLayout (local time), RFC 3339, or keeps any
// other string verbatim.
func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return errors.Wrap(err, "added_date must be a string")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*ts = Timestamp{}
		return nil
	}
	if t, err := time.ParseInLocation(DateLayout, s, time.Local); err == nil {
		*ts = Timestamp{t: t}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*ts = Timestamp{t: t}
		return nil
	}
	*ts = Timestamp{raw: s}
	return nil
}
