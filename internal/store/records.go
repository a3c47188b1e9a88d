// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

package store

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// MigrationNotice records a legacy record upgraded with a default value
// during load. It is informational and never blocks load or save.
type MigrationNotice struct {
	Username string
	Field    string
	Value    string
}

func (n MigrationNotice) String() string {
	return "account " + n.Username + ": defaulted missing " + n.Field
}

// Records is the username-keyed record map. It keeps insertion order, which
// users can change with Move, and that order is what gets written to disk.
type Records struct {
	order  []string
	byName map[string]Record
}

// NewRecords returns an empty map.
func NewRecords() *Records {
	return &Records{byName: map[string]Record{}}
}

// Len returns the number of records.
func (r *Records) Len() int { return len(r.order) }

// Get returns the record for username.
func (r *Records) Get(username string) (Record, bool) {
	rec, ok := r.byName[username]
	return rec, ok
}

// Put inserts rec or replaces the record with the same username in place.
func (r *Records) Put(rec Record) {
	if _, ok := r.byName[rec.Username]; !ok {
		r.order = append(r.order, rec.Username)
	}
	r.byName[rec.Username] = rec
}

// Delete removes username and reports whether it was present.
func (r *Records) Delete(username string) bool {
	if _, ok := r.byName[username]; !ok {
		return false
	}
	delete(r.byName, username)
	for i, name := range r.order {
		if name == username {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Move places username at index, shifting the others.
func (r *Records) Move(username string, index int) error {
	if _, ok := r.byName[username]; !ok {
		return ErrNotFound
	}
	if index < 0 || index >= len(r.order) {
		return errors.Errorf("position %d out of range [0, %d)", index, len(r.order))
	}
	from := 0
	for i, name := range r.order {
		if name == username {
			from = i
			break
		}
	}
	r.order = append(r.order[:from], r.order[from+1:]...)
	r.order = append(r.order[:index], append([]string{username}, r.order[index:]...)...)
	return nil
}

// List returns the records in order.
func (r *Records) List() []Record {
	out := make([]Record, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Map returns a copy of the records keyed by username.
func (r *Records) Map() map[string]Record {
	out := make(map[string]Record, len(r.byName))
	for k, v := range r.byName {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy.
func (r *Records) Clone() *Records {
	c := &Records{
		order:  append([]string(nil), r.order...),
		byName: make(map[string]Record, len(r.byName)),
	}
	for k, v := range r.byName {
		c.byName[k] = v
	}
	return c
}

// MarshalJSON writes the records as one JSON object in order. HTML
// characters are left unescaped so cookies round-trip byte for byte.
func (r *Records) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(&buf, name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeValue(&buf, r.byName[name]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// storedRecord mirrors Record with optional fields so missing keys can be
// told apart from empty values.
type storedRecord struct {
	Username  *string   `json:"username"`
	Cookie    string    `json:"cookie"`
	AddedDate Timestamp `json:"added_date"`
	Note      *string   `json:"note"`
}

// decodeRecords parses a username → record JSON object, keeping the file
// order, and migrates legacy records (missing note or username). Running it
// on already migrated data changes nothing.
func decodeRecords(data []byte) (*Records, []MigrationNotice, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid record map")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errors.New("record map must be a JSON object")
	}

	recs := NewRecords()
	var notices []MigrationNotice
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, errors.Wrap(err, "invalid record map")
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, errors.New("invalid record map key")
		}

		var sr storedRecord
		if err := dec.Decode(&sr); err != nil {
			return nil, nil, errors.Wrapf(err, "invalid record %q", key)
		}

		rec := Record{Username: key, Cookie: sr.Cookie, AddedDate: sr.AddedDate}
		if sr.Username != nil && *sr.Username != "" {
			rec.Username = *sr.Username
		} else {
			notices = append(notices, MigrationNotice{Username: key, Field: "username", Value: key})
		}
		if rec.Username != key {
			return nil, nil, errors.Errorf("record %q carries mismatched username %q", key, rec.Username)
		}
		if sr.Note != nil {
			rec.Note = *sr.Note
		} else {
			notices = append(notices, MigrationNotice{Username: key, Field: "note", Value: ""})
		}
		recs.Put(rec)
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid record map")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, nil, errors.New("trailing data after record map")
	}
	return recs, notices, nil
}
