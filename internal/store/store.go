// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package store persists the account record map. Depending on the vault
// method the file is either a plain JSON object or an encrypted envelope;
// every mutation is saved before it is reported as done.
package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/toeirei/acctvault/core/security"
	"github.com/toeirei/acctvault/internal/aead"
	"github.com/toeirei/acctvault/internal/atomicfile"
	"github.com/toeirei/acctvault/internal/logging"
	"github.com/toeirei/acctvault/internal/vaultconfig"
	"github.com/toeirei/acctvault/internal/vaulterr"
)

// FileName is the default vault file name inside the data directory.
const FileName = "saved_accounts.json"

const (
	lockSuffix    = ".lock"
	pendingSuffix = ".pending"
)

// ErrNotFound is returned for operations on an unknown username.
var ErrNotFound = errors.New("account not found")

// ErrNotLoaded is returned by Save before the vault has been read.
var ErrNotLoaded = errors.New("vault has not been loaded")

// Options configures a Store.
type Options struct {
	// Path is the vault file.
	Path string
	// Method must match the active vault configuration.
	Method vaultconfig.Method
	// Key is the derived 32-byte key; required unless Method is none.
	Key security.Secret
	// Now stamps added_date on new records. Defaults to time.Now.
	Now func() time.Time
	// Logger defaults to the "store" component logger.
	Logger *clog.Logger
}

// Store is the credential store. It is safe for concurrent use, and two
// Stores on the same path (in one or several processes) serialise through an
// advisory file lock.
type Store struct {
	mu     sync.Mutex
	path   string
	method vaultconfig.Method
	cipher *aead.Cipher
	lock   *flock.Flock
	now    func() time.Time
	log    *clog.Logger

	// writeFile is swapped in tests to simulate disk failures.
	writeFile func(string, []byte) error

	records *Records
	notices []MigrationNotice
	loaded  bool
}

// New validates the options and returns a store. It does not touch the vault
// file.
func New(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, vaulterr.Configurationf("open store", "vault path is required")
	}
	method := opts.Method
	if method == "" {
		method = vaultconfig.MethodNone
	}

	s := &Store{
		path:    opts.Path,
		method:  method,
		lock:    flock.New(LockPath(opts.Path)),
		now:     opts.Now,
		log:     opts.Logger,
		records: NewRecords(),

		writeFile: atomicfile.WriteBytes,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logging.Component("store")
	}

	c, err := cipherFor(method, opts.Key)
	if err != nil {
		return nil, err
	}
	s.cipher = c
	return s, nil
}

func cipherFor(method vaultconfig.Method, key security.Secret) (*aead.Cipher, error) {
	if !method.Encrypted() {
		if !key.IsEmpty() {
			return nil, vaulterr.Configurationf("open store", "a key was supplied but the vault method is %s", method)
		}
		return nil, nil
	}
	if key.IsEmpty() {
		return nil, vaulterr.Configurationf("open store", "method %s requires a key", method)
	}
	return aead.New(key)
}

// Path returns the vault file location.
func (s *Store) Path() string { return s.path }

// Method returns the method the store reads and writes.
func (s *Store) Method() vaultconfig.Method {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.method
}

// LockPath is the advisory lock file guarding the vault at vaultPath.
func LockPath(vaultPath string) string { return vaultPath + lockSuffix }

// PendingPath is where a re-encrypted copy is staged during a method switch.
func PendingPath(vaultPath string) string { return vaultPath + pendingSuffix }

// Load reads the vault file and returns a copy of the record map. A missing
// file is an empty map. A decryption failure is an integrity error and never
// produces a map.
func (s *Store) Load() (map[string]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	recs, notices, err := s.read(s.path)
	if err != nil {
		return nil, err
	}
	s.records = recs
	s.notices = notices
	s.loaded = true
	for _, n := range notices {
		s.log.Info("migrated legacy record", "account", n.Username, "field", n.Field)
	}
	return recs.Map(), nil
}

// Save re-reads the vault under the lock and writes it back, so migrated
// defaults become durable without discarding changes saved by other stores
// since Load.
func (s *Store) Save() error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()

	if !loaded {
		return vaulterr.Storage("save vault", ErrNotLoaded)
	}
	return s.mutate("save vault", func(*Records) error { return nil })
}

// Add inserts rec, or replaces the record with the same username in place.
// A zero added_date is stamped with the current time; an empty note keeps
// the note of the record being replaced.
func (s *Store) Add(rec Record) error {
	if err := rec.validate(); err != nil {
		return vaulterr.Configuration("add account", err)
	}
	return s.mutate("add account", func(recs *Records) error {
		if rec.AddedDate.IsZero() {
			rec.AddedDate = NewTimestamp(s.now())
		}
		if prev, ok := recs.Get(rec.Username); ok && rec.Note == "" {
			rec.Note = prev.Note
		}
		recs.Put(rec)
		return nil
	})
}

// Delete removes username.
func (s *Store) Delete(username string) error {
	return s.mutate("delete account", func(recs *Records) error {
		if !recs.Delete(username) {
			return ErrNotFound
		}
		return nil
	})
}

// SetNote replaces the note of username.
func (s *Store) SetNote(username, note string) error {
	return s.mutate("set note", func(recs *Records) error {
		rec, ok := recs.Get(username)
		if !ok {
			return ErrNotFound
		}
		rec.Note = note
		recs.Put(rec)
		return nil
	})
}

// Move places username at position index of the listing order.
func (s *Store) Move(username string, index int) error {
	return s.mutate("move account", func(recs *Records) error {
		return recs.Move(username, index)
	})
}

// Get returns the record of username from the last load or mutation.
func (s *Store) Get(username string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.Get(username)
}

// Cookie returns the cookie of username.
func (s *Store) Cookie(username string) (security.Secret, error) {
	rec, ok := s.Get(username)
	if !ok {
		return nil, ErrNotFound
	}
	return security.FromString(rec.Cookie), nil
}

// Note returns the note of username.
func (s *Store) Note(username string) (string, error) {
	rec, ok := s.Get(username)
	if !ok {
		return "", ErrNotFound
	}
	return rec.Note, nil
}

// List returns all records in listing order.
func (s *Store) List() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.List()
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.Len()
}

// MigrationNotices returns the migrations applied by the last Load.
func (s *Store) MigrationNotices() []MigrationNotice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]MigrationNotice(nil), s.notices...)
}

// Rekey re-encrypts the vault under method and key. The current contents are
// staged in the pending file, commit is called (typically to persist the new
// vault configuration) and only then is the pending file moved over the
// vault. If commit fails the pending file is removed and nothing changes.
func (s *Store) Rekey(method vaultconfig.Method, key security.Secret, commit func() error) error {
	next, err := cipherFor(method, key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	recs, _, err := s.read(s.path)
	if err != nil {
		return err
	}

	pending := PendingPath(s.path)
	if err := s.write(pending, recs, next); err != nil {
		return err
	}
	if commit != nil {
		if err := commit(); err != nil {
			_ = os.Remove(pending)
			return err
		}
	}
	if err := atomicfile.Rename(pending, s.path); err != nil {
		// The configuration already names the new method; RecoverPending
		// finishes the switch on the next open.
		return vaulterr.Storage("rekey vault", err)
	}

	s.method = method
	s.cipher = next
	s.records = recs
	s.loaded = true
	s.log.Info("vault re-encrypted", "method", string(method))
	return nil
}

// RecoverPending completes or discards a method switch that was interrupted
// after staging. A pending file that opens under the store's method and key
// replaces the vault; any other pending file is removed.
func (s *Store) RecoverPending() (promoted bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := PendingPath(s.path)
	if _, err := os.Stat(pending); os.IsNotExist(err) {
		return false, nil
	}

	if err := s.acquire(); err != nil {
		return false, err
	}
	defer s.release()

	if _, _, err := s.read(pending); err != nil {
		s.log.Warn("discarding unusable pending vault", "err", err)
		if rmErr := os.Remove(pending); rmErr != nil && !os.IsNotExist(rmErr) {
			return false, vaulterr.Storage("recover vault", rmErr)
		}
		return false, nil
	}
	if err := atomicfile.Rename(pending, s.path); err != nil {
		return false, vaulterr.Storage("recover vault", err)
	}
	s.log.Info("completed interrupted re-encryption")
	return true, nil
}

// mutate runs fn against the current file contents under both locks and
// saves the result. In-memory state is only replaced after a successful
// write, so a failed save leaves no trace.
func (s *Store) mutate(op string, fn func(*Records) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	current, notices, err := s.read(s.path)
	if err != nil {
		return err
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return vaulterr.Configuration(op, err)
	}
	if err := s.write(s.path, next, s.cipher); err != nil {
		return err
	}

	s.records = next
	if !s.loaded {
		s.notices = notices
	}
	s.loaded = true
	return nil
}

func (s *Store) acquire() error {
	if err := os.MkdirAll(filepath.Dir(s.path), atomicfile.DirMode); err != nil {
		return vaulterr.Storage("lock vault", err)
	}
	if err := s.lock.Lock(); err != nil {
		return vaulterr.Storage("lock vault", err)
	}
	return nil
}

func (s *Store) release() {
	if err := s.lock.Unlock(); err != nil {
		s.log.Warn("unable to release vault lock", "err", err)
	}
}

// read loads and decodes path under the store's method.
func (s *Store) read(path string) (*Records, []MigrationNotice, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewRecords(), nil, nil
	}
	if err != nil {
		return nil, nil, vaulterr.Storage("read vault", err)
	}

	f, err := detectForm(data)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case f == formEmpty:
		s.log.Warn("vault file is empty", "path", path)
		return NewRecords(), nil, nil
	case f == formEnvelope && s.cipher == nil:
		return nil, nil, vaulterr.Configurationf("read vault", "vault file is encrypted but the method is %s", s.method)
	case f == formPlain && s.cipher != nil:
		return nil, nil, vaulterr.Configurationf("read vault", "vault file is plain but the method is %s", s.method)
	case f == formPlain:
		recs, notices, err := decodeRecords(data)
		if err != nil {
			return nil, nil, vaulterr.Configuration("read vault", err)
		}
		return recs, notices, nil
	}

	pkg, err := parseEnvelope(data)
	if err != nil {
		return nil, nil, err
	}
	plaintext, err := s.cipher.Decrypt(pkg)
	if err != nil {
		return nil, nil, err
	}
	return decodePayload(plaintext)
}

// write serialises recs to path, encrypted when c is set.
func (s *Store) write(path string, recs *Records, c *aead.Cipher) error {
	body, err := recs.MarshalJSON()
	if err != nil {
		return vaulterr.Storage("write vault", errors.Wrap(err, "marshal records"))
	}

	var out []byte
	if c == nil {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err != nil {
			return vaulterr.Storage("write vault", errors.Wrap(err, "indent records"))
		}
		buf.WriteByte('\n')
		out = buf.Bytes()
	} else {
		pkg, err := c.Encrypt(body)
		if err != nil {
			return vaulterr.Storage("write vault", err)
		}
		if out, err = marshalEnvelope(pkg); err != nil {
			return vaulterr.Storage("write vault", err)
		}
	}

	if err := s.writeFile(path, out); err != nil {
		return vaulterr.Storage("write vault", err)
	}
	return nil
}
