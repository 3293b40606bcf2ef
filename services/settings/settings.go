// Package settings is the non-volatile store for values that must survive a
// reboot. On the device this is a flash partition; on the host a TOML file.
package settings

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"audioboot-go/services/channel"
)

// record is the persisted document.
type record struct {
	Channel *channel.Channel `toml:"channel,omitempty"`
}

// ---------------- File store ----------------

// FileStore keeps settings in a TOML file, rewritten atomically on Set.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (f *FileStore) load() (record, error) {
	var r record
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return r, err
	}
	if _, err := toml.Decode(string(raw), &r); err != nil {
		return record{}, err
	}
	return r, nil
}

func (f *FileStore) save(r record) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(r); err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// Get implements channel.Store.
func (f *FileStore) Get() (channel.Channel, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.load()
	if err != nil || r.Channel == nil {
		return channel.DefaultChannel, false, err
	}
	return *r.Channel, true, nil
}

// Set implements channel.Store.
func (f *FileStore) Set(c channel.Channel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, err := f.load()
	if err != nil {
		return err
	}
	r.Channel = &c
	return f.save(r)
}

// ---------------- Memory store ----------------

// MemStore is a volatile store for tests and the simulator.
type MemStore struct {
	mu   sync.Mutex
	ch   channel.Channel
	ok   bool
	sets int
}

func (m *MemStore) Get() (channel.Channel, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ch, m.ok, nil
}

func (m *MemStore) Set(c channel.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ch, m.ok = c, true
	m.sets++
	return nil
}

// Writes counts Set calls.
func (m *MemStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}
