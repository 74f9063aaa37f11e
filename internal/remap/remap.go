package remap

import (
	"fmt"
	"sort"
	"sync"

	"course-import/internal/importerr"
)

// Kind is an id namespace. Ids from different namespaces never collide.
type Kind int

const (
	Course Kind = iota + 1
	Module
	Link
	Activity
)

func (k Kind) String() string {
	switch k {
	case Course:
		return "course"
	case Module:
		return "module"
	case Link:
		return "link"
	case Activity:
		return "activity"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText writes the kind by name, so journal and report agree.
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case Course, Module, Link, Activity:
		return []byte(k.String()), nil
	}
	return nil, fmt.Errorf("remap: unknown kind %d", int(k))
}

func (k *Kind) UnmarshalText(text []byte) error {
	for _, c := range []Kind{Course, Module, Link, Activity} {
		if string(text) == c.String() {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("remap: unknown kind %q", text)
}

type key struct {
	kind Kind
	id   string
}

// Entry is one recorded mapping.
type Entry struct {
	Kind      Kind   `json:"kind" yaml:"kind"`
	ArchiveID string `json:"archive_id" yaml:"archive_id"`
	NewID     int64  `json:"new_id" yaml:"new_id"`
}

// Table maps archive-local ids to the ids assigned on creation. It lives
// for one import.
type Table struct {
	mu      sync.RWMutex
	entries map[key]int64
}

func New() *Table {
	return &Table{entries: make(map[key]int64)}
}

// Record stores a mapping. Recording the same (kind, archiveID) twice is an error.
func (t *Table) Record(kind Kind, archiveID string, newID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key{kind, archiveID}
	if prev, ok := t.entries[k]; ok {
		return importerr.Errorf(importerr.MalformedArchive, "record "+kind.String(),
			"duplicate archive id %q (already mapped to %d)", archiveID, prev)
	}
	t.entries[k] = newID
	return nil
}

func (t *Table) Resolve(kind Kind, archiveID string) (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	id, ok := t.entries[key{kind, archiveID}]
	if !ok {
		return 0, importerr.Errorf(importerr.UnresolvedReference, "resolve "+kind.String(),
			"archive id %q was never imported", archiveID)
	}
	return id, nil
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Snapshot returns every mapping ordered by kind, then new id.
func (t *Table) Snapshot() []Entry {
	t.mu.RLock()
	out := make([]Entry, 0, len(t.entries))
	for k, id := range t.entries {
		out = append(out, Entry{Kind: k.kind, ArchiveID: k.id, NewID: id})
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].NewID != out[j].NewID {
			return out[i].NewID < out[j].NewID
		}
		return out[i].ArchiveID < out[j].ArchiveID
	})
	return out
}
