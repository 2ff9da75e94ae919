package corpus

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSession is the session key used by the local watch mode, preserving
// the one-corpus-per-process behavior when no explicit session exists.
const DefaultSession = "default"

// Entry is one stored grounding corpus: the concatenated text and the ordered
// list of contributing filenames, valid for one completed upload cycle.
type Entry struct {
	Corpus    string
	Filenames []string
	CreatedAt time.Time
}

// Empty reports whether the entry holds no corpus text.
func (e Entry) Empty() bool {
	return e.Corpus == ""
}

// Store holds the latest corpus per session. A new upload for a session
// replaces its entry wholesale; there is no merging and no persistence.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]Entry),
		now:     time.Now,
	}
}

// Put stores the corpus under sessionID, replacing any previous entry for that
// session. An empty sessionID allocates a fresh session key. Returns the key.
func (s *Store) Put(sessionID, corpusText string, filenames []string) string {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = Entry{
		Corpus:    corpusText,
		Filenames: append([]string(nil), filenames...),
		CreatedAt: s.now(),
	}
	return sessionID
}

// Get returns the entry for sessionID, and whether one exists.
func (s *Store) Get(sessionID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[sessionID]
	return e, ok
}
