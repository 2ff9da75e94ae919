package corpus

import "testing"

func TestStore_PutAllocatesSession(t *testing.T) {
	s := NewStore()
	id := s.Put("", "corpus text", []string{"a.md"})
	if id == "" {
		t.Fatal("expected allocated session id")
	}
	e, ok := s.Get(id)
	if !ok {
		t.Fatal("entry not found")
	}
	if e.Corpus != "corpus text" || len(e.Filenames) != 1 {
		t.Errorf("entry: got %+v", e)
	}
}

func TestStore_PutReplacesWholesale(t *testing.T) {
	s := NewStore()
	id := s.Put("", "old corpus", []string{"old.md", "older.md"})
	s.Put(id, "new corpus", []string{"new.md"})
	e, _ := s.Get(id)
	if e.Corpus != "new corpus" {
		t.Errorf("corpus: got %q", e.Corpus)
	}
	if len(e.Filenames) != 1 || e.Filenames[0] != "new.md" {
		t.Errorf("filenames not replaced: %v", e.Filenames)
	}
}

func TestStore_GetUnknownSession(t *testing.T) {
	s := NewStore()
	if _, ok := s.Get("nope"); ok {
		t.Error("expected miss for unknown session")
	}
}

func TestStore_sessionsIsolated(t *testing.T) {
	s := NewStore()
	id1 := s.Put("", "one", nil)
	id2 := s.Put("", "two", nil)
	if id1 == id2 {
		t.Fatal("session ids collide")
	}
	e1, _ := s.Get(id1)
	e2, _ := s.Get(id2)
	if e1.Corpus != "one" || e2.Corpus != "two" {
		t.Errorf("cross-session leak: %q / %q", e1.Corpus, e2.Corpus)
	}
}

func TestEntry_Empty(t *testing.T) {
	if !(Entry{}).Empty() {
		t.Error("zero entry should be empty")
	}
	if (Entry{Corpus: "x"}).Empty() {
		t.Error("non-empty corpus reported empty")
	}
}
