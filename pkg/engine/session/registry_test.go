package session

import "testing"

func TestRegistryRoundTrip(t *testing.T) {
	r := NewRegistry()
	c := New(Config{BaseURL: "https://assist.example.com", SubjectID: "1"})

	id := r.Register(c)
	if id == "" {
		t.Fatal("expected a non-empty id")
	}

	got, err := r.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != c {
		t.Error("get returned a different controller")
	}
	if n := len(r.IDs()); n != 1 {
		t.Errorf("ids = %d, want 1", n)
	}

	r.Remove(id)
	if _, err := r.Get(id); err == nil {
		t.Error("get after remove should fail")
	}
	r.Remove(id) // unknown id is fine
}

func TestRegistryUnknownID(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("nope"); err == nil {
		t.Fatal("expected error for unknown id")
	}
}
