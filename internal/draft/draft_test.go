package draft

import (
	"testing"
	"time"
)

func TestSaveLoadAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	c, err := Open(dir, 0)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	c.Save("new-record", map[string]string{"name": "Jo"})
	c.Close()

	// Simulate a restart with a fresh cache over the same directory.
	c2, err := Open(dir, 0)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	fields, ok := c2.Load("new-record")
	if !ok {
		t.Fatal("Load() found no draft after restart")
	}
	if fields["name"] != "Jo" {
		t.Errorf(`fields["name"] = %q, want "Jo"`, fields["name"])
	}
}

func TestLoad_MissingDraft(t *testing.T) {
	c, err := Open(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, ok := c.Load("never-saved"); ok {
		t.Error("Load() ok = true for a draft that was never saved")
	}
}

func TestSave_InvalidInputKept(t *testing.T) {
	c, err := Open(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	// Drafts hold whatever the form holds, including invalid values.
	c.Save("edit-7", map[string]string{"email": "not-an-email", "phone": "12"})
	fields, ok := c.Load("edit-7")
	if !ok {
		t.Fatal("Load() found no draft")
	}
	if fields["email"] != "not-an-email" || fields["phone"] != "12" {
		t.Errorf("fields = %v, want raw values preserved", fields)
	}
}

func TestClear(t *testing.T) {
	c, err := Open(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	c.Save("new-record", map[string]string{"name": "Jo"})
	c.Clear("new-record")
	if _, ok := c.Load("new-record"); ok {
		t.Error("Load() ok = true after Clear()")
	}

	// Clearing an absent draft is a no-op.
	c.Clear("new-record")
}

func TestDebounce_CoalescesAndKeepsLatest(t *testing.T) {
	c, err := Open(t.TempDir(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	c.Save("new-record", map[string]string{"name": "J"})
	c.Save("new-record", map[string]string{"name": "Jo"})

	// Pending saves are visible before the debounce fires.
	fields, ok := c.Load("new-record")
	if !ok || fields["name"] != "Jo" {
		t.Fatalf("Load() = %v, %v, want latest pending value", fields, ok)
	}

	// Close flushes; the latest value must be what persisted.
	c.Close()
	fields, ok = c.Load("new-record")
	if !ok || fields["name"] != "Jo" {
		t.Errorf("Load() after flush = %v, %v", fields, ok)
	}
}

func TestDebounce_FlushesOnTimer(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	c.Save("new-record", map[string]string{"name": "Jo"})

	deadline := time.Now().Add(2 * time.Second)
	for {
		c2, err := Open(dir, 0)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		if fields, ok := c2.Load("new-record"); ok && fields["name"] == "Jo" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("draft never flushed to disk")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSanitizeFormID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"new-record", "new-record"},
		{"edit/../../etc", "edit_______etc"},
		{"", "draft"},
	}
	for _, tt := range tests {
		if got := sanitizeFormID(tt.input); got != tt.want {
			t.Errorf("sanitizeFormID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
