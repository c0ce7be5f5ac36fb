package eventlog

import (
	"bufio"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/moyu-x/dropwatch/internal"
)

func fixedJournal(fs afero.Fs, dryRun bool) *Journal {
	j := NewJournal(fs, "/vault/Logs", dryRun)
	j.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return j
}

func testFile() internal.WatchedFile {
	return internal.WatchedFile{
		Path:     "/vault/Inbox/notes.txt",
		Name:     "notes.txt",
		Size:     1024,
		Hash:     "0123456789abcdef",
		Priority: internal.PriorityNormal,
		Status:   internal.StatusPending,
	}
}

func TestJournal_Append(t *testing.T) {
	fs := afero.NewMemMapFs()
	j := fixedJournal(fs, false)

	entry := j.NewEntry(testFile(), "/vault/Needs_Action/ACTION_notes_20260314_093000.txt.md")
	if err := j.Append(entry); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := j.Append(j.NewEntry(testFile(), "")); err != nil {
		t.Fatalf("Append() second call error = %v", err)
	}

	data, err := afero.ReadFile(fs, "/vault/Logs/2026-03-14.json")
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("Line is not JSON: %v", err)
	}
	for _, key := range []string{"timestamp", "event_type", "file_hash", "original_name", "size", "priority", "action_file", "dry_run"} {
		if _, ok := first[key]; !ok {
			t.Errorf("Missing key %s", key)
		}
	}
	if first["event_type"] != "file_drop" {
		t.Errorf("Unexpected event_type: %v", first["event_type"])
	}
	if first["dry_run"] != false {
		t.Errorf("Expected dry_run false, got %v", first["dry_run"])
	}

	var second map[string]any
	json.Unmarshal([]byte(lines[1]), &second)
	if v, ok := second["action_file"]; !ok || v != nil {
		t.Errorf("Expected action_file null, got %v", v)
	}
}

func TestJournal_DryRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	j := fixedJournal(fs, true)

	entry := j.NewEntry(testFile(), "/vault/Needs_Action/x.md")
	if !entry.DryRun {
		t.Error("Expected dry_run true in entry")
	}
	if err := j.Append(entry); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if exists, _ := afero.Exists(fs, "/vault/Logs/2026-03-14.json"); exists {
		t.Error("Dry run must not write the log file")
	}
}

func TestJournal_AppendKeepsExistingLines(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/vault/Logs/2026-03-14.json", []byte("{\"file_hash\":\"old\"}\n"), 0644)

	j := fixedJournal(fs, false)
	if err := j.Append(j.NewEntry(testFile(), "")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	file, _ := fs.Open("/vault/Logs/2026-03-14.json")
	defer file.Close()
	scanner := bufio.NewScanner(file)
	count := 0
	for scanner.Scan() {
		if count == 0 && scanner.Text() != "{\"file_hash\":\"old\"}" {
			t.Errorf("Existing line was rewritten: %s", scanner.Text())
		}
		count++
	}
	if count != 2 {
		t.Errorf("Expected 2 lines, got %d", count)
	}
}
