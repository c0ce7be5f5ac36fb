package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"

	"github.com/moyu-x/dropwatch/pkg/pipeline"
)

type fakeProcessor struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeProcessor) Process(ctx context.Context, path string) pipeline.Outcome {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()
	if filepath.Ext(path) == ".tmp" {
		return pipeline.Outcome{Path: path, State: pipeline.StateIgnored}
	}
	return pipeline.Outcome{Path: path, State: pipeline.StateMarkedProcessed}
}

func TestScanner_List(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"b.txt", "a.pdf", ".DS_Store", ".hidden/inner.txt", "sub/nested.txt"} {
		afero.WriteFile(fs, filepath.Join("/vault/Inbox", name), []byte("x"), 0644)
	}

	s := New(fs, "/vault/Inbox", &fakeProcessor{})
	files, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := []string{"/vault/Inbox/a.pdf", "/vault/Inbox/b.txt"}
	if len(files) != len(want) {
		t.Fatalf("Expected %v, got %v", want, files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}

func TestScanner_Scan(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/vault/Inbox/one.txt", []byte("1"), 0644)
	afero.WriteFile(fs, "/vault/Inbox/two.txt", []byte("2"), 0644)
	afero.WriteFile(fs, "/vault/Inbox/three.tmp", []byte("3"), 0644)

	proc := &fakeProcessor{}
	stats, err := New(fs, "/vault/Inbox", proc).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(proc.paths) != 3 {
		t.Errorf("Expected every listed file fed to the pipeline, got %v", proc.paths)
	}
	if stats.Recorded != 2 || stats.TotalProcessed != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestScanner_EmptyDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	fs.MkdirAll("/vault/Inbox", 0755)

	stats, err := New(fs, "/vault/Inbox", &fakeProcessor{}).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if stats.TotalProcessed != 0 {
		t.Errorf("Expected nothing processed, got %d", stats.TotalProcessed)
	}
}

func TestScanner_MissingDir(t *testing.T) {
	_, err := New(afero.NewMemMapFs(), "/vault/Inbox", &fakeProcessor{}).Scan(context.Background())
	if err == nil {
		t.Error("Expected error for missing inbox")
	}
}

func TestScanner_Canceled(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/vault/Inbox/one.txt", []byte("1"), 0644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proc := &fakeProcessor{}
	if _, err := New(fs, "/vault/Inbox", proc).Scan(ctx); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(proc.paths) != 0 {
		t.Error("Canceled scan should not process files")
	}
}

func TestScanner_FollowsSymlinks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping symlink test in short mode")
	}

	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "target.txt")
	if err := os.WriteFile(target, []byte("test content"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	inbox := filepath.Join(tempDir, "Inbox")
	os.MkdirAll(inbox, 0755)
	if err := os.Symlink(target, filepath.Join(inbox, "link.txt")); err != nil {
		t.Skipf("Skipping symlink test: %v", err)
	}
	if err := os.Symlink(tempDir, filepath.Join(inbox, "dirlink")); err != nil {
		t.Skipf("Skipping symlink test: %v", err)
	}

	files, err := New(afero.NewOsFs(), inbox, &fakeProcessor{}).List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "link.txt" {
		t.Errorf("Expected only the file symlink, got %v", files)
	}
}
