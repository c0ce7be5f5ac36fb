package namer

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

var fixedNow = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 5, 0, time.Local) }

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"report":            "report",
		`a<b>c:d"e/f\g|h?i*`: "a_b_c_d_e_f_g_h_i_",
		"  spaced name  ":   "spaced name",
		"..dots..":          "dots",
		" . ":               Placeholder,
		"":                  Placeholder,
		"tab\tname":         "tab_name",
		"发票 march":          "发票 march",
	}
	for in, want := range cases {
		if got := Sanitize(in); got != want {
			t.Errorf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitize_NoReservedChars(t *testing.T) {
	inputs := []string{`<<>>`, `???`, `a/b/c`, `"quoted"`, "\x00\x01", `...`, `C:\path\file`}
	for _, in := range inputs {
		got := Sanitize(in)
		if got == "" {
			t.Errorf("Sanitize(%q) returned empty", in)
		}
		if strings.ContainsAny(got, `<>:"/\|?*`) {
			t.Errorf("Sanitize(%q) = %q still has reserved chars", in, got)
		}
	}
}

func TestUniqueName(t *testing.T) {
	fs := afero.NewMemMapFs()
	n := New(fs, "/vault/Needs_Action").WithClock(fixedNow)

	name, err := n.UniqueName("invoice march.pdf")
	if err != nil {
		t.Fatalf("UniqueName() error = %v", err)
	}
	if name != "ACTION_invoice march_20260314_093005.pdf.md" {
		t.Errorf("Unexpected name: %s", name)
	}
}

func TestUniqueName_Collisions(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/vault/Needs_Action"
	n := New(fs, dir).WithClock(fixedNow)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		name, err := n.UniqueName("notes.txt")
		if err != nil {
			t.Fatalf("UniqueName() error = %v", err)
		}
		if seen[name] {
			t.Fatalf("UniqueName() returned duplicate %s", name)
		}
		seen[name] = true
		if err := afero.WriteFile(fs, filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to create record: %v", err)
		}
	}

	for _, want := range []string{
		"ACTION_notes_20260314_093005.txt.md",
		"ACTION_notes_20260314_093005_1.txt.md",
		"ACTION_notes_20260314_093005_4.txt.md",
	} {
		if !seen[want] {
			t.Errorf("Expected %s among generated names", want)
		}
	}
}

func TestUniqueName_SanitizesBase(t *testing.T) {
	n := New(afero.NewMemMapFs(), "/out").WithClock(fixedNow)

	name, err := n.UniqueName(`what?.txt`)
	if err != nil {
		t.Fatalf("UniqueName() error = %v", err)
	}
	if name != "ACTION_what__20260314_093005.txt.md" {
		t.Errorf("Unexpected name: %s", name)
	}

	name, _ = n.UniqueName(".env")
	if name != "ACTION_env_20260314_093005.md" {
		t.Errorf("Unexpected name for dotfile: %s", name)
	}

	name, _ = n.UniqueName("README")
	if name != "ACTION_README_20260314_093005.md" {
		t.Errorf("Unexpected name without extension: %s", name)
	}
}
