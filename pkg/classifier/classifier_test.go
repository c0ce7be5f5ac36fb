package classifier

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/moyu-x/dropwatch/internal"
)

func TestPriority(t *testing.T) {
	const mb = 1024 * 1024
	cases := []struct {
		name string
		size int64
		want internal.Priority
	}{
		{"invoice_march.pdf", 8 * mb, internal.PriorityHigh},
		{"bigdata.bin", 15 * mb, internal.PriorityMedium},
		{"notes.txt", 1024, internal.PriorityNormal},
		{"URGENT-reply.docx", 0, internal.PriorityHigh},
		{"Legal_Contract_big.zip", 50 * mb, internal.PriorityHigh},
		{"exact.bin", 10 * mb, internal.PriorityNormal},
		{"just-over.bin", 10*mb + 1, internal.PriorityMedium},
		{"repayment.csv", 10, internal.PriorityHigh},
	}
	for _, tc := range cases {
		if got := Priority(tc.name, tc.size); got != tc.want {
			t.Errorf("Priority(%q, %d) = %s, want %s", tc.name, tc.size, got, tc.want)
		}
	}
}

func TestDetector_Detect(t *testing.T) {
	fs := afero.NewMemMapFs()
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 0x49, 0x48, 0x44, 0x52}
	pdf := []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	afero.WriteFile(fs, "/inbox/image.png", png, 0644)
	afero.WriteFile(fs, "/inbox/doc.pdf", pdf, 0644)
	afero.WriteFile(fs, "/inbox/notes.txt", []byte("plain text"), 0644)
	afero.WriteFile(fs, "/inbox/empty.csv", nil, 0644)

	d := NewDetector(fs)

	mime, category, err := d.Detect("/inbox/image.png")
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if mime != "image/png" || category != "image" {
		t.Errorf("Expected image/png image, got %s %s", mime, category)
	}

	mime, category, _ = d.Detect("/inbox/doc.pdf")
	if mime != "application/pdf" || category != "document" {
		t.Errorf("Expected application/pdf document, got %s %s", mime, category)
	}

	mime, category, _ = d.Detect("/inbox/notes.txt")
	if mime != "" || category != "other" {
		t.Errorf("Expected unknown type, got %q %q", mime, category)
	}

	if _, _, err := d.Detect("/inbox/empty.csv"); err != nil {
		t.Errorf("Detect() on empty file error = %v", err)
	}

	if _, _, err := d.Detect("/inbox/missing"); err == nil {
		t.Error("Expected error for missing file")
	}
}
