package docfetch

import (
	"strings"
	"testing"
)

func TestDetectMIMEPDF(t *testing.T) {
	if got := detectMIME([]byte("%PDF-1.4 rest of file")); got != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", got)
	}
}

func TestDetectMIMEHTML(t *testing.T) {
	if got := detectMIME([]byte("<html><body>hi</body></html>")); got != "text/html" {
		t.Fatalf("expected text/html, got %q", got)
	}
}

func TestParsePlainText(t *testing.T) {
	parsed, err := Parse("text/plain", []byte("hello world"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Text != "hello world" {
		t.Fatalf("expected passthrough text, got %q", parsed.Text)
	}
}

func TestParseHTMLStripsTags(t *testing.T) {
	parsed, err := Parse("text/html", []byte("<html><body><p>Grace period is 30 days.</p></body></html>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Text == "" {
		t.Fatal("expected non-empty extracted text")
	}
	for _, tag := range []string{"<html>", "<body>", "<p>"} {
		if strings.Contains(parsed.Text, tag) {
			t.Fatalf("expected tag %q to be stripped from %q", tag, parsed.Text)
		}
	}
}

func TestParseUnsupportedMIMEFails(t *testing.T) {
	_, err := Parse("application/pdf", []byte("%PDF-1.4"))
	if err == nil {
		t.Fatal("expected an error for an unsupported MIME type without a registered parser")
	}
}
