// Package docfetch implements the document download side of the
// Parser external collaborator contract (spec.md §6): fetching a
// document from its URL under the 100 MiB / 120s-total / 30s-connect
// limits, sniffing its MIME type, and delegating text extraction to a
// Parser. Grounded on
// original_source/app/core/document_processor.py's _download_document/
// _detect_file_type.
package docfetch

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"policy-qa-core/internal/ragerrors"
)

const maxDocumentBytes = 100 * 1024 * 1024 // 100 MiB, spec.md §5

// Fetched is the downloaded-and-sniffed form of a document, handed to
// a Parser for text extraction.
type Fetched struct {
	DocID string // md5 of the raw bytes, spec.md §3's content-hash Document.id
	URL   string
	MIME  string
	Bytes []byte
}

// Fetch downloads url, enforcing the 100 MiB cap, and sniffs its MIME
// type. The 120s-total budget is enforced via ctx's deadline and the
// 30s-connect budget via the dialer timeout, both with stdlib
// net/http, which keeps this collaborator a thin, stdlib-only network
// boundary — the DOMAIN STACK's
// third-party dependencies are reserved for the core's own
// storage/transport/observability concerns.
func Fetch(ctx context.Context, url string) (Fetched, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Fetched{}, fmt.Errorf("%w: %v", ragerrors.ErrInvalidRequest, err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext
	client := &http.Client{Transport: transport}

	resp, err := client.Do(req)
	if err != nil {
		return Fetched{}, fmt.Errorf("%w: fetch %s: %v", ragerrors.ErrParseFailure, url, err)
	}
	defer resp.Body.Close()

	if resp.ContentLength > maxDocumentBytes {
		return Fetched{}, fmt.Errorf("%w: document too large (%d bytes)", ragerrors.ErrParseFailure, resp.ContentLength)
	}

	limited := io.LimitReader(resp.Body, maxDocumentBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return Fetched{}, fmt.Errorf("%w: read body: %v", ragerrors.ErrParseFailure, err)
	}
	if len(data) > maxDocumentBytes {
		return Fetched{}, fmt.Errorf("%w: document exceeds 100 MiB cap", ragerrors.ErrParseFailure)
	}

	sum := md5.Sum(data)
	return Fetched{
		DocID: hex.EncodeToString(sum[:]),
		URL:   url,
		MIME:  detectMIME(data),
		Bytes: data,
	}, nil
}

func detectMIME(data []byte) string {
	switch {
	case strings.HasPrefix(string(data), "%PDF"):
		return "application/pdf"
	case len(data) >= 4 && string(data[:4]) == "PK\x03\x04" && strings.Contains(string(data[:min(len(data), 4096)]), "word/"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case strings.HasPrefix(strings.ToLower(strings.TrimSpace(string(data))), "<!doctype html"),
		strings.HasPrefix(strings.ToLower(strings.TrimSpace(string(data))), "<html"):
		return "text/html"
	default:
		return http.DetectContentType(data)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Parsed is the Parser contract's output (spec.md §6): extracted
// text and page count. Tables are not returned as a separate field.
type Parsed struct {
	Text  string
	Pages int
}

var htmlTag = regexp.MustCompile(`(?s)<[^>]*>`)
var htmlScript = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)

// Parse extracts text per spec.md §6's Parser contract. Plain text,
// HTML, and RFC822 email are handled directly; PDF and DOCX require
// an external parser plugin (none of the retrieved examples import a
// PDF/DOCX library, so none is wired here — see DESIGN.md) and
// surface ParseFailure until one is configured.
func Parse(mime string, data []byte) (Parsed, error) {
	switch {
	case strings.HasPrefix(mime, "text/plain"):
		return Parsed{Text: string(data), Pages: 1}, nil

	case strings.HasPrefix(mime, "text/html"):
		text := htmlScript.ReplaceAllString(string(data), " ")
		text = htmlTag.ReplaceAllString(text, " ")
		return Parsed{Text: text, Pages: 1}, nil

	case strings.Contains(mime, "message/rfc822") || looksLikeEmail(data):
		msg, err := mail.ReadMessage(strings.NewReader(string(data)))
		if err != nil {
			return Parsed{}, fmt.Errorf("%w: parse email: %v", ragerrors.ErrParseFailure, err)
		}
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return Parsed{}, fmt.Errorf("%w: read email body: %v", ragerrors.ErrParseFailure, err)
		}
		return Parsed{Text: string(body), Pages: 1}, nil

	default:
		return Parsed{}, fmt.Errorf("%w: unsupported MIME type %q requires an external parser", ragerrors.ErrParseFailure, mime)
	}
}

func looksLikeEmail(data []byte) bool {
	head := string(data[:min(len(data), 512)])
	return strings.Contains(head, "From: ") && strings.Contains(head, "Subject: ")
}
