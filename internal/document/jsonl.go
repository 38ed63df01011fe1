package document

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// record is the on-the-wire shape of one JSONL line. Tokens takes priority
// over Text when both are present: a source that already tokenised a
// document (language segmentation, stemming) shouldn't be re-split.
type record struct {
	DocID  string   `json:"doc_id"`
	Tokens []string `json:"tokens"`
	Text   string   `json:"text"`
}

// JSONLSource reads newline-delimited JSON documents from a local file path
// or an http(s):// URL, one record per line: {"doc_id": "...", "tokens":
// [...]} or {"doc_id": "...", "text": "..."}. It is the reference
// implementation of Source shipped with this repo: a local-file-or-URL fetch
// that streams line by line instead of loading one whole-file JSON blob, so
// arbitrarily large catalogues don't have to fit in memory before indexing
// even starts.
type JSONLSource struct {
	closer  io.Closer
	scanner *bufio.Scanner
	line    int
}

// OpenJSONLSource opens path, which may be a local filesystem path or an
// http(s):// URL, for streaming document reads.
func OpenJSONLSource(path string) (*JSONLSource, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return openJSONLSourceHTTP(path)
	}
	return openJSONLSourceFile(path)
}

func openJSONLSourceFile(path string) (*JSONLSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("document: open %s: %w", path, err)
	}
	return newJSONLSource(f, f), nil
}

func openJSONLSourceHTTP(url string) (*JSONLSource, error) {
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("document: fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("document: fetch %s: non-ok status %s", url, resp.Status)
	}
	return newJSONLSource(resp.Body, resp.Body), nil
}

func newJSONLSource(r io.Reader, closer io.Closer) *JSONLSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &JSONLSource{closer: closer, scanner: scanner}
}

// Next returns the next document, skipping blank lines. A malformed JSON
// line is a fatal error: the source contract gives the core no way to
// catch and skip a bad record silently, so corrupt input surfaces
// immediately instead of producing a silently incomplete index.
func (s *JSONLSource) Next(ctx context.Context) (Document, bool, error) {
	for {
		select {
		case <-ctx.Done():
			return Document{}, false, ctx.Err()
		default:
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return Document{}, false, fmt.Errorf("document: read line %d: %w", s.line+1, err)
			}
			return Document{}, false, nil
		}
		s.line++

		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}

		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return Document{}, false, fmt.Errorf("document: parse line %d: %w", s.line, err)
		}
		if rec.DocID == "" {
			return Document{}, false, fmt.Errorf("document: line %d: missing doc_id", s.line)
		}

		tokens := rec.Tokens
		if tokens == nil {
			tokens = Tokenize(rec.Text)
		}
		return Document{DocID: rec.DocID, Tokens: tokens}, true, nil
	}
}

// Close releases the underlying file handle or HTTP response body.
func (s *JSONLSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
