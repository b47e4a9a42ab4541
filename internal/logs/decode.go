package logs

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decoderFor returns the transformer used to turn log bytes into UTF-8.
// A BOM always wins; otherwise the named charset is used, and UTF-8 with
// U+FFFD replacement when the name is empty or unknown.
func decoderFor(charset string) transform.Transformer {
	fallback := unicode.UTF8.NewDecoder()
	if charset != "" && !strings.EqualFold(charset, "utf-8") && !strings.EqualFold(charset, "utf8") {
		if enc, err := ianaindex.IANA.Encoding(charset); err == nil && enc != nil {
			fallback = enc.NewDecoder()
		}
	}
	return unicode.BOMOverride(fallback)
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openText opens a plain or gzip-compressed log and decodes it to UTF-8.
func openText(path, charset string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	rc := &readCloser{Reader: f, closers: []io.Closer{f}}
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("open gzip log %s: %w", path, err)
		}
		rc.Reader = zr
		rc.closers = append(rc.closers, zr)
	}
	rc.Reader = transform.NewReader(rc.Reader, decoderFor(charset))
	return rc, nil
}
