package logs

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"procreport/internal/logging"
)

// DefaultMaxLines bounds an excerpt when the caller passes zero.
const DefaultMaxLines = 50

// errorMarker flags lines worth highlighting in a failure excerpt.
var errorMarker = regexp.MustCompile(`(?i)error|exception|traceback|critical|fatal|failed`)

// Excerpt is the bounded slice of a log relevant to one process.
type Excerpt struct {
	// Lines holds the last matching lines in file order, without newlines.
	Lines []string `json:"lines"`
	// MatchedLines counts every matching line, including those cut from Lines.
	MatchedLines int `json:"matched_lines"`
	// ErrorLines counts matching lines carrying an error marker.
	ErrorLines int `json:"error_lines"`
	// ExtractPath is where all matching lines were written; empty if the
	// write failed.
	ExtractPath string `json:"extract_path,omitempty"`
}

// IsError reports whether a line carries an error marker.
func IsError(line string) bool { return errorMarker.MatchString(line) }

// Summarizer extracts process lines from a located log.
type Summarizer struct {
	// ExtractDir receives one <uuid>.log per summarized process. Empty
	// disables the extract file.
	ExtractDir string
	// Charset is the fallback encoding for files without a BOM.
	Charset string
}

// Summarize returns the last maxLines lines of path containing uuid. A file
// with no matching lines yields an empty excerpt. Undecodable bytes are
// replaced, never reported. Failing to write the extract file is logged and
// leaves ExtractPath empty.
func (s *Summarizer) Summarize(path, uuid string, maxLines int) (Excerpt, error) {
	if uuid == "" {
		return Excerpt{}, errors.New("summarize: empty uuid")
	}
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	in, err := openText(path, s.Charset)
	if err != nil {
		return Excerpt{}, err
	}
	defer in.Close()

	logger := logging.New("logs")
	extract := s.openExtract(uuid)

	var (
		ex   Excerpt
		ring = make([]string, 0, maxLines)
		next int
	)
	r := bufio.NewReaderSize(in, 64*1024)
	for {
		line, readErr := r.ReadString('\n')
		if line != "" && strings.Contains(line, uuid) {
			trimmed := strings.TrimRight(line, "\r\n")
			ex.MatchedLines++
			if IsError(trimmed) {
				ex.ErrorLines++
			}
			if len(ring) < maxLines {
				ring = append(ring, trimmed)
			} else {
				ring[next] = trimmed
				next = (next + 1) % maxLines
			}
			extract.write(trimmed)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			extract.abort()
			return Excerpt{}, fmt.Errorf("read log %s: %w", path, readErr)
		}
	}

	ex.Lines = append(ring[next:len(ring):len(ring)], ring[:next]...)
	if ex.Lines == nil {
		ex.Lines = []string{}
	}
	ex.ExtractPath = extract.commit()
	logger.Debug("summarized log", "uuid", uuid, "path", path, "matched", ex.MatchedLines, "errors", ex.ErrorLines)
	return ex, nil
}

// extractFile streams matching lines to a temp file that is renamed into
// place on commit. Any failure disables it and is logged once.
type extractFile struct {
	final string
	tmp   *os.File
	w     *bufio.Writer
	err   error
}

func (s *Summarizer) openExtract(uuid string) *extractFile {
	x := &extractFile{}
	if s.ExtractDir == "" {
		return x
	}
	x.final = ExtractPath(s.ExtractDir, uuid)
	if err := os.MkdirAll(s.ExtractDir, 0o755); err != nil {
		x.fail(fmt.Errorf("create extract dir: %w", err))
		return x
	}
	tmp, err := os.CreateTemp(s.ExtractDir, ".extract-*")
	if err != nil {
		x.fail(fmt.Errorf("create extract temp file: %w", err))
		return x
	}
	x.tmp = tmp
	x.w = bufio.NewWriter(tmp)
	return x
}

// ExtractPath is the deterministic extract location for a process.
func ExtractPath(dir, uuid string) string {
	return filepath.Join(dir, uuid+".log")
}

func (x *extractFile) fail(err error) {
	if x.err == nil {
		x.err = err
		logging.New("logs").Warn("log extract not written", "path", x.final, "error", err)
	}
	x.abort()
}

func (x *extractFile) write(line string) {
	if x.w == nil || x.err != nil {
		return
	}
	if _, err := x.w.WriteString(line + "\n"); err != nil {
		x.fail(fmt.Errorf("write extract: %w", err))
	}
}

func (x *extractFile) abort() {
	if x.tmp != nil {
		_ = x.tmp.Close()
		_ = os.Remove(x.tmp.Name())
		x.tmp, x.w = nil, nil
	}
}

func (x *extractFile) commit() string {
	if x.tmp == nil || x.err != nil {
		return ""
	}
	if err := x.w.Flush(); err != nil {
		x.fail(fmt.Errorf("flush extract: %w", err))
		return ""
	}
	name := x.tmp.Name()
	if err := x.tmp.Close(); err != nil {
		x.tmp = nil
		_ = os.Remove(name)
		x.fail(fmt.Errorf("close extract: %w", err))
		return ""
	}
	x.tmp = nil
	if err := os.Rename(name, x.final); err != nil {
		_ = os.Remove(name)
		x.fail(fmt.Errorf("rename extract: %w", err))
		return ""
	}
	return x.final
}
