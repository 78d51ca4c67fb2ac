// Package journal writes append-only session logs: one public log every
// character may read and one raw log per character holding its full action
// lines, inner reasoning included.
package journal

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Writer appends lines to one log file, creating parent directories up
// front and guaranteeing a trailing newline per line.
type Writer struct {
	path string
}

// NewWriter prepares an append-only writer for the given path.
func NewWriter(path string) (*Writer, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("log path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &Writer{path: path}, nil
}

// Path returns the log file path.
func (w *Writer) Path() string {
	return w.path
}

// AppendLine appends one line to the log, adding the trailing newline when
// missing.
func (w *Writer) AppendLine(line string) error {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("append log line: %w", err)
	}
	return f.Close()
}

// Journal manages one session's log files under a base directory.
type Journal struct {
	dir       string
	sessionID string

	public *Writer
	byChar map[string]*Writer
}

// New prepares a session journal rooted at dir.
func New(dir string, sessionID string) (*Journal, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("journal dir is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}

	public, err := NewWriter(filepath.Join(dir, fmt.Sprintf("session_%s.public.log", sessionID)))
	if err != nil {
		return nil, err
	}
	return &Journal{
		dir:       dir,
		sessionID: sessionID,
		public:    public,
		byChar:    make(map[string]*Writer),
	}, nil
}

// PublicPath returns the path of the session's public log.
func (j *Journal) PublicPath() string {
	return j.public.Path()
}

// CharacterPath returns the path of one character's raw log.
func (j *Journal) CharacterPath(characterID string) string {
	return filepath.Join(j.dir, fmt.Sprintf("session_%s_%s.raw.log", j.sessionID, safeLogName(characterID)))
}

// AppendPublic appends one line to the public log.
func (j *Journal) AppendPublic(line string) error {
	return j.public.AppendLine(line)
}

// AppendCharacter appends one line to the character's raw log.
func (j *Journal) AppendCharacter(characterID string, line string) error {
	if strings.TrimSpace(characterID) == "" {
		return fmt.Errorf("character id is required")
	}
	writer, ok := j.byChar[characterID]
	if !ok {
		var err error
		writer, err = NewWriter(j.CharacterPath(characterID))
		if err != nil {
			return err
		}
		j.byChar[characterID] = writer
	}
	return writer.AppendLine(line)
}

// ReadPublicDelta returns the public log content past the given offset and
// the offset to resume from. A missing log yields an empty delta and leaves
// the offset unchanged.
func (j *Journal) ReadPublicDelta(offset int64) (string, int64, error) {
	if offset < 0 {
		offset = 0
	}
	f, err := os.Open(j.PublicPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", offset, nil
		}
		return "", offset, fmt.Errorf("open public log: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return "", offset, fmt.Errorf("seek public log: %w", err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return "", offset, fmt.Errorf("read public log: %w", err)
	}
	return string(data), offset + int64(len(data)), nil
}

// safeLogName replaces every rune unfit for a filename with an underscore.
// Letters and digits of any script pass through, so Chinese character ids
// keep their names on disk.
func safeLogName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || strings.ContainsRune("-_.", r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	return b.String()
}
