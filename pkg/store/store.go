// Package store keeps uploaded topology documents and FortiOS
// configurations, together with their processed JSON forms, in a data
// directory.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/metrics"
)

// Kind selects the subdirectory a file is stored in.
type Kind string

const (
	KindNetwork Kind = "networks"
	KindFortiOS Kind = "fortios"
)

// Prefixes of processed files.
const (
	PrefixNodeLink = "node_link_"
	PrefixFortiOS  = "fortios_"
	PrefixPolicies = "fortios_firewall_policies_"
)

var processedPrefixes = map[Kind][]string{
	KindNetwork: {PrefixNodeLink},
	KindFortiOS: {PrefixFortiOS},
}

var (
	// ErrNotFound is returned for files that do not exist.
	ErrNotFound = errors.New("file not found")
	// ErrInvalidFilename is returned for names that sanitize to nothing.
	ErrInvalidFilename = errors.New("invalid filename")
)

// Upload describes a stored file.
type Upload struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Filename string `json:"filename"`
	Size     int    `json:"size"`
}

// Store is a filesystem store rooted at a data directory.
type Store struct {
	root   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// New creates the data directory layout under root.
func New(root string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, k := range []Kind{KindNetwork, KindFortiOS} {
		if err := os.MkdirAll(filepath.Join(root, string(k)), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}
	s := &Store{root: root, logger: logger}
	for _, k := range []Kind{KindNetwork, KindFortiOS} {
		s.updateGauge(k)
	}
	return s, nil
}

// Root returns the data directory.
func (s *Store) Root() string { return s.root }

// SecureFilename reduces name to a safe flat file name: path separators
// become underscores, characters other than ASCII letters, digits, '.',
// '-' and '_' are dropped, and leading dots and underscores are trimmed.
func SecureFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || unicode.IsSpace(r):
			return '_'
		case r > unicode.MaxASCII:
			return -1
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_':
			return r
		default:
			return -1
		}
	}, name)
	return strings.TrimLeft(name, "._")
}

// ProcessedName returns the name of the processed JSON file derived from
// filename, such as "node_link_campus.json" for "campus.yml".
func ProcessedName(filename, prefix string) string {
	base := SecureFilename(filename)
	return prefix + strings.TrimSuffix(base, filepath.Ext(base)) + ".json"
}

func (s *Store) path(kind Kind, filename string) (string, error) {
	name := SecureFilename(filename)
	if name == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return filepath.Join(s.root, string(kind), name), nil
}

// Save writes data as filename. An existing file is replaced.
func (s *Store) Save(kind Kind, filename string, data []byte) (Upload, error) {
	path, err := s.path(kind, filename)
	if err != nil {
		return Upload{}, err
	}

	s.mu.Lock()
	err = writeFile(path, data)
	s.mu.Unlock()
	if err != nil {
		return Upload{}, fmt.Errorf("failed to save %s: %w", filename, err)
	}
	s.updateGauge(kind)

	up := Upload{ID: uuid.NewString(), Kind: kind, Filename: filepath.Base(path), Size: len(data)}
	s.logger.Info("File stored", "id", up.ID, "kind", kind, "filename", up.Filename, "size", up.Size)
	return up, nil
}

// writeFile writes through a temporary file so readers never see a
// partial document.
func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Read returns the content of filename.
func (s *Store) Read(kind Kind, filename string) ([]byte, error) {
	path, err := s.path(kind, filename)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, kind, filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return data, nil
}

// SaveJSON stores v as the processed file of filename.
func (s *Store) SaveJSON(kind Kind, filename, prefix string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}
	_, err = s.Save(kind, ProcessedName(filename, prefix), data)
	return err
}

// ReadJSON decodes the processed file of filename into v.
func (s *Store) ReadJSON(kind Kind, filename, prefix string, v any) error {
	data, err := s.Read(kind, ProcessedName(filename, prefix))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	return nil
}

// Delete removes filename.
func (s *Store) Delete(kind Kind, filename string) error {
	path, err := s.path(kind, filename)
	if err != nil {
		return err
	}

	s.mu.Lock()
	err = os.Remove(path)
	s.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, kind, filepath.Base(path))
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", filename, err)
	}
	s.updateGauge(kind)
	return nil
}

// List returns the sorted names of kind's files matching the glob
// pattern. An empty pattern matches every file.
func (s *Store) List(kind Kind, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	matches, err := filepath.Glob(filepath.Join(s.root, string(kind), pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		name := filepath.Base(m)
		if strings.HasSuffix(name, ".tmp") {
			continue
		}
		if fi, err := os.Stat(m); err == nil && fi.Mode().IsRegular() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Documents lists the uploaded files of kind, leaving out the processed
// files derived from them.
func (s *Store) Documents(kind Kind) ([]string, error) {
	names, err := s.List(kind, "")
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if !isProcessed(kind, n) {
			out = append(out, n)
		}
	}
	return out, nil
}

func isProcessed(kind Kind, name string) bool {
	for _, p := range processedPrefixes[kind] {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func (s *Store) updateGauge(kind Kind) {
	names, err := s.Documents(kind)
	if err != nil {
		s.logger.Warn("Failed to count stored files", "kind", kind, "error", err)
		return
	}
	metrics.StoredDocuments.WithLabelValues(string(kind)).Set(float64(len(names)))
}
