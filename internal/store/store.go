// Package store persists pipeline artifacts as flat per-query JSON files.
//
// Layout under the data directory:
//
//	contexts/{query_id}.json
//	outputs/<stage>/<prefix>_{query_id}.json
//	queries.json
//
// Writes are atomic and durable (temp file + fsync + rename + dir fsync), so
// a reader never observes a partially written artifact.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kamilpajak/bugsy/pkg/models"
)

// ErrNotFound is returned by Load when the artifact does not exist.
var ErrNotFound = errors.New("artifact not found")

// ErrInvalidQueryID is returned for ids that cannot be used as a file name.
var ErrInvalidQueryID = errors.New("invalid query id")

// Kind names an artifact namespace.
type Kind string

const (
	KindRawContext          Kind = "raw_context"
	KindTestingContext      Kind = "testing_context"
	KindAttributes          Kind = "attributes"
	KindAttributeValidation Kind = "attribute_validation"
	KindAttributeCoverage   Kind = "attribute_coverage"
	KindScenarios           Kind = "scenarios"
	KindScenarioValidation  Kind = "scenario_validation"
	KindScenarioCoverage    Kind = "scenario_coverage"
)

type layout struct {
	dir    string
	prefix string
}

var layouts = map[Kind]layout{
	KindRawContext:          {dir: "contexts"},
	KindTestingContext:      {dir: filepath.Join("outputs", "context_builder"), prefix: "testing_context_"},
	KindAttributes:          {dir: filepath.Join("outputs", "attribute_generator"), prefix: "attributes_"},
	KindAttributeValidation: {dir: filepath.Join("outputs", "attribute_validator"), prefix: "attribute_validation_"},
	KindAttributeCoverage:   {dir: filepath.Join("outputs", "attribute_coverage_checker"), prefix: "attribute_coverage_"},
	KindScenarios:           {dir: filepath.Join("outputs", "scenario_generator"), prefix: "scenarios_"},
	KindScenarioValidation:  {dir: filepath.Join("outputs", "scenario_validator"), prefix: "scenario_validation_"},
	KindScenarioCoverage:    {dir: filepath.Join("outputs", "scenario_coverage_checker"), prefix: "scenario_coverage_"},
}

// Kinds returns every known kind in a stable order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(layouts))
	for k := range layouts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

const fileExt = ".json"

// Store reads and writes artifacts under a data directory.
type Store struct {
	dataDir string
	logger  *zap.Logger
}

// New creates a store rooted at dataDir. A nil logger disables logging.
func New(dataDir string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(dataDir) == "" {
		return nil, errors.New("data dir is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dataDir: dataDir, logger: logger}, nil
}

// DataDir returns the root directory of the store.
func (s *Store) DataDir() string {
	return s.dataDir
}

// Path returns the file path for (kind, queryID).
func (s *Store) Path(kind Kind, queryID string) (string, error) {
	l, ok := layouts[kind]
	if !ok {
		return "", fmt.Errorf("unknown artifact kind %q", kind)
	}
	if err := ValidateQueryID(queryID); err != nil {
		return "", err
	}
	return filepath.Join(s.dataDir, l.dir, l.prefix+queryID+fileExt), nil
}

// ValidateQueryID rejects ids that are empty or would escape their directory.
func ValidateQueryID(queryID string) error {
	switch {
	case strings.TrimSpace(queryID) == "":
		return fmt.Errorf("%w: empty", ErrInvalidQueryID)
	case strings.ContainsAny(queryID, `/\`), queryID == ".", queryID == "..":
		return fmt.Errorf("%w: %q", ErrInvalidQueryID, queryID)
	}
	return nil
}

// EnsureDirs creates every artifact directory.
func (s *Store) EnsureDirs() error {
	for _, kind := range Kinds() {
		dir := filepath.Join(s.dataDir, layouts[kind].dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Save writes v as the (kind, queryID) artifact and returns its path.
// An existing artifact is replaced.
func (s *Store) Save(kind Kind, queryID string, v any) (string, error) {
	path, err := s.Path(kind, queryID)
	if err != nil {
		return "", err
	}
	data, err := models.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s: %w", kind, err)
	}
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	s.logger.Debug("artifact saved",
		zap.String("kind", string(kind)),
		zap.String("query_id", queryID),
		zap.String("path", path),
		zap.Int("bytes", len(data)))
	return path, nil
}

// Load returns the raw bytes of the (kind, queryID) artifact.
func (s *Store) Load(kind Kind, queryID string) ([]byte, error) {
	path, err := s.Path(kind, queryID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s %s (%s)", ErrNotFound, kind, queryID, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Exists reports whether the (kind, queryID) artifact is present.
func (s *Store) Exists(kind Kind, queryID string) bool {
	path, err := s.Path(kind, queryID)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// List returns the query ids that have a kind artifact, sorted
// lexicographically. A missing directory yields an empty list.
func (s *Store) List(kind Kind) ([]string, error) {
	l, ok := layouts[kind]
	if !ok {
		return nil, fmt.Errorf("unknown artifact kind %q", kind)
	}
	entries, err := os.ReadDir(filepath.Join(s.dataDir, l.dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, l.prefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, l.prefix), fileExt)
		if strings.TrimSpace(id) == "" {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadRawContext loads and strictly decodes the input context for queryID.
func (s *Store) LoadRawContext(queryID string) (*models.RawContext, error) {
	data, err := s.Load(KindRawContext, queryID)
	if err != nil {
		return nil, err
	}
	return models.DecodeRawContext(data)
}

// LoadTestingContext loads and strictly decodes the testing context.
func (s *Store) LoadTestingContext(queryID string) (*models.TestingContext, error) {
	data, err := s.Load(KindTestingContext, queryID)
	if err != nil {
		return nil, err
	}
	return models.DecodeTestingContext(data)
}

// LoadAttributes loads and strictly decodes the attribute list.
func (s *Store) LoadAttributes(queryID string) ([]models.Attribute, error) {
	data, err := s.Load(KindAttributes, queryID)
	if err != nil {
		return nil, err
	}
	return models.DecodeAttributes(data)
}

// LoadScenarios loads and strictly decodes the scenario list.
func (s *Store) LoadScenarios(queryID string) ([]models.Scenario, error) {
	data, err := s.Load(KindScenarios, queryID)
	if err != nil {
		return nil, err
	}
	return models.DecodeScenarios(data)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return syncDir(dir)
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
