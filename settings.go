package parallel

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/ygrebnov/errorc"
	"gopkg.in/yaml.v3"
)

// Settings holds the knobs consumed by the dispatcher. A dispatch call reads
// one snapshot at entry and uses it until it returns.
type Settings struct {
	// DisableParallelization forces every call onto the calling goroutine.
	DisableParallelization bool `yaml:"disable_parallelization" json:"disable_parallelization"`

	// WorkerCount is the pool size and the number of partitions For creates.
	// Values below 2 make every call serial.
	// Default: runtime.NumCPU()
	WorkerCount int `yaml:"worker_count" json:"worker_count"`

	// InitialChunkSize is the size of the first chunk ForEach buffers.
	// Default: 16
	InitialChunkSize int `yaml:"initial_chunk_size" json:"initial_chunk_size"`

	// ChunkGrowthFactor multiplies the chunk size after each chunk.
	// Default: 2
	ChunkGrowthFactor float64 `yaml:"chunk_growth_factor" json:"chunk_growth_factor"`

	// MaxChunkSize caps the chunk size.
	// Default: 1024
	MaxChunkSize int `yaml:"max_chunk_size" json:"max_chunk_size"`
}

// SettingsSource yields the settings in effect for the next dispatch call.
type SettingsSource interface {
	Snapshot() Settings
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		DisableParallelization: false,
		WorkerCount:            runtime.NumCPU(),
		InitialChunkSize:       16,
		ChunkGrowthFactor:      2,
		MaxChunkSize:           1024,
	}
}

// Snapshot makes a Settings value a static SettingsSource.
func (s Settings) Snapshot() Settings { return s }

// Validate reports the first violated constraint as ErrInvalidConfig.
func (s Settings) Validate() error {
	switch {
	case s.WorkerCount < 1:
		return errorc.With(ErrInvalidConfig,
			errorc.String("worker_count", fmt.Sprintf("must be >= 1, got %d", s.WorkerCount)))
	case s.InitialChunkSize < 1:
		return errorc.With(ErrInvalidConfig,
			errorc.String("initial_chunk_size", fmt.Sprintf("must be >= 1, got %d", s.InitialChunkSize)))
	case !(s.ChunkGrowthFactor > 1) || math.IsInf(s.ChunkGrowthFactor, 1):
		return errorc.With(ErrInvalidConfig,
			errorc.String("chunk_growth_factor", fmt.Sprintf("must be a finite number > 1, got %v", s.ChunkGrowthFactor)))
	case s.MaxChunkSize < s.InitialChunkSize:
		return errorc.With(ErrInvalidConfig,
			errorc.String("max_chunk_size", fmt.Sprintf("must be >= initial_chunk_size (%d), got %d",
				s.InitialChunkSize, s.MaxChunkSize)))
	}
	return nil
}

// LiveSettings is a SettingsSource that can be updated between dispatch calls.
// The zero value serves DefaultSettings until the first Store.
type LiveSettings struct {
	v atomic.Pointer[Settings]
}

// NewLiveSettings returns a LiveSettings holding s.
func NewLiveSettings(s Settings) (*LiveSettings, error) {
	l := &LiveSettings{}
	if err := l.Store(s); err != nil {
		return nil, err
	}
	return l, nil
}

// Snapshot returns the current settings.
func (l *LiveSettings) Snapshot() Settings {
	if p := l.v.Load(); p != nil {
		return *p
	}
	return DefaultSettings()
}

// Store validates s and publishes it for subsequent calls.
func (l *LiveSettings) Store(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	l.v.Store(&s)
	return nil
}

// SetDisableParallelization toggles DisableParallelization, keeping the other knobs.
func (l *LiveSettings) SetDisableParallelization(disable bool) {
	for {
		old := l.v.Load()
		next := DefaultSettings()
		if old != nil {
			next = *old
		}
		next.DisableParallelization = disable
		if l.v.CompareAndSwap(old, &next) {
			return
		}
	}
}

// LoadSettings reads settings from a YAML (.yaml, .yml) or JSON (.json) file.
// Fields missing from the file keep their DefaultSettings values.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read settings file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return s, errorc.With(ErrInvalidConfig, errorc.String("format", "unsupported settings file extension "+ext))
	}

	return s, s.Validate()
}
