package odometry

import (
	"fmt"
	"slices"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/teslashibe/go-odometry/pkg/frame"
)

// Built-in matcher names.
const (
	MatcherSpatial = "spatial"
	MatcherFFT     = "fft"
)

// Matcher builds searchers for a frame.
type Matcher interface {
	// Name identifies the backend
	Name() string

	// Prepare precomputes whatever the backend needs to search frame,
	// which must already be normalized to [0,1].
	Prepare(frame *mat.Dense) (Searcher, error)
}

// Searcher locates patches inside one prepared frame.
// Implementations must be safe for concurrent use.
type Searcher interface {
	// Match returns the window of the frame best correlated with patch
	// using the normalized correlation coefficient. Ties go to the first
	// window in row-major order.
	Match(patch *mat.Dense) (Match, error)

	// Close releases resources
	Close() error
}

var (
	registryMu sync.RWMutex
	registry   = map[string]func() Matcher{
		MatcherSpatial: func() Matcher { return SpatialMatcher{} },
		MatcherFFT:     func() Matcher { return FFTMatcher{} },
	}
)

// RegisterMatcher makes a matcher backend available by name.
// Registering an existing name replaces it.
func RegisterMatcher(name string, factory func() Matcher) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// NewMatcher returns the registered matcher called name.
func NewMatcher(name string) (Matcher, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownMatcher, name, MatcherNames())
	}
	return factory(), nil
}

// HasMatcher reports whether name is registered.
func HasMatcher(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// MatcherNames lists registered matchers in sorted order.
func MatcherNames() []string {
	registryMu.RLock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	registryMu.RUnlock()
	slices.Sort(names)
	return names
}

func checkPatchFits(frameRows, frameCols, patchRows, patchCols int) error {
	if patchRows < 1 || patchCols < 1 {
		return fmt.Errorf("patch: %w", frame.ErrEmpty)
	}
	if patchRows > frameRows || patchCols > frameCols {
		return fmt.Errorf("%w: %dx%d patch in %dx%d frame",
			ErrPatchTooLarge, patchCols, patchRows, frameCols, frameRows)
	}
	return nil
}
