package replay

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// #endregion imports

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a recorded
// conversation with expectations about phase progression and reply content.
type Fixture struct {
	Description string `json:"description"`

	// ContentDir points at the catalog directory, relative to the fixture
	// file unless absolute.
	ContentDir string `json:"content_dir"`

	// GeneratorScript queues canned generator outputs, consumed one per
	// generate call. An exhausted queue yields a deterministic placeholder
	// so fixtures only script the replies they assert on.
	GeneratorScript []string `json:"generator_script"`

	Turns []FixtureTurn `json:"turns"`
}

// FixtureTurn is one child message plus the expectations to check after the
// engine handles it. Empty expectation fields are skipped.
type FixtureTurn struct {
	Input               string `json:"input"`
	ExpectStep          string `json:"expect_step"`
	ExpectReplyContains string `json:"expect_reply_contains"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file, resolving ContentDir
// against the fixture's own directory.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.ContentDir == "" {
		return nil, fmt.Errorf("fixture %s: content_dir is required", path)
	}
	if !filepath.IsAbs(f.ContentDir) {
		f.ContentDir = filepath.Join(filepath.Dir(path), f.ContentDir)
	}
	if len(f.Turns) == 0 {
		return nil, fmt.Errorf("fixture %s: no turns", path)
	}
	return &f, nil
}

// #endregion fixture-loader
