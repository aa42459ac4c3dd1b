package funneldef

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/journey/internal/journey"
)

// Load reads stage definitions from path, choosing the format by
// extension. Directories are loaded as CUE packages.
func Load(path string) ([]journey.FunnelStage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stage file: %w", err)
	}
	if info.IsDir() {
		return LoadCUE(path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".cue":
		return LoadCUE(path)
	default:
		return nil, fmt.Errorf("unsupported stage file extension %q (want .yaml, .yml or .cue)", ext)
	}
}
