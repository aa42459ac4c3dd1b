package funneldef

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/journey/internal/journey"
)

// yamlFile is the top-level shape of a YAML stage file.
type yamlFile struct {
	Stages []journey.FunnelStage `yaml:"stages"`
}

// LoadYAML reads a YAML stage file.
func LoadYAML(path string) ([]journey.FunnelStage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stage file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML parses YAML stage definitions.
// Unknown fields are rejected, so "entry:" for "entry_event:" fails loudly.
func ParseYAML(data []byte) ([]journey.FunnelStage, error) {
	var f yamlFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(f.Stages) == 0 {
		return nil, &DefinitionError{Field: "stages", Message: "at least one stage is required"}
	}
	for i, st := range f.Stages {
		if st.Name == "" {
			return nil, &DefinitionError{Field: fmt.Sprintf("stages[%d].name", i), Message: "name is required"}
		}
		if st.EntryEvent == "" {
			return nil, &DefinitionError{Field: fmt.Sprintf("stages[%d].entry_event", i), Message: "entry_event is required"}
		}
	}
	return f.Stages, nil
}
