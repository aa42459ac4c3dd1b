package funneldef

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/journey/internal/journey"
)

// LoadCUE reads stage definitions from a CUE file, or from every CUE file
// of the package in a directory.
func LoadCUE(path string) ([]journey.FunnelStage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stage file: %w", err)
	}

	ctx := cuecontext.New()
	var value cue.Value
	if info.IsDir() {
		instances := load.Instances([]string{"."}, &load.Config{Dir: path})
		if len(instances) == 0 {
			return nil, fmt.Errorf("no CUE instances loaded from %s", path)
		}
		if err := instances[0].Err; err != nil {
			return nil, formatCUEError(err)
		}
		value = ctx.BuildInstance(instances[0])
	} else {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read stage file: %w", err)
		}
		value = ctx.CompileBytes(src, cue.Filename(path))
	}
	return compileStages(value)
}

// ParseCUE parses CUE stage definitions from source. filename is used in
// error positions only.
func ParseCUE(filename string, src []byte) ([]journey.FunnelStage, error) {
	return compileStages(cuecontext.New().CompileBytes(src, cue.Filename(filename)))
}

// compileStages extracts FunnelStages from the stage struct of v.
func compileStages(v cue.Value) ([]journey.FunnelStage, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	stagesVal := v.LookupPath(cue.ParsePath("stage"))
	if !stagesVal.Exists() {
		return nil, &DefinitionError{Field: "stage", Message: "at least one stage is required", Pos: v.Pos()}
	}

	iter, err := stagesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []journey.FunnelStage
	for iter.Next() {
		st, err := compileStage(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if len(out) == 0 {
		return nil, &DefinitionError{Field: "stage", Message: "at least one stage is required", Pos: stagesVal.Pos()}
	}
	return out, nil
}

func compileStage(name string, v cue.Value) (journey.FunnelStage, error) {
	st := journey.FunnelStage{Name: name}
	field := "stage." + name

	orderVal := v.LookupPath(cue.ParsePath("order"))
	if !orderVal.Exists() {
		return st, &DefinitionError{Field: field + ".order", Message: "order is required", Pos: v.Pos()}
	}
	order, err := orderVal.Int64()
	if err != nil {
		return st, formatCUEError(err)
	}
	st.Order = int(order)

	entry, err := requiredString(v, field, "entry_event")
	if err != nil {
		return st, err
	}
	st.EntryEvent = entry

	if st.ExitEvent, err = optionalString(v, "exit_event"); err != nil {
		return st, err
	}
	if st.Description, err = optionalString(v, "description"); err != nil {
		return st, err
	}
	return st, nil
}

func requiredString(v cue.Value, field, key string) (string, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return "", &DefinitionError{Field: field + "." + key, Message: key + " is required", Pos: v.Pos()}
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalString(v cue.Value, key string) (string, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return "", nil
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}
