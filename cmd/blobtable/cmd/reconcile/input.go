package reconcile

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/blobtable"
	"github.com/agentstation/blobtable/pkg/constants"
	"github.com/agentstation/blobtable/pkg/errors"
)

// Input is a file of precomputed descriptor passes.
type Input struct {
	StatType string            `yaml:"stat_type"`
	Positive *blobtable.Passes `yaml:"positive"`
	Negative *blobtable.Passes `yaml:"negative"`
}

// LoadInput reads and validates a descriptor file.
func LoadInput(filename string) (*Input, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return nil, errors.WrapIO("stat", filename, err)
	}
	if info.Size() > constants.MaxInputFileSize {
		return nil, &errors.ValidationError{Field: "input", Value: info.Size(), Message: "input file too large"}
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.WrapIO("read", filename, err)
	}
	return ParseInput(data, filename)
}

// ParseInput parses a descriptor file. Unknown fields are rejected.
func ParseInput(data []byte, file string) (*Input, error) {
	var in Input
	if err := yaml.UnmarshalWithOptions(data, &in, yaml.Strict()); err != nil {
		return nil, errors.WrapParse("yaml", file, err)
	}
	if in.Positive == nil {
		return nil, &errors.ValidationError{Field: "positive", Message: "descriptor passes are required"}
	}
	return &in, nil
}
