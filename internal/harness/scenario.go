package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a compiler conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is the path to the CUE program to compile.
	// Relative paths are resolved against the scenario file's directory.
	Program string `yaml:"program"`

	// Dialect overrides the program's own target when set.
	Dialect string `yaml:"dialect,omitempty"`

	// Assertions validate the compile outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a compile.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Code is the expected diagnostic or validation code (fails_with).
	Code string `yaml:"code,omitempty"`

	// Tag is the expected header tag byte (header).
	Tag int `yaml:"tag,omitempty"`

	// Hex is an expected hex prefix of the artifact (header).
	Hex string `yaml:"hex,omitempty"`

	// Tags is the expected branch test order (branch_order).
	Tags []int64 `yaml:"tags,omitempty"`

	// Keys is the expected set of instance keys (instances).
	Keys []string `yaml:"keys,omitempty"`

	// MaxBytes bounds the artifact size (max_size).
	MaxBytes int `yaml:"max_bytes,omitempty"`
}

// Assertion type constants.
const (
	AssertCompiles      = "compiles"
	AssertFailsWith     = "fails_with"
	AssertHeader        = "header"
	AssertBranchOrder   = "branch_order"
	AssertInstances     = "instances"
	AssertDeterministic = "deterministic"
	AssertRoundTrip     = "round_trip"
	AssertMaxSize       = "max_size"
)

// LoadScenario reads and parses a scenario YAML file. The program path is
// resolved against the scenario file's directory.
//
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the program path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, basePath)
}

// ParseScenario parses scenario YAML. Unknown fields are rejected.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the program path BEFORE validation so the existence check
	// sees the real location.
	if scenario.Program != "" && !filepath.IsAbs(scenario.Program) && basePath != "" {
		scenario.Program = filepath.Join(basePath, scenario.Program)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Program == "" {
		return fmt.Errorf("program is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if _, err := os.Stat(s.Program); os.IsNotExist(err) {
		return fmt.Errorf("program file not found: %s", s.Program)
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCompiles, AssertDeterministic, AssertRoundTrip:
	case AssertFailsWith:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for fails_with", index)
		}
	case AssertHeader:
		if a.Tag == 0 && a.Hex == "" {
			return fmt.Errorf("assertions[%d]: tag or hex is required for header", index)
		}
		if a.Tag < 0 || a.Tag > 0xff {
			return fmt.Errorf("assertions[%d]: tag %d is not a byte", index, a.Tag)
		}
	case AssertBranchOrder:
		if len(a.Tags) == 0 {
			return fmt.Errorf("assertions[%d]: tags list is required for branch_order", index)
		}
	case AssertInstances:
		if a.Keys == nil {
			return fmt.Errorf("assertions[%d]: keys list is required for instances", index)
		}
	case AssertMaxSize:
		if a.MaxBytes <= 0 {
			return fmt.Errorf("assertions[%d]: max_bytes must be positive for max_size", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
