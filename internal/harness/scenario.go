package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a construction scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// IDPrefix seeds identifiers assigned to records given without an id.
	// Defaults to "test".
	IDPrefix string `yaml:"id_prefix,omitempty"`

	// Steps are executed in order against one consolidation universe.
	Steps []Step `yaml:"steps"`

	// Assertions validate the records built by the steps.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step builds one record. Exactly one of Construct and Decode is set.
type Step struct {
	// Construct names the record type to build from Input.
	Construct string `yaml:"construct,omitempty"`

	// Decode names the record type to build from JSON.
	Decode string `yaml:"decode,omitempty"`

	// Template starts a construct step from a registered template; Input
	// then overrides individual fields.
	Template string `yaml:"template,omitempty"`

	Input map[string]any `yaml:"input,omitempty"`
	JSON  string         `yaml:"json,omitempty"`

	// As names the record for later assertions.
	As string `yaml:"as,omitempty"`

	// Put writes the record graph to the scenario's store.
	Put bool `yaml:"put,omitempty"`

	// Expect specifies the expected outcome. If nil the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// TypeName returns the record type the step builds.
func (s Step) TypeName() string {
	if s.Construct != "" {
		return s.Construct
	}
	return s.Decode
}

// Op returns "construct" or "decode".
func (s Step) Op() string {
	if s.Construct != "" {
		return OpConstruct
	}
	return OpDecode
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Error is the expected error code, e.g. "TYPE_MISMATCH".
	Error string `yaml:"error,omitempty"`

	// Path and Check narrow an expected error.
	Path  string `yaml:"path,omitempty"`
	Check string `yaml:"check,omitempty"`

	// Fields is a subset match against the encoded record.
	Fields map[string]any `yaml:"fields,omitempty"`

	// Warnings is the expected number of numeric cast warnings.
	Warnings *int `yaml:"warnings,omitempty"`
}

// Assertion validates the records built by a scenario.
type Assertion struct {
	// Type specifies the assertion type:
	// - "equal": Records are structurally equal
	// - "not_equal": Records differ
	// - "same": Records resolve to the same consolidated instance
	// - "universe_size": Count canonical records were built
	// - "stored_count": Count records of RecordType are stored
	Type string `yaml:"type"`

	// Records are record references: a step name optionally followed by a
	// dotted path of record fields, e.g. "ticket.maneuver.mission".
	Records []string `yaml:"records,omitempty"`

	// RecordType is the type counted by stored_count.
	RecordType string `yaml:"record_type,omitempty"`

	Count int `yaml:"count,omitempty"`
}

// Step operations.
const (
	OpConstruct = "construct"
	OpDecode    = "decode"
)

// Assertion type constants.
const (
	AssertEqual        = "equal"
	AssertNotEqual     = "not_equal"
	AssertSame         = "same"
	AssertUniverseSize = "universe_size"
	AssertStoredCount  = "stored_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
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

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	names := make(map[string]bool)
	for i, step := range s.Steps {
		switch {
		case step.Construct == "" && step.Decode == "":
			return fmt.Errorf("steps[%d]: construct or decode is required", i)
		case step.Construct != "" && step.Decode != "":
			return fmt.Errorf("steps[%d]: construct and decode are exclusive", i)
		case step.Decode != "" && step.Template != "":
			return fmt.Errorf("steps[%d]: template requires construct", i)
		case step.Decode != "" && step.Input != nil:
			return fmt.Errorf("steps[%d]: decode takes json, not input", i)
		case step.Construct != "" && step.JSON != "":
			return fmt.Errorf("steps[%d]: construct takes input, not json", i)
		}
		if step.As != "" {
			if names[step.As] {
				return fmt.Errorf("steps[%d]: duplicate name %q", i, step.As)
			}
			names[step.As] = true
		}
		if e := step.Expect; e != nil && e.Error == "" && (e.Path != "" || e.Check != "") {
			return fmt.Errorf("steps[%d].expect: path and check require error", i)
		}
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
	case AssertEqual, AssertNotEqual, AssertSame:
		if len(a.Records) < 2 {
			return fmt.Errorf("assertions[%d]: at least two records are required for %s", index, a.Type)
		}
	case AssertUniverseSize:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for universe_size", index)
		}
	case AssertStoredCount:
		if a.RecordType == "" {
			return fmt.Errorf("assertions[%d]: record_type is required for stored_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for stored_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
