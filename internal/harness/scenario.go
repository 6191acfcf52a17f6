// Package harness runs YAML-defined normalization scenarios for
// conformance tests: each scenario builds one engine from a rule source
// and a flag set, feeds it a list of inputs, and captures outputs plus
// alignments for assertion or golden comparison.
package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/charsmap/internal/config"
	"github.com/roach88/charsmap/internal/normalizer"
)

// Scenario defines one conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Rules holds an inline rule table in TSV form.
	// Mutually exclusive with RuleName; omitting both means no rules.
	Rules string `yaml:"rules,omitempty"`

	// RuleName names a built-in rule set ("identity" or "nfkc").
	RuleName string `yaml:"rule_name,omitempty"`

	// Flags is the engine flag set, applied as-is.
	Flags Flags `yaml:"flags"`

	// Cases lists the inputs to normalize.
	Cases []Case `yaml:"cases"`
}

// Flags mirrors the engine's behavior switches.
type Flags struct {
	AddDummyPrefix         bool `yaml:"add_dummy_prefix"`
	EscapeWhitespaces      bool `yaml:"escape_whitespaces"`
	RemoveExtraWhitespaces bool `yaml:"remove_extra_whitespaces"`
}

// Case is a single input, optionally with its expected output.
type Case struct {
	// Input is the raw text to normalize.
	Input string `yaml:"input"`

	// Want is the expected normalized output. When set, Run fails the
	// case on mismatch; golden comparison covers the rest.
	Want *string `yaml:"want,omitempty"`
}

// Result captures a full scenario execution.
type Result struct {
	ScenarioName string       `json:"scenario_name"`
	Cases        []CaseResult `json:"cases"`
}

// CaseResult captures one normalized case.
type CaseResult struct {
	Input     string                      `json:"input"`
	Output    string                      `json:"output"`
	Alignment []normalizer.AlignmentEntry `json:"alignment"`
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// Validate checks scenario well-formedness.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario missing required field: name")
	}
	if s.Rules != "" && s.RuleName != "" {
		return fmt.Errorf("scenario %q: rules and rule_name are mutually exclusive", s.Name)
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("scenario %q: at least one case is required", s.Name)
	}
	return nil
}

// Run builds the scenario's engine and normalizes every case.
// Cases with a Want value are checked here; a mismatch fails the run.
func Run(scenario *Scenario) (*Result, error) {
	opts := config.Options{
		RuleName:               scenario.RuleName,
		UseInternal:            true,
		AddDummyPrefix:         scenario.Flags.AddDummyPrefix,
		EscapeWhitespaces:      scenario.Flags.EscapeWhitespaces,
		RemoveExtraWhitespaces: scenario.Flags.RemoveExtraWhitespaces,
	}
	if scenario.Rules != "" {
		opts.RuleTSV = strings.NewReader(scenario.Rules)
	} else if scenario.RuleName == "" {
		opts.RuleName = "identity"
	}

	engine, err := config.Resolve(opts)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: building engine: %w", scenario.Name, err)
	}

	result := &Result{ScenarioName: scenario.Name}
	for i, c := range scenario.Cases {
		output, alignment := engine.NormalizeString(c.Input)
		if c.Want != nil && output != *c.Want {
			return nil, fmt.Errorf("scenario %q case %d: got %q, want %q",
				scenario.Name, i, output, *c.Want)
		}
		result.Cases = append(result.Cases, CaseResult{
			Input:     c.Input,
			Output:    output,
			Alignment: alignment,
		})
	}
	return result, nil
}
