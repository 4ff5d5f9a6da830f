package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"murphy/internal/timeline"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: one
// recorded session, each step carrying the raw model output captured for
// it. Replaying needs no network and no live model.
type Fixture struct {
	Description  string       `json:"description"`
	ResponseMode string       `json:"response_mode"` // "delimited" or "structured"
	Input        FixtureInput `json:"input"`
	Steps        []Step       `json:"steps"`
}

// FixtureInput mirrors timeline.UserInput with the pessimism level as the
// free-form string the client originally sent.
type FixtureInput struct {
	About     string `json:"about"`
	Goal      string `json:"goal"`
	Plan      string `json:"plan"`
	Concerns  string `json:"concerns"`
	Pessimism string `json:"pessimism"`
}

// Step is one recorded operation. Response holds the raw model output for
// steps that hit the model; steps that never call out leave it empty.
type Step struct {
	Op        string `json:"op"` // generate | answer | finalize | refine | followup | select_version | reset
	Answer    string `json:"answer,omitempty"`
	Feedback  string `json:"feedback,omitempty"`
	Pessimism string `json:"pessimism,omitempty"`
	Index     int    `json:"index,omitempty"`
	Response  string `json:"response,omitempty"`

	Expect *Expectation `json:"expect,omitempty"`
}

// Expectation is the recorded outcome to verify a step against. Zero-value
// fields are not checked.
type Expectation struct {
	State    string `json:"state,omitempty"`
	Versions int    `json:"versions,omitempty"`
	Error    string `json:"error,omitempty"` // substring match
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("fixture %s: no steps", path)
	}
	return &f, nil
}

// ToUserInput converts the fixture input into the domain type.
func (fi FixtureInput) ToUserInput() timeline.UserInput {
	return timeline.UserInput{
		About:     fi.About,
		Goal:      fi.Goal,
		Plan:      fi.Plan,
		Concerns:  fi.Concerns,
		Pessimism: timeline.ParsePessimism(fi.Pessimism),
	}
}

// #endregion fixture-loader
