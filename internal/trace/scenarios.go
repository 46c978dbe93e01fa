package trace

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed testdata/scenarios.yaml
var scenariosYAML []byte

// Scenario is one named, replayable trace fixture.
type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Requests    []Request `yaml:"requests"`
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Scenarios returns the built-in S1-S6 fixtures, covering: a basic
// alloc/free cycle (S1), splitting a large free block to satisfy a small
// request (S2), coalescing a chain of adjacent frees back together (S3),
// in-place realloc growth by absorbing a free right neighbor (S4), realloc
// relocation when in-place growth isn't possible (S5), and an interleaved
// shrink-then-regrow realloc sequence (S6).
func Scenarios() ([]Scenario, error) {
	var f scenarioFile
	if err := yaml.Unmarshal(scenariosYAML, &f); err != nil {
		return nil, err
	}
	return f.Scenarios, nil
}
