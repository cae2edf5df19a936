// README: Embedded keyword taxonomy; synonyms live in data, not code.
package intent

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var taxonomyYAML []byte

type companionRule struct {
	Match  []string           `yaml:"match"`
	Tag    CompanionTag       `yaml:"tag"`
	Boosts map[string]float64 `yaml:"boosts"`
}

type concernRule struct {
	// Direct phrases imply the concern on their own; Avoided phrases count
	// only next to an avoid marker ("不想人多" but not "人多的地方都去").
	Direct  []string `yaml:"direct"`
	Avoided []string `yaml:"avoided"`
}

type Taxonomy struct {
	Companions   []companionRule        `yaml:"companions"`
	Moods        map[string]string      `yaml:"moods"`
	Preferences  map[string]string      `yaml:"preferences"`
	AvoidMarkers []string               `yaml:"avoid_markers"`
	Concerns     map[string]concernRule `yaml:"concerns"`
	Locations    struct {
		Aliases map[string]string `yaml:"aliases"`
		Known   []string          `yaml:"known"`
	} `yaml:"locations"`
	BudgetWords struct {
		Cheap  []string `yaml:"cheap"`
		Luxury []string `yaml:"luxury"`
	} `yaml:"budget_words"`
}

func loadTaxonomy() (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(taxonomyYAML, &t); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}
	return &t, nil
}
