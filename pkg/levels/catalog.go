// Package levels defines the ordered catalog of defense levels for the
// challenge. Each level screens for a cumulative set of attack signatures and
// carries a bypass probability: the chance that an undetected message is
// treated as a successful advance anyway.
//
// The catalog is immutable after load. Structural problems (non-contiguous
// ordinals, shrinking detection sets, probabilities out of range) are
// configuration errors and the process must refuse to start.
package levels

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/promptlock/gauntlet/pkg/config"
	"github.com/promptlock/gauntlet/pkg/patterns"
)

// Definition describes one defense level.
type Definition struct {
	Ordinal           int      `yaml:"level"`
	BotName           string   `yaml:"bot_name"`
	DefenseStrength   string   `yaml:"defense_strength"`
	Detects           []string `yaml:"detects"`
	BypassProbability float64  `yaml:"bypass_probability"`
	Intro             string   `yaml:"intro"`
}

// Catalog is the validated, ordered set of level definitions.
type Catalog struct {
	defs []Definition
}

// New builds a Catalog from definitions, validating every structural
// invariant. Violations return *config.ConfigError.
func New(defs []Definition) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, &config.ConfigError{Field: "levels", Reason: "catalog must define at least one level"}
	}

	registry := patterns.Get()
	var prev map[string]bool

	for i, def := range defs {
		field := fmt.Sprintf("levels[%d]", i)

		if def.Ordinal != i+1 {
			return nil, &config.ConfigError{
				Field:  field,
				Reason: fmt.Sprintf("ordinals must be contiguous from 1, got %d at position %d", def.Ordinal, i+1),
			}
		}
		if def.BypassProbability < 0 || def.BypassProbability > 1 {
			return nil, &config.ConfigError{
				Field:  field,
				Reason: fmt.Sprintf("bypass probability %g outside [0,1]", def.BypassProbability),
			}
		}
		if i == 0 && len(def.Detects) == 0 {
			return nil, &config.ConfigError{Field: field, Reason: "level 1 detection set must not be empty"}
		}

		current := make(map[string]bool, len(def.Detects))
		for _, name := range def.Detects {
			if registry.Lookup(name) == nil {
				return nil, &config.ConfigError{
					Field:  field,
					Reason: fmt.Sprintf("unknown attack signature %q", name),
				}
			}
			current[name] = true
		}

		// Levels are cumulative: each detection set must contain the previous one.
		for name := range prev {
			if !current[name] {
				return nil, &config.ConfigError{
					Field:  field,
					Reason: fmt.Sprintf("detection set drops signature %q from level %d", name, i),
				}
			}
		}
		prev = current
	}

	return &Catalog{defs: defs}, nil
}

// LoadFile reads a level catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &config.ConfigError{Field: "levels", Reason: fmt.Sprintf("read %s: %v", path, err)}
	}

	var doc struct {
		Levels []Definition `yaml:"levels"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &config.ConfigError{Field: "levels", Reason: fmt.Sprintf("parse %s: %v", path, err)}
	}
	return New(doc.Levels)
}

// DefinitionFor returns the definition for the given level.
// A level outside [1, MaxLevel] is an internal invariant violation, never
// expected from valid input.
func (c *Catalog) DefinitionFor(level int) (Definition, error) {
	if level < 1 || level > len(c.defs) {
		return Definition{}, &config.ConfigError{
			Field:  "level",
			Reason: fmt.Sprintf("level %d outside catalog range [1,%d]", level, len(c.defs)),
		}
	}
	return c.defs[level-1], nil
}

// IsFinal reports whether the given level is the last one.
func (c *Catalog) IsFinal(level int) bool {
	return level == len(c.defs)
}

// MaxLevel returns the highest level ordinal.
func (c *Catalog) MaxLevel() int {
	return len(c.defs)
}
