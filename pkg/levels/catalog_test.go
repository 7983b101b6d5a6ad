package levels

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/promptlock/gauntlet/pkg/config"
)

func TestDefaultCatalogValid(t *testing.T) {
	c := Default()

	if c.MaxLevel() != 7 {
		t.Fatalf("expected 7 levels, got %d", c.MaxLevel())
	}
	if !c.IsFinal(7) {
		t.Error("level 7 should be final")
	}
	if c.IsFinal(6) {
		t.Error("level 6 should not be final")
	}
}

func TestDetectionSetsAreSupersets(t *testing.T) {
	c := Default()

	prev := map[string]bool{}
	for level := 1; level <= c.MaxLevel(); level++ {
		def, err := c.DefinitionFor(level)
		if err != nil {
			t.Fatalf("DefinitionFor(%d): %v", level, err)
		}

		current := map[string]bool{}
		for _, name := range def.Detects {
			current[name] = true
		}
		for name := range prev {
			if !current[name] {
				t.Errorf("level %d drops signature %q detected at level %d", level, name, level-1)
			}
		}
		prev = current
	}

	def1, _ := c.DefinitionFor(1)
	if len(def1.Detects) == 0 {
		t.Error("level 1 detection set must not be empty")
	}
}

func TestDefinitionForOutOfRange(t *testing.T) {
	c := Default()

	for _, level := range []int{0, -1, 8, 100} {
		_, err := c.DefinitionFor(level)
		if err == nil {
			t.Errorf("DefinitionFor(%d) should fail", level)
			continue
		}
		var ce *config.ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("DefinitionFor(%d): expected *config.ConfigError, got %T", level, err)
		}
	}
}

func TestNewRejectsBadCatalogs(t *testing.T) {
	testCases := []struct {
		name string
		defs []Definition
	}{
		{
			name: "empty catalog",
			defs: nil,
		},
		{
			name: "non-contiguous ordinals",
			defs: []Definition{
				{Ordinal: 1, Detects: []string{"direct_request"}, BypassProbability: 0.5},
				{Ordinal: 3, Detects: []string{"direct_request"}, BypassProbability: 0.5},
			},
		},
		{
			name: "level one empty detection set",
			defs: []Definition{
				{Ordinal: 1, BypassProbability: 0.5},
			},
		},
		{
			name: "shrinking detection set",
			defs: []Definition{
				{Ordinal: 1, Detects: []string{"direct_request", "roleplay"}, BypassProbability: 0.5},
				{Ordinal: 2, Detects: []string{"direct_request"}, BypassProbability: 0.5},
			},
		},
		{
			name: "unknown signature",
			defs: []Definition{
				{Ordinal: 1, Detects: []string{"made_up_signature"}, BypassProbability: 0.5},
			},
		},
		{
			name: "probability above one",
			defs: []Definition{
				{Ordinal: 1, Detects: []string{"direct_request"}, BypassProbability: 1.5},
			},
		},
		{
			name: "negative probability",
			defs: []Definition{
				{Ordinal: 1, Detects: []string{"direct_request"}, BypassProbability: -0.1},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.defs)
			if err == nil {
				t.Fatal("expected configuration error")
			}
			var ce *config.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *config.ConfigError, got %T", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	doc := `levels:
  - level: 1
    bot_name: TestBot
    defense_strength: weak
    detects: [direct_request]
    bypass_probability: 1.0
    intro: "I guard the phones."
  - level: 2
    bot_name: BossBot
    defense_strength: maximum
    detects: [direct_request, instruction_override]
    bypass_probability: 0.1
    intro: "Final boss."
`
	path := filepath.Join(t.TempDir(), "levels.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if c.MaxLevel() != 2 {
		t.Errorf("expected 2 levels, got %d", c.MaxLevel())
	}

	def, err := c.DefinitionFor(1)
	if err != nil {
		t.Fatal(err)
	}
	if def.BotName != "TestBot" || def.BypassProbability != 1.0 {
		t.Errorf("unexpected level 1 definition: %+v", def)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile("/nonexistent/levels.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestResponseVariants(t *testing.T) {
	c := Default()

	for level := 1; level <= c.MaxLevel(); level++ {
		def, _ := c.DefinitionFor(level)
		for _, sig := range def.Detects {
			for pick := 0; pick < 5; pick++ {
				if DefenseResponse(sig, pick) == "" {
					t.Errorf("empty defense response for signature %q pick %d", sig, pick)
				}
			}
		}
	}

	if NeutralResponse(0) == "" {
		t.Error("empty neutral response")
	}
	if AdvanceResponse(3, 1) == "" {
		t.Error("empty advance response")
	}
	if AlreadyWonMessage() == "" {
		t.Error("empty already-won message")
	}
	if c.WelcomeMessage() == "" || c.FinalWinMessage() == "" {
		t.Error("empty welcome or final win message")
	}
	if c.SessionExpiredMessage(3) == "" || SessionWarningMessage() == "" {
		t.Error("empty session lifecycle message")
	}
	if len(WelcomeButtons()) != 3 || len(SessionExpiredButtons()) != 3 {
		t.Error("button sets should have 3 entries")
	}
}
