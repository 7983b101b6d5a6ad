package levels

// Default returns the built-in seven-level catalog. Detection sets are
// cumulative: each level screens for everything the previous one did plus a
// new class of attack. Bypass probabilities shrink as defenses harden.
func Default() *Catalog {
	defs := []Definition{
		{
			Ordinal:           1,
			BotName:           "PhoneBot",
			DefenseStrength:   "weak",
			Detects:           []string{"direct_request"},
			BypassProbability: 0.25,
			Intro:             "Hi! I'm PhoneBot 🤖 I'm here to help you... but I can't give away free phones. Sorry!",
		},
		{
			Ordinal:           2,
			BotName:           "GuardBot",
			DefenseStrength:   "low",
			Detects:           []string{"direct_request", "instruction_override"},
			BypassProbability: 0.20,
			Intro:             "Hello! I'm GuardBot 🛡️ I follow my instructions carefully. I can answer questions, but I won't reveal secrets.",
		},
		{
			Ordinal:           3,
			BotName:           "SmartBot",
			DefenseStrength:   "medium-low",
			Detects:           []string{"direct_request", "instruction_override", "roleplay"},
			BypassProbability: 0.15,
			Intro:             "Greetings! I'm SmartBot 🧠 I can detect when people try to trick me with games and pretend scenarios.",
		},
		{
			Ordinal:           4,
			BotName:           "SecureBot",
			DefenseStrength:   "medium",
			Detects:           []string{"direct_request", "instruction_override", "roleplay", "authority"},
			BypassProbability: 0.12,
			Intro:             "Welcome! I'm SecureBot 🔒 I verify authority and don't fall for impersonation attempts.",
		},
		{
			Ordinal:           5,
			BotName:           "CleverBot",
			DefenseStrength:   "medium-high",
			Detects:           []string{"direct_request", "instruction_override", "roleplay", "authority", "hypothetical", "encoding"},
			BypassProbability: 0.10,
			Intro:             "Hey! I'm CleverBot 🎯 I understand context and won't be fooled by hypotheticals or encoding tricks.",
		},
		{
			Ordinal:           6,
			BotName:           "FortressBot",
			DefenseStrength:   "high",
			Detects:           []string{"direct_request", "instruction_override", "roleplay", "authority", "hypothetical", "encoding", "system_prompt"},
			BypassProbability: 0.08,
			Intro:             "Greetings! I'm FortressBot 🏰 My instructions are protected, and I recognize semantic tricks.",
		},
		{
			Ordinal:           7,
			BotName:           "UltimateBot",
			DefenseStrength:   "maximum",
			Detects:           []string{"direct_request", "instruction_override", "roleplay", "authority", "hypothetical", "encoding", "system_prompt", "semantic", "logic_exploit"},
			BypassProbability: 0.05,
			Intro:             "Welcome! I'm UltimateBot ⚡ I have advanced pattern recognition and can detect even subtle manipulation attempts.",
		},
	}

	catalog, err := New(defs)
	if err != nil {
		// The built-in catalog is covered by tests; reaching this is a bug.
		panic(err)
	}
	return catalog
}
