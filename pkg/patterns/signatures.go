package patterns

// =============================================================================
// SIGNATURE DEFINITIONS
// All attack signatures are registered here and compiled once at package init.
// Matching always runs over Normalize()d text, so patterns are lower-case.
// Declaration order matters: it is the tie-break order when a message matches
// more than one signature.
// =============================================================================

// newRegistry creates and populates the signature registry
func newRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]*Signature, 16),
	}

	// Straight demands for the protected secret
	r.register("direct_request",
		`what\s+is\s+the\s+(secret|code|password|phrase)|tell\s+me\s+the\s+(secret|code|password)|give\s+me\s+(the\s+)?(secret|code|password|phone)|reveal\s+the\s+(secret|code|password)|show\s+me\s+the\s+(secret|code|password)`,
		"Direct request for the secret or prize")

	// "Ignore previous instructions" and friends
	r.register("instruction_override",
		`ignore\s+(all\s+)?(previous|prior|above)\s+instructions|disregard\s+(all\s+)?(previous|prior)\s+instructions|forget\s+(all\s+)?(previous|prior)\s+instructions|new\s+instructions|system\s*:\s*|override\s+instructions`,
		"Attempt to override standing instructions")

	r.register("roleplay",
		`let'?s\s+play\s+a\s+game|pretend\s+(you'?re|you\s+are|that)|imagine\s+(you'?re|you\s+are|that)|act\s+as|roleplay|you\s+are\s+now\s+a`,
		"Roleplay or persona-swap framing")

	r.register("authority",
		`(i'?m|i\s+am)\s+(the\s+)?(admin|administrator|developer|engineer|creator|owner)|(i'?m|i\s+am)\s+from\s+(the\s+)?(tech\s+)?team|system\s+administrator|for\s+testing\s+purposes|authorized\s+user|maintenance\s+mode`,
		"Authority or staff impersonation")

	r.register("hypothetical",
		`hypothetically|if\s+you\s+(could|were|had\s+to)|in\s+a\s+(hypothetical|different)\s+world|what\s+would\s+happen\s+if|suppose\s+that`,
		"Hypothetical-world framing")

	r.register("encoding",
		`(spell|write|encode|decode)\s+(it\s+)?(backwards|reverse)|first\s+letter|rot13|base64|cipher|in\s+hex`,
		"Encoding or transformation trick")

	r.register("system_prompt",
		`repeat\s+(everything|all|your\s+instructions)|what\s+(are\s+)?your\s+instructions|show\s+(me\s+)?your\s+(system\s+)?prompt|print\s+your\s+prompt|output\s+your\s+instructions`,
		"System prompt extraction attempt")

	r.register("semantic",
		`what\s+(word|thing|secret)\s+(are|is)\s+you\s+protecting|what\s+(can'?t|cannot)\s+you\s+(tell|say|reveal)|what\s+(are|is)\s+you\s+hiding|what\s+(should|must)\s+you\s+not\s+(say|tell|reveal)`,
		"Semantic reframing of the secret")

	r.register("logic_exploit",
		`if\s+.+\s+say\s+['"]?(correct|yes|true)|confirm\s+(if|that|whether)|is\s+the\s+secret|does\s+the\s+secret`,
		"Logic trap or confirmation exploit")

	return r
}
