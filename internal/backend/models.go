package backend

// ModelTable maps requested model names onto concrete ids and ordered
// fallback chains. Tables are read-only after construction and safe to
// share across goroutines.
type ModelTable struct {
	// Aliases maps short names ("flash", "pro") to concrete model ids.
	Aliases map[string]string

	// Chains maps a concrete id to its ordered fallback chain. The chain
	// starts with the id itself, followed by sibling/stable fallbacks.
	Chains map[string][]string

	// Escalation is the alias the repair pass uses instead of the draft
	// model.
	Escalation string
}

// Resolve maps a requested model name to a concrete id and its fallback
// chain. Unknown names resolve to themselves with a single-entry chain, so
// explicit overrides always work.
func (t ModelTable) Resolve(requested string) (string, []string) {
	id := requested
	if concrete, ok := t.Aliases[requested]; ok {
		id = concrete
	}
	if chain, ok := t.Chains[id]; ok && len(chain) > 0 {
		return id, chain
	}
	return id, []string{id}
}

// EscalatedModel returns the concrete id the repair pass should use.
func (t ModelTable) EscalatedModel() string {
	id, _ := t.Resolve(t.Escalation)
	return id
}

// GeminiModels is the default alias/fallback table for the Gemini backend.
func GeminiModels() ModelTable {
	return ModelTable{
		Aliases: map[string]string{
			"flash":      "gemini-2.5-flash",
			"flash-lite": "gemini-2.5-flash-lite",
			"pro":        "gemini-2.5-pro",
		},
		Chains: map[string][]string{
			"gemini-2.5-flash":      {"gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-flash"},
			"gemini-2.5-flash-lite": {"gemini-2.5-flash-lite", "gemini-2.0-flash-lite", "gemini-1.5-flash"},
			"gemini-2.5-pro":        {"gemini-2.5-pro", "gemini-2.5-flash", "gemini-1.5-pro"},
		},
		Escalation: "pro",
	}
}

// GLMModels is the default alias/fallback table for the Z.AI GLM backend.
func GLMModels() ModelTable {
	return ModelTable{
		Aliases: map[string]string{
			"air":   "glm-4-air",
			"flash": "glm-4-flash",
			"plus":  "glm-4-plus",
		},
		Chains: map[string][]string{
			"glm-4-air":   {"glm-4-air", "glm-4-flash", "glm-4"},
			"glm-4-flash": {"glm-4-flash", "glm-4"},
			"glm-4-plus":  {"glm-4-plus", "glm-4-air", "glm-4"},
		},
		Escalation: "plus",
	}
}

// AnthropicModels is the default alias/fallback table for Anthropic.
func AnthropicModels() ModelTable {
	return ModelTable{
		Aliases: map[string]string{
			"haiku":  "claude-3-5-haiku-latest",
			"sonnet": "claude-sonnet-4-20250514",
		},
		Chains: map[string][]string{
			"claude-3-5-haiku-latest":  {"claude-3-5-haiku-latest", "claude-3-haiku-20240307"},
			"claude-sonnet-4-20250514": {"claude-sonnet-4-20250514", "claude-3-5-haiku-latest"},
		},
		Escalation: "sonnet",
	}
}

// ModelsFor returns the default table for a backend id. Unknown ids get an
// empty table, which resolves every name to itself.
func ModelsFor(backendID string) ModelTable {
	switch backendID {
	case "gemini":
		return GeminiModels()
	case "glm":
		return GLMModels()
	case "anthropic":
		return AnthropicModels()
	default:
		return ModelTable{}
	}
}
