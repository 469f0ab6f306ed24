package provider

// ID identifies an upstream provider as reported by the admin API in
// account rollups and usage breakdowns. It is distinct from the account
// label (which is operator-assigned).
type ID string

const (
	Unknown     ID = ""
	Gemini      ID = "gemini"
	Claude      ID = "claude"
	Codex       ID = "codex"
	Qwen        ID = "qwen"
	IFlow       ID = "iflow"
	Kiro        ID = "kiro"
	Copilot     ID = "github-copilot"
	Cline       ID = "cline"
	Vertex      ID = "vertex"
	Antigravity ID = "antigravity"
)

// FromString converts a wire identifier to a typed ID.
// Legacy identifiers still emitted by older admin builds fold into their
// current form ("gemini-cli" reports as "gemini" since the aggregates merged).
func FromString(v string) ID {
	switch v {
	case "gemini-cli":
		return Gemini
	case "anthropic":
		return Claude
	case "openai":
		return Codex
	default:
		return ID(v)
	}
}

func (id ID) String() string {
	return string(id)
}

// DisplayName returns the label shown in tables and summary cards.
// Unrecognized identifiers pass through so new providers render without a
// console update.
func (id ID) DisplayName() string {
	switch id {
	case Gemini:
		return "Gemini"
	case Claude:
		return "Claude"
	case Codex:
		return "Codex"
	case Qwen:
		return "Qwen"
	case IFlow:
		return "iFlow"
	case Kiro:
		return "Kiro"
	case Copilot:
		return "Copilot"
	case Cline:
		return "Cline"
	case Vertex:
		return "Vertex"
	case Antigravity:
		return "Antigravity"
	case Unknown:
		return "Unknown"
	default:
		return string(id)
	}
}

// BadgeClass returns the CSS class coloring the provider badge.
func (id ID) BadgeClass() string {
	switch id {
	case Gemini, Vertex, Antigravity:
		return "badge-gemini"
	case Claude:
		return "badge-claude"
	case Codex, Copilot:
		return "badge-codex"
	case Qwen, IFlow, Kiro, Cline:
		return "badge-alt"
	default:
		return "badge-neutral"
	}
}
