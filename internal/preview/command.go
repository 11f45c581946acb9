package preview

import "strings"

// callbackPrefix tags every inline action emitted for a preview card.
const callbackPrefix = "mcj"

// Kind enumerates the preview actions a user can take.
type Kind string

const (
	KindSelect     Kind = "select"
	KindRegenerate Kind = "regenerate"
	KindRenderAll  Kind = "render_all"
	KindCancel     Kind = "cancel"
	KindReanalyze  Kind = "reanalyze"
)

// Command is a parsed preview action. The wire form only exists at the
// protocol boundary; everything past Parse works with this struct.
type Command struct {
	Kind       Kind
	JobID      string
	VariantKey string
	Slot       string
}

var kindCodes = map[Kind]string{
	KindSelect:     "s",
	KindRegenerate: "g",
	KindRenderAll:  "r",
	KindCancel:     "x",
	KindReanalyze:  "a",
}

// Encode renders the command in its compact wire form.
func (c Command) Encode() string {
	code, ok := kindCodes[c.Kind]
	if !ok {
		return ""
	}
	parts := []string{callbackPrefix, c.JobID, code}
	switch c.Kind {
	case KindSelect:
		parts = append(parts, c.VariantKey, c.Slot)
	case KindRegenerate:
		parts = append(parts, c.VariantKey)
	}
	return strings.Join(parts, ":")
}

// Parse decodes a wire-form command. Malformed input returns ok=false rather
// than a partial command.
func Parse(data string) (Command, bool) {
	parts := strings.Split(data, ":")
	if len(parts) < 3 || parts[0] != callbackPrefix || parts[1] == "" {
		return Command{}, false
	}
	cmd := Command{JobID: parts[1]}
	switch parts[2] {
	case "s":
		if len(parts) != 5 || parts[3] == "" || parts[4] == "" {
			return Command{}, false
		}
		cmd.Kind = KindSelect
		cmd.VariantKey = parts[3]
		cmd.Slot = parts[4]
	case "g":
		if len(parts) != 4 || parts[3] == "" {
			return Command{}, false
		}
		cmd.Kind = KindRegenerate
		cmd.VariantKey = parts[3]
	case "r":
		if len(parts) != 3 {
			return Command{}, false
		}
		cmd.Kind = KindRenderAll
	case "x":
		if len(parts) != 3 {
			return Command{}, false
		}
		cmd.Kind = KindCancel
	case "a":
		if len(parts) != 3 {
			return Command{}, false
		}
		cmd.Kind = KindReanalyze
	default:
		return Command{}, false
	}
	return cmd, true
}
