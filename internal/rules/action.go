package rules

import "strings"

// Kind enumerates the dispatch actions a rule can request.
type Kind int

const (
	KindUnsupported Kind = iota
	KindCopy
	KindMove
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindCopy:
		return "copy"
	case KindMove:
		return "move"
	case KindDelete:
		return "delete"
	default:
		return "unsupported"
	}
}

// Action is the configured action of a rule. Raw keeps the value as it was
// written in the directories file so unsupported actions can be reported.
type Action struct {
	Kind Kind
	Raw  string
}

// ParseAction never fails: anything other than copy, move or delete becomes
// KindUnsupported.
func ParseAction(raw string) Action {
	raw = strings.TrimSpace(raw)

	a := Action{Kind: KindUnsupported, Raw: raw}
	switch raw {
	case "copy":
		a.Kind = KindCopy
	case "move":
		a.Kind = KindMove
	case "delete":
		a.Kind = KindDelete
	}
	return a
}

func (a Action) Supported() bool {
	return a.Kind != KindUnsupported
}

func (a Action) String() string {
	if a.Kind == KindUnsupported {
		return a.Raw
	}
	return a.Kind.String()
}
