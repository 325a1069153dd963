package browser

import (
	"fmt"
	"strings"
)

// Kind selects how a Target is located on the page.
type Kind int

const (
	KindCSS Kind = iota
	KindPlaceholder
	KindLabel
	KindRole
	KindText
)

// Target describes an element the way a user perceives it: by label,
// placeholder, ARIA role and accessible name, visible text or CSS.
type Target struct {
	Kind    Kind
	Value   string
	Role    string
	Exact   bool
	HasText string
	Index   int
	Parent  *Target

	indexed bool
}

// CSS targets elements matching selector.
func CSS(selector string) Target { return Target{Kind: KindCSS, Value: selector} }

// Placeholder targets an input by its placeholder text.
func Placeholder(text string) Target { return Target{Kind: KindPlaceholder, Value: text} }

// Label targets a form control by its associated label (substring match).
func Label(text string) Target { return Target{Kind: KindLabel, Value: text} }

// ExactLabel targets a form control whose label equals text.
func ExactLabel(text string) Target { return Target{Kind: KindLabel, Value: text, Exact: true} }

// Role targets an element by ARIA role and, when name is set, accessible name.
func Role(role, name string) Target { return Target{Kind: KindRole, Role: role, Value: name} }

// Text targets an element by its visible text.
func Text(text string, exact bool) Target { return Target{Kind: KindText, Value: text, Exact: exact} }

// WithText narrows the target to elements containing text somewhere inside.
func (t Target) WithText(text string) Target {
	t.HasText = text
	return t
}

// Nth picks the zero-based i-th match.
func (t Target) Nth(i int) Target {
	t.Index = i
	t.indexed = true
	return t
}

// Indexed reports whether Nth was applied.
func (t Target) Indexed() bool { return t.indexed }

// Within scopes child to matches of t.
func (t Target) Within(child Target) Target {
	parent := t
	child.Parent = &parent
	return child
}

// String renders the target in a selector-like form for logs and errors.
func (t Target) String() string {
	var b strings.Builder
	if t.Parent != nil {
		b.WriteString(t.Parent.String())
		b.WriteString(" >> ")
	}
	switch t.Kind {
	case KindPlaceholder:
		fmt.Fprintf(&b, "placeholder=%q", t.Value)
	case KindLabel:
		fmt.Fprintf(&b, "label=%q", t.Value)
	case KindRole:
		b.WriteString("role=" + t.Role)
		if t.Value != "" {
			fmt.Fprintf(&b, "[name=%q]", t.Value)
		}
	case KindText:
		fmt.Fprintf(&b, "text=%q", t.Value)
	default:
		b.WriteString(t.Value)
	}
	if t.Exact {
		b.WriteString("[exact]")
	}
	if t.HasText != "" {
		fmt.Fprintf(&b, ":has-text(%q)", t.HasText)
	}
	if t.indexed {
		fmt.Fprintf(&b, " >> nth=%d", t.Index)
	}
	return b.String()
}
