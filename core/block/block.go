// Package block models formatted message text as a recursive tree of
// formatting nodes with a derived plain-text projection.
//
// A Block is either a leaf carrying literal text (Text, InlineCode,
// FencedCode, Timestamp) or a container wrapping an ordered sequence of
// child blocks (Bold, Italics, List, Link, ...). Every node carries Plain,
// the deterministic flattening of its subtree, recomputed by the
// constructors so it always equals Flatten of the node.
//
// Trees are built through the constructors and treated as immutable
// afterwards; backends that only understand plain text can use Hydrate to
// lift a string into the model without loss.
package block

import "strings"

// Kind discriminates the block union.
type Kind string

const (
	KindText          Kind = "text"
	KindInlineCode    Kind = "inline_code"
	KindFencedCode    Kind = "fenced_code"
	KindTimestamp     Kind = "timestamp"
	KindItalics       Kind = "italics"
	KindBold          Kind = "bold"
	KindUnderline     Kind = "underline"
	KindStrikethrough Kind = "strikethrough"
	KindSpoiler       Kind = "spoiler"
	KindList          Kind = "list"
	KindLink          Kind = "link"
	KindBlockquote    Kind = "blockquote"
	KindContainer     Kind = "container"
	KindHeading       Kind = "heading"
)

// leaf reports whether blocks of this kind carry literal text instead of
// children.
func (k Kind) leaf() bool {
	switch k {
	case KindText, KindInlineCode, KindFencedCode, KindTimestamp:
		return true
	}
	return false
}

// Valid reports whether k is a recognized block kind.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindInlineCode, KindFencedCode, KindTimestamp,
		KindItalics, KindBold, KindUnderline, KindStrikethrough,
		KindSpoiler, KindList, KindLink, KindBlockquote,
		KindContainer, KindHeading:
		return true
	}
	return false
}

// Block is one node of the formatting tree. Leaf kinds use Text; container
// kinds use Children plus the kind-specific URL (Link) or Level (Heading).
type Block struct {
	Kind     Kind     `json:"kind"`
	Text     string   `json:"text,omitempty"`
	URL      string   `json:"url,omitempty"`
	Level    int      `json:"level,omitempty"`
	Children []*Block `json:"children,omitempty"`
	Plain    string   `json:"plain"`
}

// Text creates a literal text leaf.
func Text(text string) *Block {
	return &Block{Kind: KindText, Text: text, Plain: text}
}

// InlineCode creates an inline code span leaf.
func InlineCode(text string) *Block {
	return &Block{Kind: KindInlineCode, Text: text, Plain: text}
}

// FencedCode creates a fenced code block leaf.
func FencedCode(text string) *Block {
	return &Block{Kind: KindFencedCode, Text: text, Plain: text}
}

// Timestamp creates a timestamp leaf holding a pre-rendered time string.
func Timestamp(text string) *Block {
	return &Block{Kind: KindTimestamp, Text: text, Plain: text}
}

// Hydrate lifts plain text into the model as a single text leaf whose Plain
// equals text exactly.
func Hydrate(text string) *Block {
	return Text(text)
}

// Italics wraps children in italics.
func Italics(children ...*Block) *Block { return container(KindItalics, children) }

// Bold wraps children in bold.
func Bold(children ...*Block) *Block { return container(KindBold, children) }

// Underline wraps children in an underline span.
func Underline(children ...*Block) *Block { return container(KindUnderline, children) }

// Strikethrough wraps children in a strikethrough span.
func Strikethrough(children ...*Block) *Block { return container(KindStrikethrough, children) }

// Spoiler wraps children in a spoiler that clients render collapsed.
func Spoiler(children ...*Block) *Block { return container(KindSpoiler, children) }

// Blockquote wraps children in a quotation.
func Blockquote(children ...*Block) *Block { return container(KindBlockquote, children) }

// Container groups children with no formatting of its own.
func Container(children ...*Block) *Block { return container(KindContainer, children) }

// List creates an ordered sequence of items. Flattening joins the items
// with single newlines.
func List(items ...*Block) *Block { return container(KindList, items) }

// Link wraps children in a hyperlink to url.
func Link(url string, children ...*Block) *Block {
	b := container(KindLink, children)
	b.URL = url
	return b
}

// Heading wraps children in a heading of the given level.
func Heading(level int, children ...*Block) *Block {
	b := container(KindHeading, children)
	b.Level = level
	return b
}

func container(kind Kind, children []*Block) *Block {
	b := &Block{Kind: kind, Children: children}
	b.Plain = Flatten(b)
	return b
}

// Flatten computes the plain-text projection of a tree: leaves contribute
// their literal text, containers concatenate their children in order, and
// List additionally separates items with a single newline. The result is
// pure and stable across calls.
func Flatten(b *Block) string {
	if b == nil {
		return ""
	}
	if b.Kind.leaf() {
		return b.Text
	}

	var sb strings.Builder
	for i, child := range b.Children {
		if b.Kind == KindList && i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(Flatten(child))
	}
	return sb.String()
}

// Rehydrate recomputes Plain for every node of the tree in place. Callers
// that mutate a tree after construction must call it before the tree is
// flattened or sent on the wire.
func Rehydrate(b *Block) {
	if b == nil {
		return
	}
	for _, child := range b.Children {
		Rehydrate(child)
	}
	b.Plain = Flatten(b)
}
