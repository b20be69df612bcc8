package domain

import (
	"fmt"
	"strings"
)

// Kind tags a node of the document tree.
// The set is closed: every constructor switches over it exhaustively.
type Kind uint8

const (
	// KindInvalid is the zero value and never names a real node.
	KindInvalid Kind = iota
	// KindRoot is the container node owned by a session. It is never part of a description.
	KindRoot
	// KindDocument is the only valid root of a description.
	KindDocument
	// KindPage starts a new sequence of physical pages.
	KindPage
	// KindView is a block box grouping other nodes.
	KindView
	// KindText is a run of text, optionally holding nested spans.
	KindText
	// KindLink is text pointing to an external URI.
	KindLink
	// KindNote is a sticky-note annotation.
	KindNote
	// KindImage embeds a raster image.
	KindImage
	// KindCanvas is a box painted by a user callback.
	KindCanvas
)

var kindNames = [...]string{
	KindInvalid:  "INVALID",
	KindRoot:     "ROOT",
	KindDocument: "DOCUMENT",
	KindPage:     "PAGE",
	KindView:     "VIEW",
	KindText:     "TEXT",
	KindLink:     "LINK",
	KindNote:     "NOTE",
	KindImage:    "IMAGE",
	KindCanvas:   "CANVAS",
}

// String returns the upper-case tag name (e.g. "PAGE").
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Valid reports whether k belongs to the closed set of node kinds.
func (k Kind) Valid() bool {
	return k > KindInvalid && k <= KindCanvas
}

// ParseKind resolves a tag name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for k := KindRoot; k <= KindCanvas; k++ {
		if kindNames[k] == name {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown node kind %q", s)
}

// MarshalText encodes the kind by name so descriptions stay readable in JSON, YAML and CBOR.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid node kind %d", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// IsTextual reports whether nodes of this kind carry inline text.
func (k Kind) IsTextual() bool {
	return k == KindText || k == KindLink || k == KindNote
}

// IsLeaf reports whether nodes of this kind never hold children.
func (k Kind) IsLeaf() bool {
	switch k {
	case KindNote, KindImage, KindCanvas:
		return true
	default:
		return false
	}
}

// CanContain reports whether a child of kind child may be placed under a parent of kind k.
func (k Kind) CanContain(child Kind) bool {
	switch k {
	case KindRoot:
		return child == KindDocument
	case KindDocument:
		return child == KindPage
	case KindPage, KindView:
		switch child {
		case KindView, KindText, KindLink, KindNote, KindImage, KindCanvas:
			return true
		}
		return false
	case KindText, KindLink:
		return child == KindText || child == KindLink
	case KindNote, KindImage, KindCanvas:
		return false
	default:
		return false
	}
}
