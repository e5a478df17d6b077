// Package handle defines the structural targeting data model: byte spans
// over a file's current bytes, and the immutable SelectionHandle a
// structure provider produces for each node it recognizes.
package handle

import (
	"fmt"

	"github.com/isty2e/identedit/internal/contenthash"
)

// Span is a half-open byte range [Start, End) over a file's current bytes.
// Spans are always byte offsets, never character offsets, and never cross a
// file boundary.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Valid reports whether the span satisfies Start <= End <= fileLen.
func (s Span) Valid(fileLen int) bool {
	return s.Start >= 0 && s.Start <= s.End && s.End <= fileLen
}

func (s Span) Len() int { return s.End - s.Start }

// SelectionHandle is an immutable record identifying a node by its file,
// byte span, grammar kind, optional symbol name, content-derived identity,
// and expected-old-hash precondition. It describes the file at the instant
// it was read; a handle is never mutated or cached across a writer.
type SelectionHandle struct {
	File            string
	Span            Span
	Kind            string
	Name            string // empty if the node has no symbol name
	Text            string
	Identity        string
	ExpectedOldHash string
}

// FromParts builds a handle, deriving Identity from (kind, name, text) and
// ExpectedOldHash from text, exactly as spec'd: two siblings with identical
// kind/name/text collide on Identity by design and are disambiguated later
// by span hint + expected-old-hash.
func FromParts(file string, span Span, kind string, name string, text string) SelectionHandle {
	identitySeed := fmt.Sprintf("%s\x00%s\x00%s", kind, name, text)
	return SelectionHandle{
		File:            file,
		Span:            span,
		Kind:            kind,
		Name:            name,
		Text:            text,
		Identity:        contenthash.IdentityHash([]byte(identitySeed)),
		ExpectedOldHash: contenthash.IdentityHash([]byte(text)),
	}
}
