// Package preprocess implements the token-stream rewriting preprocessor:
// inclusion, symbol substitution, parameterised macros with typed
// returns, and the #ifdef/#ifequ-family conditional directives.
//
// License: GPLv3 or later
package preprocess

import (
	"github.com/pkg/errors"

	"github.com/otterwise/coreforge32/token"
)

// Stream holds a mutable token list and a cursor into it. It is the Go
// shape of the cursor discipline the preprocessor's main loop and every
// directive handler share: peek/consume/consume-expecting/skip-while,
// plus splice/delete so a handler can rewrite the stream ahead of or
// behind the cursor without the caller re-indexing by hand.
type Stream struct {
	toks []token.Token
	pos  int
}

// NewStream wraps an already-tokenized list. The slice is owned by the
// Stream from this point on; callers should not mutate it directly.
func NewStream(toks []token.Token) *Stream {
	return &Stream{toks: toks}
}

func (s *Stream) Len() int   { return len(s.toks) }
func (s *Stream) Pos() int   { return s.pos }
func (s *Stream) AtEnd() bool { return s.pos >= len(s.toks) }

// SetPos repositions the cursor directly; used by the conditional
// resolver to jump to a chained alternate or the closing #endif.
func (s *Stream) SetPos(pos int) { s.pos = pos }

// Peek returns the token `offset` places ahead of the cursor without
// consuming it. ok is false past the end of the stream.
func (s *Stream) Peek(offset int) (token.Token, bool) {
	i := s.pos + offset
	if i < 0 || i >= len(s.toks) {
		return token.Token{}, false
	}
	return s.toks[i], true
}

// Consume returns the token at the cursor and advances past it.
// Consuming past end-of-stream is a fatal diagnostic, per the cursor
// discipline every directive handler relies on.
func (s *Stream) Consume() (token.Token, error) {
	if s.AtEnd() {
		return token.Token{}, newDiag(UnexpectedEOF, "consume past end of stream")
	}
	t := s.toks[s.pos]
	s.pos++
	return t, nil
}

// ConsumeExpecting consumes the current token only if its kind is one
// of kinds, else raises UNEXPECTED_TOKEN (or UNEXPECTED_EOF at end of
// stream).
func (s *Stream) ConsumeExpecting(kinds ...token.Kind) (token.Token, error) {
	if s.AtEnd() {
		return token.Token{}, newDiag(UnexpectedEOF, "expected one of %v, found end of stream", kinds)
	}
	t := s.toks[s.pos]
	for _, k := range kinds {
		if t.Kind == k {
			s.pos++
			return t, nil
		}
	}
	return token.Token{}, newDiag(UnexpectedToken, "expected one of %v, found %v", kinds, t.Kind)
}

// IsToken reports whether the current token's kind is one of kinds.
// Past the end of the stream it reports false.
func (s *Stream) IsToken(kinds ...token.Kind) bool {
	t, ok := s.Peek(0)
	if !ok {
		return false
	}
	for _, k := range kinds {
		if t.Kind == k {
			return true
		}
	}
	return false
}

// SkipWhile advances the cursor over a run of tokens whose kind is one
// of kinds, stopping at the first token that doesn't match (or at
// end-of-stream).
func (s *Stream) SkipWhile(kinds ...token.Kind) {
	for s.IsToken(kinds...) {
		s.pos++
	}
}

// SkipInlineWhitespace skips space and tab, but not newline, matching
// every directive handler's "advance past inline whitespace" step.
func (s *Stream) SkipInlineWhitespace() {
	s.SkipWhile(token.WhitespaceSpace, token.WhitespaceTab)
}

// Splice inserts toks at the cursor, shifting the cursor's logical
// position to remain immediately before the first spliced token so
// the inserted tokens are the next ones the main loop sees.
func (s *Stream) Splice(toks []token.Token) {
	s.InsertAt(s.pos, toks)
}

// InsertAt inserts toks at index i in the underlying slice without
// touching the cursor's absolute index (callers that insert ahead of
// the cursor must account for the shift themselves).
func (s *Stream) InsertAt(i int, toks []token.Token) {
	if len(toks) == 0 {
		return
	}
	grown := make([]token.Token, 0, len(s.toks)+len(toks))
	grown = append(grown, s.toks[:i]...)
	grown = append(grown, toks...)
	grown = append(grown, s.toks[i:]...)
	s.toks = grown
}

// DeleteRange removes tokens in [from, to) from the underlying slice.
func (s *Stream) DeleteRange(from, to int) error {
	if from < 0 || to > len(s.toks) || from > to {
		return errors.Errorf("invalid delete range [%d, %d) over %d tokens", from, to, len(s.toks))
	}
	s.toks = append(s.toks[:from], s.toks[to:]...)
	return nil
}

// TokenAt returns the token at absolute index i, used by handlers that
// scan ahead of the cursor (the conditional resolver, #macret's
// scope-depth scan) before deciding how to rewrite the stream.
func (s *Stream) TokenAt(i int) (token.Token, bool) {
	if i < 0 || i >= len(s.toks) {
		return token.Token{}, false
	}
	return s.toks[i], true
}
