package preprocess

import (
	"io"
	"strings"

	"github.com/otterwise/coreforge32/token"
)

// State is the outcome a Run reports, mirroring the two terminal
// states the main loop can reach: every fatal diagnostic aborts into
// ProcessedFail, and reaching end-of-stream cleanly is ProcessedSuccess.
type State int

const (
	ProcessedSuccess State = iota
	ProcessedFail
)

func (s State) String() string {
	if s == ProcessedSuccess {
		return "PROCESSED_SUCCESS"
	}
	return "PROCESSED_FAIL"
}

// Preprocessor owns one token stream and the output sink it is
// rewriting that stream into, plus the symbol table, macro table, and
// invocation stack shared by every directive handler. It processes
// exactly one top-level file; #include does not spawn a second
// Preprocessor, it splices the included file's tokens directly into
// this one's stream (see handleInclude).
type Preprocessor struct {
	stream      *Stream
	symbols     *SymbolTable
	macros      *MacroTable
	invocations InvocationStack
	sink        io.Writer
	includes    IncludeResolver
	baseDir     string

	atLineStart   bool
	targetIndent  int
}

// NewPreprocessor constructs a preprocessor over an already-tokenized
// source, ready to write its rewritten form to sink. baseDir is the
// directory quote-form #include resolves against for this file.
func NewPreprocessor(toks []token.Token, sink io.Writer, includes IncludeResolver, baseDir string) *Preprocessor {
	return &Preprocessor{
		stream:      NewStream(toks),
		symbols:     NewSymbolTable(),
		macros:      NewMacroTable(),
		sink:        sink,
		includes:    includes,
		baseDir:     baseDir,
		atLineStart: true,
	}
}

// Run performs the main loop to completion or to the first fatal
// diagnostic. The output sink is always considered released when Run
// returns, successfully or not, matching the scoped-acquisition rule:
// callers should not write to it again afterwards.
func (p *Preprocessor) Run() (State, error) {
	for !p.stream.AtEnd() {
		if err := p.step(); err != nil {
			return ProcessedFail, err
		}
	}
	if !p.invocations.Empty() {
		return ProcessedFail, newDiag(UnclosedScope, "invocation stack non-empty at end of stream")
	}
	return ProcessedSuccess, nil
}

func (p *Preprocessor) emit(text string) error {
	_, err := io.WriteString(p.sink, text)
	return err
}

// step processes exactly one token's worth of main-loop work: blank
// line collapsing, indent bookkeeping, directive dispatch, symbol
// substitution, or plain emission, per the main loop's five rules.
func (p *Preprocessor) step() error {
	tok, ok := p.stream.Peek(0)
	if !ok {
		return nil
	}

	if tok.Kind == token.CommentSingleLine && strings.HasPrefix(tok.Text, includePopMarker) {
		p.baseDir = strings.TrimPrefix(tok.Text, includePopMarker)
		_, err := p.stream.Consume()
		return err
	}

	if p.atLineStart && tok.Kind == token.WhitespaceNewline {
		_, err := p.stream.Consume()
		return err
	}

	// current_indent is the count of leading tabs the source itself
	// already has on this line (spec.md's main-loop rule #2). Those
	// tabs are passed through verbatim rather than discarded, matching
	// the original preprocessor's currentIndentLevel tracking; only the
	// shortfall against targetIndent, if any, is padded afterward.
	if p.atLineStart && (tok.Kind == token.WhitespaceSpace || tok.Kind == token.WhitespaceTab) {
		currentIndent := 0
		for {
			t, ok := p.stream.Peek(0)
			if !ok || (t.Kind != token.WhitespaceSpace && t.Kind != token.WhitespaceTab) {
				break
			}
			if t.Kind == token.WhitespaceTab {
				currentIndent++
			}
			if err := p.emit(t.Text); err != nil {
				return err
			}
			if _, err := p.stream.Consume(); err != nil {
				return err
			}
		}

		next, ok := p.stream.Peek(0)
		target := p.targetIndent
		if ok && next.Kind == token.AsmScend {
			target--
		}
		if shortfall := target - currentIndent; shortfall > 0 {
			if err := p.emit(strings.Repeat("\t", shortfall)); err != nil {
				return err
			}
		}
		p.atLineStart = false
		if ok && next.Kind == token.AsmScend {
			p.targetIndent--
		}
		return nil
	}

	if tok.Kind == token.WhitespaceNewline {
		if err := p.emit("\n"); err != nil {
			return err
		}
		p.atLineStart = true
		_, err := p.stream.Consume()
		return err
	}

	if p.atLineStart {
		indent := p.targetIndent
		if tok.Kind == token.AsmScend {
			indent--
		}
		if indent < 0 {
			indent = 0
		}
		if err := p.emit(strings.Repeat("\t", indent)); err != nil {
			return err
		}
		p.atLineStart = false
		if tok.Kind == token.AsmScend {
			p.targetIndent--
		}
	}

	if tok.Kind.IsDirective() {
		h, ok := dispatch[tok.Kind]
		if !ok {
			return newDiag(UnexpectedToken, "no handler registered for directive %v", tok.Kind)
		}
		return h(p)
	}

	if tok.Kind == token.Symbol {
		if repl, ok := p.symbols.Lookup(tok.Text); ok {
			if _, err := p.stream.Consume(); err != nil {
				return err
			}
			p.stream.Splice(repl)
			return nil
		}
	}

	if tok.Kind == token.AsmScope {
		if err := p.emit(tok.Text); err != nil {
			return err
		}
		p.targetIndent++
		_, err := p.stream.Consume()
		return err
	}

	if err := p.emit(tok.Text); err != nil {
		return err
	}
	_, err := p.stream.Consume()
	return err
}
