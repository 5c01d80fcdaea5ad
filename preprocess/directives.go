package preprocess

import (
	"github.com/otterwise/coreforge32/token"
)

// handler is the shape every directive entry point has: it begins by
// consuming its own directive token, does whatever stream surgery it
// needs, and returns a fatal diagnostic on failure.
type handler func(p *Preprocessor) error

var dispatch map[token.Kind]handler

func init() {
	dispatch = map[token.Kind]handler{
		token.DirInclude: handleInclude,
		token.DirDefine:  handleDefine,
		token.DirUndef:   handleUndef,
		token.DirMacro:   handleMacro,
		token.DirMacret:  handleMacret,
		token.DirInvoke:  handleInvoke,
		token.DirEndif:   handleBareEndif,

		token.DirIfdef:  handleConditionalOpener,
		token.DirIfndef: handleConditionalOpener,
		token.DirIfequ:  handleConditionalOpener,
		token.DirIfnequ: handleConditionalOpener,
		token.DirIfless: handleConditionalOpener,
		token.DirIfmore: handleConditionalOpener,

		token.DirElse:     handleConditionalOpener,
		token.DirElsedef:  handleConditionalOpener,
		token.DirElsendef: handleConditionalOpener,
		token.DirElseequ:  handleConditionalOpener,
		token.DirElsenequ: handleConditionalOpener,
		token.DirElseless: handleConditionalOpener,
		token.DirElsemore: handleConditionalOpener,
	}
}

// handleBareEndif consumes a #endif reached directly (the "no
// alternate matched" path of the conditional resolver lands the
// cursor here); it produces no output.
func handleBareEndif(p *Preprocessor) error {
	_, err := p.stream.Consume()
	return err
}

// consumeTokensUntilNewline captures every token up to (not including)
// the next newline, used by #define and #macret's return expression.
func consumeTokensUntilNewline(p *Preprocessor) ([]token.Token, error) {
	var out []token.Token
	for {
		if p.stream.AtEnd() {
			return nil, newDiag(UnexpectedEOF, "expected newline before end of stream")
		}
		if p.stream.IsToken(token.WhitespaceNewline) {
			return out, nil
		}
		t, err := p.stream.Consume()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
}

// handleInclude tokenizes the target file and splices its entire raw
// token list in at the cursor. Inclusion is purely lexical: the
// included tokens become the next tokens the main loop sees, so any
// directives they contain run through the same dispatch the including
// file's own tokens do, sharing its symbol table, macro table, and
// invocation stack. No separate output is produced for the include.
func handleInclude(p *Preprocessor) error {
	if _, err := p.stream.Consume(); err != nil {
		return err
	}
	p.stream.SkipInlineWhitespace()

	tok, ok := p.stream.Peek(0)
	if !ok {
		return newDiag(UnexpectedEOF, "#include expects a path")
	}

	var data []byte
	var dir string
	var err error
	switch tok.Kind {
	case token.LiteralString:
		if _, err := p.stream.Consume(); err != nil {
			return err
		}
		path := stripQuotes(tok.Text)
		data, dir, err = p.includes.ResolveQuote(p.baseDir, path)
	case token.OpLess:
		path, err2 := p.consumeAngleIncludePath()
		if err2 != nil {
			return err2
		}
		data, dir, err = p.includes.ResolveAngle(path)
	default:
		return newDiag(UnexpectedToken, "#include expects a quoted or angle-bracketed path, found %v", tok.Kind)
	}
	if err != nil {
		return err
	}

	included, err := token.Tokenize(data)
	if err != nil {
		return newDiag(UnexpectedToken, "tokenizing included file: %v", err)
	}

	previousBaseDir := p.baseDir
	p.baseDir = dir
	combined := make([]token.Token, 0, len(included)+1)
	combined = append(combined, included...)
	combined = append(combined, restoreBaseDirToken(previousBaseDir))
	p.stream.Splice(combined)
	return nil
}

// restoreBaseDirToken rides along at the tail of an include's spliced
// token list so that once the main loop has walked past the included
// content — including any nested includes it performed, which push
// and pop their own markers around their own content — quote-form
// resolution for the remainder of the including file goes back to
// resolving against dir rather than the file that was just included.
// It is never emitted; the main loop intercepts it before dispatch.
const includePopMarker = "\x00coreforge32-include-pop\x00"

func restoreBaseDirToken(dir string) token.Token {
	return token.New(token.CommentSingleLine, includePopMarker+dir)
}

// consumeAngleIncludePath reads the '<path>' form of #include, whose
// contents were tokenized as an OpLess, a run of Symbol/Text/operator
// tokens, and an OpGreater, since '<' and '>' are ordinary operators
// to the tokenizer and the path is reassembled from their text.
func (p *Preprocessor) consumeAngleIncludePath() (string, error) {
	if _, err := p.stream.ConsumeExpecting(token.OpLess); err != nil {
		return "", err
	}
	var path string
	for {
		if p.stream.IsToken(token.OpGreater) {
			if _, err := p.stream.Consume(); err != nil {
				return "", err
			}
			return path, nil
		}
		t, err := p.stream.Consume()
		if err != nil {
			return "", newDiag(UnexpectedEOF, "unterminated #include <path>")
		}
		path += t.Text
	}
}

func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func handleDefine(p *Preprocessor) error {
	if _, err := p.stream.Consume(); err != nil {
		return err
	}
	p.stream.SkipInlineWhitespace()
	name, err := p.stream.ConsumeExpecting(token.Symbol)
	if err != nil {
		return err
	}
	p.stream.SkipInlineWhitespace()
	repl, err := consumeTokensUntilNewline(p)
	if err != nil {
		return err
	}
	p.symbols.Define(name.Text, repl)
	return nil
}

func handleUndef(p *Preprocessor) error {
	if _, err := p.stream.Consume(); err != nil {
		return err
	}
	p.stream.SkipInlineWhitespace()
	name, err := p.stream.ConsumeExpecting(token.Symbol)
	if err != nil {
		return err
	}
	p.symbols.Undef(name.Text)
	return nil
}

// parseTypeTag consumes an optional ": TYPE" suffix, returning nil if
// there is no colon at the current cursor.
func parseTypeTag(p *Preprocessor) (*token.Token, error) {
	p.stream.SkipInlineWhitespace()
	if !p.stream.IsToken(token.Colon) {
		return nil, nil
	}
	if _, err := p.stream.Consume(); err != nil {
		return nil, err
	}
	p.stream.SkipInlineWhitespace()
	tok, ok := p.stream.Peek(0)
	if !ok || !tok.Kind.IsTypeTag() {
		return nil, newDiag(UnexpectedToken, "expected a type tag after ':'")
	}
	if _, err := p.stream.Consume(); err != nil {
		return nil, err
	}
	return &tok, nil
}

func handleMacro(p *Preprocessor) error {
	if _, err := p.stream.Consume(); err != nil {
		return err
	}
	p.stream.SkipInlineWhitespace()
	name, err := p.stream.ConsumeExpecting(token.Symbol)
	if err != nil {
		return err
	}
	p.stream.SkipInlineWhitespace()
	if _, err := p.stream.ConsumeExpecting(token.OpenParen); err != nil {
		return err
	}

	var params []Param
	for {
		p.stream.SkipInlineWhitespace()
		if p.stream.IsToken(token.CloseParen) {
			break
		}
		if len(params) > 0 {
			if _, err := p.stream.ConsumeExpecting(token.Comma); err != nil {
				return err
			}
			p.stream.SkipInlineWhitespace()
		}
		pname, err := p.stream.ConsumeExpecting(token.Symbol)
		if err != nil {
			return err
		}
		ptype, err := parseTypeTag(p)
		if err != nil {
			return err
		}
		params = append(params, Param{Name: pname.Text, Type: ptype})
	}
	if _, err := p.stream.ConsumeExpecting(token.CloseParen); err != nil {
		return err
	}

	retType, err := parseTypeTag(p)
	if err != nil {
		return err
	}

	p.stream.SkipInlineWhitespace()
	if p.stream.IsToken(token.WhitespaceNewline) {
		if _, err := p.stream.Consume(); err != nil {
			return err
		}
	}

	body, err := collectMacroBody(p)
	if err != nil {
		return err
	}

	m := &Macro{Name: name.Text, Params: params, ReturnType: retType, Body: body}
	return p.macros.Define(m)
}

// collectMacroBody captures tokens up to the matching #macend,
// tracking nested #macro/#macend pairs by depth so a macro body may
// itself contain a (trivial, self-contained) nested definition.
func collectMacroBody(p *Preprocessor) ([]token.Token, error) {
	var body []token.Token
	depth := 0
	for {
		if p.stream.AtEnd() {
			return nil, newDiag(UnexpectedEOF, "unterminated #macro body, expected #macend")
		}
		tok, _ := p.stream.Peek(0)
		if tok.Kind == token.DirMacro {
			depth++
		} else if tok.Kind == token.DirMacend {
			if depth == 0 {
				if _, err := p.stream.Consume(); err != nil {
					return nil, err
				}
				return body, nil
			}
			depth--
		}
		t, err := p.stream.Consume()
		if err != nil {
			return nil, err
		}
		body = append(body, t)
	}
}

// parseInvokeArgs collects the comma-separated argument token runs
// between the already-consumed '(' and its matching ')', tracking
// parenthesis depth so an argument may itself contain a call, and
// dropping bare newlines since they are permitted inside the argument
// list but carry no meaning there.
func parseInvokeArgs(p *Preprocessor) ([][]token.Token, error) {
	var args [][]token.Token
	var cur []token.Token
	depth := 0

	p.stream.SkipInlineWhitespace()
	if p.stream.IsToken(token.CloseParen) {
		if _, err := p.stream.Consume(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	for {
		if p.stream.AtEnd() {
			return nil, newDiag(UnexpectedEOF, "unterminated #invoke argument list")
		}
		tok, _ := p.stream.Peek(0)
		if tok.Kind == token.WhitespaceNewline {
			if _, err := p.stream.Consume(); err != nil {
				return nil, err
			}
			continue
		}
		if tok.Kind == token.OpenParen {
			depth++
		} else if tok.Kind == token.CloseParen {
			if depth == 0 {
				if _, err := p.stream.Consume(); err != nil {
					return nil, err
				}
				args = append(args, cur)
				return args, nil
			}
			depth--
		} else if tok.Kind == token.Comma && depth == 0 {
			if _, err := p.stream.Consume(); err != nil {
				return nil, err
			}
			args = append(args, cur)
			cur = nil
			continue
		}
		t, err := p.stream.Consume()
		if err != nil {
			return nil, err
		}
		cur = append(cur, t)
	}
}

func handleInvoke(p *Preprocessor) error {
	if _, err := p.stream.Consume(); err != nil {
		return err
	}
	p.stream.SkipInlineWhitespace()
	name, err := p.stream.ConsumeExpecting(token.Symbol)
	if err != nil {
		return err
	}
	p.stream.SkipInlineWhitespace()
	if _, err := p.stream.ConsumeExpecting(token.OpenParen); err != nil {
		return err
	}
	args, err := parseInvokeArgs(p)
	if err != nil {
		return err
	}

	p.stream.SkipInlineWhitespace()
	hasOut := false
	var outName string
	if p.stream.IsToken(token.Symbol) {
		hasOut = true
		t, err := p.stream.Consume()
		if err != nil {
			return err
		}
		outName = t.Text
	}

	macro, err := p.macros.Resolve(name.Text, len(args))
	if err != nil {
		return err
	}

	var expansion []token.Token
	if hasOut && macro.ReturnType != nil {
		expansion = append(expansion, buildEqu(outName, []token.Token{token.New(token.NumberDecimal, "0")}, macro.ReturnType)...)
	}
	expansion = append(expansion, token.New(token.AsmScope, ".scope"), token.New(token.WhitespaceNewline, "\n"))
	for i, param := range macro.Params {
		expansion = append(expansion, buildEqu(param.Name, args[i], param.Type)...)
	}
	expansion = append(expansion, macro.Body...)
	expansion = append(expansion, token.New(token.WhitespaceNewline, "\n"), token.New(token.AsmScend, ".scend"))

	p.stream.Splice(expansion)

	returnSymbol := outName
	p.invocations.Push(Frame{ReturnSymbol: returnSymbol, HasReturn: hasOut && macro.ReturnType != nil, Macro: macro})
	return nil
}

// buildEqu synthesises the ".equ NAME value[: TYPE]\n" bookkeeping
// line the invoker and #macret insert around macro expansion, as
// plain tokens rather than text re-run through the tokenizer.
func buildEqu(name string, value []token.Token, typ *token.Token) []token.Token {
	out := []token.Token{
		token.New(token.Text, ".equ"),
		token.New(token.WhitespaceSpace, " "),
		token.New(token.Symbol, name),
		token.New(token.WhitespaceSpace, " "),
	}
	out = append(out, value...)
	if typ != nil {
		out = append(out,
			token.New(token.WhitespaceSpace, " "),
			token.New(token.Colon, ":"),
			token.New(token.WhitespaceSpace, " "),
			*typ,
		)
	}
	out = append(out, token.New(token.WhitespaceNewline, "\n"))
	return out
}

func handleMacret(p *Preprocessor) error {
	if _, err := p.stream.Consume(); err != nil {
		return err
	}
	frame, ok := p.invocations.Top()
	if !ok {
		return newDiag(StrayMacret, "macret with no active invocation")
	}

	p.stream.SkipInlineWhitespace()
	var expr []token.Token
	if frame.HasReturn {
		var err error
		expr, err = consumeTokensUntilNewline(p)
		if err != nil {
			return err
		}
	}

	if err := fastForwardToScopeClose(p); err != nil {
		return err
	}

	if frame.HasReturn {
		p.stream.Splice(buildEqu(frame.ReturnSymbol, expr, frame.Macro.ReturnType))
	}

	if _, err := p.invocations.Pop(); err != nil {
		return err
	}
	return nil
}

// fastForwardToScopeClose scans forward from the cursor tracking
// .scope as +1 and .scend as -1 starting at zero, consuming tokens
// (without keeping them — they are the macro body's tail, already
// processed or about to be skipped) until depth returns to zero, i.e.
// past the .scend the invoker inserted to close this invocation's
// scope.
func fastForwardToScopeClose(p *Preprocessor) error {
	depth := 0
	for {
		if p.stream.AtEnd() {
			return newDiag(UnclosedScope, "macret could not find matching .scend")
		}
		tok, _ := p.stream.Peek(0)
		switch tok.Kind {
		case token.AsmScope:
			depth++
		case token.AsmScend:
			if depth == 0 {
				if _, err := p.stream.Consume(); err != nil {
					return err
				}
				// This .scend was never walked through the main
				// loop's own indent bookkeeping (its step() never
				// saw it), so mirror what that bookkeeping would
				// have done: drop the indent level the matching
				// .scope raised and start the next line fresh.
				p.targetIndent--
				p.atLineStart = true
				return nil
			}
			depth--
		}
		if _, err := p.stream.Consume(); err != nil {
			return err
		}
	}
}
