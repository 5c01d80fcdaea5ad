package preprocess

import (
	"github.com/otterwise/coreforge32/token"
)

// handleConditionalOpener is the single entry point for every opener
// and chained alternate in the #ifdef/#ifequ family: it consumes its
// own directive token, parses whatever condition arguments that
// spelling takes, computes whether the condition is met, and hands
// off to resolveConditional to rewrite the stream accordingly.
func handleConditionalOpener(p *Preprocessor) error {
	dirTok, err := p.stream.Consume()
	if err != nil {
		return err
	}

	met, err := evaluateCondition(p, dirTok.Kind)
	if err != nil {
		return err
	}

	return resolveConditional(p, met)
}

func evaluateCondition(p *Preprocessor, kind token.Kind) (bool, error) {
	switch kind {
	case token.DirElse:
		return true, nil
	case token.DirIfdef, token.DirElsedef:
		name, err := parseSymbolArg(p)
		if err != nil {
			return false, err
		}
		_, defined := p.symbols.Lookup(name)
		return defined, nil
	case token.DirIfndef, token.DirElsendef:
		name, err := parseSymbolArg(p)
		if err != nil {
			return false, err
		}
		_, defined := p.symbols.Lookup(name)
		return !defined, nil
	case token.DirIfequ, token.DirElseequ:
		return compareSymbol(p, func(a, b string) bool { return a == b })
	case token.DirIfnequ, token.DirElsenequ:
		return compareSymbol(p, func(a, b string) bool { return a != b })
	case token.DirIfless, token.DirElseless:
		return compareSymbol(p, func(a, b string) bool { return a < b })
	case token.DirIfmore, token.DirElsemore:
		return compareSymbol(p, func(a, b string) bool { return a > b })
	}
	return false, newDiag(UnexpectedToken, "not a conditional directive: %v", kind)
}

func parseSymbolArg(p *Preprocessor) (string, error) {
	p.stream.SkipInlineWhitespace()
	name, err := p.stream.ConsumeExpecting(token.Symbol)
	if err != nil {
		return "", err
	}
	return name.Text, nil
}

func compareSymbol(p *Preprocessor, cmp func(a, b string) bool) (bool, error) {
	name, err := parseSymbolArg(p)
	if err != nil {
		return false, err
	}
	p.stream.SkipInlineWhitespace()
	lit, err := p.stream.ConsumeExpecting(token.LiteralString)
	if err != nil {
		return false, err
	}
	comparand := stripQuotes(lit.Text)
	return cmp(p.symbols.Text(name), comparand), nil
}

// resolveConditional implements the shared scan-forward-then-rewrite
// logic: starting at the cursor (immediately after the opener and its
// arguments), find the first chained alternate and the matching
// #endif at nesting depth zero, then either keep the taken block (met)
// or jump the cursor to the alternate (or #endif) to re-enter directive
// processing there.
func resolveConditional(p *Preprocessor, met bool) error {
	nextBlock, endIf, err := scanConditionalBoundaries(p)
	if err != nil {
		return err
	}

	if met {
		stop := endIf
		start := endIf
		if nextBlock != -1 {
			start = nextBlock
		}
		if err := p.stream.DeleteRange(start, stop+1); err != nil {
			return err
		}
		p.stream.InsertAt(start, []token.Token{token.New(token.CommentSingleLine, "; conditional")})
		return nil
	}

	if nextBlock != -1 {
		p.stream.SetPos(nextBlock)
	} else {
		p.stream.SetPos(endIf)
	}
	return nil
}

// scanConditionalBoundaries walks forward from the cursor, tracking a
// nesting counter over any nested #if*/#endif pairs, and returns the
// absolute index of the first chained alternate at depth zero (-1 if
// none) and the first #endif at depth zero. Reaching the end of the
// stream before finding the #endif is fatal.
func scanConditionalBoundaries(p *Preprocessor) (nextBlock, endIf int, err error) {
	nextBlock = -1
	depth := 0
	i := p.stream.Pos()
	for {
		tok, ok := p.stream.TokenAt(i)
		if !ok {
			return -1, -1, newDiag(UnclosedConditional, "no matching #endif")
		}
		switch {
		case tok.Kind.IsConditionalOpener():
			depth++
		case tok.Kind == token.DirEndif:
			if depth == 0 {
				return nextBlock, i, nil
			}
			depth--
		case tok.Kind.IsConditionalAlternate() && depth == 0:
			if nextBlock == -1 {
				nextBlock = i
			}
		}
		i++
	}
}

