package token

import (
	"unicode"

	"github.com/pkg/errors"
)

// Tokenize is a pure function: source bytes in, a token list or a
// scan error out. It never consults a symbol table, include path, or
// any other preprocessor state — lexing is a closed transformation
// over a fixed vocabulary, same as the source tool's own tokenizer.
func Tokenize(src []byte) ([]Token, error) {
	s := &scanner{src: src}
	var out []Token
	for !s.atEnd() {
		tok, err := s.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, nil
}

type scanner struct {
	src []byte
	pos int
}

func (s *scanner) atEnd() bool { return s.pos >= len(s.src) }

func (s *scanner) byteAt(offset int) byte {
	if s.pos+offset >= len(s.src) {
		return 0
	}
	return s.src[s.pos+offset]
}

func (s *scanner) next() (Token, error) {
	c := s.byteAt(0)

	switch {
	case c == ' ':
		s.pos++
		return New(WhitespaceSpace, " "), nil
	case c == '\t':
		s.pos++
		return New(WhitespaceTab, "\t"), nil
	case c == '\n':
		s.pos++
		return New(WhitespaceNewline, "\n"), nil
	case c == ';' && s.byteAt(1) == '*':
		return s.scanBlockComment()
	case c == ';':
		return s.scanLineComment(), nil
	case c == '#':
		return s.scanDirectiveOrLiteral()
	case c == '.':
		return s.scanDotWord(), nil
	case c == '{':
		s.pos++
		return New(OpenBrace, "{"), nil
	case c == '}':
		s.pos++
		return New(CloseBrace, "}"), nil
	case c == '[':
		s.pos++
		return New(OpenBracket, "["), nil
	case c == ']':
		s.pos++
		return New(CloseBracket, "]"), nil
	case c == '(':
		s.pos++
		return New(OpenParen, "("), nil
	case c == ')':
		s.pos++
		return New(CloseParen, ")"), nil
	case c == ',':
		s.pos++
		return New(Comma, ","), nil
	case c == ':':
		s.pos++
		return New(Colon, ":"), nil
	case c == '%' && isBinaryDigit(s.byteAt(1)):
		return s.scanRadixLiteral(NumberBinary, isBinaryDigit), nil
	case c == '@' && isOctalDigit(s.byteAt(1)):
		return s.scanRadixLiteral(NumberOctal, isOctalDigit), nil
	case c == '$' && isHexDigit(s.byteAt(1)):
		return s.scanRadixLiteral(NumberHex, isHexDigit), nil
	case isDecimalDigit(c):
		return s.scanDecimal(), nil
	case c == '\'':
		return s.scanChar()
	case c == '"':
		return s.scanString()
	case isSymbolStart(c):
		return s.scanSymbolOrKeyword(), nil
	default:
		return s.scanOperator()
	}
}

func (s *scanner) scanBlockComment() (Token, error) {
	start := s.pos
	s.pos += 2 // ";*"
	for {
		if s.atEnd() {
			return Token{}, errors.Errorf("unterminated block comment starting at offset %d", start)
		}
		if s.byteAt(0) == '*' && s.byteAt(1) == ';' {
			s.pos += 2
			break
		}
		s.pos++
	}
	return New(CommentMultiLine, string(s.src[start:s.pos])), nil
}

func (s *scanner) scanLineComment() Token {
	start := s.pos
	for !s.atEnd() && s.byteAt(0) != '\n' {
		s.pos++
	}
	return New(CommentSingleLine, string(s.src[start:s.pos]))
}

// scanDirectiveOrLiteral handles both the '#name' preprocessor
// directives and the bare '#' immediate-marker token used in operand
// syntax elsewhere in the assembler; the latter is passed through as
// TEXT since it has no meaning to the preprocessor itself.
func (s *scanner) scanDirectiveOrLiteral() (Token, error) {
	start := s.pos
	s.pos++ // '#'
	wordStart := s.pos
	for !s.atEnd() && isIdentChar(s.byteAt(0)) {
		s.pos++
	}
	word := string(s.src[wordStart:s.pos])
	if kind, ok := directiveWords[word]; ok {
		return New(kind, string(s.src[start:s.pos])), nil
	}
	s.pos = start + 1
	return New(Text, "#"), nil
}

func (s *scanner) scanDotWord() Token {
	start := s.pos
	s.pos++ // '.'
	wordStart := s.pos
	for !s.atEnd() && isIdentChar(s.byteAt(0)) {
		s.pos++
	}
	word := string(s.src[wordStart:s.pos])
	if kind, ok := scopeWords[word]; ok {
		return New(kind, string(s.src[start:s.pos]))
	}
	return New(Text, string(s.src[start:s.pos]))
}

func (s *scanner) scanRadixLiteral(kind Kind, digit func(byte) bool) Token {
	start := s.pos
	s.pos++ // marker byte
	for !s.atEnd() && digit(s.byteAt(0)) {
		s.pos++
	}
	return New(kind, string(s.src[start:s.pos]))
}

func (s *scanner) scanDecimal() Token {
	start := s.pos
	for !s.atEnd() && isDecimalDigit(s.byteAt(0)) {
		s.pos++
	}
	return New(NumberDecimal, string(s.src[start:s.pos]))
}

func (s *scanner) scanChar() (Token, error) {
	start := s.pos
	if s.byteAt(1) == 0 || s.byteAt(2) != '\'' {
		return Token{}, errors.Errorf("malformed character literal at offset %d", start)
	}
	s.pos += 3
	return New(LiteralChar, string(s.src[start:s.pos])), nil
}

func (s *scanner) scanString() (Token, error) {
	start := s.pos
	s.pos++ // opening quote
	for {
		if s.atEnd() {
			return Token{}, errors.Errorf("unterminated string literal starting at offset %d", start)
		}
		if s.byteAt(0) == '"' {
			s.pos++
			break
		}
		s.pos++
	}
	return New(LiteralString, string(s.src[start:s.pos])), nil
}

func (s *scanner) scanSymbolOrKeyword() Token {
	start := s.pos
	for !s.atEnd() && isIdentChar(s.byteAt(0)) {
		s.pos++
	}
	word := string(s.src[start:s.pos])
	if kind, ok := typeWords[word]; ok {
		return New(kind, word)
	}
	return New(Symbol, word)
}

var twoByteOperators = map[string]Kind{
	"||": OpLogicalOr, "&&": OpLogicalAnd,
	"<<": OpShl, ">>": OpShr,
	"==": OpEqual, "!=": OpNotEqual,
	"<=": OpLessEqual, ">=": OpGreaterEqual,
}

var oneByteOperators = map[byte]Kind{
	'+': OpAdd, '-': OpSub, '*': OpMul, '/': OpDiv, '%': OpMod,
	'^': OpXor, '&': OpAnd, '|': OpOr, '~': OpComplement, '!': OpNot,
	'<': OpLess, '>': OpGreater,
}

// scanOperator matches the punctuation/operator set, longest spelling
// first so e.g. "<<" is not split into two "<" tokens.
func (s *scanner) scanOperator() (Token, error) {
	if pair := string([]byte{s.byteAt(0), s.byteAt(1)}); !s.atEnd() {
		if kind, ok := twoByteOperators[pair]; ok {
			s.pos += 2
			return New(kind, pair), nil
		}
	}

	c := s.byteAt(0)
	if kind, ok := oneByteOperators[c]; ok {
		s.pos++
		return New(kind, string(c)), nil
	}

	return Token{}, errors.Errorf("unrecognised character %q at offset %d", c, s.pos)
}

func isDecimalDigit(b byte) bool { return b >= '0' && b <= '9' }
func isBinaryDigit(b byte) bool  { return b == '0' || b == '1' }
func isOctalDigit(b byte) bool   { return b >= '0' && b <= '7' }
func isHexDigit(b byte) bool {
	return isDecimalDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}
func isSymbolStart(b byte) bool {
	return b == '_' || unicode.IsLetter(rune(b))
}
func isIdentChar(b byte) bool {
	return b == '_' || isDecimalDigit(b) || unicode.IsLetter(rune(b))
}
