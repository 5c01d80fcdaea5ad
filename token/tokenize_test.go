package token

import "testing"

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func assertKinds(t *testing.T, toks []Token, want ...Kind) {
	t.Helper()
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestTokenizeDirectiveLine(t *testing.T) {
	toks, err := Tokenize([]byte("#define FOO 1\n"))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	assertKinds(t, toks,
		DirDefine, WhitespaceSpace, Symbol, WhitespaceSpace, NumberDecimal, WhitespaceNewline)
}

func TestTokenizeMacroSignature(t *testing.T) {
	toks, err := Tokenize([]byte("#macro inc(a:WORD):WORD\n"))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	assertKinds(t, toks,
		DirMacro, WhitespaceSpace, Symbol, OpenParen, Symbol, Colon, TypeWord,
		CloseParen, Colon, TypeWord, WhitespaceNewline)
}

func TestTokenizeComparisonOperators(t *testing.T) {
	toks, err := Tokenize([]byte("a<=b>=c!=d==e"))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	assertKinds(t, toks,
		Symbol, OpLessEqual, Symbol, OpGreaterEqual, Symbol, OpNotEqual, Symbol, OpEqual, Symbol)
}

func TestTokenizeLineCommentConsumesToNewline(t *testing.T) {
	toks, err := Tokenize([]byte("; a trailing remark\nNOP"))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	assertKinds(t, toks, CommentSingleLine, WhitespaceNewline, Symbol)
	if toks[0].Text != "; a trailing remark" {
		t.Fatalf("comment text = %q", toks[0].Text)
	}
}

func TestTokenizeBlockComment(t *testing.T) {
	toks, err := Tokenize([]byte(";* block\nspanning *;REST"))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	assertKinds(t, toks, CommentMultiLine, Symbol)
}

func TestTokenizeNumberLiterals(t *testing.T) {
	toks, err := Tokenize([]byte("%1011 @17 123 $2F"))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	assertKinds(t, toks,
		NumberBinary, WhitespaceSpace, NumberOctal, WhitespaceSpace,
		NumberDecimal, WhitespaceSpace, NumberHex)
}

func TestTokenizeStringAndCharLiterals(t *testing.T) {
	toks, err := Tokenize([]byte(`"hi" 'x'`))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	assertKinds(t, toks, LiteralString, WhitespaceSpace, LiteralChar)
	if toks[0].Text != `"hi"` || toks[2].Text != "'x'" {
		t.Fatalf("literal text mismatch: %q %q", toks[0].Text, toks[2].Text)
	}
}

func TestTokenizeUnterminatedStringErrors(t *testing.T) {
	if _, err := Tokenize([]byte(`"unterminated`)); err == nil {
		t.Fatalf("expected scan error")
	}
}

func TestTokenizeScopeDirectives(t *testing.T) {
	toks, err := Tokenize([]byte(".scope\n.scend"))
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	assertKinds(t, toks, AsmScope, WhitespaceNewline, AsmScend)
}
