package token

// Token is a tagged variant over Kind carrying its original source text.
// Equality is by kind and text, matching the source language's own
// token equality rule.
type Token struct {
	Kind Kind
	Text string
}

// New constructs a Token, a small convenience used throughout the
// preprocess package when synthesising tokens (e.g. the ".equ"
// bookkeeping the macro invoker splices in) rather than scanning them.
func New(kind Kind, text string) Token {
	return Token{Kind: kind, Text: text}
}

func (t Token) String() string {
	if t.Kind.Whitespace() || t.Kind.Comment() {
		return t.Kind.String()
	}
	return t.Kind.String() + ": " + t.Text
}
