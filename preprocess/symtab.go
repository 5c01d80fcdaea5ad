package preprocess

import "github.com/otterwise/coreforge32/token"

// SymbolTable maps an identifier to its replacement token list. An
// empty (but present) replacement is distinct from an absent symbol:
// #define FOO with nothing before the newline defines FOO as the
// empty expansion, which still satisfies #ifdef FOO.
type SymbolTable struct {
	repl map[string][]token.Token
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{repl: make(map[string][]token.Token)}
}

// Define installs or silently replaces name's replacement list.
func (t *SymbolTable) Define(name string, replacement []token.Token) {
	cp := make([]token.Token, len(replacement))
	copy(cp, replacement)
	t.repl[name] = cp
}

// Undef removes name. Undefining an undefined symbol is a no-op.
func (t *SymbolTable) Undef(name string) {
	delete(t.repl, name)
}

// Lookup returns name's replacement list and whether it is defined.
func (t *SymbolTable) Lookup(name string) ([]token.Token, bool) {
	r, ok := t.repl[name]
	return r, ok
}

// Text concatenates the text of name's replacement tokens, used by the
// lexicographic-compare conditional directives. An undefined symbol's
// value is the empty string.
func (t *SymbolTable) Text(name string) string {
	r, ok := t.repl[name]
	if !ok {
		return ""
	}
	var sb []byte
	for _, tok := range r {
		sb = append(sb, tok.Text...)
	}
	return string(sb)
}
