package preprocess

import (
	"fmt"

	"github.com/pkg/errors"
)

// DiagCode is the closed taxonomy of fatal preprocessor diagnostics.
// Every one of them aborts preprocessing with ProcessedFail; there is
// no recoverable diagnostic in this subsystem.
type DiagCode int

const (
	UnexpectedEOF DiagCode = iota
	UnexpectedToken
	UnknownSymbol
	UnknownMacro
	AmbiguousMacro
	DuplicateMacro
	UnclosedScope
	UnclosedConditional
	MissingInclude
	AmbiguousInclude
	StrayMacret
)

func (c DiagCode) String() string {
	switch c {
	case UnexpectedEOF:
		return "UNEXPECTED_EOF"
	case UnexpectedToken:
		return "UNEXPECTED_TOKEN"
	case UnknownSymbol:
		return "UNKNOWN_SYMBOL"
	case UnknownMacro:
		return "UNKNOWN_MACRO"
	case AmbiguousMacro:
		return "AMBIGUOUS_MACRO"
	case DuplicateMacro:
		return "DUPLICATE_MACRO"
	case UnclosedScope:
		return "UNCLOSED_SCOPE"
	case UnclosedConditional:
		return "UNCLOSED_CONDITIONAL"
	case MissingInclude:
		return "MISSING_INCLUDE"
	case AmbiguousInclude:
		return "AMBIGUOUS_INCLUDE"
	case StrayMacret:
		return "STRAY_MACRET"
	}
	return "UNKNOWN_DIAGNOSTIC"
}

// Diagnostic is the error type every directive handler returns on
// failure. It carries a fixed code plus the handler's own message, and
// satisfies error so callers can use errors.As to recover the code.
type Diagnostic struct {
	Code    DiagCode
	Message string
}

func (d *Diagnostic) Error() string {
	return d.Code.String() + ": " + d.Message
}

func newDiag(code DiagCode, format string, args ...any) error {
	return errors.WithStack(&Diagnostic{Code: code, Message: fmt.Sprintf(format, args...)})
}
