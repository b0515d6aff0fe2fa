package manifest

import (
	"fmt"
	"strings"
)

// ParseError reports a manifest schema violation. Field is a dotted location
// inside the document such as "roots[0].contents[2].external-contents" and is
// empty for document level problems.
type ParseError struct {
	Field string
	Line  int // 1-based line of the offending node, 0 if unknown
	Msg   string
	Err   error // Underlying decoder error, if any
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("manifest")
	if e.Field != "" {
		fmt.Fprintf(&b, ": %s", e.Field)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d)", e.Line)
	}
	fmt.Fprintf(&b, ": %s", e.Msg)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap implements error unwrapping for the errors.Is/As functions
func (e *ParseError) Unwrap() error {
	return e.Err
}
