package css

import "fmt"

// ParseError reports malformed selector text. Position is a byte offset into
// the text passed to Compile.
type ParseError struct {
	Position int
	Reason   string
}

// UnsupportedSelectorError reports a construct that is valid CSS but not
// implemented by this engine.
type UnsupportedSelectorError struct {
	Position  int
	Construct string
}

// InvalidScopeError is returned by Find for scopes that are not attached
// document or element nodes.
type InvalidScopeError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("css: parse error at %d: %s", e.Position, e.Reason)
}

func (e *UnsupportedSelectorError) Error() string {
	return fmt.Sprintf("css: unsupported selector at %d: %s", e.Position, e.Construct)
}

func (e *InvalidScopeError) Error() string { return "css: invalid scope: " + e.Reason }

func parseErrorf(pos int, format string, args ...any) error {
	return &ParseError{pos, fmt.Sprintf(format, args...)}
}

func unsupported(pos int, construct string) error {
	return &UnsupportedSelectorError{pos, construct}
}
