package mms

import "fmt"

// SchemaError reports a structurally malformed MMS table: an unrecognized
// column, or an inflection group whose cells are only partially filled in a
// row. It is fatal for the whole run and is raised before any clip is loaded.
type SchemaError struct {
	Row    int // 0-based data row index, -1 for header-level problems
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("mms schema: column %q: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("mms schema: row %d, column %q: %s", e.Row, e.Column, e.Reason)
}

// TimingAmbiguityError reports a row carrying both timing modes (absolute
// framestart/frameend and relative duration/transition), or neither.
type TimingAmbiguityError struct {
	Row int
}

func (e *TimingAmbiguityError) Error() string {
	return fmt.Sprintf("mms timing: row %d must populate exactly one timing mode (framestart/frameend or duration/transition)", e.Row)
}

// TimingError reports an unusable timing value, e.g. a non-positive
// resampling factor or an unparsable duration cell.
type TimingError struct {
	Row    int
	Reason string
}

func (e *TimingError) Error() string {
	return fmt.Sprintf("mms timing: row %d: %s", e.Row, e.Reason)
}
