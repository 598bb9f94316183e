package mms

import (
	"fmt"
	"strconv"
	"strings"
)

// HoldGloss is the sentinel gloss id meaning "freeze the previous row's
// final pose for this row's duration".
const HoldGloss = "<HOLD>"

// Row is one gloss instance of the MMS table.
type Row struct {
	// Index is the position of the row in the document, after any
	// fingerspelling expansion.
	Index int

	// Gloss is the gloss name without its datatype prefix. Datatype selects
	// the dictionary section ("signs" when the id carries no prefix,
	// "HOLD" for the freeze sentinel).
	Gloss    string
	Datatype string

	// Optional per-arm gloss overrides.
	DomGloss  string
	NdomGloss string

	// Absolute timing mode: seconds.
	FrameStart float64
	FrameEnd   float64

	// Relative timing mode: seconds, except that Duration is a fraction of
	// the clip's own nominal duration when DurationIsRatio is set.
	Duration        float64
	DurationIsRatio bool
	Transition      float64

	// Groups maps group name to its fully populated parameter set. A group
	// absent from the map has no cells in the row. Identity-valued sets are
	// preserved here; skipping them is the pipeline's responsibility.
	Groups map[string]*Params
}

// OutputName is the unique per-row label used for transient actions and logs.
func (r *Row) OutputName() string {
	return fmt.Sprintf("%d_%s", r.Index, r.Gloss)
}

// IsHold reports whether the row is the freeze sentinel.
func (r *Row) IsHold() bool {
	return r.Datatype == "HOLD"
}

// Document is the parsed MMS table: ordered rows plus the document-wide
// timing mode and the set of groups whose columns exist in the header.
type Document struct {
	Rows         []*Row
	RelativeTime bool

	// Available lists the groups present in the table header, in registry
	// order. A group can be available yet carry no parameters on a row.
	Available []*Group
}

// splitDatatype splits a "type:name" gloss id. Ids without a prefix belong
// to the default "signs" section.
func splitDatatype(id string) (name, datatype string) {
	if !strings.Contains(id, ":") {
		return id, "signs"
	}
	parts := strings.SplitN(id, ":", 2)
	return parts[1], parts[0]
}

func parseCell(cell string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", cell)
	}
	return v, nil
}
