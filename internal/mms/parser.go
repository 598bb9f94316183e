package mms

import (
	"encoding/csv"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
)

// Scalar columns of the MMS table. Everything else must belong to an
// inflection group; any other header name is a SchemaError.
var scalarColumns = map[string]bool{
	"maingloss":  true,
	"domgloss":   true,
	"ndomgloss":  true,
	"framestart": true,
	"frameend":   true,
	"duration":   true,
	"transition": true,
}

var holdPattern = regexp.MustCompile(`<(.*?)>`)

// Fraction of a letter's frame span reserved as within-word transition when
// a fingerspelled gloss is split into per-letter rows.
const fingerspellTransition = 0.3

// ParseFile parses an MMS file. The relativeTime flag selects the timing
// mode for the whole document (see Parse).
func ParseFile(path string, relativeTime bool) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, relativeTime)
}

// Parse reads the MMS table and returns the validated, ordered document.
// relativeTime selects the duration/transition columns over the absolute
// framestart/frameend pair; the mode is document-wide, never per row.
//
// All validation here is eager: a schema or timing problem aborts the parse
// before any motion data is touched. Non-monotonic timestamps are accepted
// but logged, with undefined downstream ordering.
func Parse(r io.Reader, relativeTime bool) (*Document, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, &SchemaError{Row: -1, Reason: err.Error()}
	}
	if len(records) == 0 {
		return nil, &SchemaError{Row: -1, Reason: "empty table"}
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.TrimSpace(col)
		index[col] = i
		if !scalarColumns[col] && groupForColumn(col) == nil {
			return nil, &SchemaError{Row: -1, Column: col, Reason: "unknown column"}
		}
	}
	if _, ok := index["maingloss"]; !ok {
		return nil, &SchemaError{Row: -1, Column: "maingloss", Reason: "missing required column"}
	}

	available, err := availableGroups(index)
	if err != nil {
		return nil, err
	}

	doc := &Document{RelativeTime: relativeTime, Available: available}
	for rowNum, record := range records[1:] {
		rows, err := parseRecord(index, record, rowNum, len(doc.Rows), available, relativeTime)
		if err != nil {
			return nil, err
		}
		doc.Rows = append(doc.Rows, rows...)
	}

	if !relativeTime {
		// The original player orders glosses by their absolute start time.
		sort.SliceStable(doc.Rows, func(i, j int) bool {
			return doc.Rows[i].FrameStart < doc.Rows[j].FrameStart
		})
		for i, row := range doc.Rows {
			row.Index = i
		}
	}
	flagNonMonotonic(doc)

	return doc, nil
}

// availableGroups determines which inflection groups the header carries.
// A group must bring either all of its columns or none of them.
func availableGroups(index map[string]int) ([]*Group, error) {
	var available []*Group
	for _, g := range Groups {
		cols := g.Columns()
		present := 0
		for _, col := range cols {
			if _, ok := index[col]; ok {
				present++
			}
		}
		switch present {
		case 0:
		case len(cols):
			available = append(available, g)
		default:
			return nil, &SchemaError{Row: -1, Column: g.Name, Reason: "inflection group columns partially declared"}
		}
	}
	return available, nil
}

func groupForColumn(col string) *Group {
	for _, g := range Groups {
		for _, c := range g.Columns() {
			if c == col {
				return g
			}
		}
	}
	return nil
}

func parseRecord(index map[string]int, record []string, rowNum, nextIndex int, available []*Group, relativeTime bool) ([]*Row, error) {
	cell := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	name, datatype := splitDatatype(cell("maingloss"))
	if m := holdPattern.FindStringSubmatch(name); len(m) == 2 && m[1] == "HOLD" {
		datatype = "HOLD"
	}

	row := &Row{
		Index:     nextIndex,
		Gloss:     name,
		Datatype:  datatype,
		DomGloss:  cell("domgloss"),
		NdomGloss: cell("ndomgloss"),
		Groups:    make(map[string]*Params),
	}

	if err := parseTiming(row, cell, rowNum, relativeTime); err != nil {
		return nil, err
	}
	for _, g := range available {
		params, err := parseGroup(g, cell, rowNum)
		if err != nil {
			return nil, err
		}
		if params != nil {
			row.Groups[g.Name] = params
		}
	}

	// Fingerspelled glosses like "R-E:1-5-9-7" expand into one row per
	// letter, splitting the frame span evenly.
	if !relativeTime && datatype != "signs" && datatype != "HOLD" && strings.Contains(name, "-") {
		return splitFingerspelling(row, nextIndex), nil
	}
	return []*Row{row}, nil
}

func parseTiming(row *Row, cell func(string) string, rowNum int, relativeTime bool) error {
	hasAbs := cell("framestart") != "" && cell("frameend") != ""
	hasRel := cell("duration") != "" && cell("transition") != ""
	if hasAbs == hasRel {
		return &TimingAmbiguityError{Row: rowNum}
	}
	if relativeTime != hasRel {
		mode := "absolute"
		if relativeTime {
			mode = "relative"
		}
		return &TimingError{Row: rowNum, Reason: "row timing columns do not match the document " + mode + " timing mode"}
	}

	var err error
	if hasAbs {
		if row.FrameStart, err = parseCell(cell("framestart")); err != nil {
			return &TimingError{Row: rowNum, Reason: "framestart " + err.Error()}
		}
		if row.FrameEnd, err = parseCell(cell("frameend")); err != nil {
			return &TimingError{Row: rowNum, Reason: "frameend " + err.Error()}
		}
		return nil
	}

	duration := cell("duration")
	if strings.HasSuffix(duration, "%") {
		pct, err := parseCell(strings.TrimSuffix(duration, "%"))
		if err != nil {
			return &TimingError{Row: rowNum, Reason: "duration " + err.Error()}
		}
		row.Duration = pct / 100.0
		row.DurationIsRatio = true
	} else {
		if row.Duration, err = parseCell(duration); err != nil {
			return &TimingError{Row: rowNum, Reason: "duration " + err.Error()}
		}
	}
	if row.Transition, err = parseCell(cell("transition")); err != nil {
		return &TimingError{Row: rowNum, Reason: "transition " + err.Error()}
	}
	return nil
}

// parseGroup reads a group's cells off a row. All cells empty means the
// group is absent; a partially filled group is a SchemaError.
func parseGroup(g *Group, cell func(string) string, rowNum int) (*Params, error) {
	cols := g.Columns()
	filled := 0
	for _, col := range cols {
		if cell(col) != "" {
			filled++
		}
	}
	if filled == 0 {
		return nil, nil
	}
	if filled != len(cols) {
		return nil, &SchemaError{Row: rowNum, Column: g.Name, Reason: "inflection group partially populated"}
	}

	params := &Params{Group: g, Scale: mgl64.Vec3{1, 1, 1}}
	read := func(prefix string, dst *mgl64.Vec3) error {
		if prefix == "" {
			return nil
		}
		for i, axis := range []string{"x", "y", "z"} {
			v, err := parseCell(cell(prefix + axis))
			if err != nil {
				return &SchemaError{Row: rowNum, Column: prefix + axis, Reason: err.Error()}
			}
			dst[i] = v
		}
		return nil
	}
	if err := read(g.TranslatePrefix, &params.Translate); err != nil {
		return nil, err
	}
	if err := read(g.RotatePrefix, &params.Rotate); err != nil {
		return nil, err
	}
	if err := read(g.ScalePrefix, &params.Scale); err != nil {
		return nil, err
	}
	return params, nil
}

// splitFingerspelling expands a dashed gloss into per-letter rows. Each
// letter gets an even share of the original span, shortened by the
// within-word transition; the last letter keeps the row's own transition.
func splitFingerspelling(row *Row, nextIndex int) []*Row {
	letters := strings.Split(row.Gloss, "-")
	delta := (row.FrameEnd - row.FrameStart) / float64(len(letters))
	rows := make([]*Row, 0, len(letters))
	for i, letter := range letters {
		sub := *row
		sub.Index = nextIndex + i
		sub.Gloss = letter
		sub.FrameStart = row.FrameStart + delta*float64(i)
		sub.FrameEnd = row.FrameStart + delta*float64(i+1) - fingerspellTransition*delta
		sub.Transition = fingerspellTransition * delta
		if i == len(letters)-1 {
			sub.Transition = row.Transition
		}
		rows = append(rows, &sub)
	}
	return rows
}

// flagNonMonotonic logs rows that start before the previous row or end no
// later than they start. The table is accepted as-is: downstream merge order
// is undefined for such documents and later samples simply win.
func flagNonMonotonic(doc *Document) {
	if doc.RelativeTime {
		return
	}
	prevStart := -1.0
	for i, row := range doc.Rows {
		if row.FrameEnd <= row.FrameStart {
			logrus.WithFields(logrus.Fields{"row": i, "gloss": row.Gloss}).
				Warn("row ends before it starts; merge order is undefined")
		}
		if row.FrameStart < prevStart {
			logrus.WithFields(logrus.Fields{"row": i, "gloss": row.Gloss}).
				Warn("row timestamps are non-monotonic; merge order is undefined")
		}
		prevStart = row.FrameStart
	}
}
