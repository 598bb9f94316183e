package mms

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseCSV(t *testing.T, csv string, relative bool) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(csv), relative)
	require.NoError(t, err)
	return doc
}

func TestParseAbsoluteTiming(t *testing.T) {
	doc := parseCSV(t, strings.Join([]string{
		"maingloss,framestart,frameend",
		"HAUS,0.5,1.0",
		"NICHT,1.2,2.0",
	}, "\n"), false)

	require.Len(t, doc.Rows, 2)
	assert.Equal(t, "HAUS", doc.Rows[0].Gloss)
	assert.Equal(t, "signs", doc.Rows[0].Datatype)
	assert.Equal(t, 0.5, doc.Rows[0].FrameStart)
	assert.Equal(t, 1.0, doc.Rows[0].FrameEnd)
	assert.False(t, doc.RelativeTime)
}

func TestParseSortsByStartTime(t *testing.T) {
	doc := parseCSV(t, strings.Join([]string{
		"maingloss,framestart,frameend",
		"SPAET,2.0,3.0",
		"FRUEH,0.0,1.0",
	}, "\n"), false)

	require.Len(t, doc.Rows, 2)
	assert.Equal(t, "FRUEH", doc.Rows[0].Gloss)
	assert.Equal(t, 0, doc.Rows[0].Index)
	assert.Equal(t, "SPAET", doc.Rows[1].Gloss)
	assert.Equal(t, 1, doc.Rows[1].Index)
}

func TestParseRelativeTiming(t *testing.T) {
	doc := parseCSV(t, strings.Join([]string{
		"maingloss,duration,transition",
		"HAUS,0.5,0.25",
	}, "\n"), true)

	require.Len(t, doc.Rows, 1)
	assert.Equal(t, 0.5, doc.Rows[0].Duration)
	assert.False(t, doc.Rows[0].DurationIsRatio)
	assert.Equal(t, 0.25, doc.Rows[0].Transition)
}

func TestParseRatioDuration(t *testing.T) {
	doc := parseCSV(t, strings.Join([]string{
		"maingloss,duration,transition",
		"HAUS,80%,0.2",
	}, "\n"), true)

	require.Len(t, doc.Rows, 1)
	assert.True(t, doc.Rows[0].DurationIsRatio)
	assert.InDelta(t, 0.8, doc.Rows[0].Duration, 1e-12)
}

func TestParseUnknownColumn(t *testing.T) {
	_, err := Parse(strings.NewReader("maingloss,framestart,frameend,mood\nHAUS,0,1,happy\n"), false)
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "mood", serr.Column)
}

func TestParsePartialGroupHeader(t *testing.T) {
	// headrot needs x, y and z columns.
	_, err := Parse(strings.NewReader("maingloss,framestart,frameend,headrotx,headroty\nHAUS,0,1,0.1,0.2\n"), false)
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "head", serr.Column)
}

func TestParsePartialGroupRow(t *testing.T) {
	csv := strings.Join([]string{
		"maingloss,framestart,frameend,headrotx,headroty,headrotz",
		"HAUS,0,1,0.1,,",
	}, "\n")
	_, err := Parse(strings.NewReader(csv), false)
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "head", serr.Column)
}

func TestParseTimingAmbiguity(t *testing.T) {
	csv := strings.Join([]string{
		"maingloss,framestart,frameend,duration,transition",
		"HAUS,0,1,0.5,0.2",
	}, "\n")
	_, err := Parse(strings.NewReader(csv), false)
	var aerr *TimingAmbiguityError
	require.ErrorAs(t, err, &aerr)
}

func TestParseTimingModeMismatch(t *testing.T) {
	// Relative columns in a document parsed in absolute mode.
	_, err := Parse(strings.NewReader("maingloss,duration,transition\nHAUS,0.5,0.2\n"), false)
	var terr *TimingError
	require.ErrorAs(t, err, &terr)

	_, err = Parse(strings.NewReader("maingloss,framestart,frameend\nHAUS,0,1\n"), true)
	require.ErrorAs(t, err, &terr)
}

func TestParseGroupValues(t *testing.T) {
	csv := strings.Join([]string{
		"maingloss,framestart,frameend,domhandrelocx,domhandrelocy,domhandrelocz," +
			"domhandrelocax,domhandrelocay,domhandrelocaz," +
			"domhandrelocsx,domhandrelocsy,domhandrelocsz",
		"ZEIGEN,0,1,0,15,0,0,0,-0.55,0.4,0.4,0.4",
	}, "\n")
	doc := parseCSV(t, csv, false)

	require.Len(t, doc.Rows, 1)
	params := doc.Rows[0].Groups["domhandreloc"]
	require.NotNil(t, params)
	assert.Equal(t, 15.0, params.Translate.Y())
	assert.Equal(t, -0.55, params.Rotate.Z())
	assert.Equal(t, 0.4, params.Scale.X())
	assert.False(t, params.IsIdentity())
}

func TestParseAbsentGroupOnRow(t *testing.T) {
	csv := strings.Join([]string{
		"maingloss,framestart,frameend,headrotx,headroty,headrotz",
		"HAUS,0,1,,,",
	}, "\n")
	doc := parseCSV(t, csv, false)

	require.Len(t, doc.Available, 1)
	assert.Empty(t, doc.Rows[0].Groups)
}

func TestParseHoldSentinel(t *testing.T) {
	doc := parseCSV(t, "maingloss,duration,transition\nHAUS,0.5,0.2\n<HOLD>,0.3,0\n", true)

	require.Len(t, doc.Rows, 2)
	assert.True(t, doc.Rows[1].IsHold())
	assert.Equal(t, "HOLD", doc.Rows[1].Datatype)
}

func TestParseDatatypePrefix(t *testing.T) {
	doc := parseCSV(t, "maingloss,framestart,frameend\nfingeralphabet:A,0,1\n", false)

	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "A", doc.Rows[0].Gloss)
	assert.Equal(t, "fingeralphabet", doc.Rows[0].Datatype)
}

func TestParseFingerspellingSplit(t *testing.T) {
	doc := parseCSV(t, "maingloss,framestart,frameend\nfingeralphabet:A-B,0,2\n", false)

	require.Len(t, doc.Rows, 2)
	first, second := doc.Rows[0], doc.Rows[1]

	assert.Equal(t, "A", first.Gloss)
	assert.Equal(t, 0.0, first.FrameStart)
	// One second per letter, 30% of it reserved as transition.
	assert.InDelta(t, 0.7, first.FrameEnd, 1e-12)
	assert.InDelta(t, 0.3, first.Transition, 1e-12)

	assert.Equal(t, "B", second.Gloss)
	assert.InDelta(t, 1.0, second.FrameStart, 1e-12)
	assert.InDelta(t, 1.7, second.FrameEnd, 1e-12)
	// The last letter keeps the row's own transition.
	assert.Equal(t, 0.0, second.Transition)
}

func TestParseEmptyTable(t *testing.T) {
	_, err := Parse(strings.NewReader(""), false)
	var serr *SchemaError
	require.True(t, errors.As(err, &serr))
}

func TestOutputName(t *testing.T) {
	row := &Row{Index: 3, Gloss: "HAUS"}
	assert.Equal(t, "3_HAUS", row.OutputName())
}
