package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoBlockLog = `Section "power rail sweep" "Description" "measurements for rail 3V3" "Serial Number" "SN-001" "Status" "passed"
Values: 1 0.52 2 0.48 3 0.61
Total measurements: 3

Section "power rail sweep" "Sensor Name" "rail 5V0" "Serial Number" "SN-002" "Units" "Volts"
Values: 1 0.9 2 0.7
Total measurements: 2
`

func TestTextParser_TwoBlocks(t *testing.T) {
	parser := NewTextParser(nil)
	sections, err := parser.Parse([]byte(twoBlockLog))
	require.NoError(t, err)
	require.Len(t, sections, 2, "two concatenated blocks must yield two sections")

	first, second := sections[0], sections[1]

	assert.Equal(t, []float64{0.52, 0.48, 0.61}, first.SensorReadings)
	assert.Equal(t, 3, first.TotalMeasurements)
	assert.Equal(t, "measurements for rail 3V3", first.Description)
	assert.Equal(t, "rail 3V3", first.SensorName, "sensor name derived from description")
	assert.Equal(t, "SN-001", first.SerialNumber)
	assert.Equal(t, "passed", first.Status)

	assert.Equal(t, []float64{0.9, 0.7}, second.SensorReadings)
	assert.Equal(t, "rail 5V0", second.SensorName)
	assert.Equal(t, "SN-002", second.SerialNumber)
	assert.Equal(t, "Volts", second.Units)

	// Metadata must not leak between sibling blocks.
	assert.Equal(t, "unknown", second.Status, "second block supplied no status")
	assert.Empty(t, second.Description)
	assert.Equal(t, "Watts", first.Units, "first block supplied no units")
}

func TestTextParser_Defaults(t *testing.T) {
	parser := NewTextParser(nil)
	sections, err := parser.Parse([]byte(twoBlockLog))
	require.NoError(t, err)
	require.Len(t, sections, 2)

	section := sections[0]
	assert.Equal(t, "Watts", section.Units)
	assert.NotEmpty(t, section.TstID, "tst_id defaults to the current timestamp")
	assert.Equal(t, "unknown", section.UutType)
	assert.Equal(t, "power", section.Category)
	assert.Equal(t, "OTHER", section.SubCategory)
}

func TestTextParser_DerivedStats(t *testing.T) {
	parser := NewTextParser(nil)
	sections, err := parser.Parse([]byte(twoBlockLog))
	require.NoError(t, err)
	require.Len(t, sections, 2)

	section := sections[0]
	assert.InDelta(t, 0.48, section.Min, 1e-9)
	assert.InDelta(t, 0.61, section.Max, 1e-9)
	assert.InDelta(t, (0.52+0.48+0.61)/3, section.Avg, 1e-9)
}

func TestTextParser_UnparseableBlockDoesNotAbortSiblings(t *testing.T) {
	input := `Section "x" "Sensor Name" "dead sensor"
Values: abc def ghi
Total measurements: 0

Section "x" "Sensor Name" "live sensor"
Values: 1 0.25 2 0.75
Total measurements: 2
`
	parser := NewTextParser(nil)
	sections, err := parser.Parse([]byte(input))
	require.NoError(t, err)
	require.Len(t, sections, 1, "the block with no parseable numbers yields no section")
	assert.Equal(t, "live sensor", sections[0].SensorName)
}

func TestTextParser_BlockMissingMarkersYieldsNothing(t *testing.T) {
	parser := NewTextParser(nil)

	sections, err := parser.Parse([]byte(`Section "x" "Sensor Name" "orphan" no markers at all`))
	require.NoError(t, err)
	assert.Empty(t, sections)

	sections, err = parser.Parse([]byte("Section values: 0.5 0.5 but never closed"))
	require.NoError(t, err)
	assert.Empty(t, sections, "values span without a total marker yields nothing")
}

func TestTextParser_MissingSensorNameDropsSection(t *testing.T) {
	input := `Section "x" "Serial Number" "SN-009"
Values: 1 0.5
Total measurements: 1
`
	parser := NewTextParser(nil)
	sections, err := parser.Parse([]byte(input))
	require.NoError(t, err)
	assert.Empty(t, sections, "a section without a sensor name is invalid and dropped")
}

func TestTextParser_EmptyInput(t *testing.T) {
	parser := NewTextParser(nil)

	sections, err := parser.Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, sections)

	sections, err = parser.Parse([]byte("   \n\t  "))
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestSplitBlocks(t *testing.T) {
	blocks := splitBlocks("preamble text Section one Section two")
	require.Len(t, blocks, 3)
	assert.Equal(t, "preamble text ", blocks[0])
	assert.Equal(t, "Section one ", blocks[1])
	assert.Equal(t, "Section two", blocks[2])
}

func TestSplitBlocks_DiscardsBlank(t *testing.T) {
	blocks := splitBlocks("   Section only")
	require.Len(t, blocks, 1)
	assert.Equal(t, "Section only", blocks[0])
}

func TestExtractReadings_IndexPrefixStripped(t *testing.T) {
	// Ordinal tokens ("1", "2") strip to nothing and are discarded; value
	// tokens keep their fractional part.
	readings := extractReadings("values: 1 0.25 2 0.5 total")
	assert.Equal(t, []float64{0.25, 0.5}, readings)
}
