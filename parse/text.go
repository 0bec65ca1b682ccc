package parse

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/measurit/core"
)

var (
	// sectionKeywordRe marks positions where a new sensor block begins. The
	// split is a lookahead: the keyword stays with its block.
	sectionKeywordRe = regexp.MustCompile(`(?i)\bsection\b`)

	// valuesMarkerRe and totalMarkerRe bound the numeric span of a block.
	valuesMarkerRe = regexp.MustCompile(`(?i)\bvalues?\b\s*[:=]?`)
	totalMarkerRe  = regexp.MustCompile(`(?i)\btotal\b`)

	quotedRe = regexp.MustCompile(`"([^"]*)"`)

	// measurementsForRe recovers a sensor name from descriptions shaped like
	// "measurements for X".
	measurementsForRe = regexp.MustCompile(`(?i)measurements?\s+for\s+(\S.*)`)
)

// TextParser recovers measurement sections from semi-structured log text
// with no fixed schema. Each block's failure is local: a block that yields
// no section is logged and skipped, and its siblings are still parsed.
type TextParser struct {
	logger *slog.Logger
}

var _ Parser = (*TextParser)(nil)

// NewTextParser creates a text parser. A nil logger falls back to
// slog.Default().
func NewTextParser(logger *slog.Logger) *TextParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextParser{logger: logger.With("parser", "text")}
}

// Parse splits the raw text into per-sensor blocks and extracts a canonical
// section from each. The returned error is always nil: text parsing degrades
// block by block instead of failing the file.
func (p *TextParser) Parse(data []byte) ([]*core.MeasurementSection, error) {
	blocks := splitBlocks(string(data))

	sections := make([]*core.MeasurementSection, 0, len(blocks))
	for i, block := range blocks {
		section := p.parseBlock(block)
		if section == nil {
			p.logger.Debug("block yielded no section", "block", i)
			continue
		}
		if err := core.ValidateSection(section); err != nil {
			p.logger.Debug("dropping invalid section", "block", i, "err", err)
			continue
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// splitBlocks splits raw text at every position that begins the section
// keyword and discards blank blocks. Text preceding the first keyword forms
// its own block; it usually carries no values span and falls out naturally.
func splitBlocks(text string) []string {
	starts := sectionKeywordRe.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		return nonBlank([]string{text})
	}

	var blocks []string
	prev := 0
	for _, loc := range starts {
		blocks = append(blocks, text[prev:loc[0]])
		prev = loc[0]
	}
	blocks = append(blocks, text[prev:])
	return nonBlank(blocks)
}

func nonBlank(blocks []string) []string {
	result := blocks[:0]
	for _, b := range blocks {
		if strings.TrimSpace(b) != "" {
			result = append(result, b)
		}
	}
	return result
}

// parseBlock extracts a single section from one block, or nil when the block
// yields no parseable readings.
func (p *TextParser) parseBlock(block string) *core.MeasurementSection {
	readings := extractReadings(block)
	if len(readings) == 0 {
		return nil
	}

	section := &core.MeasurementSection{SensorReadings: readings}
	extractMetadata(section, block)

	if section.SensorName == "" {
		if m := measurementsForRe.FindStringSubmatch(section.Description); m != nil {
			section.SensorName = strings.TrimSpace(m[1])
		}
	}

	applyDefaults(section)
	section.ComputeStats()
	return section
}

// extractReadings locates the span between the values marker and the total
// marker, tokenizes it on whitespace, strips each token's leading run of
// digits (an index/ordinal prefix) and parses the remainder as a float.
// Tokens that fail to parse are discarded.
func extractReadings(block string) []float64 {
	vloc := valuesMarkerRe.FindStringIndex(block)
	if vloc == nil {
		return nil
	}
	rest := block[vloc[1]:]
	tloc := totalMarkerRe.FindStringIndex(rest)
	if tloc == nil {
		return nil
	}

	var readings []float64
	for _, token := range strings.Fields(rest[:tloc[0]]) {
		trimmed := strings.TrimLeft(token, "0123456789")
		value, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			continue
		}
		readings = append(readings, value)
	}
	return readings
}

// extractMetadata runs a finite-state scan over the quoted substrings of a
// block, in order. Every quoted string is treated as a value attributed to
// the lower-cased quoted label immediately preceding it; the first quoted
// string has no label and is skipped (it still serves as the label for the
// second). Labels resolve through the synonym table in labels.go; a later
// occurrence of the same label overwrites the earlier value.
func extractMetadata(section *core.MeasurementSection, block string) {
	quotes := quotedRe.FindAllStringSubmatch(block, -1)
	for i := 1; i < len(quotes); i++ {
		label := strings.ToLower(strings.TrimSpace(quotes[i-1][1]))
		if field := fieldForLabel(section, label); field != nil {
			*field = quotes[i][1]
		}
	}
}
