package parse

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/poiesic/measurit/core"
)

// JSONParser recovers measurement sections from structured JSON input.
// It accepts a single object or an array of objects; each object carries
// nested "measurements" and "metadata" plus a top-level "description".
type JSONParser struct {
	logger *slog.Logger
}

var _ Parser = (*JSONParser)(nil)

// NewJSONParser creates a JSON parser. A nil logger falls back to
// slog.Default().
func NewJSONParser(logger *slog.Logger) *JSONParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONParser{logger: logger.With("parser", "json")}
}

// Parse decodes the whole input as JSON. If decoding fails it reports
// ErrNotJSON so the caller can fall back to the text parser. An entry
// missing measurements, metadata or description yields no section but does
// not abort the remaining entries.
func (p *JSONParser) Parse(data []byte) ([]*core.MeasurementSection, error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}

	entries := normalizeToArray(decoded)
	sections := make([]*core.MeasurementSection, 0, len(entries))
	for i, entry := range entries {
		section := p.parseEntry(entry)
		if section == nil {
			p.logger.Debug("entry yielded no section", "entry", i)
			continue
		}
		if err := core.ValidateSection(section); err != nil {
			p.logger.Debug("dropping invalid section", "entry", i, "err", err)
			continue
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// normalizeToArray accepts either a single object or an array of objects.
func normalizeToArray(decoded any) []any {
	if arr, ok := decoded.([]any); ok {
		return arr
	}
	return []any{decoded}
}

// parseEntry extracts one section from one JSON entry, or nil when the entry
// is missing any of its three required parts.
func (p *JSONParser) parseEntry(entry any) *core.MeasurementSection {
	obj, ok := entry.(map[string]any)
	if !ok {
		return nil
	}

	measurements, ok := obj["measurements"].(map[string]any)
	if !ok {
		return nil
	}
	metadata, ok := obj["metadata"].(map[string]any)
	if !ok {
		return nil
	}
	description, ok := obj["description"].(string)
	if !ok {
		return nil
	}

	section := &core.MeasurementSection{
		SensorReadings: numberSlice(measurements["values"]),
		Description:    description,
	}

	if total, ok := asNumber(measurements["total measurements"]); ok {
		section.TotalMeasurements = int(total)
	}
	if min, ok := asNumber(measurements["min"]); ok {
		section.Min = min
	}
	if max, ok := asNumber(measurements["max"]); ok {
		section.Max = max
	}
	if avg, ok := asNumber(measurements["avg"]); ok {
		section.Avg = avg
	}
	if units, ok := measurements["units"].(string); ok {
		section.Units = units
	}

	section.Source = stringKey(metadata, "source")
	section.TstID = stringKey(metadata, "tst_id")
	section.UutType = stringKey(metadata, "uut_type")
	section.Status = stringKey(metadata, "status")
	section.SerialNumber = stringKey(metadata, "serial number")
	section.Category = stringKey(metadata, "category")
	section.SubCategory = stringKey(metadata, "sub_category")
	section.SensorName = stringKey(metadata, "sensor name")

	// Unlike the text parser, the sensor name is never derived from the
	// description here.
	applyDefaults(section)
	section.ComputeStats()
	return section
}

func numberSlice(v any) []float64 {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var result []float64
	for _, item := range arr {
		if num, ok := asNumber(item); ok {
			result = append(result, num)
		}
	}
	return result
}

func asNumber(v any) (float64, bool) {
	num, ok := v.(float64)
	return num, ok
}

func stringKey(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
