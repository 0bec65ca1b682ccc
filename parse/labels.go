package parse

import (
	"strings"

	"github.com/poiesic/measurit/core"
)

// labelRule maps a substring of a lower-cased quoted label to the section
// field it populates. Rules are matched in order, so more specific labels
// (sub_category, serial number) must come before the generic ones they
// contain (category).
type labelRule struct {
	substring string
	field     func(*core.MeasurementSection) *string
}

var labelRules = []labelRule{
	{"serial number", func(s *core.MeasurementSection) *string { return &s.SerialNumber }},
	{"serial_number", func(s *core.MeasurementSection) *string { return &s.SerialNumber }},
	{"sub_category", func(s *core.MeasurementSection) *string { return &s.SubCategory }},
	{"sub category", func(s *core.MeasurementSection) *string { return &s.SubCategory }},
	{"sensor name", func(s *core.MeasurementSection) *string { return &s.SensorName }},
	{"sensor_name", func(s *core.MeasurementSection) *string { return &s.SensorName }},
	{"uut_type", func(s *core.MeasurementSection) *string { return &s.UutType }},
	{"uut type", func(s *core.MeasurementSection) *string { return &s.UutType }},
	{"tst_id", func(s *core.MeasurementSection) *string { return &s.TstID }},
	{"tst id", func(s *core.MeasurementSection) *string { return &s.TstID }},
	{"test id", func(s *core.MeasurementSection) *string { return &s.TstID }},
	{"description", func(s *core.MeasurementSection) *string { return &s.Description }},
	{"category", func(s *core.MeasurementSection) *string { return &s.Category }},
	{"unit", func(s *core.MeasurementSection) *string { return &s.Units }},
	{"source", func(s *core.MeasurementSection) *string { return &s.Source }},
	{"status", func(s *core.MeasurementSection) *string { return &s.Status }},
}

// fieldForLabel resolves a lower-cased label against the synonym table.
// Returns nil if no rule matches.
func fieldForLabel(section *core.MeasurementSection, label string) *string {
	for _, rule := range labelRules {
		if strings.Contains(label, rule.substring) {
			return rule.field(section)
		}
	}
	return nil
}
