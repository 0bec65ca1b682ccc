package parse

import (
	"time"

	"github.com/poiesic/measurit/core"
)

// Documented defaults for metadata fields absent from the input. TstID
// defaults to the ingestion timestamp; all other string fields not listed
// here default to the empty string.
const (
	defaultUnits        = "Watts"
	defaultUutType      = "unknown"
	defaultStatus       = "unknown"
	defaultSerialNumber = "unknown"
	defaultCategory     = "power"
	defaultSubCategory  = "OTHER"
)

// applyDefaults fills metadata fields still unset after extraction.
func applyDefaults(section *core.MeasurementSection) {
	if section.Units == "" {
		section.Units = defaultUnits
	}
	if section.TstID == "" {
		section.TstID = time.Now().UTC().Format(time.RFC3339)
	}
	if section.UutType == "" {
		section.UutType = defaultUutType
	}
	if section.Status == "" {
		section.Status = defaultStatus
	}
	if section.SerialNumber == "" {
		section.SerialNumber = defaultSerialNumber
	}
	if section.Category == "" {
		section.Category = defaultCategory
	}
	if section.SubCategory == "" {
		section.SubCategory = defaultSubCategory
	}
}
