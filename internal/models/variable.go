package models

import (
	"strconv"
	"strings"
	"time"
)

// VariableCategory groups business variables and drives priority classification.
type VariableCategory string

const (
	CategoryPricing     VariableCategory = "pricing"
	CategoryDeposit     VariableCategory = "deposit"
	CategoryTravel      VariableCategory = "travel"
	CategoryBooking     VariableCategory = "booking"
	CategoryFeature     VariableCategory = "feature"
	CategoryAI          VariableCategory = "ai"
	CategoryEnvironment VariableCategory = "environment"
	CategoryMonitoring  VariableCategory = "monitoring"
)

// AllCategories lists every known category in a stable order.
var AllCategories = []VariableCategory{
	CategoryPricing,
	CategoryDeposit,
	CategoryTravel,
	CategoryBooking,
	CategoryFeature,
	CategoryAI,
	CategoryEnvironment,
	CategoryMonitoring,
}

// Valid reports whether the category is one of the known tags.
func (c VariableCategory) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// VariableType defines supported types for variable values.
type VariableType string

const (
	VariableTypeString  VariableType = "STRING"
	VariableTypeNumber  VariableType = "NUMBER"
	VariableTypeBoolean VariableType = "BOOLEAN"
)

// Valid reports whether the type tag is supported.
func (t VariableType) Valid() bool {
	switch t {
	case VariableTypeString, VariableTypeNumber, VariableTypeBoolean:
		return true
	}
	return false
}

// ConfigVariable represents a persisted business variable. The value is
// string-encoded; the type tag is fixed when the key is first created.
type ConfigVariable struct {
	Category    VariableCategory `db:"category" json:"category"`
	Key         string           `db:"key" json:"key"`
	Value       string           `db:"value" json:"value"`
	Type        VariableType     `db:"type" json:"type"`
	Description *string          `db:"description" json:"description,omitempty"`
	UpdatedBy   *string          `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// NormalizeValue validates a raw value against the type tag and returns its
// canonical string encoding. Numbers are re-encoded so "5" and "5.0" collapse
// to the same representation.
func NormalizeValue(t VariableType, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	switch t {
	case VariableTypeBoolean:
		switch strings.ToLower(raw) {
		case "true":
			return "true", true
		case "false":
			return "false", true
		}
		return "", false
	case VariableTypeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return "", false
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	case VariableTypeString:
		return raw, true
	}
	return "", false
}

// ValuesEqual compares two raw values under the given type tag.
func ValuesEqual(t VariableType, a, b string) bool {
	na, okA := NormalizeValue(t, a)
	nb, okB := NormalizeValue(t, b)
	if !okA || !okB {
		return a == b
	}
	return na == nb
}
