package domain

import (
	"math"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// FieldRule is the closed interval and decimal precision of a numeric field.
type FieldRule struct {
	Field  string
	Min    float64
	Max    float64
	Places int
}

var (
	MoistureRule    = FieldRule{Field: "moisture", Min: 0, Max: 100, Places: 2}
	PHRule          = FieldRule{Field: "pH", Min: 0, Max: 14, Places: 2}
	TemperatureRule = FieldRule{Field: "temperature", Min: -50, Max: 100, Places: 1}
)

// Check returns a *RangeViolation or *PrecisionViolation, or nil.
func (r FieldRule) Check(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < r.Min || v > r.Max {
		return &RangeViolation{Field: r.Field, Min: r.Min, Max: r.Max, Value: v}
	}
	if decimalPlaces(v) > r.Places {
		return &PrecisionViolation{Field: r.Field, Places: r.Places}
	}
	return nil
}

// Round rounds v half away from zero to the field's precision.
func (r FieldRule) Round(v float64) float64 {
	scale := math.Pow10(r.Places)
	return math.Round(v*scale) / scale
}

// ValidateCreate checks a full measurement payload. Fields are checked in a
// fixed order and the first problem is returned.
func ValidateCreate(req CreateRequest) error {
	if _, err := ParsePlotID(req.PlotID); err != nil {
		return err
	}
	if err := checkRequired(MoistureRule, req.Moisture); err != nil {
		return err
	}
	if err := checkRequired(PHRule, req.PH); err != nil {
		return err
	}
	return checkRequired(TemperatureRule, req.Temperature)
}

// ValidateUpdate checks only the fields present in a partial payload. Stored
// values of absent fields are not re-checked.
func ValidateUpdate(req UpdateRequest) error {
	if req.PlotID != nil {
		if _, err := ParsePlotID(*req.PlotID); err != nil {
			return err
		}
	}
	if err := checkOptional(MoistureRule, req.Moisture); err != nil {
		return err
	}
	if err := checkOptional(PHRule, req.PH); err != nil {
		return err
	}
	if err := checkOptional(TemperatureRule, req.Temperature); err != nil {
		return err
	}
	if req.Timestamp != nil && req.Timestamp.IsZero() {
		return &InvalidFieldError{Field: "timestamp", Reason: "must be a valid time"}
	}
	return nil
}

// ParsePlotID parses the plotId of a write payload.
func ParsePlotID(value string) (snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, &MissingFieldError{Field: "plotId"}
	}
	id, err := snowflake.ParseString(trimmed)
	if err != nil || id <= 0 {
		return 0, &InvalidFieldError{Field: "plotId", Reason: "must be a valid id"}
	}
	return id, nil
}

func checkRequired(rule FieldRule, v *float64) error {
	if v == nil {
		return &MissingFieldError{Field: rule.Field}
	}
	return rule.Check(*v)
}

func checkOptional(rule FieldRule, v *float64) error {
	if v == nil {
		return nil
	}
	return rule.Check(*v)
}

// decimalPlaces counts the digits after the point in the shortest
// representation that round-trips v, so 45.67 has 2 places.
func decimalPlaces(v float64) int {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return 0
	}
	return len(s) - dot - 1
}
