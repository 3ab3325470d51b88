package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestFieldRuleBoundsAreInclusive(t *testing.T) {
	cases := []struct {
		rule  FieldRule
		value float64
		ok    bool
	}{
		{MoistureRule, 0, true},
		{MoistureRule, 100, true},
		{MoistureRule, -0.01, false},
		{MoistureRule, 100.01, false},
		{PHRule, 14, true},
		{PHRule, 14.01, false},
		{TemperatureRule, -50, true},
		{TemperatureRule, -50.1, false},
		{TemperatureRule, 100, true},
		{MoistureRule, math.NaN(), false},
		{PHRule, math.Inf(1), false},
	}

	for _, tc := range cases {
		err := tc.rule.Check(tc.value)
		if tc.ok {
			assert.NoError(t, err, "%s=%v", tc.rule.Field, tc.value)
			continue
		}
		var rv *RangeViolation
		require.True(t, errors.As(err, &rv), "%s=%v", tc.rule.Field, tc.value)
		assert.Equal(t, tc.rule.Field, rv.Field)
	}
}

func TestFieldRulePrecision(t *testing.T) {
	assert.NoError(t, MoistureRule.Check(45.67))
	assert.NoError(t, PHRule.Check(7.2))
	assert.NoError(t, TemperatureRule.Check(23.5))
	assert.NoError(t, TemperatureRule.Check(-12))

	var pv *PrecisionViolation
	require.ErrorAs(t, MoistureRule.Check(45.678), &pv)
	assert.Equal(t, 2, pv.Places)
	require.ErrorAs(t, TemperatureRule.Check(23.55), &pv)
	assert.Equal(t, "temperature", pv.Field)
	assert.EqualError(t, pv, "temperature allows at most 1 decimal place")
}

func TestValidateCreate(t *testing.T) {
	valid := CreateRequest{PlotID: "1234567", Moisture: f(45.67), PH: f(7.2), Temperature: f(23.5)}
	require.NoError(t, ValidateCreate(valid))

	missingPlot := valid
	missingPlot.PlotID = " "
	var mf *MissingFieldError
	require.ErrorAs(t, ValidateCreate(missingPlot), &mf)
	assert.Equal(t, "plotId", mf.Field)

	badPlot := valid
	badPlot.PlotID = "plot-1"
	var inv *InvalidFieldError
	require.ErrorAs(t, ValidateCreate(badPlot), &inv)
	assert.Equal(t, "plotId", inv.Field)

	missingPH := valid
	missingPH.PH = nil
	require.ErrorAs(t, ValidateCreate(missingPH), &mf)
	assert.Equal(t, "pH", mf.Field)

	tooWet := valid
	tooWet.Moisture = f(150)
	var rv *RangeViolation
	require.ErrorAs(t, ValidateCreate(tooWet), &rv)
	assert.Equal(t, "moisture", rv.Field)
	assert.EqualError(t, rv, "moisture must be between 0 and 100")
}

func TestValidateUpdateChecksOnlyPresentFields(t *testing.T) {
	require.NoError(t, ValidateUpdate(UpdateRequest{}))
	require.NoError(t, ValidateUpdate(UpdateRequest{PH: f(0)}))

	var rv *RangeViolation
	require.ErrorAs(t, ValidateUpdate(UpdateRequest{Moisture: f(150)}), &rv)
	assert.Equal(t, "moisture", rv.Field)

	var pv *PrecisionViolation
	require.ErrorAs(t, ValidateUpdate(UpdateRequest{PH: f(6.555)}), &pv)

	empty := ""
	var mf *MissingFieldError
	require.ErrorAs(t, ValidateUpdate(UpdateRequest{PlotID: &empty}), &mf)

	zero := time.Time{}
	var inv *InvalidFieldError
	require.ErrorAs(t, ValidateUpdate(UpdateRequest{Timestamp: &zero}), &inv)
	assert.Equal(t, "timestamp", inv.Field)
}

func TestBatchItemErrorNamesIndex(t *testing.T) {
	err := error(&BatchItemError{Index: 3, Err: &RangeViolation{Field: "moisture", Min: 0, Max: 100, Value: 101}})

	var v Violation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "items[3].moisture", v.ViolationField())
	assert.Equal(t, "out_of_range", v.ViolationCode())
	assert.True(t, IsValidation(err))

	notFound := &BatchItemError{Index: 1, Err: ErrPlotNotFound}
	assert.True(t, errors.Is(notFound, ErrPlotNotFound))
	assert.False(t, IsValidation(notFound))
	assert.Equal(t, "items[1].plotId", notFound.ViolationField())
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(ErrInvalidID))
	assert.True(t, IsValidation(ErrEmptyBatch))
	assert.True(t, IsValidation(&PrecisionViolation{Field: "pH", Places: 2}))
	assert.False(t, IsValidation(ErrNotFound))
	assert.False(t, IsValidation(errors.New("connection refused")))
}
