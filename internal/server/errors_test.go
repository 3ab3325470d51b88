package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	plotdomain "github.com/smallbiznis/soildata/internal/plot/domain"
	soildatadomain "github.com/smallbiznis/soildata/internal/soildata/domain"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		typ    string
	}{
		{&soildatadomain.PrecisionViolation{Field: "pH", Places: 2}, http.StatusBadRequest, "validation_error"},
		{&soildatadomain.MissingFieldError{Field: "plotId"}, http.StatusBadRequest, "validation_error"},
		{soildatadomain.ErrInvalidID, http.StatusBadRequest, "validation_error"},
		{fmt.Errorf("wrapped: %w", soildatadomain.ErrNotFound), http.StatusNotFound, "not_found"},
		{plotdomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{plotdomain.ErrInvalidName, http.StatusBadRequest, "validation_error"},
		{plotdomain.ErrInUse, http.StatusConflict, "conflict"},
		{plotdomain.ErrNameTaken, http.StatusConflict, "conflict"},
		{invalidRequestError(), http.StatusBadRequest, "validation_error"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		{nil, http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		status, payload := mapError(tc.err)
		assert.Equal(t, tc.status, status, "%v", tc.err)
		assert.Equal(t, tc.typ, payload.Type, "%v", tc.err)
	}
}

func TestClassifyErrorForLog(t *testing.T) {
	typ, code := classifyErrorForLog(&soildatadomain.RangeViolation{Field: "temperature", Min: -50, Max: 100, Value: 101})
	assert.Equal(t, "validation_error", typ)
	assert.Equal(t, "out_of_range", code)

	typ, code = classifyErrorForLog(errors.New("dial tcp: refused"))
	assert.Equal(t, "internal_error", typ)
	assert.Equal(t, "internal_error", code)
}
