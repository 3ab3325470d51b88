package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	soildatadomain "github.com/smallbiznis/soildata/internal/soildata/domain"
)

type listSoilDataQuery struct {
	PlotID         string `form:"plotId"`
	FromDate       string `form:"fromDate"`
	ToDate         string `form:"toDate"`
	MinMoisture    string `form:"minMoisture"`
	MaxMoisture    string `form:"maxMoisture"`
	MinPH          string `form:"minPh"`
	MaxPH          string `form:"maxPh"`
	MinTemperature string `form:"minTemperature"`
	MaxTemperature string `form:"maxTemperature"`
	Page           string `form:"page"`
	Limit          string `form:"limit"`
}

func (s *Server) ListSoilData(c *gin.Context) {
	var query listSoilDataQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req, err := parseListSoilDataQuery(query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.soilDataSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// parseListSoilDataQuery turns raw query values into a typed request.
// Malformed values are rejected; bounds and paging are otherwise passed
// through for the service to resolve.
func parseListSoilDataQuery(q listSoilDataQuery) (soildatadomain.ListRequest, error) {
	var (
		req soildatadomain.ListRequest
		err error
	)

	if req.PlotID, err = parseOptionalSnowflakeID(q.PlotID); err != nil {
		return req, newValidationError("plotId", "invalid", "plotId must be a valid id")
	}
	if req.FromDate, err = parseOptionalTime(q.FromDate, false); err != nil {
		return req, newValidationError("fromDate", "invalid", "fromDate must be RFC3339 or YYYY-MM-DD")
	}
	if req.ToDate, err = parseOptionalTime(q.ToDate, true); err != nil {
		return req, newValidationError("toDate", "invalid", "toDate must be RFC3339 or YYYY-MM-DD")
	}

	bounds := []struct {
		field string
		raw   string
		dst   **float64
	}{
		{"minMoisture", q.MinMoisture, &req.MinMoisture},
		{"maxMoisture", q.MaxMoisture, &req.MaxMoisture},
		{"minPh", q.MinPH, &req.MinPH},
		{"maxPh", q.MaxPH, &req.MaxPH},
		{"minTemperature", q.MinTemperature, &req.MinTemperature},
		{"maxTemperature", q.MaxTemperature, &req.MaxTemperature},
	}
	for _, b := range bounds {
		if *b.dst, err = parseOptionalFloat(b.raw); err != nil {
			return req, newValidationError(b.field, "invalid", b.field+" must be a number")
		}
	}

	if req.Page, err = parseOptionalInt(q.Page); err != nil {
		return req, newValidationError("page", "invalid", "page must be an integer")
	}
	if req.Limit, err = parseOptionalInt(q.Limit); err != nil {
		return req, newValidationError("limit", "invalid", "limit must be an integer")
	}

	return req, nil
}

func (s *Server) GetSoilData(c *gin.Context) {
	resp, err := s.soilDataSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateSoilData(c *gin.Context) {
	var req soildatadomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.soilDataSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) BulkCreateSoilData(c *gin.Context) {
	var req soildatadomain.BulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.soilDataSvc.BulkCreate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) UpdateSoilData(c *gin.Context) {
	var req soildatadomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.soilDataSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteSoilData(c *gin.Context) {
	if err := s.soilDataSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Soil data measurement deleted successfully"})
}
