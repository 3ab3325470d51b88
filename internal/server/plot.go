package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	plotdomain "github.com/smallbiznis/soildata/internal/plot/domain"
)

type createPlotRequest struct {
	Name     string         `json:"name"`
	Metadata map[string]any `json:"metadata"`
}

func (s *Server) CreatePlot(c *gin.Context) {
	var req createPlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.plotSvc.Create(c.Request.Context(), plotdomain.CreateRequest{
		Name:     strings.TrimSpace(req.Name),
		Metadata: req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) ListPlots(c *gin.Context) {
	var query struct {
		Page  string `form:"page"`
		Limit string `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	page, err := parseOptionalInt(query.Page)
	if err != nil {
		AbortWithError(c, newValidationError("page", "invalid", "page must be an integer"))
		return
	}
	limit, err := parseOptionalInt(query.Limit)
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid", "limit must be an integer"))
		return
	}

	resp, err := s.plotSvc.List(c.Request.Context(), plotdomain.ListRequest{Page: page, Limit: limit})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetPlot(c *gin.Context) {
	resp, err := s.plotSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeletePlot(c *gin.Context) {
	if err := s.plotSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Plot deleted successfully"})
}
