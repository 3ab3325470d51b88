package domain

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	plotdomain "github.com/smallbiznis/soildata/internal/plot/domain"
)

//go:generate mockgen -source=service.go -destination=./mocks/mock_service.go -package=mocks

type Service interface {
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	BulkCreate(ctx context.Context, req BulkCreateRequest) (*BulkCreateResponse, error)
}

type CreateRequest struct {
	PlotID      string   `json:"plotId"`
	Moisture    *float64 `json:"moisture"`
	PH          *float64 `json:"pH"`
	Temperature *float64 `json:"temperature"`
}

// UpdateRequest is a partial update; nil fields keep their stored value.
type UpdateRequest struct {
	PlotID      *string    `json:"plotId,omitempty"`
	Moisture    *float64   `json:"moisture,omitempty"`
	PH          *float64   `json:"pH,omitempty"`
	Temperature *float64   `json:"temperature,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

type BulkCreateRequest struct {
	Items []CreateRequest `json:"items"`
}

type Response struct {
	ID          string              `json:"id"`
	PlotID      string              `json:"plotId"`
	Moisture    float64             `json:"moisture"`
	PH          float64             `json:"pH"`
	Temperature float64             `json:"temperature"`
	Timestamp   time.Time           `json:"timestamp"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
	Plot        *plotdomain.Summary `json:"plot,omitempty"`
}

type ListResponse struct {
	Data       []Response `json:"data"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"totalPages"`
}

type BulkCreateResponse struct {
	Data []Response `json:"data"`
}

// MaxBatchSize bounds a single bulk create.
const MaxBatchSize = 1000

func ParseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
