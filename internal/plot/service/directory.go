package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	plotdomain "github.com/smallbiznis/soildata/internal/plot/domain"
	"gorm.io/gorm"
)

type directory struct {
	repo plotdomain.Repository
}

func NewDirectory(repo plotdomain.Repository) plotdomain.Directory {
	return &directory{repo: repo}
}

func (d *directory) Exists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	return d.repo.Exists(ctx, db, id)
}

// Summaries returns the id/name projection for every id that still exists.
// Missing plots are simply absent from the map.
func (d *directory) Summaries(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]plotdomain.Summary, error) {
	unique := make([]snowflake.ID, 0, len(ids))
	seen := make(map[snowflake.ID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	out := make(map[snowflake.ID]plotdomain.Summary, len(unique))
	if len(unique) == 0 {
		return out, nil
	}

	plots, err := d.repo.FindByIDs(ctx, db, unique)
	if err != nil {
		return nil, err
	}
	for _, p := range plots {
		out[p.ID] = plotdomain.Summary{ID: p.ID.String(), Name: p.Name}
	}
	return out, nil
}
