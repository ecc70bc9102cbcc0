// Package leave fronts the roster/leave queries with a Redis read-through
// cache. Leave windows change rarely compared to how often generation runs
// read them, so a short TTL takes most of the load off the leave tables.
package leave

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/chu-atlantique/bloc-planner/backend/internal/config"
	"github.com/chu-atlantique/bloc-planner/backend/internal/domain"
	"github.com/chu-atlantique/bloc-planner/backend/internal/repository"
	"github.com/redis/go-redis/v9"
)

// Cache implements trame.RosterSource. Cache failures are never fatal: the
// query falls through to the repository.
type Cache struct {
	cfg  *config.Config
	repo *repository.Repository
	rdb  *redis.Client
}

func NewCache(cfg *config.Config, repo *repository.Repository, rdb *redis.Client) *Cache {
	return &Cache{
		cfg:  cfg,
		repo: repo,
		rdb:  rdb,
	}
}

func (c *Cache) ActiveStaffBySite(ctx context.Context, siteID string) ([]*domain.StaffMember, error) {
	return c.repo.ActiveStaffBySite(ctx, siteID)
}

func (c *Cache) ApprovedLeaves(ctx context.Context, siteID string, start, end time.Time) ([]*domain.Leave, error) {
	key := leaveKey(siteID, start, end)

	cached, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		leaves := []*domain.Leave{}
		if err := json.Unmarshal([]byte(cached), &leaves); err == nil {
			return leaves, nil
		}
		// An unreadable entry is treated as a miss and rewritten below.
	} else if err != redis.Nil {
		slog.Warn("lecture du cache des congés impossible", "key", key, "error", err)
	}

	leaves, err := c.repo.ApprovedLeaves(ctx, siteID, start, end)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(leaves)
	if err != nil {
		return leaves, nil
	}

	ttl := time.Duration(c.cfg.Redis.LeaveCacheTTL) * time.Second
	if err := c.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		slog.Warn("écriture du cache des congés impossible", "key", key, "error", err)
	}

	return leaves, nil
}

func leaveKey(siteID string, start, end time.Time) string {
	return fmt.Sprintf("leaves:%s:%s:%s", siteID, start.Format("2006-01-02"), end.Format("2006-01-02"))
}
