package health

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/SlpAus/lotto-mirror-backend/internal/platform/database"
	"github.com/SlpAus/lotto-mirror-backend/pkg/lifecycle"
	"github.com/google/logger"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 2 * time.Second

var runIDPattern = regexp.MustCompile(`run_id:([a-f0-9]+)`)

// Checker 定期探测 Redis，并把结果写入 database 的全局健康状态。
type Checker struct {
	rdb *redis.Client
	// OnRestart is called when redis comes back with a new run_id.
	OnRestart func()
}

func NewChecker(rdb *redis.Client) *Checker {
	return &Checker{rdb: rdb}
}

// getRedisRunID 从Redis服务器信息中提取run_id
func (c *Checker) getRedisRunID(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	info, err := c.rdb.Info(ctx, "server").Result()
	if err != nil {
		return "", err
	}
	matches := runIDPattern.FindStringSubmatch(info)
	if len(matches) < 2 {
		return "", fmt.Errorf("run_id not found in redis INFO")
	}
	return matches[1], nil
}

// InitializeRunID records the run_id seen at startup.
func (c *Checker) InitializeRunID(ctx context.Context) error {
	runID, err := c.getRedisRunID(ctx)
	if err != nil {
		return fmt.Errorf("cannot read redis run_id: %w", err)
	}
	database.UpdateStatus(true, runID)
	logger.Infof("health: redis run_id %s", runID)
	return nil
}

// PerformCheck 执行一次检查。返回 Redis 当前是否可用。
func (c *Checker) PerformCheck(ctx context.Context) bool {
	runID, err := c.getRedisRunID(ctx)
	if err != nil {
		database.UpdateStatus(false, "")
		return false
	}
	if database.UpdateStatus(true, runID) {
		// fill sessions live only in redis
		logger.Warningf("health: redis restarted (run_id %s), open fill sessions were lost", runID)
		if c.OnRestart != nil {
			c.OnRestart()
		}
	}
	return true
}

// StartRedisHealthCheck 在生命周期句柄上阻塞式地循环检查，直到句柄被取消。
func StartRedisHealthCheck(h *lifecycle.Handle, c *Checker, interval time.Duration) {
	logger.Infof("health: redis checker started, interval %v", interval)
	for {
		if err := h.Sleep(interval); err != nil {
			logger.Info("health: redis checker stopped")
			return
		}
		c.PerformCheck(h.Ctx())
	}
}
