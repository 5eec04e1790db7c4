package database

import (
	"sync"

	"github.com/google/logger"
)

// statusManager 负责线程安全地管理Redis的健康状态。
type statusManager struct {
	mu             sync.RWMutex
	isRedisHealthy bool
	lastKnownRunID string
}

var globalStatus = &statusManager{
	isRedisHealthy: true,
}

// IsRedisHealthy returns the last observed redis health.
func IsRedisHealthy() bool {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.isRedisHealthy
}

// UpdateStatus records a health observation and reports whether redis
// restarted (its run_id changed) since the last healthy observation.
func UpdateStatus(isHealthy bool, runID string) (restarted bool) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()

	if globalStatus.isRedisHealthy != isHealthy {
		globalStatus.isRedisHealthy = isHealthy
		if isHealthy {
			logger.Info("health: redis is [available]")
		} else {
			logger.Warning("health: redis is [unavailable]")
		}
	}

	if isHealthy {
		restarted = globalStatus.lastKnownRunID != "" && globalStatus.lastKnownRunID != runID
		globalStatus.lastKnownRunID = runID
	}
	return restarted
}

// LastKnownRunID returns the run_id of the last healthy observation.
func LastKnownRunID() string {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.lastKnownRunID
}
