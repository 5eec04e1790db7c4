package draw

import (
	"context"
	"fmt"
	"time"

	"github.com/SlpAus/lotto-mirror-backend/pkg/lifecycle"
	"github.com/google/logger"
)

// CurrentSyncer is what the worker drives each cycle.
type CurrentSyncer interface {
	SyncCurrent(ctx context.Context) (*Draw, error)
}

// StartSyncWorker 是周期性的抽奖同步循环：启动时立即执行一次，之后每隔 interval 执行。
// 单次失败（包括 panic）只影响当前这一轮。它在 handle 被取消时返回。
func StartSyncWorker(h *lifecycle.Handle, syncer CurrentSyncer, interval time.Duration) {
	logger.Infof("draw: sync worker started, interval %s", interval)
	for {
		runCycle(h, syncer)
		if err := h.Sleep(interval); err != nil {
			logger.Info("draw: sync worker stopped")
			return
		}
	}
}

func runCycle(h *lifecycle.Handle, syncer CurrentSyncer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			logger.Errorf("draw: sync cycle failed: %v", err)
		}
	}()

	d, err := syncer.SyncCurrent(h.Ctx())
	if err != nil {
		return err
	}
	if d != nil {
		logger.Infof("draw: synced %q (#%d, %s)", d.Name, d.ExternalID, d.Status)
	}
	return nil
}
