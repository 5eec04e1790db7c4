package shutdown

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SlpAus/lotto-mirror-backend/internal/platform/database"
	"github.com/SlpAus/lotto-mirror-backend/pkg/lifecycle"
	"github.com/google/logger"
)

const (
	httpTimeout     = 15 * time.Second
	gracefulTimeout = 30 * time.Second
	forcefulTimeout = 1 * time.Second
)

// Coordinator 负责编排应用程序的优雅停机流程。
// 它接收外部创建的生命周期管理器，并使用它们来协调停机。
type Coordinator struct {
	GracefulManager *lifecycle.Manager
	ForcefulManager *lifecycle.Manager
}

// NewCoordinator 创建一个新的停机协调器。
func NewCoordinator(gracefulMgr, forcefulMgr *lifecycle.Manager) *Coordinator {
	return &Coordinator{
		GracefulManager: gracefulMgr,
		ForcefulManager: forcefulMgr,
	}
}

// ListenForSignalsAndShutdown 启动信号监听并阻塞，直到停机流程完成。
func (c *Coordinator) ListenForSignalsAndShutdown(server *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logger.Infof("shutdown: received %v, stopping...", sig)
	c.Shutdown(server)
}

// Shutdown runs the staged stop: http server, background services, stores.
func (c *Coordinator) Shutdown(server *http.Server) {
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Errorf("shutdown: http server: %v", err)
		} else {
			logger.Info("shutdown: http server closed")
		}
	}

	// --- 阶段一: 优雅停机 ---
	logger.Infof("shutdown: waiting up to %v for background services", gracefulTimeout)
	c.GracefulManager.Shutdown()
	remaining := c.GracefulManager.WaitWithTimeout(gracefulTimeout)
	if len(remaining) > 0 {
		// --- 阶段二: 强制停机 ---
		logger.Warningf("shutdown: still running after %v: %v, forcing", gracefulTimeout, remaining)
		c.ForcefulManager.Shutdown()
		c.ForcefulManager.WaitWithTimeout(forcefulTimeout)
	}

	if err := database.CloseRedis(); err != nil {
		logger.Errorf("shutdown: redis close: %v", err)
	}
	if err := database.Close(); err != nil {
		logger.Errorf("shutdown: database close: %v", err)
	}
	logger.Info("shutdown: complete")
}
