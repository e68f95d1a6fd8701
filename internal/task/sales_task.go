package task

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/api/dto"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/service"
)

// ==================== SalesSyncTask 销售同步任务 ====================

// SalesSyncTask 定时执行销售同步
// 每十分钟跑一轮增量（回看 24 小时，幂等写入保证重叠无重复计数）。
type SalesSyncTask struct {
	syncSvc *service.SyncService
	cron    *cron.Cron
	running atomic.Bool

	runTimeout time.Duration
}

// NewSalesSyncTask 创建销售同步任务
func NewSalesSyncTask(syncSvc *service.SyncService) *SalesSyncTask {
	return &SalesSyncTask{
		syncSvc:    syncSvc,
		cron:       cron.New(cron.WithSeconds()),
		runTimeout: 10 * time.Minute,
	}
}

// Start 启动定时任务
func (t *SalesSyncTask) Start() {
	_, err := t.cron.AddFunc("0 */10 * * * *", func() {
		t.run(&dto.SyncSalesRequest{Mode: service.SalesModeIncremental})
	})
	if err != nil {
		log.Fatalf("[SalesSyncTask] 无法注册定时任务: %v", err)
	}

	t.cron.Start()
	log.Println("[SalesSyncTask] 销售同步任务已启动 (每 10 分钟)")
}

// Stop 停止任务
func (t *SalesSyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[SalesSyncTask] 已停止")
}

// Trigger 手动触发一轮（HTTP 入口调用）
func (t *SalesSyncTask) Trigger(req *dto.SyncSalesRequest) bool {
	if t.running.Load() {
		return false
	}
	go t.run(req)
	return true
}

// run 执行一轮销售同步
func (t *SalesSyncTask) run(req *dto.SyncSalesRequest) {
	if !t.running.CompareAndSwap(false, true) {
		log.Println("[SalesSyncTask] 上一轮尚未结束，跳过本周期")
		return
	}
	defer t.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), t.runTimeout)
	defer cancel()

	start := time.Now()
	resp, err := t.syncSvc.RunSalesSync(ctx, req)
	if err != nil {
		log.Printf("[SalesSyncTask] 执行失败 (耗时 %v): %v", time.Since(start).Round(time.Millisecond), err)
		return
	}

	log.Printf("[SalesSyncTask] 完成: %d 订单 / %d 新订单行 / 销量 +%d (耗时 %v)",
		resp.OrdersSeen, resp.LineItemsInserted, resp.SoldCountApplied,
		time.Since(start).Round(time.Millisecond))
}
