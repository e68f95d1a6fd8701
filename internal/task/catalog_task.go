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

// ==================== CatalogSyncTask 目录同步任务 ====================

// CatalogSyncTask 定时执行目录全链路（分类 -> 目录 -> 专辑重建）
// 调度策略：启动后立即跑一轮增量；此后每小时增量、每天凌晨三点全量。
// running 标记保证同一时刻只有一轮在跑，错过的周期直接跳过。
type CatalogSyncTask struct {
	syncSvc *service.SyncService
	cron    *cron.Cron
	running atomic.Bool

	runTimeout time.Duration
}

// NewCatalogSyncTask 创建目录同步任务
func NewCatalogSyncTask(syncSvc *service.SyncService) *CatalogSyncTask {
	return &CatalogSyncTask{
		syncSvc:    syncSvc,
		cron:       cron.New(cron.WithSeconds()),
		runTimeout: 20 * time.Minute,
	}
}

// Start 启动定时任务
func (t *CatalogSyncTask) Start() {
	// 每小时增量（续走半途游标）
	_, err := t.cron.AddFunc("0 5 * * * *", func() {
		t.run(&dto.SyncCatalogRequest{})
	})
	if err != nil {
		log.Fatalf("[CatalogSyncTask] 无法注册增量任务: %v", err)
	}

	// 每天凌晨三点全量（忽略游标从头走）
	_, err = t.cron.AddFunc("0 0 3 * * *", func() {
		t.run(&dto.SyncCatalogRequest{Full: true, Limit: 1000})
	})
	if err != nil {
		log.Fatalf("[CatalogSyncTask] 无法注册全量任务: %v", err)
	}

	t.cron.Start()
	log.Println("[CatalogSyncTask] 目录同步任务已启动 (每小时增量 / 每天 03:00 全量)")

	// 启动即跑一轮，不等第一个整点
	go t.run(&dto.SyncCatalogRequest{})
}

// Stop 停止任务
func (t *CatalogSyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[CatalogSyncTask] 已停止")
}

// Trigger 手动触发一轮（HTTP 入口调用）
func (t *CatalogSyncTask) Trigger(req *dto.SyncCatalogRequest) bool {
	if t.running.Load() {
		return false
	}
	go t.run(req)
	return true
}

// run 执行一轮全链路
func (t *CatalogSyncTask) run(req *dto.SyncCatalogRequest) {
	if !t.running.CompareAndSwap(false, true) {
		log.Println("[CatalogSyncTask] 上一轮尚未结束，跳过本周期")
		return
	}
	defer t.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), t.runTimeout)
	defer cancel()

	start := time.Now()
	resp, err := t.syncSvc.RunCatalogPipeline(ctx, req)
	if err != nil {
		log.Printf("[CatalogSyncTask] 执行失败 (耗时 %v): %v", time.Since(start).Round(time.Millisecond), err)
		return
	}

	catalog := resp.Catalog
	albums := resp.Albums
	if catalog != nil && albums != nil {
		log.Printf("[CatalogSyncTask] 完成: %d 条目 / %d 变体 upsert / %d 库存更新 / %d 专辑 (耗时 %v)",
			catalog.ItemsSeen, catalog.VariationsUpserted, catalog.InventoryRowsUpdated,
			albums.AlbumCount, time.Since(start).Round(time.Millisecond))
	}
}
