package task

import (
	"log"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/api/dto"
	"github.com/grey-chair-dev/spiral-groove-sub002/internal/service"
)

// ==================== TaskManager 同步任务管理器 ====================

// TaskManager 统一管理定时同步任务
// 管理范围：目录全链路（含专辑重建）、销售同步
type TaskManager struct {
	catalogTask *CatalogSyncTask
	salesTask   *SalesSyncTask
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	CatalogEnabled bool
	SalesEnabled   bool
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		CatalogEnabled: true,
		SalesEnabled:   true,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(syncSvc *service.SyncService, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{}
	if cfg.CatalogEnabled {
		tm.catalogTask = NewCatalogSyncTask(syncSvc)
	}
	if cfg.SalesEnabled {
		tm.salesTask = NewSalesSyncTask(syncSvc)
	}
	return tm
}

// Start 启动全部任务
func (tm *TaskManager) Start() {
	if tm.catalogTask != nil {
		tm.catalogTask.Start()
	}
	if tm.salesTask != nil {
		tm.salesTask.Start()
	}
	log.Println("[TaskManager] 同步任务已启动")
}

// Stop 停止全部任务
func (tm *TaskManager) Stop() {
	if tm.catalogTask != nil {
		tm.catalogTask.Stop()
	}
	if tm.salesTask != nil {
		tm.salesTask.Stop()
	}
	log.Println("[TaskManager] 同步任务已停止")
}

// TriggerCatalog 手动触发目录全链路；已有执行中的轮次时返回 false
func (tm *TaskManager) TriggerCatalog(req *dto.SyncCatalogRequest) bool {
	if tm.catalogTask == nil {
		return false
	}
	return tm.catalogTask.Trigger(req)
}

// TriggerSales 手动触发销售同步；已有执行中的轮次时返回 false
func (tm *TaskManager) TriggerSales(req *dto.SyncSalesRequest) bool {
	if tm.salesTask == nil {
		return false
	}
	return tm.salesTask.Trigger(req)
}
