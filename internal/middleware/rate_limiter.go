package middleware

import (
	"fmt"
	"sync"
	"time"
)

// ==================== SyncRateLimiter 同步限流器 ====================

// SyncRateLimiter 同步任务限流器
// 防止调度器或人工频繁触发手动同步导致 Square API 限流
type SyncRateLimiter struct {
	locks sync.Map // key -> *lockEntry
}

// lockEntry 锁条目
type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// 全局限流器实例
var globalLimiter = &SyncRateLimiter{}

// GetLimiter 获取全局限流器
func GetLimiter() *SyncRateLimiter {
	return globalLimiter
}

// ==================== 限流检查 ====================

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查是否允许执行
// key: 限流键，如 "global:catalog"
// interval: 冷却间隔
func (r *SyncRateLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(entry.lastTime)

	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 重置指定 key 的限流
func (r *SyncRateLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// ==================== Key 生成工具 ====================

// SyncType 同步类型
type SyncType string

const (
	SyncTypeCatalog SyncType = "catalog"
	SyncTypeSales   SyncType = "sales"
	SyncTypeAlbums  SyncType = "albums"
)

// GlobalSyncKey 生成全局同步 Key
func GlobalSyncKey(syncType SyncType) string {
	return fmt.Sprintf("global:%s", syncType)
}

// ==================== 默认限流间隔 ====================

// DefaultIntervals 默认限流间隔配置
var DefaultIntervals = map[SyncType]time.Duration{
	SyncTypeCatalog: 1 * time.Minute,
	SyncTypeSales:   30 * time.Second,
	SyncTypeAlbums:  30 * time.Second,
}

// GetInterval 获取同步类型对应的默认间隔
func GetInterval(syncType SyncType) time.Duration {
	if d, ok := DefaultIntervals[syncType]; ok {
		return d
	}
	return 1 * time.Minute
}
