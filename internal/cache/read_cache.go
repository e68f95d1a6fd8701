package cache

import (
	"context"
	"sync"
	"time"
)

// ==================== ReadCache 读穿透缓存 ====================

// ServedFrom 响应来源标记
type ServedFrom string

const (
	ServedFresh ServedFrom = "fresh-cache" // 新鲜窗口内命中，未触达后端
	ServedLive  ServedFrom = "live"        // 实时读取成功
	ServedStale ServedFrom = "stale-cache" // 后端失败，过期窗口内兜底
)

// Loader 实时读取函数
type Loader func(ctx context.Context) (interface{}, error)

// entry 内部结构，记录最后一次成功的载荷与拉取时间
type entry struct {
	payload   interface{}
	fetchedAt time.Time
}

// ReadCache 进程内 TTL 读缓存
// 两档 TTL：freshTTL 内直接返回不碰后端；后端失败时 staleTTL 内
// 返回旧值兜底；两者都不可用才把错误抛给调用方。
// 刻意不做抖动 TTL 和后台刷新——读流量撑不起这个复杂度。
type ReadCache struct {
	mu      sync.Mutex
	entries map[string]entry

	freshTTL time.Duration
	staleTTL time.Duration

	// now 可注入时钟，单元测试不需要真实等待
	now func() time.Time
}

// NewReadCache 创建读缓存
func NewReadCache(freshTTL, staleTTL time.Duration) *ReadCache {
	return &ReadCache{
		entries:  make(map[string]entry),
		freshTTL: freshTTL,
		staleTTL: staleTTL,
		now:      time.Now,
	}
}

// Get 读取 key 对应的载荷
// 判定顺序：新鲜命中 -> 实时读取 -> 过期兜底 -> 报错
func (c *ReadCache) Get(ctx context.Context, key string, loader Loader) (interface{}, ServedFrom, error) {
	now := c.now()

	c.mu.Lock()
	cached, ok := c.entries[key]
	c.mu.Unlock()

	// 新鲜窗口内直接返回
	if ok && now.Sub(cached.fetchedAt) < c.freshTTL {
		return cached.payload, ServedFresh, nil
	}

	// 实时读取，成功则整体替换缓存条目
	payload, err := loader(ctx)
	if err == nil {
		c.mu.Lock()
		c.entries[key] = entry{payload: payload, fetchedAt: now}
		c.mu.Unlock()
		return payload, ServedLive, nil
	}

	// 后端失败：过期窗口内用旧值兜底
	if ok && now.Sub(cached.fetchedAt) < c.staleTTL {
		return cached.payload, ServedStale, nil
	}

	// 兜底也不可用，惰性清理后把错误抛上去
	if ok {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
	}
	return nil, "", err
}

// Invalidate 删除指定 key（衍生表重建完成后调用，让读端尽快看到新数据）
func (c *ReadCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear 清空全部缓存条目（重建专辑后调用）
func (c *ReadCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len 当前缓存条目数
func (c *ReadCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
