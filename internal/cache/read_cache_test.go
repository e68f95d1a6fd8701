package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

// testClock 可推进的注入时钟
type testClock struct {
	current time.Time
}

func (c *testClock) Now() time.Time          { return c.current }
func (c *testClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

func newTestCache(fresh, stale time.Duration) (*ReadCache, *testClock) {
	clock := &testClock{current: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
	c := NewReadCache(fresh, stale)
	c.now = clock.Now
	return c, clock
}

func okLoader(v interface{}) Loader {
	return func(context.Context) (interface{}, error) { return v, nil }
}

func failLoader(err error) Loader {
	return func(context.Context) (interface{}, error) { return nil, err }
}

// ==================== 判定顺序 ====================

func TestReadCache_FreshHitSkipsLoader(t *testing.T) {
	c, clock := newTestCache(30*time.Second, 10*time.Minute)
	ctx := context.Background()

	v, from, err := c.Get(ctx, "k", okLoader("v1"))
	if err != nil || v != "v1" || from != ServedLive {
		t.Fatalf("首次读取应走实时: v=%v from=%s err=%v", v, from, err)
	}

	// 新鲜窗口内：不触达后端
	clock.Advance(29 * time.Second)
	calls := 0
	v, from, err = c.Get(ctx, "k", func(context.Context) (interface{}, error) {
		calls++
		return "v2", nil
	})
	if err != nil || v != "v1" || from != ServedFresh {
		t.Errorf("新鲜窗口应命中缓存: v=%v from=%s err=%v", v, from, err)
	}
	if calls != 0 {
		t.Errorf("新鲜命中不应调用 loader: %d", calls)
	}
}

func TestReadCache_ExpiredFreshGoesLive(t *testing.T) {
	c, clock := newTestCache(30*time.Second, 10*time.Minute)
	ctx := context.Background()

	c.Get(ctx, "k", okLoader("v1"))
	clock.Advance(31 * time.Second)

	v, from, err := c.Get(ctx, "k", okLoader("v2"))
	if err != nil || v != "v2" || from != ServedLive {
		t.Errorf("新鲜窗口过期应实时读取: v=%v from=%s err=%v", v, from, err)
	}
}

func TestReadCache_StaleFallbackOnLoaderError(t *testing.T) {
	c, clock := newTestCache(30*time.Second, 10*time.Minute)
	ctx := context.Background()

	c.Get(ctx, "k", okLoader("v1"))
	clock.Advance(5 * time.Minute)

	// 后端失败，过期窗口内兜底
	v, from, err := c.Get(ctx, "k", failLoader(errors.New("db down")))
	if err != nil || v != "v1" || from != ServedStale {
		t.Errorf("过期窗口应兜底旧值: v=%v from=%s err=%v", v, from, err)
	}
}

func TestReadCache_ErrorPastStaleWindow(t *testing.T) {
	c, clock := newTestCache(30*time.Second, 10*time.Minute)
	ctx := context.Background()

	c.Get(ctx, "k", okLoader("v1"))
	clock.Advance(11 * time.Minute)

	dbErr := errors.New("db down")
	_, _, err := c.Get(ctx, "k", failLoader(dbErr))
	if !errors.Is(err, dbErr) {
		t.Errorf("过期窗口外应抛出后端错误: %v", err)
	}
	// 失效条目被惰性清理
	if c.Len() != 0 {
		t.Errorf("失效条目应被清理: %d", c.Len())
	}
}

func TestReadCache_LiveRefreshResetsWindow(t *testing.T) {
	c, clock := newTestCache(30*time.Second, 10*time.Minute)
	ctx := context.Background()

	c.Get(ctx, "k", okLoader("v1"))
	clock.Advance(31 * time.Second)
	c.Get(ctx, "k", okLoader("v2")) // 实时刷新

	// 刷新后的新鲜窗口重新计时
	clock.Advance(29 * time.Second)
	v, from, _ := c.Get(ctx, "k", okLoader("v3"))
	if v != "v2" || from != ServedFresh {
		t.Errorf("刷新后窗口应重置: v=%v from=%s", v, from)
	}
}

// ==================== 失效 ====================

func TestReadCache_InvalidateAndClear(t *testing.T) {
	c, _ := newTestCache(30*time.Second, 10*time.Minute)
	ctx := context.Background()

	c.Get(ctx, "a", okLoader(1))
	c.Get(ctx, "b", okLoader(2))
	if c.Len() != 2 {
		t.Fatalf("期望 2 条缓存，实际 %d", c.Len())
	}

	c.Invalidate("a")
	if c.Len() != 1 {
		t.Errorf("Invalidate 后期望 1 条，实际 %d", c.Len())
	}

	// 清空后读取重新走实时
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Clear 后期望 0 条，实际 %d", c.Len())
	}
	_, from, _ := c.Get(ctx, "b", okLoader(3))
	if from != ServedLive {
		t.Errorf("清空后应实时读取: %s", from)
	}
}
