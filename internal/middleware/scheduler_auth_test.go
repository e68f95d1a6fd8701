package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthTestRouter() *gin.Engine {
	r := gin.New()
	r.POST("/sync", SchedulerAuth(), func(c *gin.Context) {
		c.JSON(200, gin.H{"code": 0})
	})
	return r
}

// ==================== 调度器鉴权 ====================

func TestSchedulerAuth_AcceptsEitherHeader(t *testing.T) {
	SetSchedulerAuthConfig(&SchedulerAuthConfig{
		SchedulerToken: "scheduler-token",
		SharedSecret:   "manual-secret",
	})
	r := newAuthTestRouter()

	cases := map[string]string{
		"X-Scheduler-Token": "scheduler-token",
		"X-Sync-Secret":     "manual-secret",
	}
	for header, secret := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/sync", nil)
		req.Header.Set(header, secret)
		r.ServeHTTP(w, req)

		if w.Code != 200 {
			t.Errorf("%s 正确密钥应放行，实际 %d", header, w.Code)
		}
	}
}

func TestSchedulerAuth_RejectsBadToken(t *testing.T) {
	SetSchedulerAuthConfig(&SchedulerAuthConfig{
		SchedulerToken: "scheduler-token",
		SharedSecret:   "manual-secret",
	})
	r := newAuthTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	req.Header.Set("X-Scheduler-Token", "wrong")
	r.ServeHTTP(w, req)

	if w.Code != 401 {
		t.Errorf("错误密钥应拒绝，实际 %d", w.Code)
	}

	// 密钥不能跨请求头混用
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/sync", nil)
	req.Header.Set("X-Scheduler-Token", "manual-secret")
	r.ServeHTTP(w, req)
	if w.Code != 401 {
		t.Errorf("跨头密钥应拒绝，实际 %d", w.Code)
	}

	// 无请求头
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/sync", nil)
	r.ServeHTTP(w, req)
	if w.Code != 401 {
		t.Errorf("缺失密钥应拒绝，实际 %d", w.Code)
	}
}

func TestSchedulerAuth_SingleSecretConfigured(t *testing.T) {
	// 只配置人工触发密钥时调度器请求头不可用
	SetSchedulerAuthConfig(&SchedulerAuthConfig{SharedSecret: "manual-secret"})
	r := newAuthTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	req.Header.Set("X-Sync-Secret", "manual-secret")
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Errorf("已配置的密钥应放行，实际 %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/sync", nil)
	req.Header.Set("X-Scheduler-Token", "manual-secret")
	r.ServeHTTP(w, req)
	if w.Code != 401 {
		t.Errorf("未配置的请求头应拒绝，实际 %d", w.Code)
	}
}

func TestSchedulerAuth_RejectsWhenUnconfigured(t *testing.T) {
	SetSchedulerAuthConfig(&SchedulerAuthConfig{})
	r := newAuthTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	req.Header.Set("X-Scheduler-Token", "")
	r.ServeHTTP(w, req)

	if w.Code != 503 {
		t.Errorf("未配置密钥应返回 503，实际 %d", w.Code)
	}
}

// ==================== 限流 ====================

func TestSyncRateLimit_Cooldown(t *testing.T) {
	GetLimiter().Reset(GlobalSyncKey(SyncTypeCatalog))

	r := gin.New()
	r.POST("/sync", SyncRateLimit(SyncTypeCatalog, 200*time.Millisecond), func(c *gin.Context) {
		c.JSON(200, gin.H{"code": 0})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sync", nil))
	if w.Code != 200 {
		t.Fatalf("首次触发应放行，实际 %d", w.Code)
	}

	// 冷却期内：限流
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sync", nil))
	if w.Code != 429 {
		t.Errorf("冷却期内应限流，实际 %d", w.Code)
	}

	// 冷却结束后放行
	time.Sleep(250 * time.Millisecond)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sync", nil))
	if w.Code != 200 {
		t.Errorf("冷却结束应放行，实际 %d", w.Code)
	}
}

func TestSyncRateLimiter_KeysIndependent(t *testing.T) {
	limiter := &SyncRateLimiter{}

	if res := limiter.Check("global:catalog", time.Minute); !res.Allowed {
		t.Fatal("首次检查应放行")
	}
	// 不同 key 不受影响
	if res := limiter.Check("global:sales", time.Minute); !res.Allowed {
		t.Error("不同 key 应独立计时")
	}
	// 同一 key 冷却中
	res := limiter.Check("global:catalog", time.Minute)
	if res.Allowed {
		t.Error("冷却期内应拒绝")
	}
	if res.RetryAfter <= 0 {
		t.Errorf("应返回剩余冷却时间: %v", res.RetryAfter)
	}
}
