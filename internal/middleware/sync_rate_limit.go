package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 同步限流中间件 ====================

// SyncRateLimit 同步限流中间件
// 单店部署，按同步类型做全局冷却
//
// 使用示例:
//
//	router.POST("/api/sync/catalog",
//	    middleware.SyncRateLimit(middleware.SyncTypeCatalog, 0),
//	    controller.TriggerCatalogSync,
//	)
//
// 参数:
//   - syncType: 同步类型
//   - interval: 冷却间隔，0 表示使用默认值
func SyncRateLimit(syncType SyncType, interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		interval = GetInterval(syncType)
	}

	return func(c *gin.Context) {
		key := GlobalSyncKey(syncType)

		result := GetLimiter().Check(key, interval)
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": formatRetryMessage(result.RetryAfter),
				"data": gin.H{
					"retry_after": retryAfter,
					"sync_type":   syncType,
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("同步冷却中，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60
	if remainingSeconds == 0 {
		return fmt.Sprintf("同步冷却中，请 %d 分钟后重试", minutes)
	}
	return fmt.Sprintf("同步冷却中，请 %d 分 %d 秒后重试", minutes, remainingSeconds)
}
