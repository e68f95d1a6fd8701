package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ==================== 调度器鉴权 ====================

// SchedulerAuthConfig 调度器鉴权配置
// 两个密钥各对应一个请求头，可只配置其中一个。
type SchedulerAuthConfig struct {
	// SchedulerToken 外部调度器（cron 服务）密钥，对应 X-Scheduler-Token
	SchedulerToken string
	// SharedSecret 人工触发共享密钥，对应 X-Sync-Secret
	SharedSecret string
}

// 全局配置
var schedulerAuthConfig = &SchedulerAuthConfig{}

// SetSchedulerAuthConfig 设置调度器鉴权配置
func SetSchedulerAuthConfig(cfg *SchedulerAuthConfig) {
	schedulerAuthConfig = cfg
}

// SchedulerAuth 调度器鉴权中间件
// X-Scheduler-Token 校验调度器密钥，X-Sync-Secret 校验人工触发密钥，
// 任一匹配即放行。两个密钥都未配置时拒绝一切触发请求，避免裸奔上线。
func SchedulerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := schedulerAuthConfig
		if cfg.SchedulerToken == "" && cfg.SharedSecret == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"code":    503,
				"message": "同步触发密钥未配置",
			})
			c.Abort()
			return
		}

		if secretMatch(c.GetHeader("X-Scheduler-Token"), cfg.SchedulerToken) ||
			secretMatch(c.GetHeader("X-Sync-Secret"), cfg.SharedSecret) {
			c.Next()
			return
		}

		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    401,
			"message": "鉴权失败",
		})
		c.Abort()
	}
}

func secretMatch(got, want string) bool {
	return got != "" && want != "" &&
		subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
