package database

import (
	"context"
	"log"
	"strings"

	"gorm.io/gorm"
)

// ==================== 瞬时错误识别与重试 ====================

// 连接层瞬时故障的特征子串
// 覆盖 pgx 的断连报错与 Postgres 的 57P01(admin shutdown)/08xxx(连接异常) 状态码
var transientPatterns = []string{
	"connection reset",
	"connection refused",
	"broken pipe",
	"bad connection",
	"unexpected eof",
	"i/o timeout",
	"57P01",
	"SQLSTATE 08",
}

// IsTransientErr 判断是否为可重试的连接层瞬时错误
func IsTransientErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// RetryTransient 执行 fn，遇瞬时错误时重置连接池后重试一次
// 第二次失败直接向上传播，不做无限重试。
func RetryTransient(ctx context.Context, db *gorm.DB, fn func() error) error {
	err := fn()
	if err == nil || !IsTransientErr(err) {
		return err
	}

	log.Printf("[Database] 检测到瞬时连接错误，重置连接池后重试一次: %v", err)
	resetPool(ctx, db)

	return fn()
}

// resetPool 丢弃池中的旧连接并探活
func resetPool(ctx context.Context, db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("[Database] 获取底层 SQL DB 失败: %v", err)
		return
	}
	// 关闭空闲连接，强制后续请求重建 TCP 连接
	sqlDB.SetMaxIdleConns(0)
	sqlDB.SetMaxIdleConns(5)

	if err := sqlDB.PingContext(ctx); err != nil {
		log.Printf("[Database] 连接池探活失败: %v", err)
	}
}
