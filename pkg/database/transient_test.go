package database

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestIsTransientErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"连接重置", errors.New("read tcp 10.0.0.1:5432: connection reset by peer"), true},
		{"连接拒绝", errors.New("dial tcp: connection refused"), true},
		{"管理员关停", errors.New("FATAL: terminating connection due to administrator command (SQLSTATE 57P01)"), true},
		{"连接异常状态码", errors.New("connection failure (SQLSTATE 08006)"), true},
		{"约束冲突", errors.New("duplicate key value violates unique constraint"), false},
		{"业务错误", errors.New("record not found"), false},
	}

	for _, tc := range cases {
		if got := IsTransientErr(tc.err); got != tc.want {
			t.Errorf("%s: 期望 %v，实际 %v", tc.name, tc.want, got)
		}
	}
}

func TestRetryTransient(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	ctx := context.Background()

	// 瞬时错误：重试一次后成功
	calls := 0
	err = RetryTransient(ctx, db, func() error {
		calls++
		if calls == 1 {
			return errors.New("broken pipe")
		}
		return nil
	})
	if err != nil {
		t.Errorf("重试后应成功: %v", err)
	}
	if calls != 2 {
		t.Errorf("期望执行 2 次，实际 %d", calls)
	}

	// 非瞬时错误：不重试
	calls = 0
	permanent := errors.New("duplicate key")
	err = RetryTransient(ctx, db, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Errorf("非瞬时错误应原样传播: %v", err)
	}
	if calls != 1 {
		t.Errorf("非瞬时错误不应重试: %d", calls)
	}

	// 持续瞬时错误：只重试一次
	calls = 0
	err = RetryTransient(ctx, db, func() error {
		calls++
		return errors.New("connection reset")
	})
	if err == nil {
		t.Error("持续失败应返回错误")
	}
	if calls != 2 {
		t.Errorf("应恰好重试一次: %d", calls)
	}
}
