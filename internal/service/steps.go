package service

import (
	"log"

	"github.com/grey-chair-dev/spiral-groove-sub002/internal/api/dto"
)

// ==================== 非关键步骤 ====================

const (
	StepSucceeded = "succeeded"
	StepSkipped   = "skipped"
	StepFailed    = "failed"
)

// runStep 执行非关键维护步骤，失败只记日志不中断流程
func runStep(name string, fn func() error) dto.StepSummary {
	if fn == nil {
		return dto.StepSummary{Name: name, Status: StepSkipped}
	}
	if err := fn(); err != nil {
		log.Printf("[Step] %s 执行失败: %v", name, err)
		return dto.StepSummary{Name: name, Status: StepFailed, Error: err.Error()}
	}
	return dto.StepSummary{Name: name, Status: StepSucceeded}
}
