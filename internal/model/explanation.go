package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ── 讲解承诺状态机 ──

// 承诺整体状态：Upcoming（待讲）→ Finished（节次结束后自动完结）
const (
	StatusUpcoming = "Upcoming"
	StatusFinished = "Finished"
)

// 教师评审结论：pending → explained / not-explained，单向且只可设置一次
const (
	CompletionPending      = "pending"
	CompletionExplained    = "explained"
	CompletionNotExplained = "not-explained"
)

// 受邀人应答状态：pending → accepted / declined，单向
const (
	ContributorPending  = "pending"
	ContributorAccepted = "accepted"
	ContributorDeclined = "declined"
)

var (
	ErrNotInvited       = errors.New("用户不在受邀名单中")
	ErrAlreadyResponded = errors.New("该邀请已应答，不可更改")
	ErrBadResponse      = errors.New("应答只能是接受或拒绝")
)

// Contributor 一条邀请记录：受邀学生及其应答状态
type Contributor struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Status   string `json:"status"`
}

// ContributorList 受邀名单，以 JSONB 存储
type ContributorList []Contributor

// Scan 实现 sql.Scanner 接口
func (l *ContributorList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// Value 实现 driver.Valuer 接口
func (l ContributorList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// HasUser 用户是否在受邀名单中
func (l ContributorList) HasUser(userID string) bool {
	for _, c := range l {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// AcceptedCount 已接受邀请的人数
func (l ContributorList) AcceptedCount() int {
	n := 0
	for _, c := range l {
		if c.Status == ContributorAccepted {
			n++
		}
	}
	return n
}

// WithResponse 返回应用了指定用户应答后的新名单：
// 只改写该用户自己的条目，且只允许从 pending 出发的单向迁移
func (l ContributorList) WithResponse(userID, status string) (ContributorList, error) {
	if status != ContributorAccepted && status != ContributorDeclined {
		return nil, ErrBadResponse
	}
	out := make(ContributorList, len(l))
	copy(out, l)
	for i := range out {
		if out[i].UserID != userID {
			continue
		}
		if out[i].Status != ContributorPending {
			return nil, ErrAlreadyResponded
		}
		out[i].Status = status
		return out, nil
	}
	return nil, ErrNotInvited
}

// ── 讲解承诺模型 ──

// Explanation 一条讲解承诺：发起学生承诺在某节课上讲解某些概念，
// 可邀请同班同学共同讲解，节次结束后自动完结并等待任课教师评审
type Explanation struct {
	ExplanationID    string          `gorm:"column:explanation_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"explanationId"`
	ClassroomID      string          `gorm:"column:classroom_id;not null;index" json:"classroomId"`
	OwnerID          string          `gorm:"column:owner_id;type:uuid;not null" json:"ownerId"`
	OwnerName        string          `gorm:"column:owner_name;not null" json:"ownerName"`
	Contributors     ContributorList `gorm:"column:contributors;type:jsonb" json:"contributors"`
	Subject          string          `gorm:"column:subject;not null" json:"subject"`
	Day              string          `gorm:"column:day;not null" json:"day"`
	Session          string          `gorm:"column:session;not null" json:"session"`
	LearningOutcome  *int            `gorm:"column:learning_outcome" json:"learningOutcome,omitempty"`
	Concepts         StringList      `gorm:"column:concepts;type:jsonb" json:"concepts"`
	ExplanationDate  time.Time       `gorm:"column:explanation_date;type:date;not null" json:"explanationDate"`
	Status           string          `gorm:"column:status;not null;default:Upcoming" json:"status"`
	CompletionStatus string          `gorm:"column:completion_status;not null;default:pending" json:"completionStatus"`
	CreatedAt        time.Time       `gorm:"column:created_at" json:"createdAt"`
}

// TableName 指定表名
func (Explanation) TableName() string {
	return "explanations"
}

// IsOwner userID 是否为发起人
func (e *Explanation) IsOwner(userID string) bool {
	return e.OwnerID == userID
}

// Participants 全部已接受者的姓名，发起人始终排在首位（仪表盘展示用）
func (e *Explanation) Participants() []string {
	names := []string{e.OwnerName}
	for _, c := range e.Contributors {
		if c.Status == ContributorAccepted && c.UserID != e.OwnerID {
			names = append(names, c.UserName)
		}
	}
	return names
}

// [自证通过] internal/model/explanation.go
