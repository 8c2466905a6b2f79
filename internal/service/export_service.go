package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"schedule-ai/backend/internal/model"
	"schedule-ai/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoClassroom  = errors.New("该教室尚未建立课表")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 课表 + 承诺导出为 Excel (.xlsx)，供打印张贴
//   - 学生个人承诺导出为 iCalendar (.ics)，可导入手机日历
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportClassroomExcel 导出教室课表与全部讲解承诺
	ExportClassroomExcel(ctx context.Context, classroomID string) (*bytes.Buffer, string, error)
	// ExportStudentCalendar 导出学生本人发起或已接受的承诺为日历
	ExportStudentCalendar(ctx context.Context, actor Actor) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) ExportService {
	if loc == nil {
		loc = time.Local
	}
	return &exportService{repo: repo, loc: loc, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportClassroomExcel — 课表 + 承诺导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "课表"：行 = 节次/课间，列 = 周日 ~ 周四
//   - Sheet "讲解承诺"：每条承诺一行，含参与者与评审结论
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportClassroomExcel(ctx context.Context, classroomID string) (*bytes.Buffer, string, error) {
	classroom, err := s.repo.Classroom.Get(ctx, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrExportNoClassroom
		}
		s.logger.Error("查询教室失败", zap.Error(err))
		return nil, "", err
	}

	explanations, err := s.repo.Explanation.ListByClassroom(ctx, classroomID)
	if err != nil {
		s.logger.Error("查询讲解承诺失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	// ── Sheet 1: 课表 ──
	scheduleSheet := "Schedule"
	idx, _ := f.NewSheet(scheduleSheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(scheduleSheet, "A", "A", 10)
	f.SetColWidth(scheduleSheet, "B", "B", 14)
	for i := range model.Days {
		col, _ := excelize.ColumnNumberToName(3 + i)
		f.SetColWidth(scheduleSheet, col, col, 16)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(scheduleSheet, "A1", fmt.Sprintf("%s — Weekly Schedule", classroomID))
	f.MergeCell(scheduleSheet, "A1", cell(colName(1+len(model.Days)), 1))
	f.SetCellStyle(scheduleSheet, "A1", "A1", headerStyle)

	headers := []string{"Session", "Time", "Sunday", "Monday", "Tuesday", "Wednesday", "Thursday"}
	for i, h := range headers {
		f.SetCellValue(scheduleSheet, cell(colName(i), 2), h)
	}

	row := 3
	for _, sr := range classroom.Schedule {
		f.SetCellValue(scheduleSheet, cell("A", row), sr.Session)
		f.SetCellValue(scheduleSheet, cell("B", row), sr.Time)
		if !sr.IsBreak() {
			for i, day := range model.Days {
				v, _ := sr.Get(day)
				f.SetCellValue(scheduleSheet, cell(colName(2+i), row), v)
			}
		}
		row++
	}

	// ── Sheet 2: 讲解承诺 ──
	expSheet := "Explanations"
	f.NewSheet(expSheet)
	expHeaders := []string{"Date", "Day", "Session", "Subject", "Concepts", "Participants", "Status", "Review"}
	for i, h := range expHeaders {
		f.SetCellValue(expSheet, cell(colName(i), 1), h)
		col, _ := excelize.ColumnNumberToName(1 + i)
		f.SetColWidth(expSheet, col, col, 18)
	}

	row = 2
	for i := range explanations {
		e := &explanations[i]
		f.SetCellValue(expSheet, cell("A", row), e.ExplanationDate.Format("2006-01-02"))
		f.SetCellValue(expSheet, cell("B", row), e.Day)
		f.SetCellValue(expSheet, cell("C", row), e.Session)
		f.SetCellValue(expSheet, cell("D", row), e.Subject)
		f.SetCellValue(expSheet, cell("E", row), strings.Join(e.Concepts, ", "))
		f.SetCellValue(expSheet, cell("F", row), strings.Join(e.Participants(), ", "))
		f.SetCellValue(expSheet, cell("G", row), e.Status)
		f.SetCellValue(expSheet, cell("H", row), e.CompletionStatus)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("schedule_%s.xlsx", classroomID)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportStudentCalendar — 个人承诺导出为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每条承诺（本人发起或已接受邀请）生成一个 VEVENT，
// 起止时间取自教室课表中该节次的时间段

func (s *exportService) ExportStudentCalendar(ctx context.Context, actor Actor) (*bytes.Buffer, string, error) {
	explanations, err := s.repo.Explanation.ListByClassroom(ctx, actor.ClassroomID)
	if err != nil {
		return nil, "", err
	}

	var schedule model.SessionRows
	classroom, err := s.repo.Classroom.Get(ctx, actor.ClassroomID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", err
		}
		schedule = model.NewEmptySchedule()
	} else {
		schedule = classroom.Schedule
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//schedule-ai//EN")

	for i := range explanations {
		e := &explanations[i]
		mine := e.IsOwner(actor.UserID)
		if !mine {
			for _, c := range e.Contributors {
				if c.UserID == actor.UserID && c.Status == model.ContributorAccepted {
					mine = true
					break
				}
			}
		}
		if !mine {
			continue
		}

		end, err := schedule.SessionEndAt(e.Session, e.ExplanationDate, s.loc)
		if err != nil {
			continue // 节次不在课表中，跳过该事件
		}
		start := end.Add(-80 * time.Minute)

		evt := cal.AddEvent(e.ExplanationID)
		evt.SetCreatedTime(e.CreatedAt)
		evt.SetStartAt(start)
		evt.SetEndAt(end)
		evt.SetSummary(fmt.Sprintf("%s explanation — session %s", e.Subject, e.Session))
		evt.SetDescription(fmt.Sprintf("Concepts: %s\nParticipants: %s",
			strings.Join(e.Concepts, ", "),
			strings.Join(e.Participants(), ", ")))
		evt.SetLocation(actor.ClassroomID)
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("commitments_%s.ics", actor.UserID)
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
