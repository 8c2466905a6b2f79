package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ── 周课表网格 ──

// Days 教学日列顺序（周日至周四）
var Days = []string{"sunday", "monday", "tuesday", "wednesday", "thursday"}

var weekdayToDay = map[time.Weekday]string{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
}

// DayOfWeekday 将 time.Weekday 映射为教学日列名；周五/周六非教学日
func DayOfWeekday(wd time.Weekday) (string, bool) {
	d, ok := weekdayToDay[wd]
	return d, ok
}

// IsValidDay day 是否为合法教学日列名
func IsValidDay(day string) bool {
	for _, d := range Days {
		if d == day {
			return true
		}
	}
	return false
}

var (
	ErrBadGridShape   = errors.New("课表行结构不合法")
	ErrUnknownDay     = errors.New("未知的教学日")
	ErrUnknownSession = errors.New("未知的节次")
	ErrBreakRow       = errors.New("课间行不可编辑")
)

// SessionRow 课表中的一行：一个节次或课间
// JSON 标签为小写，与持久化文档和线格式保持一致
type SessionRow struct {
	Session   string `json:"session"`
	Time      string `json:"time"`
	Sunday    string `json:"sunday"`
	Monday    string `json:"monday"`
	Tuesday   string `json:"tuesday"`
	Wednesday string `json:"wednesday"`
	Thursday  string `json:"thursday"`
}

// IsBreak 是否为课间行
func (r SessionRow) IsBreak() bool {
	return strings.HasPrefix(r.Session, "Break")
}

// Get 按列名取出单元格原始字符串
func (r SessionRow) Get(day string) (string, error) {
	switch day {
	case "sunday":
		return r.Sunday, nil
	case "monday":
		return r.Monday, nil
	case "tuesday":
		return r.Tuesday, nil
	case "wednesday":
		return r.Wednesday, nil
	case "thursday":
		return r.Thursday, nil
	default:
		return "", ErrUnknownDay
	}
}

// Set 按列名写入单元格原始字符串
func (r *SessionRow) Set(day, value string) error {
	switch day {
	case "sunday":
		r.Sunday = value
	case "monday":
		r.Monday = value
	case "tuesday":
		r.Tuesday = value
	case "wednesday":
		r.Wednesday = value
	case "thursday":
		r.Thursday = value
	default:
		return ErrUnknownDay
	}
	return nil
}

// SessionRows 整张周课表（7 行：5 个节次 + 2 个课间），以 JSONB 存储
type SessionRows []SessionRow

// Scan 实现 sql.Scanner 接口
func (s *SessionRows) Scan(src interface{}) error {
	return scanJSON(src, s)
}

// Value 实现 driver.Valuer 接口
func (s SessionRows) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// NewEmptySchedule 构造规范形状的空白课表
func NewEmptySchedule() SessionRows {
	blank := func(session, timeRange string) SessionRow {
		return SessionRow{
			Session: session, Time: timeRange,
			Sunday: EmptyMarker, Monday: EmptyMarker, Tuesday: EmptyMarker,
			Wednesday: EmptyMarker, Thursday: EmptyMarker,
		}
	}
	return SessionRows{
		blank("1", "7:45–9:05"),
		blank("2", "9:05–10:25"),
		{Session: "Break 1"},
		blank("3", "10:45–12:05"),
		blank("4", "12:05–13:25"),
		{Session: "Break 2"},
		blank("5", "13:45–15:00"),
	}
}

// Validate 校验课表形状与科目词表：
// 恰好 7 行，课间行位于第 3、6 行且各天单元格为空
// freeform 为 true 时跳过科目闭集校验（图片导入允许词表外科目）
func (s SessionRows) Validate(freeform bool) error {
	if len(s) != 7 {
		return fmt.Errorf("%w: 期望 7 行，实际 %d 行", ErrBadGridShape, len(s))
	}
	for i, row := range s {
		isBreakIdx := i == 2 || i == 5
		if isBreakIdx != row.IsBreak() {
			return fmt.Errorf("%w: 第 %d 行课间位置不符", ErrBadGridShape, i+1)
		}
		if row.IsBreak() {
			for _, day := range Days {
				cell, _ := row.Get(day)
				if cell != "" {
					return fmt.Errorf("%w: 课间行不应含单元格内容", ErrBadGridShape)
				}
			}
			continue
		}
		if row.Session == "" || row.Time == "" {
			return fmt.Errorf("%w: 第 %d 行缺少节次或时间", ErrBadGridShape, i+1)
		}
		if freeform {
			continue
		}
		for _, day := range Days {
			raw, _ := row.Get(day)
			if err := ParseCellValue(raw).ValidateSubjects(); err != nil {
				return fmt.Errorf("%s %s: %w", row.Session, day, err)
			}
		}
	}
	return nil
}

func (s SessionRows) rowIndex(session string) (int, error) {
	for i, row := range s {
		if row.Session == session {
			if row.IsBreak() {
				return -1, ErrBreakRow
			}
			return i, nil
		}
	}
	return -1, ErrUnknownSession
}

// Cell 读取指定节次、指定日的单元格
func (s SessionRows) Cell(session, day string) (CellValue, error) {
	i, err := s.rowIndex(session)
	if err != nil {
		return CellValue{}, err
	}
	raw, err := s[i].Get(day)
	if err != nil {
		return CellValue{}, err
	}
	return ParseCellValue(raw), nil
}

func (s SessionRows) setCell(session, day string, v CellValue) error {
	i, err := s.rowIndex(session)
	if err != nil {
		return err
	}
	if err := v.ValidateSubjects(); err != nil {
		return err
	}
	return s[i].Set(day, v.String())
}

// SetCell 整格替换为单科目（或占位/离校标记）
func (s SessionRows) SetCell(session, day, subject string) error {
	return s.setCell(session, day, ParseCellValue(subject))
}

// SplitCell 将单科目节次拆分为 "<科目> / —"
func (s SessionRows) SplitCell(session, day string) error {
	cur, err := s.Cell(session, day)
	if err != nil {
		return err
	}
	next, err := cur.Split()
	if err != nil {
		return err
	}
	return s.setCell(session, day, next)
}

// UnsplitCell 坍缩拆分节次为前半节科目，丢弃后半节
func (s SessionRows) UnsplitCell(session, day string) error {
	cur, err := s.Cell(session, day)
	if err != nil {
		return err
	}
	next, err := cur.Unsplit()
	if err != nil {
		return err
	}
	return s.setCell(session, day, next)
}

// SetHalf 更新拆分节次的一半；两半变为相同时自动坍缩为单科目
func (s SessionRows) SetHalf(session, day string, half Half, subject string) error {
	cur, err := s.Cell(session, day)
	if err != nil {
		return err
	}
	return s.setCell(session, day, cur.SetHalf(half, subject))
}

// FilterBySubject 教师视图：只保留含指定科目的单元格，其余替换为占位符
// 课间行保持原样，不修改接收者
func (s SessionRows) FilterBySubject(subject string) SessionRows {
	out := make(SessionRows, len(s))
	copy(out, s)
	for i := range out {
		if out[i].IsBreak() {
			continue
		}
		for _, day := range Days {
			raw, _ := out[i].Get(day)
			if !ParseCellValue(raw).Contains(subject) {
				_ = out[i].Set(day, EmptyMarker)
			}
		}
	}
	return out
}

// ── 节次结束时间 ──

// SessionEndClock 解析节次时间段的结束时刻（时、分）
// 兼容 en 破折号 "7:45–9:05" 与连字符 "7:45-9:05" 两种分隔符
func (s SessionRows) SessionEndClock(session string) (hour, minute int, err error) {
	i, err := s.rowIndex(session)
	if err != nil {
		return 0, 0, err
	}
	return parseEndClock(s[i].Time)
}

func parseEndClock(timeRange string) (int, int, error) {
	var end string
	switch {
	case strings.Contains(timeRange, "–"):
		parts := strings.SplitN(timeRange, "–", 2)
		end = parts[1]
	case strings.Contains(timeRange, "-"):
		parts := strings.SplitN(timeRange, "-", 2)
		end = parts[1]
	default:
		return 0, 0, fmt.Errorf("时间段格式不合法: %q", timeRange)
	}
	end = strings.TrimSpace(end)
	hm := strings.SplitN(end, ":", 2)
	if len(hm) != 2 {
		return 0, 0, fmt.Errorf("结束时刻格式不合法: %q", end)
	}
	hour, err := strconv.Atoi(strings.TrimSpace(hm[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("结束时刻小时不合法: %q", end)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(hm[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("结束时刻分钟不合法: %q", end)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("结束时刻超出范围: %q", end)
	}
	return hour, minute, nil
}

// SessionEndAt 计算指定日期上该节次的结束时间点（用于自动完结判定）
func (s SessionRows) SessionEndAt(session string, date time.Time, loc *time.Location) (time.Time, error) {
	hour, minute, err := s.SessionEndClock(session)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc), nil
}

// [自证通过] internal/model/grid.go
