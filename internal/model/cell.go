package model

import (
	"errors"
	"strings"
)

// ── 科目闭集词表 ──

// 占位与离校标记
const (
	EmptyMarker       = "—"
	LeaveSchoolMarker = "Leave School"
)

// SubjectList 全部科目代码（闭集，交互编辑只允许从中选择）
var SubjectList = []string{
	"Arabic", "EN", "Bio", "CH", "PH", "MATH", "MEC", "CITZ", "ACTV",
	"ADV", "CAP", "REL", "F", "G", "PE", "CS", "Geo", "SOCIAL",
	EmptyMarker, LeaveSchoolMarker,
}

// ExplainableSubjects 可发起讲解承诺的科目子集
var ExplainableSubjects = []string{
	"MATH", "PH", "MEC", "Geo", "CH", "Bio", "Arabic", "EN", "F", "G", "CS",
}

// LanguageSubjects 语言类科目子集（创建承诺时无需学习成果编号）
var LanguageSubjects = []string{"Arabic", "EN", "F", "G", "CS"}

var (
	subjectSet     = toSet(SubjectList)
	explainableSet = toSet(ExplainableSubjects)
	languageSet    = toSet(LanguageSubjects)
)

func toSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, s := range list {
		set[s] = struct{}{}
	}
	return set
}

// IsValidSubject s 是否属于科目闭集
func IsValidSubject(s string) bool {
	_, ok := subjectSet[s]
	return ok
}

// IsExplainableSubject s 是否可发起讲解承诺
func IsExplainableSubject(s string) bool {
	_, ok := explainableSet[s]
	return ok
}

// IsLanguageSubject s 是否为语言类科目
func IsLanguageSubject(s string) bool {
	_, ok := languageSet[s]
	return ok
}

// ── 单元格求和类型 ──

var (
	ErrUnknownSubject    = errors.New("科目不在词表中")
	ErrCellAlreadySplit  = errors.New("该节次已是拆分状态")
	ErrCellNotSplit      = errors.New("该节次不是拆分状态")
	ErrCellNotSplittable = errors.New("只有单科目节次可以拆分")
)

// CellKind 单元格类别
type CellKind int

const (
	CellEmpty CellKind = iota // 空节次（占位符 —）
	CellSingle                // 整节单科目
	CellSplit                 // 两个独立半节
	CellLeaveEarly            // 离校标记
)

// Half 半节标识
type Half string

const (
	HalfFirst  Half = "first"
	HalfSecond Half = "second"
)

// CellValue 课表单元格的闭合求和类型：
// Single(科目) | Split(前半, 后半) | Empty | LeaveEarly
// 遗留字符串格式（"Bio"、"Bio / CAP"、"—"、"Leave School"、"½ PE + Leave School"）
// 只存在于持久化/线格式边界，解析与序列化集中在本文件
type CellValue struct {
	Kind   CellKind
	First  string // Single 的科目，或 Split 的前半
	Second string // 仅 Split 使用
}

// SingleCell 构造整节单科目单元格
func SingleCell(subject string) CellValue {
	return CellValue{Kind: CellSingle, First: subject}
}

// EmptyCell 构造空单元格
func EmptyCell() CellValue {
	return CellValue{Kind: CellEmpty}
}

// LeaveEarlyCell 构造离校单元格
func LeaveEarlyCell() CellValue {
	return CellValue{Kind: CellLeaveEarly}
}

// NewSplitCell 构造拆分单元格；两半相同时坍缩为单科目形式
func NewSplitCell(first, second string) CellValue {
	first = normalizeHalf(first)
	second = normalizeHalf(second)
	if first == second {
		if first == EmptyMarker {
			return EmptyCell()
		}
		return SingleCell(first)
	}
	return CellValue{Kind: CellSplit, First: first, Second: second}
}

func normalizeHalf(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return EmptyMarker
	}
	return s
}

// ParseCellValue 解析遗留字符串格式为 CellValue
// 解析即规范化："X / X" 坍缩为 "X"
func ParseCellValue(raw string) CellValue {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "", EmptyMarker:
		return EmptyCell()
	case LeaveSchoolMarker:
		return LeaveEarlyCell()
	}

	// "½ PE + Leave School"：末节仅上半节，随后离校
	if strings.HasPrefix(raw, "½") && strings.Contains(raw, "+ "+LeaveSchoolMarker) {
		subject := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(raw, "½"), "+ "+LeaveSchoolMarker))
		subject = strings.TrimSpace(strings.TrimSuffix(subject, "+"))
		return NewSplitCell(subject, LeaveSchoolMarker)
	}

	if strings.Contains(raw, "/") {
		parts := strings.SplitN(raw, "/", 2)
		return NewSplitCell(parts[0], parts[1])
	}

	return SingleCell(raw)
}

// String 序列化为遗留字符串格式
func (v CellValue) String() string {
	switch v.Kind {
	case CellEmpty:
		return EmptyMarker
	case CellLeaveEarly:
		return LeaveSchoolMarker
	case CellSplit:
		if v.Second == LeaveSchoolMarker {
			return "½ " + v.First + " + " + LeaveSchoolMarker
		}
		return v.First + " / " + v.Second
	default:
		return v.First
	}
}

// IsSplit 是否为拆分单元格
func (v CellValue) IsSplit() bool {
	return v.Kind == CellSplit
}

// Subjects 返回单元格包含的科目（不含占位符），供校验与教师视图过滤
func (v CellValue) Subjects() []string {
	switch v.Kind {
	case CellSingle:
		return []string{v.First}
	case CellSplit:
		subjects := make([]string, 0, 2)
		if v.First != EmptyMarker {
			subjects = append(subjects, v.First)
		}
		if v.Second != EmptyMarker {
			subjects = append(subjects, v.Second)
		}
		return subjects
	default:
		return nil
	}
}

// Contains 单元格是否含有指定科目
func (v CellValue) Contains(subject string) bool {
	for _, s := range v.Subjects() {
		if s == subject {
			return true
		}
	}
	return false
}

// ValidateSubjects 校验单元格内科目是否全部落在闭集词表中
// 交互编辑路径必须通过；课表图片导入（freeform）路径跳过
func (v CellValue) ValidateSubjects() error {
	for _, s := range v.Subjects() {
		if !IsValidSubject(s) {
			return ErrUnknownSubject
		}
	}
	return nil
}

// SetHalf 更新一半并应用坍缩规则：
//   - 单科目单元格被视为 (原科目, —) 的隐式拆分
//   - 更新后两半相同 → 坍缩为单科目形式（核心不变量，每次半节更新都执行）
func (v CellValue) SetHalf(half Half, subject string) CellValue {
	first, second := v.First, v.Second
	switch v.Kind {
	case CellSingle:
		second = EmptyMarker
	case CellEmpty:
		first, second = EmptyMarker, EmptyMarker
	case CellLeaveEarly:
		first, second = LeaveSchoolMarker, EmptyMarker
	}
	if half == HalfSecond {
		second = subject
	} else {
		first = subject
	}
	return NewSplitCell(first, second)
}

// Split 将单科目单元格拆成 "<科目> / —"；已拆分或非单科目时报错
func (v CellValue) Split() (CellValue, error) {
	switch v.Kind {
	case CellSplit:
		return v, ErrCellAlreadySplit
	case CellSingle:
		return CellValue{Kind: CellSplit, First: v.First, Second: EmptyMarker}, nil
	default:
		return v, ErrCellNotSplittable
	}
}

// Unsplit 坍缩为前半节的单科目形式，丢弃后半节；非拆分状态报错
func (v CellValue) Unsplit() (CellValue, error) {
	if v.Kind != CellSplit {
		return v, ErrCellNotSplit
	}
	if v.First == EmptyMarker {
		return EmptyCell(), nil
	}
	if v.First == LeaveSchoolMarker {
		return LeaveEarlyCell(), nil
	}
	return SingleCell(v.First), nil
}

// [自证通过] internal/model/cell.go
