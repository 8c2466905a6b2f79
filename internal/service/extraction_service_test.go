package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"

	"schedule-ai/backend/internal/model"
)

const sampleTable = `| Session | Time        | Sunday | Monday | Tuesday | Wednesday | Thursday |
| :------ | :---------- | :----- | :----- | :------ | :-------- | :------- |
| 1       | 7:45–9:05   | MATH   | Bio    | EN      | PH        | Arabic   |
| 2       | 9:05–10:25  | Bio / CAP | MATH | CH     | F / G     | —        |
|         | **Break 1** |        |        |         |           |          |
| 3       | 10:45–12:05 | EN     | PE     | MATH    | Bio       | MEC      |
| 4       | 12:05–13:25 | REL    | CITZ   | ACTV    | ADV       | MATH     |
|         | **Break 2** |        |        |         |           |          |
| 5       | 13:45–15:00 | ½ PE + Leave School | — | Geo | CS | Robotics |`

func TestParseScheduleTable(t *testing.T) {
	rows, freeform, err := parseScheduleTable(sampleTable)
	if err != nil {
		t.Fatalf("解析表格失败: %v", err)
	}
	if len(rows) != 7 {
		t.Fatalf("应解析出 7 行，实际 %d", len(rows))
	}
	if !rows[2].IsBreak() || !rows[5].IsBreak() {
		t.Error("课间行位置错误")
	}

	if cell, _ := rows.Cell("2", "sunday"); cell.String() != "Bio / CAP" {
		t.Errorf("拆分格解析错误: %q", cell.String())
	}
	if cell, _ := rows.Cell("5", "sunday"); cell.String() != "½ PE + Leave School" {
		t.Errorf("离校格解析错误: %q", cell.String())
	}
	if cell, _ := rows.Cell("2", "thursday"); cell.Kind != model.CellEmpty {
		t.Errorf("空格解析错误: %q", cell.String())
	}

	// 词表外科目被标记而非拦截
	if len(freeform) != 1 || freeform[0] != "Robotics" {
		t.Errorf("应标记词表外科目 Robotics，实际 %v", freeform)
	}
}

func TestParseScheduleTableBadShape(t *testing.T) {
	if _, _, err := parseScheduleTable("no table at all"); err == nil {
		t.Error("无表格输入应报错")
	}
	if _, _, err := parseScheduleTable("| 1 | 7:45–9:05 | A | B | C | D | E |"); err == nil {
		t.Error("行数不足应报错")
	}
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": "{\"a\":1}",
		"```\nhello\n```":         "hello",
		"plain":                   "plain",
	}
	for in, want := range cases {
		if got := stripFences(in); got != want {
			t.Errorf("stripFences(%q) = %q, 期望 %q", in, got, want)
		}
	}
}

// fakeGemini 返回预设输出的伪模型
type fakeGemini struct {
	text string
	err  error
}

func (f *fakeGemini) GenerateContent(context.Context, ...genai.Part) (*genai.GenerateContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(f.text)}},
		}},
	}, nil
}

func TestAnalyzeImage(t *testing.T) {
	svc := NewExtractionService(&fakeGemini{
		text: "```json\n{\"schedule\": " + jsonQuote(sampleTable) + ", \"errors\": \"\"}\n```",
	}, zap.NewNop())

	resp, err := svc.AnalyzeImage(context.Background(), "image/png", []byte{0x89})
	if err != nil {
		t.Fatalf("识别失败: %v", err)
	}
	if len(resp.Schedule) != 7 {
		t.Fatalf("应得到 7 行课表，实际 %d", len(resp.Schedule))
	}
	if len(resp.FreeformSubjects) != 1 {
		t.Errorf("应标记 1 个词表外科目，实际 %v", resp.FreeformSubjects)
	}
}

func TestAnalyzeImageHardFailure(t *testing.T) {
	// 空表格 + 模型报告问题 → 硬失败
	svc := NewExtractionService(&fakeGemini{
		text: `{"schedule": "", "errors": "image too blurry"}`,
	}, zap.NewNop())

	if _, err := svc.AnalyzeImage(context.Background(), "image/png", []byte{0x89}); !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("应返回识别失败，实际 %v", err)
	}
}

func TestAnalyzeImageUnavailable(t *testing.T) {
	svc := NewExtractionService(nil, zap.NewNop())
	if _, err := svc.AnalyzeImage(context.Background(), "image/png", nil); !errors.Is(err, ErrExtractionUnavailable) {
		t.Fatalf("未配置模型应降级报错，实际 %v", err)
	}
}

func jsonQuote(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}
