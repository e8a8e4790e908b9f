package normalizer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapWorkflowResultObjectOutput(t *testing.T) {
	raw := json.RawMessage(`{"data":{"id":"abc","outputs":{"text":{"案件回顾":"R","最终判决":"V"}}}}`)

	resp := MapWorkflowResult(raw)
	require.NotNil(t, resp)
	require.NotNil(t, resp.Verdict)
	assert.Equal(t, "abc", resp.CaseID)
	require.Len(t, resp.Verdict.Orders, 2)
	assert.Equal(t, "案件回顾", resp.Verdict.Orders[0].Type)
	assert.Equal(t, "R", resp.Verdict.Orders[0].Content)
	assert.Equal(t, "最终判决", resp.Verdict.Orders[1].Type)
	assert.Equal(t, "V", resp.Verdict.ShareSummary)
	assert.Equal(t, DefaultVerdictTitle, resp.Verdict.Title)
}

func TestMapWorkflowResultSectionOrder(t *testing.T) {
	// 固定段落按约定顺序，额外键按文档顺序追加在后
	raw := json.RawMessage(`{"workflow_run_id":"run_1","data":{"outputs":{"text":{"彩蛋":"E","最终判决":"V","案件回顾":"R","附言":"P"}}}}`)

	resp := MapWorkflowResult(raw)
	require.NotNil(t, resp)
	assert.Equal(t, "run_1", resp.CaseID)

	var types []string
	for _, o := range resp.Verdict.Orders {
		types = append(types, o.Type)
	}
	assert.Equal(t, []string{"案件回顾", "最终判决", "彩蛋", "附言"}, types)
}

func TestMapWorkflowResultTitleFromBookmarks(t *testing.T) {
	raw := json.RawMessage(`{"data":{"outputs":{"text":{"案件回顾":"本庭受理《迟到冷战案》一案","温柔裁定":"D"}}}}`)

	resp := MapWorkflowResult(raw)
	require.NotNil(t, resp)
	assert.Equal(t, "《迟到冷战案》", resp.Verdict.Title)
	// 没有最终判决时，分享文案退而取温柔裁定
	assert.Equal(t, "D", resp.Verdict.ShareSummary)
}

func TestMapWorkflowResultPlainTextOutput(t *testing.T) {
	raw := json.RawMessage(`{"task_id":"t1","outputs":{"text":"经本庭审理，判决如下"}}`)

	resp := MapWorkflowResult(raw)
	require.NotNil(t, resp)
	assert.Equal(t, "t1", resp.CaseID)
	require.Len(t, resp.Verdict.Orders, 1)
	assert.Equal(t, "判决全文", resp.Verdict.Orders[0].Type)
	assert.Equal(t, "经本庭审理，判决如下", resp.Verdict.Orders[0].Content)
}

func TestMapWorkflowResultNonStringValue(t *testing.T) {
	// 非字符串取值保留为紧凑 JSON 文本
	raw := json.RawMessage(`{"outputs":{"text":{"案件回顾":{"嫌疑人":"他"}}}}`)

	resp := MapWorkflowResult(raw)
	require.NotNil(t, resp)
	require.Len(t, resp.Verdict.Orders, 1)
	assert.JSONEq(t, `{"嫌疑人":"他"}`, resp.Verdict.Orders[0].Content)
}

func TestMapWorkflowResultHardFailures(t *testing.T) {
	cases := map[string]string{
		"空返回":      ``,
		"非法 JSON":  `not-json`,
		"缺少 text":  `{"data":{"outputs":{}}}`,
		"text 为空":  `{"outputs":{"text":null}}`,
		"text 空串":  `{"outputs":{"text":"  "}}`,
		"text 是数组": `{"outputs":{"text":[1,2]}}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, MapWorkflowResult(json.RawMessage(raw)))
		})
	}
}
