package normalizer

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/lovecourt/backend/internal/model"
)

// DefaultVerdictTitle 在工作流输出里找不到书名号标题时使用
const DefaultVerdictTitle = "爱情宇宙法庭·判决书"

// orderSections 是结构化判决的四个固定段落，按此顺序渲染，
// 不在表内的键在其后按文档顺序追加
var orderSections = []string{"案件回顾", "情感剖析", "温柔裁定", "最终判决"}

// shareSections 是分享文案的取值优先级
var shareSections = []string{"最终判决", "温柔裁定"}

// fullTextOrderType 是纯文本判决的唯一段落类型
const fullTextOrderType = "判决全文"

// titlePattern 匹配中文书名号括起的标题
var titlePattern = regexp.MustCompile(`《[^》]+》`)

// workflowResult 覆盖两种已知的嵌套形态：result.data.outputs.text 与 result.outputs.text
type workflowResult struct {
	WorkflowRunID string           `json:"workflow_run_id"`
	TaskID        string           `json:"task_id"`
	Data          *workflowData    `json:"data"`
	Outputs       *workflowOutputs `json:"outputs"`
}

type workflowData struct {
	ID      string           `json:"id"`
	Outputs *workflowOutputs `json:"outputs"`
}

type workflowOutputs struct {
	Text json.RawMessage `json:"text"`
}

// outputText 是 outputs.text 的带标签联合：上游既可能给结构化对象也可能给纯文本
type outputText struct {
	IsObject bool
	Sections []section // 仅对象形态，保持文档内键序
	Plain    string    // 仅文本形态
}

// section 是对象形态下的一个键值段
type section struct {
	Key   string
	Value string
}

// MapWorkflowResult 把工作流原始返回映射成判决结果，映射不出返回 nil
// 返回 nil 对调用方是硬失败：歧义出在数据而不是传输，重试没有意义
func MapWorkflowResult(raw json.RawMessage) *model.JudgeResponse {
	if len(raw) == 0 {
		return nil
	}
	var wf workflowResult
	if err := json.Unmarshal(raw, &wf); err != nil {
		return nil
	}

	var text json.RawMessage
	if wf.Data != nil && wf.Data.Outputs != nil {
		text = wf.Data.Outputs.Text
	}
	if text == nil && wf.Outputs != nil {
		text = wf.Outputs.Text
	}

	caseID := wf.WorkflowRunID
	if caseID == "" {
		caseID = wf.TaskID
	}
	if caseID == "" && wf.Data != nil {
		caseID = wf.Data.ID
	}

	parsed, ok := decodeOutputText(text)
	if !ok {
		return nil
	}

	if parsed.IsObject {
		return &model.JudgeResponse{CaseID: caseID, Verdict: verdictFromSections(parsed.Sections)}
	}
	return &model.JudgeResponse{CaseID: caseID, Verdict: verdictFromPlainText(parsed.Plain)}
}

// verdictFromSections 把结构化段落渲染为判决书
func verdictFromSections(sections []section) *model.Verdict {
	byKey := make(map[string]string, len(sections))
	for _, s := range sections {
		byKey[s.Key] = s.Value
	}

	var orders []model.Order
	for _, key := range orderSections {
		if content, ok := byKey[key]; ok && content != "" {
			orders = append(orders, model.Order{Type: key, Content: content})
		}
	}
	for _, s := range sections {
		if !isKnownSection(s.Key) {
			orders = append(orders, model.Order{Type: s.Key, Content: s.Value})
		}
	}

	// 标题取第一个出现书名号的取值
	title := DefaultVerdictTitle
	for _, s := range sections {
		if m := titlePattern.FindString(s.Value); m != "" {
			title = m
			break
		}
	}

	share := ""
	for _, key := range shareSections {
		if v := byKey[key]; v != "" {
			share = v
			break
		}
	}

	return &model.Verdict{
		Title:        title,
		Charges:      []model.Charge{},
		Orders:       orders,
		ShareSummary: share,
	}
}

// verdictFromPlainText 把纯文本判决整个作为一条"判决全文"
func verdictFromPlainText(text string) *model.Verdict {
	title := titlePattern.FindString(text)
	if title == "" {
		title = DefaultVerdictTitle
	}
	return &model.Verdict{
		Title:   title,
		Charges: []model.Charge{},
		Orders:  []model.Order{{Type: fullTextOrderType, Content: text}},
	}
}

func isKnownSection(key string) bool {
	for _, k := range orderSections {
		if k == key {
			return true
		}
	}
	return false
}

// decodeOutputText 识别 outputs.text 的形态
// 对象形态用 token 流解码以保留键序（map 会打乱"文档顺序"这个约定）
func decodeOutputText(raw json.RawMessage) (outputText, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return outputText{}, false
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return outputText{}, false
		}
		if strings.TrimSpace(s) == "" {
			return outputText{}, false
		}
		return outputText{Plain: s}, true
	case '{':
		sections, err := decodeOrderedObject(trimmed)
		if err != nil {
			return outputText{}, false
		}
		return outputText{IsObject: true, Sections: sections}, true
	default:
		return outputText{}, false
	}
}

// decodeOrderedObject 按文档顺序读出对象的键值对，取值统一转成字符串
func decodeOrderedObject(raw []byte) ([]section, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil { // '{'
		return nil, err
	}

	var sections []section
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		sections = append(sections, section{Key: key, Value: stringifyValue(value)})
	}
	if _, err := dec.Token(); err != nil { // '}'
		return nil, err
	}
	return sections, nil
}

// stringifyValue 把任意 JSON 取值转成展示字符串，非字符串保留紧凑 JSON 文本
func stringifyValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err == nil {
		return buf.String()
	}
	return string(raw)
}
