package model

// 罪名严重程度，判决书按中文原样渲染
const (
	SeverityLow    = "轻"
	SeverityMedium = "中"
	SeverityHigh   = "重"
)

// Charge 判决书中的一条罪名
type Charge struct {
	Name     string   `json:"name"`
	Severity string   `json:"severity"` // 轻 / 中 / 重
	Evidence []string `json:"evidence,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// Order 判决书中的一条裁定（如 案件回顾 / 最终判决）
type Order struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Deadline string `json:"deadline,omitempty"`
}

// Verdict 是工作流产出的判决书，生成后不再修改
type Verdict struct {
	Title        string   `json:"title"`
	Charges      []Charge `json:"charges"`
	Orders       []Order  `json:"orders"`
	HumorPenalty string   `json:"humor_penalty,omitempty"`
	Tips         []string `json:"tips,omitempty"`
	ShareSummary string   `json:"share_summary,omitempty"`
}

// JudgeResponse 是一次判决调用的完整结果
type JudgeResponse struct {
	CaseID  string   `json:"case_id"`
	Verdict *Verdict `json:"verdict"`
}
