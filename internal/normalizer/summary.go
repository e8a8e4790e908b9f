// Package normalizer 把上游的自由文本和松散 JSON 收敛成固定形状：
// 聊天回答里提取案情摘要，工作流输出映射成判决书。
// 上游形态的各种历史别名都收在表里，不散落在条件分支中。
package normalizer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lovecourt/backend/internal/infrastructure/dify"
	"github.com/lovecourt/backend/internal/model"
)

// SummaryTrigger 是提示词约定的摘要触发语，出现即代表 AI 认为案情已陈述完整
const SummaryTrigger = "【我已整理完毕，以下是你的情感陈述摘要】"

// summaryAnchors 是摘要起点的候选锚点，按特异性从高到低排列，取第一个命中的
var summaryAnchors = []string{
	"情感陈述摘要",
	"案情摘要",
	"摘要",
	strings.Trim(SummaryTrigger, "【】"),
	SummaryTrigger,
	"总结",
}

// anchorPattern 用于快速判断回答里是否值得尝试解析
var anchorPattern = regexp.MustCompile(`情感陈述摘要|案情摘要|摘要|总结`)

// keywordMarker 识别关键词行，兼容中英文写法
var keywordMarker = regexp.MustCompile(`(?i)关键字|关键词|keywords?`)

// keywordSeparator 分隔关键词取值：逗号（中英文）或空白
var keywordSeparator = regexp.MustCompile(`[,，\s]+`)

// ExtractSummary 尝试从一轮回答中提取案情摘要，提取不到返回 nil
// 解析优先级：
//  1. 后端直接给出结构化摘要，原样采用
//  2. 后端标记 summary_ready，解析文本，解析不出就整段回答兜底
//  3. 文本包含触发语或锚点词，尝试解析，解析不出视为"还没到摘要轮"
func ExtractSummary(answer string, meta *dify.ChatMetadata) *model.CaseSummary {
	if meta != nil && meta.Summary != nil {
		return meta.Summary
	}

	if meta != nil && meta.SummaryReady {
		if parsed := parseSummaryText(answer); parsed != nil {
			return parsed
		}
		body := strings.TrimSpace(answer)
		if body == "" {
			return nil
		}
		return model.NewCaseSummary(body, nil)
	}

	if strings.Contains(answer, SummaryTrigger) || anchorPattern.MatchString(answer) {
		return parseSummaryText(answer)
	}
	return nil
}

// parseSummaryText 从锚点处截取摘要正文，并单独拆出关键词行
func parseSummaryText(text string) *model.CaseSummary {
	picked := text
	for _, anchor := range summaryAnchors {
		if idx := strings.Index(text, anchor); idx >= 0 {
			picked = text[idx:]
			break
		}
	}

	var bodyLines []string
	var keywords []string
	for _, line := range strings.Split(picked, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if keywordMarker.MatchString(line) {
			keywords = append(keywords, splitKeywords(line)...)
			continue
		}
		bodyLines = append(bodyLines, line)
	}

	body := strings.TrimSpace(strings.Join(bodyLines, "\n"))
	if body == "" {
		return nil
	}
	return model.NewCaseSummary(body, keywords)
}

// splitKeywords 取冒号后的取值段并拆分成有序的关键词序列，中英文冒号都认
func splitKeywords(line string) []string {
	seg := ""
	if idx := strings.IndexAny(line, ":："); idx >= 0 {
		// IndexAny 返回字节偏移，按实际命中的冒号宽度跳过
		_, width := decodeRuneAt(line, idx)
		seg = line[idx+width:]
	}

	var out []string
	for _, k := range keywordSeparator.Split(seg, -1) {
		k = strings.TrimSpace(k)
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

func decodeRuneAt(s string, idx int) (rune, int) {
	return utf8.DecodeRuneInString(s[idx:])
}
