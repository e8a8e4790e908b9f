package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lovecourt/backend/internal/infrastructure/dify"
	"github.com/lovecourt/backend/internal/model"
)

func TestExtractSummaryFromTrigger(t *testing.T) {
	answer := "【我已整理完毕，以下是你的情感陈述摘要】\n内容A\n关键词：爱情,误会"

	summary := ExtractSummary(answer, &dify.ChatMetadata{})
	require.NotNil(t, summary)
	assert.Contains(t, summary.Text, "内容A")
	assert.Equal(t, []string{"爱情", "误会"}, summary.Keywords)
}

func TestExtractSummaryEnglishKeywordMarker(t *testing.T) {
	answer := "案情摘要\n双方冷战三天\nKeywords: 冷战, 误会"

	summary := ExtractSummary(answer, nil)
	require.NotNil(t, summary)
	assert.Contains(t, summary.Text, "双方冷战三天")
	assert.Equal(t, []string{"冷战", "误会"}, summary.Keywords)
}

func TestExtractSummaryReadyFallback(t *testing.T) {
	// 就绪标记但文本里没有任何锚点：整段回答兜底作为摘要
	summary := ExtractSummary("随便写的结论", &dify.ChatMetadata{SummaryReady: true})
	require.NotNil(t, summary)
	assert.Equal(t, "随便写的结论", summary.Text)
	assert.Empty(t, summary.Keywords)
}

func TestExtractSummaryMetadataPriority(t *testing.T) {
	// 后端给出结构化摘要时原样采用，不再解析文本
	provided := &model.CaseSummary{ID: "srv_1", Text: "服务端摘要"}
	meta := &dify.ChatMetadata{Summary: provided, SummaryReady: true}

	summary := ExtractSummary("【我已整理完毕，以下是你的情感陈述摘要】\n别的内容", meta)
	assert.Same(t, provided, summary)
}

func TestExtractSummaryNoAnchor(t *testing.T) {
	assert.Nil(t, ExtractSummary("我们继续聊聊当时的细节吧", nil))
	assert.Nil(t, ExtractSummary("", nil))
}

func TestExtractSummaryKeywordLineNotInBody(t *testing.T) {
	// 关键词行单独拆出，不混进摘要正文
	summary := ExtractSummary("案情摘要\n正文内容\n关键词：甲,乙", nil)
	require.NotNil(t, summary)
	assert.NotContains(t, summary.Text, "关键词")
	assert.Equal(t, []string{"甲", "乙"}, summary.Keywords)
}

func TestExtractSummaryReadyEmptyAnswer(t *testing.T) {
	assert.Nil(t, ExtractSummary("   ", &dify.ChatMetadata{SummaryReady: true}))
}

func TestExtractSummaryIdempotent(t *testing.T) {
	answer := "情感陈述摘要\n他迟到还不道歉\n关键词：迟到,道歉"

	first := ExtractSummary(answer, nil)
	second := ExtractSummary(answer, nil)
	require.NotNil(t, first)
	require.NotNil(t, second)
	// 生成的 id 除外，结构上应当一致
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Keywords, second.Keywords)
}
