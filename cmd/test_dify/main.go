package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lovecourt/backend/internal/config"
	"github.com/lovecourt/backend/internal/infrastructure/dify"
	"github.com/lovecourt/backend/internal/normalizer"
)

// 手动连通性测试：验证配置、链路和判决工作流的实际返回形态
func main() {
	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	log.Println("配置加载成功")

	provider := dify.NewChain(conf, dify.NewLogNotifier())
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// 1. 连通性探测
	if err := provider.Ping(ctx); err != nil {
		log.Fatalf("连通性探测失败: %v", err)
	}
	fmt.Println("✅ 链路连通")

	// 2. 发一轮陈述
	resp, err := provider.Chat(ctx, dify.ChatRequest{
		Query: "我们因为他总是迟到吵了一架，他还不道歉",
		User:  "test-dify",
	})
	if err != nil {
		log.Fatalf("对话失败: %v", err)
	}
	fmt.Println("--------------------------------")
	fmt.Println("AI 回答:", resp.Answer)
	fmt.Println("会话令牌:", resp.ConversationID)

	if summary := normalizer.ExtractSummary(resp.Answer, resp.Metadata); summary != nil {
		fmt.Println("检测到摘要:", summary.Text)
	}

	// 3. 用固定摘要召唤一次判决
	raw, err := provider.Judge(ctx, "双方因迟到争执引发三天冷战，原告感到被忽视。", "test-dify")
	if err != nil {
		log.Fatalf("判决失败: %v", err)
	}
	mapped := normalizer.MapWorkflowResult(raw)
	if mapped == nil {
		log.Fatalf("判决结果不可解析: %s", string(raw))
	}

	fmt.Println("--------------------------------")
	fmt.Println("📜", mapped.Verdict.Title, "案号:", mapped.CaseID)
	for _, order := range mapped.Verdict.Orders {
		fmt.Printf("  [%s] %s\n", order.Type, order.Content)
	}
}
