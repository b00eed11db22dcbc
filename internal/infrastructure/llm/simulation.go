package llm

import (
	"context"
	"fmt"
)

// SimulationModel is reported as the model of simulated results.
const SimulationModel = "local-simulation"

// Simulation answers locally with a fixed, clearly marked placeholder.
type Simulation struct{}

var _ Provider = Simulation{}

func (Simulation) Name() string  { return "simulation" }
func (Simulation) Model() string { return SimulationModel }

// Complete never fails; the reply only depends on the prompt's date.
func (Simulation) Complete(_ context.Context, prompt Prompt) (string, error) {
	return simulatedReply(prompt.Date), nil
}

func simulatedReply(scope string) string {
	if scope == "" {
		scope = "未指定日期"
	}
	return "# 模擬回應（未呼叫外部分析服務）\n" +
		"- 市場情緒：[模擬]\n" +
		"- 產業名稱：[半導體, AI]\n" +
		fmt.Sprintf("- 摘要：%s 的文章未經語言模型分析，此為本地模擬結果，僅供流程驗證。\n", scope) +
		"- 重點：\n" +
		"  - 設定分析服務的 API 金鑰後即可取得實際情緒判斷"
}
