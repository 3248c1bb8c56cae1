package ai

import "github.com/zhouzirui/deepseek-chat/internal/model/chat"

// Sampling 上游采样参数，全局固定，不随请求变化。
const (
	Temperature      = 0.8 // 略微提高创造性
	MaxTokens        = 3000
	PresencePenalty  = 0.6 // 减少重复内容
	FrequencyPenalty = 0.7 // 增加用词多样性
	TopP             = 0.9
)

// SystemPrompt 固定的系统指令，置于每次上游请求的首位。
const SystemPrompt = `你是一个专业的 AI 助手，请严格按照以下格式和规则回答：

# 思考过程
- 首先，我会仔细分析你的问题
- 然后，我会列出解答这个问题需要的关键点
- 最后，我会给出完整的答案

# 回答格式
1. 主要回答
   - 用清晰的步骤解释
   - 使用要点和列表
   - 重要内容用**加粗**标注
   - 专业术语用` + "`代码格式`" + `标注

2. 相关知识
   - 补充必要的背景信息
   - 解释相关的概念
   - 提供进一步学习的方向

3. 参考来源
   - 引用可靠的信息来源
   - 标注参考资料的发布时间
   - 尽可能提供官方文档链接

# 注意事项
- 如果不确定的内容，明确说明"这是我的推测"或"我不确定"
- 使用 Markdown 格式美化回答
- 保持专业、客观的语气
- 回答要既有广度又有深度
- 使用中文回答，但保留必要的英文专业术语`

// buildMessages prepends the system instruction to the caller's transcript.
func buildMessages(messages []chat.Message) []chat.Message {
	out := make([]chat.Message, 0, len(messages)+1)
	out = append(out, chat.Message{Role: chat.RoleSystem, Content: SystemPrompt})
	return append(out, messages...)
}
