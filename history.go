package geminiflow

import "github.com/BaSui01/geminiflow/llm/providers/gemini"

// HistoryFromRecords 把任意记录（如数据库里的聊天消息）转换为对话历史，保持原顺序。
// text 为空的记录会被跳过。
func HistoryFromRecords[T any](records []T, role func(T) string, text func(T) string) []gemini.Content {
	history := make([]gemini.Content, 0, len(records))
	for _, r := range records {
		body := text(r)
		if body == "" {
			continue
		}
		history = append(history, gemini.Content{
			Role:  role(r),
			Parts: []gemini.Part{{Text: body}},
		})
	}
	return history
}
