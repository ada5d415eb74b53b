package conversation

import "strings"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn 调用方携带的一轮历史对话，服务端不持久化
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NormalizedRole 未知角色按 user 处理
func (t Turn) NormalizedRole() string {
	switch strings.ToLower(strings.TrimSpace(t.Role)) {
	case RoleAssistant:
		return RoleAssistant
	case RoleSystem:
		return RoleSystem
	default:
		return RoleUser
	}
}

// LastTurns 跳过空白轮次后保留最后 n 轮，顺序不变
func LastTurns(history []Turn, n int) []Turn {
	kept := make([]Turn, 0, len(history))
	for _, t := range history {
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		kept = append(kept, t)
	}
	if n >= 0 && len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return kept
}
