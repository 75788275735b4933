package ai

import "context"

// Role роль реплики в истории диалога.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message одна реплика диалога.
type Message struct {
	Role    Role
	Content string
}

// Client интерфейс генерации ответа. Все реализации должны быть взаимозаменяемыми.
// system — системная инструкция, history — реплики в хронологическом порядке
// (последняя — текущий вопрос пользователя).
type Client interface {
	Complete(ctx context.Context, system string, history []Message) (string, error)
}
