// Package notify はユーザー向けの通知（success/error/warning）を扱う。
// 表示は呼び出し側（handler）の責務で、usecaseは結果を返すだけにする。
package notify

import "sync"

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

func Success(text string) Message { return Message{Level: LevelSuccess, Text: text} }
func Error(text string) Message   { return Message{Level: LevelError, Text: text} }
func Warning(text string) Message { return Message{Level: LevelWarning, Text: text} }

// 通知の受け口
type Sink interface {
	Add(msg Message)
}

// リクエスト1回分の通知をためる
type Collector struct {
	mu   sync.Mutex
	msgs []Message
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Add(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

// ためた通知を返す（空なら空スライス）
func (c *Collector) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}
