// Package transport 聊天平台边界
//
// 核心只依赖这里的接口和结构化错误；Telegram Bot API 的 HTTP 细节
// 全部收在 telegram.go，业务代码不做错误文本匹配。
package transport

import (
	"context"
	"errors"
)

// ==================== 结构化投递错误 ====================

var (
	// ErrRecipientUnreachable 对方从未与机器人私聊过，平台拒绝主动发起会话。
	// 永久性失败，管理员可据此线下联系该用户。
	ErrRecipientUnreachable = errors.New("recipient has not initiated contact with the bot")
)

// ==================== 入站事件 ====================

// UpdateKind 入站事件类型
type UpdateKind int

const (
	UpdateCommand  UpdateKind = iota + 1 // 命令（可带参数）
	UpdateCallback                       // 按钮点击（带不透明 token）
	UpdateText                           // 自由文本回复
	UpdateImage                          // 图片上传
)

// Update 入站事件统一信封
type Update struct {
	Kind UpdateKind

	// 行为人
	ActorID     int64
	ActorHandle string // username，可空
	ActorName   string // 昵称

	// 会话
	ChatID int64

	// UpdateCommand
	Command string
	Args    string

	// UpdateCallback
	CallbackID    string
	CallbackToken string
	MessageRef    MessageRef // 被点击的那条消息
	HasImage      bool       // 该消息是否为图片卡片（编辑时走 caption）

	// UpdateText
	Text string

	// UpdateImage
	ImageFileID string
}

// MessageRef 已发送消息的句柄（编辑用）
type MessageRef struct {
	ChatID    int64
	MessageID int64
}

// ==================== 键盘 ====================

// Button 内联按钮
type Button struct {
	Text  string
	Token string // 回调 token，由本系统编解码（见 token.go）
}

// Keyboard 内联键盘，按行排列
type Keyboard [][]Button

// ==================== 出站操作 ====================

// Client 出站操作契约
//
// 发往个人的投递失败必须返回结构化错误：
// 对端不可达返回（或包装）ErrRecipientUnreachable，其余按普通错误处理。
type Client interface {
	SendText(ctx context.Context, chatID int64, body string, kb Keyboard) (MessageRef, error)
	SendImage(ctx context.Context, chatID int64, imageFileID, caption string, kb Keyboard) (MessageRef, error)
	EditText(ctx context.Context, ref MessageRef, body string, kb Keyboard) error
	EditImageCaption(ctx context.Context, ref MessageRef, caption string, kb Keyboard) error
	// Acknowledge 回执按钮点击，可附带浮层提示
	Acknowledge(ctx context.Context, callbackID, toast string) error
	// Ping 轻量触达检查：不投递任何内容，仅验证能否向对方发起会话。
	// 对端不可达返回（或包装）ErrRecipientUnreachable。
	Ping(ctx context.Context, chatID int64) error
}

// UpdateSource 入站事件来源（长轮询等）
type UpdateSource interface {
	// Poll 阻塞获取下一批事件；ctx 取消后返回
	Poll(ctx context.Context) ([]Update, error)
}
