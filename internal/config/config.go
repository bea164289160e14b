package config

import (
	"github.com/zeromicro/go-zero/core/service"
)

type Config struct {
	service.ServiceConf // go-zero 服务配置（含 Log、Mode、Telemetry 等）

	Telegram  TelegramConfig  // 聊天平台配置
	SQLite    SQLiteConfig    // 数据库配置
	Admin     AdminConfig     // 管理员配置
	Broadcast BroadcastConfig // 通知推送配置
	Session   SessionConfig   // 管理端会话配置
}

// TelegramConfig 聊天平台配置
type TelegramConfig struct {
	Token   string // Bot token，必填
	APIBase string `json:",default=https://api.telegram.org"`

	// ChannelID 活动卡片发布频道，0 = 不启用频道发布（功能降级，不报错）
	ChannelID int64 `json:",optional"`
}

// SQLiteConfig 数据库配置
type SQLiteConfig struct {
	Path string `json:",default=events.db"` // 数据库文件路径
}

// AdminConfig 管理员配置
type AdminConfig struct {
	IDs []int64 // 管理员用户ID白名单，进程启动时加载，必填
}

// BroadcastConfig 通知推送配置
type BroadcastConfig struct {
	Concurrency         int `json:",default=4"`  // 并发投递上限（轻度并发，不做无界扇出）
	PerRecipientTimeout int `json:",default=10"` // 单个收件人投递超时（秒）
}

// SessionConfig 管理端会话配置
type SessionConfig struct {
	TTL int `json:",default=1800"` // 会话闲置过期（秒）
}

// IsAdmin 判断是否为管理员
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}
