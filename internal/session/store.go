// Package session 管理端对话状态
//
// 旧版把"等待管理员下一条输入"记在一张随意读写的字典里，字段名散落在
// 各个 handler。这里收敛成显式有限状态 + TTL 过期：
//   - 每个管理员至多一个会话，按 actor id 存取
//   - 状态是枚举值，不存在未定义的 waiting_for 字符串
//   - 流程完成后显式清除，闲置到期自动清除
//
// 会话只是对话 UI 的边界状态，账本操作全部幂等，不依赖会话加锁。
package session

import (
	"strconv"
	"time"

	"github.com/zeromicro/go-zero/core/collection"
	"github.com/zeromicro/go-zero/core/logx"
)

// ==================== 状态枚举 ====================

type State int

const (
	Idle                     State = iota
	AwaitingTitle                  // 等待活动标题
	AwaitingDate                   // 等待活动日期
	AwaitingDescription            // 等待活动详情
	AwaitingCapacity               // 等待人数上限
	AwaitingImage                  // 等待封面图片
	AwaitingNotificationBody       // 等待通知正文
)

// ==================== 会话数据 ====================

// Draft 创建/编辑中的活动字段暂存
type Draft struct {
	Title         string
	Description   string
	EventDate     string
	AttendeeLimit uint32
	ImageFileID   string
}

// Session 单个管理员的对话会话
type Session struct {
	State State
	Draft Draft

	// EditingEventID 非零表示在编辑已有活动，输入落到该活动而不是草稿
	EditingEventID uint64

	// NotifyEventID 非零表示正在为该活动撰写通知
	NotifyEventID uint64
}

// ==================== Store ====================

const defaultTTL = 30 * time.Minute

type Store struct {
	cache *collection.Cache
}

// NewStore 创建会话存储，ttl<=0 时取默认 30 分钟
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	cache, err := collection.NewCache(ttl, collection.WithName("admin-session"))
	if err != nil {
		logx.Errorf("创建会话缓存失败: %v", err)
		panic(err)
	}
	return &Store{cache: cache}
}

// Get 读取会话，没有则返回全新 Idle 会话
//
// 返回的是副本：每条消息各改各的，写回靠 Put。同一管理员的消息
// 并发处理时互不踩内存，落库结果为后写覆盖先写。
func (s *Store) Get(actorID int64) *Session {
	v, ok := s.cache.Get(key(actorID))
	if !ok {
		return &Session{}
	}
	sess, ok := v.(*Session)
	if !ok {
		return &Session{}
	}
	cp := *sess
	return &cp
}

// Put 写回会话（刷新 TTL）
//
// 存副本，调用方之后再改自己手里的指针不影响已写回的状态
func (s *Store) Put(actorID int64, sess *Session) {
	cp := *sess
	s.cache.Set(key(actorID), &cp)
}

// Clear 流程完成或取消时显式清除
func (s *Store) Clear(actorID int64) {
	s.cache.Del(key(actorID))
}

func key(actorID int64) string {
	return strconv.FormatInt(actorID, 10)
}
