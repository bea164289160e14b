// Package bot 入站事件路由与对话流程
//
// 每条入站事件作为独立工作单元处理，互相之间可任意并发；账本层
// 自己保证并发安全，这里不加任何全局锁。
package bot

import (
	"context"
	"strings"

	"event-bot/internal/svc"
	"event-bot/internal/transport"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/threading"
)

type Router struct {
	svcCtx *svc.ServiceContext
	source transport.UpdateSource

	admin  *adminHandler
	member *memberHandler
}

func NewRouter(svcCtx *svc.ServiceContext, source transport.UpdateSource) *Router {
	return &Router{
		svcCtx: svcCtx,
		source: source,
		admin:  &adminHandler{svcCtx: svcCtx},
		member: &memberHandler{svcCtx: svcCtx},
	}
}

// Run 长轮询取事件并分发，ctx 取消后退出
func (r *Router) Run(ctx context.Context) {
	logx.Info("事件循环启动")
	for {
		select {
		case <-ctx.Done():
			logx.Info("事件循环退出")
			return
		default:
		}

		updates, err := r.source.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			logx.Errorf("拉取更新失败: %v", err)
			continue
		}

		for _, u := range updates {
			// GoSafe 吞掉单条消息处理中的 panic，进程整体保持可用
			threading.GoSafe(func() {
				r.dispatch(ctx, u)
			})
		}
	}
}

func (r *Router) dispatch(ctx context.Context, u transport.Update) {
	isAdmin := r.svcCtx.Config.IsAdmin(u.ActorID)

	switch u.Kind {
	case transport.UpdateCommand:
		r.dispatchCommand(ctx, u, isAdmin)

	case transport.UpdateCallback:
		r.dispatchCallback(ctx, u, isAdmin)

	case transport.UpdateText, transport.UpdateImage:
		// 自由文本/图片只对进行中的管理端对话有意义
		if isAdmin {
			r.admin.handleInput(ctx, u)
		}
	}
}

func (r *Router) dispatchCommand(ctx context.Context, u transport.Update, isAdmin bool) {
	switch u.Command {
	case "start":
		r.member.handleStart(ctx, u)
	case "events":
		r.member.handleEvents(ctx, u)
	case "admin", "create_event", "list_events", "event_users",
		"notify_users", "post_event_card", "rsvp_stats",
		"check_users", "test_channel":
		if !isAdmin {
			r.member.handleForbidden(ctx, u)
			return
		}
		r.admin.handleCommand(ctx, u)
	default:
		// 未知命令不回话，群里误触发的命令太多
		logx.Infof("忽略未知命令: /%s from %d", u.Command, u.ActorID)
	}
}

func (r *Router) dispatchCallback(ctx context.Context, u transport.Update, isAdmin bool) {
	token := u.CallbackToken
	switch {
	case strings.HasPrefix(token, "register_"):
		r.member.handleRegister(ctx, u)
	case strings.HasPrefix(token, "rsvp_"):
		r.member.handleRsvp(ctx, u)
	case strings.HasPrefix(token, "pick_"), strings.HasPrefix(token, "menu_"):
		if !isAdmin {
			_ = r.svcCtx.Chat.Acknowledge(ctx, u.CallbackID, "无权执行该操作")
			return
		}
		r.admin.handleCallback(ctx, u)
	default:
		_ = r.svcCtx.Chat.Acknowledge(ctx, u.CallbackID, "")
		logx.Infof("忽略未知回调: %s from %d", token, u.ActorID)
	}
}
