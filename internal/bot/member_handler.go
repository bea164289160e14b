package bot

import (
	"context"
	"fmt"

	"event-bot/internal/logic/attendance"
	eventlogic "event-bot/internal/logic/event"
	"event-bot/internal/model"
	"event-bot/internal/svc"
	"event-bot/internal/transport"

	"github.com/pkg/errors"
	"github.com/zeromicro/go-zero/core/logx"
)

// memberHandler 成员侧：活动列表、报名、RSVP
type memberHandler struct {
	svcCtx *svc.ServiceContext
}

func (h *memberHandler) handleStart(ctx context.Context, u transport.Update) {
	_, err := h.svcCtx.Chat.SendText(ctx, u.ChatID,
		"👋 你好！我是活动报名机器人。\n\n"+
			"/events 查看当前活动并报名", nil)
	if err != nil {
		logx.WithContext(ctx).Errorf("发送欢迎消息失败: %v", err)
	}
}

func (h *memberHandler) handleEvents(ctx context.Context, u transport.Update) {
	events, err := eventlogic.NewListEventLogic(ctx, h.svcCtx).ListActive()
	if err != nil {
		logx.WithContext(ctx).Errorf("查询活动列表失败: %v", err)
		_, _ = h.svcCtx.Chat.SendText(ctx, u.ChatID, "查询失败，请稍后再试。", nil)
		return
	}
	_, _ = h.svcCtx.Chat.SendText(ctx, u.ChatID, renderEventList(events), registerKeyboard(events))
}

func (h *memberHandler) handleForbidden(ctx context.Context, u transport.Update) {
	_, _ = h.svcCtx.Chat.SendText(ctx, u.ChatID, "无权执行该操作。", nil)
}

// handleRegister 报名按钮
func (h *memberHandler) handleRegister(ctx context.Context, u transport.Update) {
	eventID, ok := transport.ParseRegisterToken(u.CallbackToken)
	if !ok {
		_ = h.svcCtx.Chat.Acknowledge(ctx, u.CallbackID, "无效的按钮")
		return
	}

	result, err := attendance.NewRegisterLogic(ctx, h.svcCtx).Register(
		eventID, u.ActorID, u.ActorHandle, u.ActorName)
	if err != nil {
		if errors.Is(err, model.ErrEventNotFound) {
			_ = h.svcCtx.Chat.Acknowledge(ctx, u.CallbackID, "活动不存在")
			return
		}
		logx.WithContext(ctx).Errorf("报名失败: eventId=%d, userId=%d, err=%v", eventID, u.ActorID, err)
		_ = h.svcCtx.Chat.Acknowledge(ctx, u.CallbackID, "报名失败，请稍后再试")
		return
	}

	switch result.Outcome {
	case attendance.Registered:
		_ = h.svcCtx.Chat.Acknowledge(ctx, u.CallbackID, "报名成功")
		_, _ = h.svcCtx.Chat.SendText(ctx, u.ChatID,
			fmt.Sprintf("✅ 报名成功！%s", countSuffix(result.Count, result.Limit)), nil)
	case attendance.AlreadyRegistered:
		_ = h.svcCtx.Chat.Acknowledge(ctx, u.CallbackID, "您已报名该活动")
	case attendance.RegisterDenied:
		_ = h.svcCtx.Chat.Acknowledge(ctx, u.CallbackID,
			fmt.Sprintf("名额已满（%d/%d）", result.Count, result.Limit))
	}
}

// handleRsvp RSVP 按钮：写回复并刷新卡片上的人数
func (h *memberHandler) handleRsvp(ctx context.Context, u transport.Update) {
	eventID, response, ok := transport.ParseRsvpToken(u.CallbackToken)
	if !ok {
		_ = h.svcCtx.Chat.Acknowledge(ctx, u.CallbackID, "无效的按钮")
		return
	}

	result, err := attendance.NewRsvpLogic(ctx, h.svcCtx).SetResponse(
		eventID, u.ActorID, u.ActorHandle, u.ActorName, response)
	if err != nil {
		if errors.Is(err, model.ErrEventNotFound) {
			_ = h.svcCtx.Chat.Acknowledge(ctx, u.CallbackID, "活动不存在")
			return
		}
		logx.WithContext(ctx).Errorf("RSVP 失败: eventId=%d, userId=%d, err=%v", eventID, u.ActorID, err)
		_ = h.svcCtx.Chat.Acknowledge(ctx, u.CallbackID, "操作失败，请稍后再试")
		return
	}

	_ = h.svcCtx.Chat.Acknowledge(ctx, u.CallbackID, result.Message)

	if result.Transition == attendance.Denied || result.Transition == attendance.Unchanged {
		return
	}

	// 人数变了才刷新卡片；图片卡片走 caption 编辑
	e, err := h.svcCtx.EventModel.FindByID(ctx, eventID)
	if err != nil {
		return
	}
	stats, err := h.svcCtx.RsvpModel.CountByResponse(ctx, eventID)
	if err != nil {
		return
	}
	body := renderEventCard(e, stats[model.ResponseAttending])
	kb := rsvpKeyboard(eventID)
	if u.HasImage {
		err = h.svcCtx.Chat.EditImageCaption(ctx, u.MessageRef, body, kb)
	} else {
		err = h.svcCtx.Chat.EditText(ctx, u.MessageRef, body, kb)
	}
	if err != nil {
		logx.WithContext(ctx).Errorf("刷新卡片失败: eventId=%d, err=%v", eventID, err)
	}
}

// countSuffix 成功提示里的人数后缀
func countSuffix(count int64, limit uint32) string {
	if limit == 0 {
		return fmt.Sprintf("（当前 %d 人）", count)
	}
	return fmt.Sprintf("（当前 %d/%d 人）", count, limit)
}
