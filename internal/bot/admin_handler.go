package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"event-bot/common/errorx"
	eventlogic "event-bot/internal/logic/event"
	"event-bot/internal/logic/notify"
	"event-bot/internal/model"
	"event-bot/internal/session"
	"event-bot/internal/svc"
	"event-bot/internal/transport"

	"github.com/zeromicro/go-zero/core/logx"
)

// ==================== 菜单动作 ====================

const (
	menuCreate   = "create"
	menuEdit     = "edit"
	menuList     = "list"
	menuNotify   = "notify"
	menuPostCard = "card"
	menuStats    = "stats"
	menuUsers    = "users"
	menuReach    = "reach"  // 送达检测
	menuChannel  = "chtest" // 频道自检
)

// 编辑单字段的选择菜单
const (
	pickEditTitle = "edittitle"
	pickEditDate  = "editdate"
	pickEditDesc  = "editdesc"
	pickEditLimit = "editlimit"
	pickEditImage = "editimage"
)

const skipWord = "跳过"

// adminHandler 管理端：活动管理、通知推送、对话式创建/编辑
type adminHandler struct {
	svcCtx *svc.ServiceContext
}

func (h *adminHandler) send(ctx context.Context, chatID int64, body string, kb transport.Keyboard) {
	if _, err := h.svcCtx.Chat.SendText(ctx, chatID, body, kb); err != nil {
		logx.WithContext(ctx).Errorf("发送管理端消息失败: %v", err)
	}
}

// ==================== 命令入口 ====================

func (h *adminHandler) handleCommand(ctx context.Context, u transport.Update) {
	switch u.Command {
	case "admin":
		h.send(ctx, u.ChatID, "🔧 管理菜单：", adminMenuKeyboard())
	case "create_event":
		h.startCreate(ctx, u)
	case "list_events":
		h.showList(ctx, u)
	case "event_users":
		h.showPicker(ctx, u, menuUsers, "选择要查看名单的活动：")
	case "notify_users":
		h.showPicker(ctx, u, menuNotify, "选择要推送通知的活动：")
	case "post_event_card":
		h.showPicker(ctx, u, menuPostCard, "选择要发布卡片的活动：")
	case "rsvp_stats":
		h.showPicker(ctx, u, menuStats, "选择要查看统计的活动：")
	case "check_users":
		h.showPicker(ctx, u, menuReach, "选择要做送达检测的活动：")
	case "test_channel":
		h.testChannel(ctx, u)
	}
}

// ==================== 回调入口 ====================

func (h *adminHandler) handleCallback(ctx context.Context, u transport.Update) {
	_ = h.svcCtx.Chat.Acknowledge(ctx, u.CallbackID, "")

	if action, ok := transport.ParseMenuToken(u.CallbackToken); ok {
		switch action {
		case menuCreate:
			h.startCreate(ctx, u)
		case menuEdit:
			h.showPicker(ctx, u, menuEdit, "选择要编辑的活动：")
		case menuList:
			h.showList(ctx, u)
		case menuNotify:
			h.showPicker(ctx, u, menuNotify, "选择要推送通知的活动：")
		case menuPostCard:
			h.showPicker(ctx, u, menuPostCard, "选择要发布卡片的活动：")
		case menuStats:
			h.showPicker(ctx, u, menuStats, "选择要查看统计的活动：")
		case menuUsers:
			h.showPicker(ctx, u, menuUsers, "选择要查看名单的活动：")
		case menuReach:
			h.showPicker(ctx, u, menuReach, "选择要做送达检测的活动：")
		case menuChannel:
			h.testChannel(ctx, u)
		}
		return
	}

	menu, eventID, ok := transport.ParsePickToken(u.CallbackToken)
	if !ok {
		return
	}
	switch menu {
	case menuUsers:
		h.showAttending(ctx, u, eventID)
	case menuStats:
		h.showStats(ctx, u, eventID)
	case menuNotify:
		h.startNotify(ctx, u, eventID)
	case menuReach:
		h.showReach(ctx, u, eventID)
	case menuPostCard:
		h.postCard(ctx, u, eventID)
	case menuEdit:
		h.showEditFields(ctx, u, eventID)
	case pickEditTitle:
		h.startEditField(ctx, u, eventID, session.AwaitingTitle, "请输入新的活动标题：")
	case pickEditDate:
		h.startEditField(ctx, u, eventID, session.AwaitingDate, "请输入新的活动日期（YYYY-MM-DD）：")
	case pickEditDesc:
		h.startEditField(ctx, u, eventID, session.AwaitingDescription, "请输入新的活动详情：")
	case pickEditLimit:
		h.startEditField(ctx, u, eventID, session.AwaitingCapacity, "请输入新的人数上限（0 表示不限）：")
	case pickEditImage:
		h.startEditField(ctx, u, eventID, session.AwaitingImage, "请发送新的封面图片：")
	}
}

// ==================== 列表/统计/名单 ====================

func (h *adminHandler) showList(ctx context.Context, u transport.Update) {
	items, err := eventlogic.NewListEventLogic(ctx, h.svcCtx).ListActiveWithCounts()
	if err != nil {
		logx.WithContext(ctx).Errorf("查询活动列表失败: %v", err)
		h.send(ctx, u.ChatID, "查询失败，请稍后再试。", nil)
		return
	}
	h.send(ctx, u.ChatID, renderAdminEventList(items), nil)
}

func (h *adminHandler) showPicker(ctx context.Context, u transport.Update, menu, prompt string) {
	items, err := eventlogic.NewListEventLogic(ctx, h.svcCtx).ListActiveWithCounts()
	if err != nil {
		logx.WithContext(ctx).Errorf("查询活动列表失败: %v", err)
		h.send(ctx, u.ChatID, "查询失败，请稍后再试。", nil)
		return
	}
	if len(items) == 0 {
		h.send(ctx, u.ChatID, "还没有创建任何活动。", nil)
		return
	}
	h.send(ctx, u.ChatID, prompt, pickEventKeyboard(menu, items))
}

func (h *adminHandler) showAttending(ctx context.Context, u transport.Update, eventID uint64) {
	e, err := h.svcCtx.EventModel.FindByID(ctx, eventID)
	if err != nil {
		h.send(ctx, u.ChatID, errorx.GetMessage(errorx.CodeEventNotFound), nil)
		return
	}
	resps, err := h.svcCtx.RsvpModel.ListAttending(ctx, eventID)
	if err != nil {
		logx.WithContext(ctx).Errorf("查询参加名单失败: eventId=%d, err=%v", eventID, err)
		h.send(ctx, u.ChatID, "查询失败，请稍后再试。", nil)
		return
	}
	h.send(ctx, u.ChatID, renderAttendingList(e, resps), nil)
}

func (h *adminHandler) showStats(ctx context.Context, u transport.Update, eventID uint64) {
	e, err := h.svcCtx.EventModel.FindByID(ctx, eventID)
	if err != nil {
		h.send(ctx, u.ChatID, errorx.GetMessage(errorx.CodeEventNotFound), nil)
		return
	}
	stats, err := h.svcCtx.RsvpModel.CountByResponse(ctx, eventID)
	if err != nil {
		logx.WithContext(ctx).Errorf("查询统计失败: eventId=%d, err=%v", eventID, err)
		h.send(ctx, u.ChatID, "查询失败，请稍后再试。", nil)
		return
	}
	recent, err := h.svcCtx.RsvpModel.ListRecent(ctx, eventID, 5)
	if err != nil {
		logx.WithContext(ctx).Errorf("查询最近回复失败: eventId=%d, err=%v", eventID, err)
		recent = nil
	}
	h.send(ctx, u.ChatID, renderRsvpStats(e, stats, recent), nil)
}

// ==================== 诊断 ====================

// showReach 送达检测：正式推送前找出必然收不到通知的用户
func (h *adminHandler) showReach(ctx context.Context, u transport.Update, eventID uint64) {
	report, err := notify.NewReachabilityLogic(ctx, h.svcCtx).Audit(eventID)
	if err != nil {
		h.send(ctx, u.ChatID, errorx.FromError(err).GetMessage(), nil)
		return
	}
	if report.Reachable == 0 && report.Unknown == 0 && len(report.Unreachable) == 0 {
		h.send(ctx, u.ChatID, errorx.GetMessage(errorx.CodeBroadcastNoTargets), nil)
		return
	}
	h.send(ctx, u.ChatID, renderReachReport(report.Reachable, report.Unknown, report.Unreachable), nil)
}

// testChannel 频道自检：往发布频道发一条测试消息，验证机器人权限
func (h *adminHandler) testChannel(ctx context.Context, u transport.Update) {
	channelID := h.svcCtx.Config.Telegram.ChannelID
	if channelID == 0 {
		h.send(ctx, u.ChatID, "未配置发布频道，无法自检。", nil)
		return
	}
	if _, err := h.svcCtx.Chat.SendText(ctx, channelID, "🔧 频道自检：机器人发言权限正常。", nil); err != nil {
		logx.WithContext(ctx).Errorf("频道自检失败: channelId=%d, err=%v", channelID, err)
		h.send(ctx, u.ChatID, "❌ 频道自检失败，请确认机器人已加入频道并具备发言权限。", nil)
		return
	}
	h.send(ctx, u.ChatID, "✅ 频道自检通过，测试消息已发到频道。", nil)
}

// ==================== 频道发布 ====================

func (h *adminHandler) postCard(ctx context.Context, u transport.Update, eventID uint64) {
	channelID := h.svcCtx.Config.Telegram.ChannelID
	if channelID == 0 {
		// 未配置频道时功能降级，不报错
		h.send(ctx, u.ChatID, "未配置发布频道，无法发布卡片。", nil)
		return
	}
	e, err := h.svcCtx.EventModel.FindByID(ctx, eventID)
	if err != nil {
		h.send(ctx, u.ChatID, errorx.GetMessage(errorx.CodeEventNotFound), nil)
		return
	}
	stats, err := h.svcCtx.RsvpModel.CountByResponse(ctx, eventID)
	if err != nil {
		h.send(ctx, u.ChatID, "查询失败，请稍后再试。", nil)
		return
	}

	body := renderEventCard(e, stats[model.ResponseAttending])
	kb := rsvpKeyboard(eventID)
	if e.ImageFileID != "" {
		_, err = h.svcCtx.Chat.SendImage(ctx, channelID, e.ImageFileID, body, kb)
	} else {
		_, err = h.svcCtx.Chat.SendText(ctx, channelID, body, kb)
	}
	if err != nil {
		logx.WithContext(ctx).Errorf("发布卡片失败: eventId=%d, err=%v", eventID, err)
		h.send(ctx, u.ChatID, "发布失败，请检查机器人是否有频道发言权限。", nil)
		return
	}
	h.send(ctx, u.ChatID, "✅ 活动卡片已发布到频道。", nil)
}

// ==================== 对话流程 ====================

func (h *adminHandler) startCreate(ctx context.Context, u transport.Update) {
	h.svcCtx.Sessions.Put(u.ActorID, &session.Session{State: session.AwaitingTitle})
	h.send(ctx, u.ChatID, "📅 开始创建活动。\n请输入活动标题：", nil)
}

func (h *adminHandler) startNotify(ctx context.Context, u transport.Update, eventID uint64) {
	if _, err := h.svcCtx.EventModel.FindByID(ctx, eventID); err != nil {
		h.send(ctx, u.ChatID, errorx.GetMessage(errorx.CodeEventNotFound), nil)
		return
	}
	h.svcCtx.Sessions.Put(u.ActorID, &session.Session{
		State:         session.AwaitingNotificationBody,
		NotifyEventID: eventID,
	})
	h.send(ctx, u.ChatID, "请输入要推送的通知内容：", nil)
}

func (h *adminHandler) showEditFields(ctx context.Context, u transport.Update, eventID uint64) {
	if _, err := h.svcCtx.EventModel.FindByID(ctx, eventID); err != nil {
		h.send(ctx, u.ChatID, errorx.GetMessage(errorx.CodeEventNotFound), nil)
		return
	}
	kb := transport.Keyboard{
		{{Text: "📝 标题", Token: transport.PickToken(pickEditTitle, eventID)}},
		{{Text: "📅 日期", Token: transport.PickToken(pickEditDate, eventID)}},
		{{Text: "📄 详情", Token: transport.PickToken(pickEditDesc, eventID)}},
		{{Text: "👥 人数上限", Token: transport.PickToken(pickEditLimit, eventID)}},
		{{Text: "🖼️ 封面图片", Token: transport.PickToken(pickEditImage, eventID)}},
	}
	h.send(ctx, u.ChatID, "选择要修改的字段：", kb)
}

func (h *adminHandler) startEditField(ctx context.Context, u transport.Update, eventID uint64, state session.State, prompt string) {
	h.svcCtx.Sessions.Put(u.ActorID, &session.Session{
		State:          state,
		EditingEventID: eventID,
	})
	h.send(ctx, u.ChatID, prompt, nil)
}

// handleInput 自由文本/图片输入，按会话状态消费
func (h *adminHandler) handleInput(ctx context.Context, u transport.Update) {
	sess := h.svcCtx.Sessions.Get(u.ActorID)
	if sess.State == session.Idle {
		return
	}

	switch sess.State {
	case session.AwaitingTitle:
		h.consumeTitle(ctx, u, sess)
	case session.AwaitingDate:
		h.consumeDate(ctx, u, sess)
	case session.AwaitingDescription:
		h.consumeDescription(ctx, u, sess)
	case session.AwaitingCapacity:
		h.consumeCapacity(ctx, u, sess)
	case session.AwaitingImage:
		h.consumeImage(ctx, u, sess)
	case session.AwaitingNotificationBody:
		h.consumeNotificationBody(ctx, u, sess)
	}
}

func (h *adminHandler) consumeTitle(ctx context.Context, u transport.Update, sess *session.Session) {
	title := strings.TrimSpace(u.Text)
	if title == "" {
		h.send(ctx, u.ChatID, errorx.GetMessage(errorx.CodeEventTitleEmpty), nil)
		return
	}
	if sess.EditingEventID != 0 {
		h.applyEdit(ctx, u, sess.EditingEventID, &eventlogic.UpdateEventInput{Title: &title})
		return
	}
	sess.Draft.Title = title
	sess.State = session.AwaitingDate
	h.svcCtx.Sessions.Put(u.ActorID, sess)
	h.send(ctx, u.ChatID, "请输入活动日期（YYYY-MM-DD）：", nil)
}

func (h *adminHandler) consumeDate(ctx context.Context, u transport.Update, sess *session.Session) {
	date, err := eventlogic.ParseDate(u.Text)
	if err != nil {
		h.send(ctx, u.ChatID, errorx.GetMessage(errorx.CodeEventBadDate), nil)
		return
	}
	if sess.EditingEventID != 0 {
		h.applyEdit(ctx, u, sess.EditingEventID, &eventlogic.UpdateEventInput{EventDate: &date})
		return
	}
	sess.Draft.EventDate = date
	sess.State = session.AwaitingDescription
	h.svcCtx.Sessions.Put(u.ActorID, sess)
	h.send(ctx, u.ChatID, fmt.Sprintf("请输入活动详情（回复\"%s\"留空）：", skipWord), nil)
}

func (h *adminHandler) consumeDescription(ctx context.Context, u transport.Update, sess *session.Session) {
	desc := strings.TrimSpace(u.Text)
	if desc == skipWord {
		desc = ""
	}
	if sess.EditingEventID != 0 {
		h.applyEdit(ctx, u, sess.EditingEventID, &eventlogic.UpdateEventInput{Description: &desc})
		return
	}
	sess.Draft.Description = desc
	sess.State = session.AwaitingCapacity
	h.svcCtx.Sessions.Put(u.ActorID, sess)
	h.send(ctx, u.ChatID, "请输入人数上限（0 表示不限）：", nil)
}

func (h *adminHandler) consumeCapacity(ctx context.Context, u transport.Update, sess *session.Session) {
	limit, err := strconv.ParseUint(strings.TrimSpace(u.Text), 10, 32)
	if err != nil {
		h.send(ctx, u.ChatID, errorx.GetMessage(errorx.CodeEventBadLimit), nil)
		return
	}
	v := uint32(limit)
	if sess.EditingEventID != 0 {
		h.applyEdit(ctx, u, sess.EditingEventID, &eventlogic.UpdateEventInput{AttendeeLimit: &v})
		return
	}
	sess.Draft.AttendeeLimit = v
	sess.State = session.AwaitingImage
	h.svcCtx.Sessions.Put(u.ActorID, sess)
	h.send(ctx, u.ChatID, fmt.Sprintf("请发送封面图片（回复\"%s\"不配图）：", skipWord), nil)
}

func (h *adminHandler) consumeImage(ctx context.Context, u transport.Update, sess *session.Session) {
	var fileID string
	switch {
	case u.Kind == transport.UpdateImage:
		fileID = u.ImageFileID
	case strings.TrimSpace(u.Text) == skipWord:
		fileID = ""
	default:
		h.send(ctx, u.ChatID, fmt.Sprintf("请发送图片，或回复\"%s\"。", skipWord), nil)
		return
	}

	if sess.EditingEventID != 0 {
		h.applyEdit(ctx, u, sess.EditingEventID, &eventlogic.UpdateEventInput{ImageFileID: &fileID})
		return
	}
	sess.Draft.ImageFileID = fileID
	h.finishCreate(ctx, u, sess)
}

func (h *adminHandler) finishCreate(ctx context.Context, u transport.Update, sess *session.Session) {
	id, err := eventlogic.NewCreateEventLogic(ctx, h.svcCtx).Create(&eventlogic.CreateEventInput{
		Title:         sess.Draft.Title,
		Description:   sess.Draft.Description,
		EventDate:     sess.Draft.EventDate,
		AttendeeLimit: sess.Draft.AttendeeLimit,
		ImageFileID:   sess.Draft.ImageFileID,
	})
	if err != nil {
		h.send(ctx, u.ChatID, errorx.FromError(err).GetMessage(), nil)
		return
	}
	h.svcCtx.Sessions.Clear(u.ActorID)

	var b strings.Builder
	fmt.Fprintf(&b, "✅ 活动已创建（#%d）\n🎉 %s\n📅 %s\n", id, sess.Draft.Title, sess.Draft.EventDate)
	if sess.Draft.AttendeeLimit > 0 {
		fmt.Fprintf(&b, "👥 人数上限：%d\n", sess.Draft.AttendeeLimit)
	}
	if sess.Draft.ImageFileID != "" {
		b.WriteString("🖼️ 已配封面图片\n")
	}
	h.send(ctx, u.ChatID, b.String(), nil)
}

func (h *adminHandler) applyEdit(ctx context.Context, u transport.Update, eventID uint64, in *eventlogic.UpdateEventInput) {
	err := eventlogic.NewUpdateEventLogic(ctx, h.svcCtx).Update(eventID, in)
	h.svcCtx.Sessions.Clear(u.ActorID)
	if err != nil {
		h.send(ctx, u.ChatID, errorx.FromError(err).GetMessage(), nil)
		return
	}
	h.send(ctx, u.ChatID, "✅ 已更新。", nil)
}

func (h *adminHandler) consumeNotificationBody(ctx context.Context, u transport.Update, sess *session.Session) {
	body := strings.TrimSpace(u.Text)
	if body == "" {
		h.send(ctx, u.ChatID, "通知内容不能为空，请重新输入：", nil)
		return
	}
	eventID := sess.NotifyEventID
	h.svcCtx.Sessions.Clear(u.ActorID)

	report, err := notify.NewBroadcastLogic(ctx, h.svcCtx).Broadcast(eventID, body)
	if err != nil {
		h.send(ctx, u.ChatID, errorx.FromError(err).GetMessage(), nil)
		return
	}
	if report.Sent == 0 && report.Failed == 0 {
		h.send(ctx, u.ChatID, errorx.GetMessage(errorx.CodeBroadcastNoTargets), nil)
		return
	}
	h.send(ctx, u.ChatID, renderDeliveryReport(report.Sent, report.Failed, report.Unreachable), nil)
}
