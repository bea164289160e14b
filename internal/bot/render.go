package bot

import (
	"fmt"
	"strings"

	"event-bot/internal/logic/event"
	"event-bot/internal/model"
	"event-bot/internal/transport"
)

// ==================== 文案渲染 ====================

// renderEventCard 活动卡片正文（RSVP 卡片、频道发布共用）
func renderEventCard(e *model.Event, attendingCount int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 %s\n", e.Title)
	fmt.Fprintf(&b, "📅 日期：%s\n", e.EventDate)
	if e.Description != "" {
		fmt.Fprintf(&b, "📄 %s\n", e.Description)
	}
	if e.Unlimited() {
		fmt.Fprintf(&b, "👥 已确认参加：%d", attendingCount)
	} else {
		fmt.Fprintf(&b, "👥 已确认参加：%d/%d", attendingCount, e.AttendeeLimit)
	}
	return b.String()
}

// renderEventList 面向成员的活动列表
func renderEventList(events []model.Event) string {
	if len(events) == 0 {
		return "当前没有可报名的活动。"
	}
	var b strings.Builder
	b.WriteString("📋 当前活动：\n\n")
	for _, e := range events {
		fmt.Fprintf(&b, "• %s（%s）\n", e.Title, e.EventDate)
	}
	b.WriteString("\n点击下方按钮报名：")
	return b.String()
}

// renderAdminEventList 管理端活动列表（带人数）
func renderAdminEventList(items []event.EventWithCount) string {
	if len(items) == 0 {
		return "还没有创建任何活动。"
	}
	var b strings.Builder
	b.WriteString("📋 活动列表：\n\n")
	for _, it := range items {
		if it.Unlimited() {
			fmt.Fprintf(&b, "#%d %s（%s）— %d 人\n", it.ID, it.Title, it.EventDate, it.AttendeeCount)
		} else {
			fmt.Fprintf(&b, "#%d %s（%s）— %d/%d 人\n", it.ID, it.Title, it.EventDate, it.AttendeeCount, it.AttendeeLimit)
		}
	}
	return b.String()
}

// renderAttendingList 确认参加名单（仅 RSVP"去"，按回复时间排序）
func renderAttendingList(e *model.Event, resps []model.RsvpResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👥 %s（%s）确认参加：\n\n", e.Title, e.EventDate)
	if len(resps) == 0 {
		b.WriteString("暂无人确认参加。")
		return b.String()
	}
	for i, r := range resps {
		name := r.FirstName
		if name == "" {
			name = "未知用户"
		}
		if r.Username != "" {
			fmt.Fprintf(&b, "%d. %s (@%s)\n", i+1, name, r.Username)
		} else {
			fmt.Fprintf(&b, "%d. %s\n", i+1, name)
		}
	}
	return b.String()
}

// renderRsvpStats RSVP 统计，附最近几条回复动态
func renderRsvpStats(e *model.Event, stats map[string]int64, recent []model.RsvpResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s（%s）\n\n✅ 去：%d\n❌ 不去：%d",
		e.Title, e.EventDate,
		stats[model.ResponseAttending], stats[model.ResponseDeclining])
	if len(recent) > 0 {
		b.WriteString("\n\n最近回复：\n")
		for _, r := range recent {
			name := r.FirstName
			if name == "" {
				name = "未知用户"
			}
			mark := "✅"
			if r.Response == model.ResponseDeclining {
				mark = "❌"
			}
			fmt.Fprintf(&b, "%s %s\n", mark, name)
		}
	}
	return b.String()
}

// renderDeliveryReport 推送结果（含不可达名单，供管理员跟进）
func renderDeliveryReport(sent, failed int, unreachable []int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📢 推送完成\n✅ 成功：%d\n❌ 失败：%d", sent, failed)
	if len(unreachable) > 0 {
		b.WriteString("\n\n⚠️ 以下用户从未私聊过机器人，无法送达：\n")
		for _, id := range unreachable {
			fmt.Fprintf(&b, "• %d\n", id)
		}
		b.WriteString("请线下提醒他们先给机器人发一条消息。")
	}
	return b.String()
}

// renderReachReport 送达检测结果
func renderReachReport(reachable, unknown int, unreachable []int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 送达检测完成\n✅ 可送达：%d", reachable)
	if unknown > 0 {
		fmt.Fprintf(&b, "\n❓ 无法判定：%d", unknown)
	}
	if len(unreachable) > 0 {
		b.WriteString("\n\n⚠️ 以下用户从未私聊过机器人，推送必然失败：\n")
		for _, id := range unreachable {
			fmt.Fprintf(&b, "• %d\n", id)
		}
		b.WriteString("请线下提醒他们先给机器人发一条消息。")
	}
	return b.String()
}

// ==================== 键盘 ====================

// rsvpKeyboard RSVP 卡片按钮
func rsvpKeyboard(eventID uint64) transport.Keyboard {
	return transport.Keyboard{
		{
			{Text: "✅ 去", Token: transport.RsvpToken(eventID, model.ResponseAttending)},
			{Text: "❌ 不去", Token: transport.RsvpToken(eventID, model.ResponseDeclining)},
		},
	}
}

// registerKeyboard 活动列表报名按钮，一行一个活动
func registerKeyboard(events []model.Event) transport.Keyboard {
	kb := make(transport.Keyboard, 0, len(events))
	for _, e := range events {
		kb = append(kb, []transport.Button{
			{
				Text:  fmt.Sprintf("%s - %s", e.Title, e.EventDate),
				Token: transport.RegisterToken(e.ID),
			},
		})
	}
	return kb
}

// pickEventKeyboard 管理端活动选择键盘
func pickEventKeyboard(menu string, items []event.EventWithCount) transport.Keyboard {
	kb := make(transport.Keyboard, 0, len(items))
	for _, it := range items {
		kb = append(kb, []transport.Button{
			{
				Text:  fmt.Sprintf("%s（%s）- %d 人", it.Title, it.EventDate, it.AttendeeCount),
				Token: transport.PickToken(menu, it.ID),
			},
		})
	}
	return kb
}

// adminMenuKeyboard 管理端主菜单
func adminMenuKeyboard() transport.Keyboard {
	return transport.Keyboard{
		{{Text: "📅 创建活动", Token: transport.MenuToken(menuCreate)}},
		{{Text: "✏️ 编辑活动", Token: transport.MenuToken(menuEdit)}},
		{{Text: "📋 活动列表", Token: transport.MenuToken(menuList)}},
		{{Text: "📢 发送通知", Token: transport.MenuToken(menuNotify)}},
		{{Text: "🎫 发布活动卡片", Token: transport.MenuToken(menuPostCard)}},
		{{Text: "📊 RSVP 统计", Token: transport.MenuToken(menuStats)}},
		{{Text: "👥 查看参加名单", Token: transport.MenuToken(menuUsers)}},
		{{Text: "🔍 送达检测", Token: transport.MenuToken(menuReach)}},
		{{Text: "🔧 频道自检", Token: transport.MenuToken(menuChannel)}},
	}
}
