package bot

import (
	"strings"
	"testing"

	"event-bot/internal/model"
	"event-bot/internal/transport"
)

func TestRenderEventCard(t *testing.T) {
	e := &model.Event{Title: "读书会", EventDate: "2026-10-01", Description: "三楼活动室", AttendeeLimit: 20}
	got := renderEventCard(e, 5)
	for _, want := range []string{"读书会", "2026-10-01", "三楼活动室", "5/20"} {
		if !strings.Contains(got, want) {
			t.Errorf("卡片缺少 %q:\n%s", want, got)
		}
	}
}

func TestRenderEventCardUnlimited(t *testing.T) {
	e := &model.Event{Title: "开放日", EventDate: "2026-10-01"}
	got := renderEventCard(e, 7)
	if strings.Contains(got, "/") {
		t.Errorf("不限名额不应出现分母:\n%s", got)
	}
	if !strings.Contains(got, "7") {
		t.Errorf("应显示当前人数:\n%s", got)
	}
}

func TestRenderEventListEmpty(t *testing.T) {
	got := renderEventList(nil)
	if !strings.Contains(got, "没有") {
		t.Errorf("空列表应给出提示: %q", got)
	}
}

func TestRenderDeliveryReport(t *testing.T) {
	got := renderDeliveryReport(3, 1, []int64{42})
	for _, want := range []string{"成功：3", "失败：1", "42"} {
		if !strings.Contains(got, want) {
			t.Errorf("推送报告缺少 %q:\n%s", want, got)
		}
	}

	// 没有不可达用户时不渲染跟进段落
	got = renderDeliveryReport(3, 0, nil)
	if strings.Contains(got, "无法送达") {
		t.Errorf("无不可达用户不应出现跟进提示:\n%s", got)
	}
}

func TestRsvpKeyboardTokens(t *testing.T) {
	kb := rsvpKeyboard(7)
	if len(kb) != 1 || len(kb[0]) != 2 {
		t.Fatalf("RSVP 键盘应为一行两键: %+v", kb)
	}
	if id, resp, ok := transport.ParseRsvpToken(kb[0][0].Token); !ok || id != 7 || resp != model.ResponseAttending {
		t.Errorf("'去'按钮 token 不符: %q", kb[0][0].Token)
	}
	if id, resp, ok := transport.ParseRsvpToken(kb[0][1].Token); !ok || id != 7 || resp != model.ResponseDeclining {
		t.Errorf("'不去'按钮 token 不符: %q", kb[0][1].Token)
	}
}

func TestRegisterKeyboardOneRowPerEvent(t *testing.T) {
	events := []model.Event{
		{ID: 1, Title: "甲活动"},
		{ID: 2, Title: "乙活动"},
	}
	kb := registerKeyboard(events)
	if len(kb) != 2 {
		t.Fatalf("应为每个活动一行: %+v", kb)
	}
	for i, e := range events {
		if id, ok := transport.ParseRegisterToken(kb[i][0].Token); !ok || id != e.ID {
			t.Errorf("第 %d 行 token 不符: %q", i, kb[i][0].Token)
		}
	}
}
