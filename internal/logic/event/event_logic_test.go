package event_test

import (
	"context"
	"testing"

	"event-bot/common/errorx"
	"event-bot/internal/logic/attendance"
	"event-bot/internal/logic/event"
	"event-bot/internal/model"
	"event-bot/internal/testutil"
)

func TestCreateEvent(t *testing.T) {
	svcCtx := testutil.NewServiceContext(t)

	l := event.NewCreateEventLogic(context.Background(), svcCtx)
	id, err := l.Create(&event.CreateEventInput{
		Title:         "  迎新晚会  ",
		Description:   "大礼堂，19:00 开始",
		EventDate:     "2026-09-30",
		AttendeeLimit: 200,
	})
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	got, err := svcCtx.EventModel.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("回查失败: %v", err)
	}
	if got.Title != "迎新晚会" {
		t.Errorf("标题应去除首尾空白，实际 %q", got.Title)
	}
	if !got.IsActive {
		t.Error("新建活动应处于上架状态")
	}
}

func TestCreateEventValidation(t *testing.T) {
	svcCtx := testutil.NewServiceContext(t)
	l := event.NewCreateEventLogic(context.Background(), svcCtx)

	cases := []struct {
		name     string
		in       event.CreateEventInput
		wantCode int
	}{
		{"空标题", event.CreateEventInput{Title: "   ", EventDate: "2026-09-30"}, errorx.CodeEventTitleEmpty},
		{"坏日期", event.CreateEventInput{Title: "活动", EventDate: "九月三十"}, errorx.CodeEventBadDate},
		{"日期格式错", event.CreateEventInput{Title: "活动", EventDate: "30-09-2026"}, errorx.CodeEventBadDate},
		{"不存在的日期", event.CreateEventInput{Title: "活动", EventDate: "2026-02-30"}, errorx.CodeEventBadDate},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := l.Create(&c.in)
			if !errorx.Is(err, c.wantCode) {
				t.Errorf("期望错误码 %d，实际: %v", c.wantCode, err)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := event.ParseDate(" 2026-10-01 ")
	if err != nil {
		t.Fatalf("合法日期解析失败: %v", err)
	}
	if got != "2026-10-01" {
		t.Errorf("应返回规范化日期，实际 %q", got)
	}
	if _, err := event.ParseDate("2026/10/01"); !errorx.Is(err, errorx.CodeEventBadDate) {
		t.Errorf("斜杠分隔应判为坏日期: %v", err)
	}
}

func TestUpdateEventPartial(t *testing.T) {
	svcCtx := testutil.NewServiceContext(t)
	eventID := testutil.MustCreateEvent(t, svcCtx, "旧标题", "2026-10-01", 10)

	title := "新标题"
	limit := uint32(0)
	l := event.NewUpdateEventLogic(context.Background(), svcCtx)
	err := l.Update(eventID, &event.UpdateEventInput{Title: &title, AttendeeLimit: &limit})
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}

	got, err := svcCtx.EventModel.FindByID(context.Background(), eventID)
	if err != nil {
		t.Fatalf("回查失败: %v", err)
	}
	if got.Title != "新标题" || got.AttendeeLimit != 0 {
		t.Errorf("更新未生效: %+v", got)
	}
	if got.EventDate != "2026-10-01" {
		t.Errorf("未指定的字段不应被改动: %q", got.EventDate)
	}
}

func TestUpdateEventOutcomes(t *testing.T) {
	svcCtx := testutil.NewServiceContext(t)
	eventID := testutil.MustCreateEvent(t, svcCtx, "活动", "2026-10-01", 10)

	l := event.NewUpdateEventLogic(context.Background(), svcCtx)

	// 一个字段都没给：必须和更新成功区分开
	if err := l.Update(eventID, &event.UpdateEventInput{}); !errorx.Is(err, errorx.CodeEventNoChanges) {
		t.Errorf("空更新应返回 CodeEventNoChanges: %v", err)
	}

	title := "x"
	if err := l.Update(9999, &event.UpdateEventInput{Title: &title}); !errorx.Is(err, errorx.CodeEventNotFound) {
		t.Errorf("不存在的活动应返回 CodeEventNotFound: %v", err)
	}

	empty := "  "
	if err := l.Update(eventID, &event.UpdateEventInput{Title: &empty}); !errorx.Is(err, errorx.CodeEventTitleEmpty) {
		t.Errorf("空标题应返回 CodeEventTitleEmpty: %v", err)
	}

	bad := "下周三"
	if err := l.Update(eventID, &event.UpdateEventInput{EventDate: &bad}); !errorx.Is(err, errorx.CodeEventBadDate) {
		t.Errorf("坏日期应返回 CodeEventBadDate: %v", err)
	}
}

func TestListActiveWithCounts(t *testing.T) {
	svcCtx := testutil.NewServiceContext(t)
	first := testutil.MustCreateEvent(t, svcCtx, "十月活动", "2026-10-01", 0)
	second := testutil.MustCreateEvent(t, svcCtx, "十一月活动", "2026-11-01", 0)

	rl := attendance.NewRegisterLogic(context.Background(), svcCtx)
	for uid := int64(1); uid <= 3; uid++ {
		if _, err := rl.Register(first, uid, "", "用户"); err != nil {
			t.Fatalf("报名失败: %v", err)
		}
	}
	vl := attendance.NewRsvpLogic(context.Background(), svcCtx)
	if _, err := vl.SetResponse(second, 9, "", "用户", model.ResponseAttending); err != nil {
		t.Fatalf("RSVP 失败: %v", err)
	}

	l := event.NewListEventLogic(context.Background(), svcCtx)
	got, err := l.ListActiveWithCounts()
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("应返回 2 个活动，实际 %d", len(got))
	}
	if got[0].ID != first || got[0].AttendeeCount != 3 {
		t.Errorf("第一个活动应为十月活动(3人)，实际 id=%d count=%d", got[0].ID, got[0].AttendeeCount)
	}
	if got[1].ID != second || got[1].AttendeeCount != 1 {
		t.Errorf("第二个活动应为十一月活动(1人)，实际 id=%d count=%d", got[1].ID, got[1].AttendeeCount)
	}
}

func TestGetEvent(t *testing.T) {
	svcCtx := testutil.NewServiceContext(t)
	eventID := testutil.MustCreateEvent(t, svcCtx, "活动", "2026-10-01", 5)

	l := event.NewGetEventLogic(context.Background(), svcCtx)
	got, err := l.Get(eventID)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if got.Title != "活动" || got.AttendeeLimit != 5 {
		t.Errorf("查询结果不符: %+v", got)
	}
}
