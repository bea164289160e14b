package model_test

import (
	"context"
	"errors"
	"testing"

	"event-bot/internal/model"
	"event-bot/internal/testutil"
)

func TestEventModelCreateAndFind(t *testing.T) {
	db := testutil.NewDB(t)
	m := model.NewEventModel(db)
	ctx := context.Background()

	event := &model.Event{
		Title:         "校园音乐节",
		Description:   "草坪广场，自带坐垫",
		EventDate:     "2026-10-01",
		AttendeeLimit: 50,
		IsActive:      true,
	}
	if err := m.Create(ctx, event); err != nil {
		t.Fatalf("创建活动失败: %v", err)
	}
	if event.ID == 0 {
		t.Fatal("创建后应回填自增ID")
	}

	got, err := m.FindByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("查询活动失败: %v", err)
	}
	if got.Title != event.Title || got.EventDate != event.EventDate || got.AttendeeLimit != 50 {
		t.Errorf("查询结果不符: %+v", got)
	}
}

func TestEventModelFindByIDNotFound(t *testing.T) {
	db := testutil.NewDB(t)
	m := model.NewEventModel(db)

	_, err := m.FindByID(context.Background(), 9999)
	if !errors.Is(err, model.ErrEventNotFound) {
		t.Fatalf("期望 ErrEventNotFound，实际: %v", err)
	}
}

func TestEventModelUpdateFields(t *testing.T) {
	db := testutil.NewDB(t)
	m := model.NewEventModel(db)
	ctx := context.Background()

	event := &model.Event{Title: "旧标题", EventDate: "2026-10-01", IsActive: true}
	if err := m.Create(ctx, event); err != nil {
		t.Fatalf("创建活动失败: %v", err)
	}

	// 部分更新：只改标题和上限，其余字段不动
	err := m.UpdateFields(ctx, event.ID, map[string]interface{}{
		"title":          "新标题",
		"attendee_limit": uint32(30),
	})
	if err != nil {
		t.Fatalf("更新失败: %v", err)
	}

	got, err := m.FindByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("回查失败: %v", err)
	}
	if got.Title != "新标题" || got.AttendeeLimit != 30 {
		t.Errorf("更新未生效: %+v", got)
	}
	if got.EventDate != "2026-10-01" {
		t.Errorf("未指定的字段被改动: %q", got.EventDate)
	}
}

func TestEventModelUpdateFieldsEmpty(t *testing.T) {
	db := testutil.NewDB(t)
	m := model.NewEventModel(db)
	ctx := context.Background()

	event := &model.Event{Title: "标题", EventDate: "2026-10-01", IsActive: true}
	if err := m.Create(ctx, event); err != nil {
		t.Fatalf("创建活动失败: %v", err)
	}

	err := m.UpdateFields(ctx, event.ID, map[string]interface{}{})
	if !errors.Is(err, model.ErrNoFields) {
		t.Fatalf("空更新应返回 ErrNoFields，实际: %v", err)
	}
}

func TestEventModelUpdateFieldsNotFound(t *testing.T) {
	db := testutil.NewDB(t)
	m := model.NewEventModel(db)

	err := m.UpdateFields(context.Background(), 9999, map[string]interface{}{"title": "x"})
	if !errors.Is(err, model.ErrEventNotFound) {
		t.Fatalf("不存在的活动应返回 ErrEventNotFound，实际: %v", err)
	}
}

func TestEventModelListActive(t *testing.T) {
	db := testutil.NewDB(t)
	m := model.NewEventModel(db)
	ctx := context.Background()

	// 故意乱序插入，验证按日期升序返回
	for _, e := range []*model.Event{
		{Title: "十二月聚会", EventDate: "2026-12-01", IsActive: true},
		{Title: "十月聚会", EventDate: "2026-10-01", IsActive: true},
		{Title: "十一月聚会", EventDate: "2026-11-01", IsActive: true},
		{Title: "已下线", EventDate: "2026-09-15", IsActive: false},
	} {
		if err := m.Create(ctx, e); err != nil {
			t.Fatalf("创建活动失败: %v", err)
		}
	}

	events, err := m.ListActive(ctx)
	if err != nil {
		t.Fatalf("查询活动列表失败: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("应只返回 3 个启用活动，实际 %d", len(events))
	}
	wantOrder := []string{"2026-10-01", "2026-11-01", "2026-12-01"}
	for i, e := range events {
		if e.EventDate != wantOrder[i] {
			t.Errorf("第 %d 个活动日期应为 %s，实际 %s", i, wantOrder[i], e.EventDate)
		}
	}
}

func TestEventModelSetActive(t *testing.T) {
	db := testutil.NewDB(t)
	m := model.NewEventModel(db)
	ctx := context.Background()

	event := &model.Event{Title: "活动", EventDate: "2026-10-01", IsActive: true}
	if err := m.Create(ctx, event); err != nil {
		t.Fatalf("创建活动失败: %v", err)
	}

	if err := m.SetActive(ctx, event.ID, false); err != nil {
		t.Fatalf("下线失败: %v", err)
	}
	events, err := m.ListActive(ctx)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("下线后不应出现在列表，实际 %d 个", len(events))
	}

	// 下线的活动仍可按ID查到
	if _, err := m.FindByID(ctx, event.ID); err != nil {
		t.Errorf("下线活动应仍可按ID查询: %v", err)
	}
}

func TestEventUnlimited(t *testing.T) {
	if !(&model.Event{AttendeeLimit: 0}).Unlimited() {
		t.Error("上限 0 应视为不限名额")
	}
	if (&model.Event{AttendeeLimit: 1}).Unlimited() {
		t.Error("上限 1 不是不限名额")
	}
}
