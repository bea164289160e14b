package attendance_test

import (
	"context"
	"errors"
	"testing"

	"event-bot/internal/logic/attendance"
	"event-bot/internal/model"
	"event-bot/internal/testutil"
)

func TestRegisterFirstTime(t *testing.T) {
	svcCtx := testutil.NewServiceContext(t)
	eventID := testutil.MustCreateEvent(t, svcCtx, "读书会", "2026-10-01", 10)

	l := attendance.NewRegisterLogic(context.Background(), svcCtx)
	result, err := l.Register(eventID, 100, "alice", "爱丽丝")
	if err != nil {
		t.Fatalf("报名失败: %v", err)
	}
	if result.Outcome != attendance.Registered {
		t.Fatalf("首次报名应为 Registered，实际 %v", result.Outcome)
	}
	if result.Count != 1 || result.Limit != 10 {
		t.Errorf("报名后并集应为 1/10，实际 %d/%d", result.Count, result.Limit)
	}

	ok, err := l.IsRegistered(eventID, 100)
	if err != nil || !ok {
		t.Errorf("报名后 IsRegistered 应为 true: ok=%v err=%v", ok, err)
	}
}

func TestRegisterIdempotent(t *testing.T) {
	svcCtx := testutil.NewServiceContext(t)
	eventID := testutil.MustCreateEvent(t, svcCtx, "读书会", "2026-10-01", 10)

	l := attendance.NewRegisterLogic(context.Background(), svcCtx)
	if _, err := l.Register(eventID, 100, "alice", "爱丽丝"); err != nil {
		t.Fatalf("首次报名失败: %v", err)
	}

	// 重复点击：结果幂等，不产生第二条记录、不占第二个名额
	result, err := l.Register(eventID, 100, "alice", "爱丽丝")
	if err != nil {
		t.Fatalf("重复报名不应报错: %v", err)
	}
	if result.Outcome != attendance.AlreadyRegistered {
		t.Fatalf("重复报名应为 AlreadyRegistered，实际 %v", result.Outcome)
	}
	if result.Count != 1 {
		t.Errorf("重复报名后并集仍应为 1，实际 %d", result.Count)
	}

	n, err := svcCtx.RegistrationModel.CountByEventID(context.Background(), eventID)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if n != 1 {
		t.Errorf("报名记录应只有 1 条，实际 %d", n)
	}
}

func TestRegisterAtCapacity(t *testing.T) {
	svcCtx := testutil.NewServiceContext(t)
	eventID := testutil.MustCreateEvent(t, svcCtx, "小班课", "2026-10-01", 2)

	l := attendance.NewRegisterLogic(context.Background(), svcCtx)
	for uid := int64(1); uid <= 2; uid++ {
		if _, err := l.Register(eventID, uid, "", "用户"); err != nil {
			t.Fatalf("报名失败: %v", err)
		}
	}

	result, err := l.Register(eventID, 3, "", "迟到者")
	if err != nil {
		t.Fatalf("满员报名不是错误路径: %v", err)
	}
	if result.Outcome != attendance.RegisterDenied {
		t.Fatalf("满员后应为 RegisterDenied，实际 %v", result.Outcome)
	}
	if result.Count != 2 || result.Limit != 2 {
		t.Errorf("拒绝时应带当前人数 2/2，实际 %d/%d", result.Count, result.Limit)
	}

	// 被拒绝的用户没有留下任何记录
	ok, err := svcCtx.RegistrationModel.Exists(context.Background(), eventID, 3)
	if err != nil || ok {
		t.Errorf("被拒用户不应有报名记录: ok=%v err=%v", ok, err)
	}
}

func TestRegisterAtCapacityButAlreadyCounted(t *testing.T) {
	svcCtx := testutil.NewServiceContext(t)
	eventID := testutil.MustCreateEvent(t, svcCtx, "小班课", "2026-10-01", 1)

	// 用户 1 通过 RSVP"去"占满唯一名额
	rl := attendance.NewRsvpLogic(context.Background(), svcCtx)
	if _, err := rl.SetResponse(eventID, 1, "", "甲", model.ResponseAttending); err != nil {
		t.Fatalf("RSVP 失败: %v", err)
	}

	// 同一个人再点报名：已计入并集，放行，人数仍是 1
	l := attendance.NewRegisterLogic(context.Background(), svcCtx)
	result, err := l.Register(eventID, 1, "", "甲")
	if err != nil {
		t.Fatalf("报名失败: %v", err)
	}
	if result.Outcome != attendance.Registered {
		t.Fatalf("已计入并集的用户报名应放行，实际 %v", result.Outcome)
	}
	if result.Count != 1 {
		t.Errorf("并集人数不应增加，实际 %d", result.Count)
	}
}

func TestRegisterUnlimited(t *testing.T) {
	svcCtx := testutil.NewServiceContext(t)
	eventID := testutil.MustCreateEvent(t, svcCtx, "开放日", "2026-10-01", 0)

	l := attendance.NewRegisterLogic(context.Background(), svcCtx)
	for uid := int64(1); uid <= 20; uid++ {
		result, err := l.Register(eventID, uid, "", "用户")
		if err != nil {
			t.Fatalf("报名失败: %v", err)
		}
		if result.Outcome != attendance.Registered {
			t.Fatalf("不限名额应始终放行，用户 %d 实际 %v", uid, result.Outcome)
		}
	}
}

func TestRegisterEventNotFound(t *testing.T) {
	svcCtx := testutil.NewServiceContext(t)

	l := attendance.NewRegisterLogic(context.Background(), svcCtx)
	_, err := l.Register(9999, 1, "", "用户")
	if !errors.Is(err, model.ErrEventNotFound) {
		t.Fatalf("不存在的活动应返回 ErrEventNotFound，实际: %v", err)
	}
}

func TestCapacityGateCheckAdmission(t *testing.T) {
	svcCtx := testutil.NewServiceContext(t)
	eventID := testutil.MustCreateEvent(t, svcCtx, "小班课", "2026-10-01", 1)

	g := attendance.NewCapacityGate(context.Background(), svcCtx)

	adm, err := g.CheckAdmission(eventID, 1)
	if err != nil {
		t.Fatalf("预判失败: %v", err)
	}
	if !adm.Admit || adm.Count != 0 {
		t.Errorf("空活动应放行: %+v", adm)
	}

	l := attendance.NewRegisterLogic(context.Background(), svcCtx)
	if _, err := l.Register(eventID, 1, "", "甲"); err != nil {
		t.Fatalf("报名失败: %v", err)
	}

	// 满员后：新人拒、老人放
	adm, err = g.CheckAdmission(eventID, 2)
	if err != nil {
		t.Fatalf("预判失败: %v", err)
	}
	if adm.Admit {
		t.Errorf("满员后新用户应被拒: %+v", adm)
	}
	adm, err = g.CheckAdmission(eventID, 1)
	if err != nil {
		t.Fatalf("预判失败: %v", err)
	}
	if !adm.Admit {
		t.Errorf("已计入并集的用户应放行: %+v", adm)
	}
}
