package attendance_test

import (
	"context"
	"sync"
	"testing"

	"event-bot/internal/logic/attendance"
	"event-bot/internal/model"
	"event-bot/internal/testutil"
)

func TestConcurrentRegisterUnlimited(t *testing.T) {
	svcCtx := testutil.NewServiceContext(t)
	eventID := testutil.MustCreateEvent(t, svcCtx, "开放日", "2026-10-01", 0)

	const users = 50
	var wg sync.WaitGroup
	errs := make(chan error, users)

	for uid := int64(1); uid <= users; uid++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			l := attendance.NewRegisterLogic(context.Background(), svcCtx)
			result, err := l.Register(eventID, uid, "", "用户")
			if err != nil {
				errs <- err
				return
			}
			if result.Outcome != attendance.Registered {
				t.Errorf("用户 %d 应报名成功，实际 %v", uid, result.Outcome)
			}
		}(uid)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("并发报名出错: %v", err)
	}

	count, err := svcCtx.AttendanceModel.CountUnion(context.Background(), eventID)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if count != users {
		t.Errorf("并集人数应为 %d，实际 %d", users, count)
	}
}

func TestConcurrentRsvpAttendingUnlimited(t *testing.T) {
	svcCtx := testutil.NewServiceContext(t)
	eventID := testutil.MustCreateEvent(t, svcCtx, "交流会", "2026-10-01", 0)

	const users = 50
	var wg sync.WaitGroup
	for uid := int64(1); uid <= users; uid++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			l := attendance.NewRsvpLogic(context.Background(), svcCtx)
			result, err := l.SetResponse(eventID, uid, "", "用户", model.ResponseAttending)
			if err != nil {
				t.Errorf("用户 %d RSVP 出错: %v", uid, err)
				return
			}
			if result.Transition != attendance.Recorded {
				t.Errorf("用户 %d 应为 Recorded，实际 %v", uid, result.Transition)
			}
		}(uid)
	}
	wg.Wait()

	count, err := svcCtx.AttendanceModel.CountUnion(context.Background(), eventID)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if count != users {
		t.Errorf("并集人数应为 %d（不丢行不重复），实际 %d", users, count)
	}
}

func TestConcurrentRegisterCapacityNeverExceeded(t *testing.T) {
	svcCtx := testutil.NewServiceContext(t)
	const limit = 5
	eventID := testutil.MustCreateEvent(t, svcCtx, "小班课", "2026-10-01", limit)

	const users = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	var admitted, denied int

	for uid := int64(1); uid <= users; uid++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			l := attendance.NewRegisterLogic(context.Background(), svcCtx)
			result, err := l.Register(eventID, uid, "", "用户")
			if err != nil {
				t.Errorf("用户 %d 报名出错: %v", uid, err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			switch result.Outcome {
			case attendance.Registered:
				admitted++
			case attendance.RegisterDenied:
				denied++
			default:
				t.Errorf("用户 %d 出现意外结果 %v", uid, result.Outcome)
			}
		}(uid)
	}
	wg.Wait()

	if admitted != limit {
		t.Errorf("放行人数应恰好为上限 %d，实际 %d", limit, admitted)
	}
	if denied != users-limit {
		t.Errorf("拒绝人数应为 %d，实际 %d", users-limit, denied)
	}

	count, err := svcCtx.AttendanceModel.CountUnion(context.Background(), eventID)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if count != limit {
		t.Errorf("并集人数绝不能超过上限 %d，实际 %d", limit, count)
	}
}

// 报名和 RSVP"去"两条通道同时抢同一批名额，合计也不能超限
func TestConcurrentMixedChannelsCapacity(t *testing.T) {
	svcCtx := testutil.NewServiceContext(t)
	const limit = 4
	eventID := testutil.MustCreateEvent(t, svcCtx, "小班课", "2026-10-01", limit)

	const users = 16
	var wg sync.WaitGroup

	for uid := int64(1); uid <= users; uid++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			if uid%2 == 0 {
				l := attendance.NewRegisterLogic(context.Background(), svcCtx)
				if _, err := l.Register(eventID, uid, "", "用户"); err != nil {
					t.Errorf("用户 %d 报名出错: %v", uid, err)
				}
				return
			}
			l := attendance.NewRsvpLogic(context.Background(), svcCtx)
			if _, err := l.SetResponse(eventID, uid, "", "用户", model.ResponseAttending); err != nil {
				t.Errorf("用户 %d RSVP 出错: %v", uid, err)
			}
		}(uid)
	}
	wg.Wait()

	count, err := svcCtx.AttendanceModel.CountUnion(context.Background(), eventID)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if count != limit {
		t.Errorf("两条通道合计并集应恰好为 %d，实际 %d", limit, count)
	}
}

// 同一个用户两边同时点：并集里仍只算一个人
func TestConcurrentSameUserBothChannels(t *testing.T) {
	svcCtx := testutil.NewServiceContext(t)
	eventID := testutil.MustCreateEvent(t, svcCtx, "观影会", "2026-10-01", 0)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		l := attendance.NewRegisterLogic(context.Background(), svcCtx)
		if _, err := l.Register(eventID, 1, "", "甲"); err != nil {
			t.Errorf("报名出错: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		l := attendance.NewRsvpLogic(context.Background(), svcCtx)
		if _, err := l.SetResponse(eventID, 1, "", "甲", model.ResponseAttending); err != nil {
			t.Errorf("RSVP 出错: %v", err)
		}
	}()
	wg.Wait()

	count, err := svcCtx.AttendanceModel.CountUnion(context.Background(), eventID)
	if err != nil {
		t.Fatalf("统计失败: %v", err)
	}
	if count != 1 {
		t.Errorf("同一用户两条通道只算一个人，实际 %d", count)
	}
}
