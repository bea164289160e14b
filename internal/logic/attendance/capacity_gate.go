package attendance

import (
	"context"

	"event-bot/internal/model"
	"event-bot/internal/svc"

	"github.com/zeromicro/go-zero/core/logx"
	"gorm.io/gorm"
)

// ==================== 名额闸门 ====================
//
// 所有可能往出席并集里加人的路径（报名、改回复为"去"）都必须过这里，
// 不允许任何 handler 绕过闸门直接写账本。
//
// 判定规则：
//  1. 不限名额 → 放行
//  2. 本人已计入并集（已报名或已回复"去"）→ 放行，重复确认不占新名额
//  3. 并集人数 < 上限 → 放行，否则拒绝
//
// 先检查后写入不是原子操作，放行结论在写入事务内必须复核一次
// （admissionTx），保证"人数永不超限"而不是"很少超限"。

// Admission 准入判定结果
type Admission struct {
	Admit bool
	Count int64  // 当前出席并集人数
	Limit uint32 // 0 = 不限
}

type CapacityGate struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewCapacityGate(ctx context.Context, svcCtx *svc.ServiceContext) *CapacityGate {
	return &CapacityGate{
		ctx:    ctx,
		svcCtx: svcCtx,
		Logger: logx.WithContext(ctx),
	}
}

// CheckAdmission 写入前的准入预判
//
// 活动不存在返回 model.ErrEventNotFound
func (g *CapacityGate) CheckAdmission(eventID uint64, userID int64) (*Admission, error) {
	event, err := g.svcCtx.EventModel.FindByID(g.ctx, eventID)
	if err != nil {
		return nil, err
	}
	return admission(g.ctx, g.svcCtx.DB, event, userID, g.svcCtx.AttendanceModel)
}

// admissionTx 写入事务内的准入复核
func admissionTx(ctx context.Context, tx *gorm.DB, event *model.Event, userID int64, am *model.AttendanceModel) (*Admission, error) {
	return admission(ctx, tx, event, userID, am)
}

func admission(ctx context.Context, db *gorm.DB, event *model.Event, userID int64, am *model.AttendanceModel) (*Admission, error) {
	count, err := am.CountUnionTx(ctx, db, event.ID)
	if err != nil {
		return nil, err
	}

	adm := &Admission{Count: count, Limit: event.AttendeeLimit}

	if event.Unlimited() {
		adm.Admit = true
		return adm, nil
	}

	counted, err := am.IsCountedTx(ctx, db, event.ID, userID)
	if err != nil {
		return nil, err
	}
	if counted {
		adm.Admit = true
		return adm, nil
	}

	adm.Admit = count < int64(event.AttendeeLimit)
	return adm, nil
}
