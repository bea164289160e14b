package attendance

import (
	"context"

	"event-bot/internal/metrics"
	"event-bot/internal/model"
	"event-bot/internal/svc"

	"github.com/pkg/errors"
	"github.com/zeromicro/go-zero/core/logx"
	"gorm.io/gorm"
)

// ==================== 报名结果 ====================

type RegisterOutcome int

const (
	Registered        RegisterOutcome = iota + 1 // 报名成功
	AlreadyRegistered                            // 已报名（幂等结果，非错误）
	RegisterDenied                               // 已达人数上限
)

type RegisterResult struct {
	Outcome RegisterOutcome
	Count   int64  // 判定时的出席并集人数（成功时含本次）
	Limit   uint32 // 0 = 不限
}

// ==================== RegisterLogic 报名 ====================

type RegisterLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewRegisterLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RegisterLogic {
	return &RegisterLogic{
		ctx:    ctx,
		svcCtx: svcCtx,
		Logger: logx.WithContext(ctx),
	}
}

// Register 报名活动
//
// 幂等：重复报名返回 AlreadyRegistered，不产生第二条记录。
// 名额判定与写入在同一个活动锁 + 事务里，先检查后写入期间不会被
// 并发报名插队（人数永不超限）。
func (l *RegisterLogic) Register(eventID uint64, userID int64, username, firstName string) (*RegisterResult, error) {
	event, err := l.svcCtx.EventModel.FindByID(l.ctx, eventID)
	if err != nil {
		if !errors.Is(err, model.ErrEventNotFound) {
			metrics.IncRegistration("error")
		}
		return nil, err
	}

	unlock := l.svcCtx.EventLocks.Lock(eventID)
	defer unlock()

	var result *RegisterResult
	err = l.svcCtx.LedgerBreaker.DoWithAcceptable(
		func() error {
			return l.svcCtx.DB.WithContext(l.ctx).Transaction(func(tx *gorm.DB) error {
				exists, err := l.svcCtx.RegistrationModel.ExistsTx(l.ctx, tx, eventID, userID)
				if err != nil {
					return err
				}
				if exists {
					count, err := l.svcCtx.AttendanceModel.CountUnionTx(l.ctx, tx, eventID)
					if err != nil {
						return err
					}
					result = &RegisterResult{Outcome: AlreadyRegistered, Count: count, Limit: event.AttendeeLimit}
					return nil
				}

				// 事务内复核名额
				adm, err := admissionTx(l.ctx, tx, event, userID, l.svcCtx.AttendanceModel)
				if err != nil {
					return err
				}
				if !adm.Admit {
					result = &RegisterResult{Outcome: RegisterDenied, Count: adm.Count, Limit: adm.Limit}
					return nil
				}

				reg := &model.Registration{
					EventID:   eventID,
					UserID:    userID,
					Username:  username,
					FirstName: firstName,
				}
				if err := l.svcCtx.RegistrationModel.CreateTx(l.ctx, tx, reg); err != nil {
					if model.IsDuplicateKeyErr(err) {
						result = &RegisterResult{Outcome: AlreadyRegistered, Count: adm.Count, Limit: adm.Limit}
						return nil
					}
					return err
				}

				count, err := l.svcCtx.AttendanceModel.CountUnionTx(l.ctx, tx, eventID)
				if err != nil {
					return err
				}
				result = &RegisterResult{Outcome: Registered, Count: count, Limit: event.AttendeeLimit}
				return nil
			})
		},
		func(err error) bool { return err == nil },
	)
	if err != nil {
		metrics.IncRegistration("error")
		l.Errorf("报名写入失败: eventId=%d, userId=%d, err=%v", eventID, userID, err)
		return nil, errors.Wrap(err, "报名写入失败")
	}

	switch result.Outcome {
	case Registered:
		metrics.IncRegistration("ok")
	case AlreadyRegistered:
		metrics.IncRegistration("already")
	case RegisterDenied:
		metrics.IncRegistration("at_capacity")
	}
	return result, nil
}

// IsRegistered 查询是否已报名
func (l *RegisterLogic) IsRegistered(eventID uint64, userID int64) (bool, error) {
	return l.svcCtx.RegistrationModel.Exists(l.ctx, eventID, userID)
}
