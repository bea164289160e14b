package attendance

import (
	"context"
	"fmt"

	"event-bot/common/errorx"
	"event-bot/internal/metrics"
	"event-bot/internal/model"
	"event-bot/internal/svc"

	"github.com/pkg/errors"
	"github.com/zeromicro/go-zero/core/logx"
	"gorm.io/gorm"
)

// ==================== RSVP 状态机 ====================
//
// 每人每活动的状态：无回复 / 去 / 不去。
//   - 无回复 → 去|不去：记录回复（"去"需过名额闸门）
//   - 去 ↔ 不去：修改回复（改成"去"且本人未计入并集时过闸门）
//   - 重复提交同值：落库状态不变，提示现值但不说"已修改"
//   - 任何迁移都不删行、不回到无回复；状态机没有终态，活动过期后
//     仍可改（不做自动生命周期截止）

type Transition int

const (
	Recorded  Transition = iota + 1 // 首次记录
	Changed                         // 值发生变化
	Unchanged                       // 重复提交同值
	Denied                          // 名额不足，未写入
)

type TransitionResult struct {
	Transition Transition
	Previous   string // Denied/Recorded 时为空
	Current    string
	Message    string // 面向用户的迁移提示
	Count      int64  // 判定时的出席并集人数
	Limit      uint32
}

// responseLabel 回复值的展示文案
func responseLabel(resp string) string {
	switch resp {
	case model.ResponseAttending:
		return "去"
	case model.ResponseDeclining:
		return "不去"
	}
	return resp
}

// ==================== RsvpLogic ====================

type RsvpLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewRsvpLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RsvpLogic {
	return &RsvpLogic{
		ctx:    ctx,
		svcCtx: svcCtx,
		Logger: logx.WithContext(ctx),
	}
}

// SetResponse 写入/修改 RSVP 回复
//
// 整行一次写入（事务内），并发写同一行由活动锁串行化，后写覆盖先写。
func (l *RsvpLogic) SetResponse(eventID uint64, userID int64, username, firstName, response string) (*TransitionResult, error) {
	if !model.IsValidResponse(response) {
		return nil, errorx.New(errorx.CodeBadResponse)
	}

	event, err := l.svcCtx.EventModel.FindByID(l.ctx, eventID)
	if err != nil {
		return nil, err
	}

	unlock := l.svcCtx.EventLocks.Lock(eventID)
	defer unlock()

	var result *TransitionResult
	err = l.svcCtx.LedgerBreaker.DoWithAcceptable(
		func() error {
			return l.svcCtx.DB.WithContext(l.ctx).Transaction(func(tx *gorm.DB) error {
				prev, err := l.svcCtx.RsvpModel.FindByEventUserTx(l.ctx, tx, eventID, userID)
				if err != nil {
					return err
				}

				// 改成"去"才消耗名额；IsCounted 保证已占坑的人复确认永远放行
				if response == model.ResponseAttending {
					adm, err := admissionTx(l.ctx, tx, event, userID, l.svcCtx.AttendanceModel)
					if err != nil {
						return err
					}
					if !adm.Admit {
						result = &TransitionResult{
							Transition: Denied,
							Current:    response,
							Message:    fmt.Sprintf("😔 名额已满，无法报名（%d/%d）。", adm.Count, adm.Limit),
							Count:      adm.Count,
							Limit:      adm.Limit,
						}
						return nil
					}
				}

				switch {
				case prev == nil:
					resp := &model.RsvpResponse{
						EventID:   eventID,
						UserID:    userID,
						Username:  username,
						FirstName: firstName,
						Response:  response,
					}
					if err := l.svcCtx.RsvpModel.CreateTx(l.ctx, tx, resp); err != nil {
						return err
					}
					result = &TransitionResult{
						Transition: Recorded,
						Current:    response,
						Message:    fmt.Sprintf("✅ 您的回复：%s", responseLabel(response)),
					}

				case prev.Response != response:
					if err := l.svcCtx.RsvpModel.UpdateResponseTx(l.ctx, tx, eventID, userID, username, firstName, response); err != nil {
						return err
					}
					result = &TransitionResult{
						Transition: Changed,
						Previous:   prev.Response,
						Current:    response,
						Message: fmt.Sprintf("✅ 已修改回复：%s → %s",
							responseLabel(prev.Response), responseLabel(response)),
					}

				default:
					// 同值重复提交：落库不动，只确认现值
					result = &TransitionResult{
						Transition: Unchanged,
						Previous:   prev.Response,
						Current:    response,
						Message:    fmt.Sprintf("您的回复保持不变：%s", responseLabel(response)),
					}
				}

				count, err := l.svcCtx.AttendanceModel.CountUnionTx(l.ctx, tx, eventID)
				if err != nil {
					return err
				}
				result.Count = count
				result.Limit = event.AttendeeLimit
				return nil
			})
		},
		func(err error) bool { return err == nil },
	)
	if err != nil {
		metrics.IncRsvp("error")
		l.Errorf("RSVP 写入失败: eventId=%d, userId=%d, err=%v", eventID, userID, err)
		return nil, errors.Wrap(err, "RSVP 写入失败")
	}

	switch result.Transition {
	case Recorded:
		metrics.IncRsvp("recorded")
	case Changed:
		metrics.IncRsvp("changed")
	case Unchanged:
		metrics.IncRsvp("unchanged")
	case Denied:
		metrics.IncRsvp("denied")
	}
	return result, nil
}

// GetResponse 查询某人的当前回复，无回复返回空串
func (l *RsvpLogic) GetResponse(eventID uint64, userID int64) (string, error) {
	resp, err := l.svcCtx.RsvpModel.FindByEventUser(l.ctx, eventID, userID)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", nil
	}
	return resp.Response, nil
}
