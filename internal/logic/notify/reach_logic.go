package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"event-bot/common/errorx"
	"event-bot/internal/model"
	"event-bot/internal/svc"
	"event-bot/internal/transport"

	"github.com/pkg/errors"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/errgroup"
)

// ==================== 送达检测 ====================
//
// 推送前的只读体检：对每个通知目标做一次轻量触达检查（chat action），
// 不投递任何内容。拉黑/从未私聊的用户提前暴露出来，管理员不必等
// 正式推送失败后再跟进。判定口径与推送一致：ErrRecipientUnreachable
// 算永久不可达，其余失败算瞬时、无法下定论。

// ReachReport 送达检测结果
type ReachReport struct {
	Reachable   int     // 可送达
	Unknown     int     // 瞬时/未知失败，无法判定
	Unreachable []int64 // 从未私聊过机器人，正式推送必然失败
}

type ReachabilityLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewReachabilityLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ReachabilityLogic {
	return &ReachabilityLogic{
		ctx:    ctx,
		svcCtx: svcCtx,
		Logger: logx.WithContext(ctx),
	}
}

// Audit 检查活动的全部可通知用户是否可送达
func (l *ReachabilityLogic) Audit(eventID uint64) (*ReachReport, error) {
	if _, err := l.svcCtx.EventModel.FindByID(l.ctx, eventID); err != nil {
		if errors.Is(err, model.ErrEventNotFound) {
			return nil, errorx.New(errorx.CodeEventNotFound)
		}
		return nil, err
	}

	userIDs, err := l.svcCtx.AttendanceModel.NotifiableUserIDs(l.ctx, eventID)
	if err != nil {
		return nil, errors.Wrap(err, "查询检测目标失败")
	}

	concurrency := l.svcCtx.Config.Broadcast.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	perRecipient := time.Duration(l.svcCtx.Config.Broadcast.PerRecipientTimeout) * time.Second
	if perRecipient <= 0 {
		perRecipient = 10 * time.Second
	}

	report := &ReachReport{}
	var mu sync.Mutex
	g := &errgroup.Group{}
	g.SetLimit(concurrency)

	for _, userID := range userIDs {
		g.Go(func() error {
			pingCtx, cancel := context.WithTimeout(l.ctx, perRecipient)
			defer cancel()

			err := l.svcCtx.Chat.Ping(pingCtx, userID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Reachable++
			case errors.Is(err, transport.ErrRecipientUnreachable):
				report.Unreachable = append(report.Unreachable, userID)
			default:
				report.Unknown++
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Unreachable, func(i, j int) bool {
		return report.Unreachable[i] < report.Unreachable[j]
	})

	l.Infof("送达检测完成: eventId=%d, reachable=%d, unknown=%d, unreachable=%d",
		eventID, report.Reachable, report.Unknown, len(report.Unreachable))
	return report, nil
}
