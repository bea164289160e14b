package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"event-bot/common/errorx"
	"event-bot/internal/metrics"
	"event-bot/internal/model"
	"event-bot/internal/svc"
	"event-bot/internal/transport"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/errgroup"
)

// ==================== 投递报告 ====================

type DeliveryReport struct {
	BatchID string // 批次ID，日志关联用

	Sent   int
	Failed int

	// Unreachable 从未私聊过机器人的收件人，永久性失败，
	// 管理员可据此线下转达（也计入 Failed）
	Unreachable []int64
}

// ==================== BroadcastLogic 通知推送 ====================
//
// 一人一次尽力投递：不重试、不排队，单个收件人失败或挂起绝不影响
// 其余收件人。并发度有上限（轻度并发，尊重平台限速），单收件人有
// 独立超时。

type BroadcastLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewBroadcastLogic(ctx context.Context, svcCtx *svc.ServiceContext) *BroadcastLogic {
	return &BroadcastLogic{
		ctx:    ctx,
		svcCtx: svcCtx,
		Logger: logx.WithContext(ctx),
	}
}

// Broadcast 向活动的全部可通知用户（出席并集，去重）推送一条消息
func (l *BroadcastLogic) Broadcast(eventID uint64, body string) (*DeliveryReport, error) {
	if _, err := l.svcCtx.EventModel.FindByID(l.ctx, eventID); err != nil {
		if errors.Is(err, model.ErrEventNotFound) {
			return nil, errorx.New(errorx.CodeEventNotFound)
		}
		return nil, err
	}

	userIDs, err := l.svcCtx.AttendanceModel.NotifiableUserIDs(l.ctx, eventID)
	if err != nil {
		return nil, errors.Wrap(err, "查询通知目标失败")
	}

	report := &DeliveryReport{BatchID: uuid.NewString()}
	metrics.IncBroadcastBatch()
	l.Infof("开始推送: batchId=%s, eventId=%d, targets=%d", report.BatchID, eventID, len(userIDs))

	concurrency := l.svcCtx.Config.Broadcast.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	perRecipient := time.Duration(l.svcCtx.Config.Broadcast.PerRecipientTimeout) * time.Second
	if perRecipient <= 0 {
		perRecipient = 10 * time.Second
	}

	var mu sync.Mutex
	g := &errgroup.Group{}
	g.SetLimit(concurrency)

	for _, userID := range userIDs {
		g.Go(func() error {
			// 单收件人独立超时：某个投递挂起不能拖住整批
			sendCtx, cancel := context.WithTimeout(l.ctx, perRecipient)
			defer cancel()

			_, err := l.svcCtx.Chat.SendText(sendCtx, userID, body, nil)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Sent++
				metrics.IncDelivery("sent")
			case errors.Is(err, transport.ErrRecipientUnreachable):
				report.Failed++
				report.Unreachable = append(report.Unreachable, userID)
				metrics.IncDelivery("unreachable")
				l.Infof("收件人不可达: batchId=%s, userId=%d", report.BatchID, userID)
			default:
				report.Failed++
				metrics.IncDelivery("failed")
				l.Errorf("投递失败: batchId=%s, userId=%d, err=%v", report.BatchID, userID, err)
			}
			// 永不向上抛错，失败已计入报告
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Unreachable, func(i, j int) bool {
		return report.Unreachable[i] < report.Unreachable[j]
	})

	l.Infof("推送完成: batchId=%s, sent=%d, failed=%d, unreachable=%d",
		report.BatchID, report.Sent, report.Failed, len(report.Unreachable))
	return report, nil
}
