package event

import (
	"context"

	"event-bot/internal/model"
	"event-bot/internal/svc"

	"github.com/zeromicro/go-zero/core/logx"
)

type ListEventLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewListEventLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListEventLogic {
	return &ListEventLogic{
		ctx:    ctx,
		svcCtx: svcCtx,
		Logger: logx.WithContext(ctx),
	}
}

// ListActive 上架中的活动，按活动日期升序（最近的排前面，顺序稳定）
func (l *ListEventLogic) ListActive() ([]model.Event, error) {
	return l.svcCtx.EventModel.ListActive(l.ctx)
}

// EventWithCount 管理端列表项：活动 + 出席并集人数
type EventWithCount struct {
	model.Event
	AttendeeCount int64
}

// ListActiveWithCounts 管理端列表：附带人数统计
func (l *ListEventLogic) ListActiveWithCounts() ([]EventWithCount, error) {
	events, err := l.svcCtx.EventModel.ListActive(l.ctx)
	if err != nil {
		return nil, err
	}
	out := make([]EventWithCount, 0, len(events))
	for _, e := range events {
		count, err := l.svcCtx.AttendanceModel.CountUnion(l.ctx, e.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, EventWithCount{Event: e, AttendeeCount: count})
	}
	return out, nil
}
