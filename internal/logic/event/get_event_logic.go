package event

import (
	"context"

	"event-bot/internal/model"
	"event-bot/internal/svc"

	"github.com/zeromicro/go-zero/core/logx"
)

type GetEventLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewGetEventLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetEventLogic {
	return &GetEventLogic{
		ctx:    ctx,
		svcCtx: svcCtx,
		Logger: logx.WithContext(ctx),
	}
}

// Get 按ID查询，下架活动也能查到
func (l *GetEventLogic) Get(eventID uint64) (*model.Event, error) {
	return l.svcCtx.EventModel.FindByID(l.ctx, eventID)
}
