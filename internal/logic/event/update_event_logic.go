package event

import (
	"context"
	"strings"

	"event-bot/common/errorx"
	"event-bot/internal/model"
	"event-bot/internal/svc"

	"github.com/pkg/errors"
	"github.com/zeromicro/go-zero/core/logx"
)

// UpdateEventInput 部分更新入参，nil 字段不改
type UpdateEventInput struct {
	Title         *string
	Description   *string
	EventDate     *string
	AttendeeLimit *uint32 // 0 = 改为不限
	ImageFileID   *string // 空串 = 移除封面
}

type UpdateEventLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewUpdateEventLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UpdateEventLogic {
	return &UpdateEventLogic{
		ctx:    ctx,
		svcCtx: svcCtx,
		Logger: logx.WithContext(ctx),
	}
}

// Update 只写给出的字段
//
// 一个字段都没给返回 CodeEventNoChanges（"没有需要更新的字段"），
// 调用方必须把它和更新成功区分开；活动不存在返回 CodeEventNotFound。
func (l *UpdateEventLogic) Update(eventID uint64, in *UpdateEventInput) error {
	fields := map[string]interface{}{}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return errorx.New(errorx.CodeEventTitleEmpty)
		}
		fields["title"] = title
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.EventDate != nil {
		date, err := ParseDate(*in.EventDate)
		if err != nil {
			return err
		}
		fields["event_date"] = date
	}
	if in.AttendeeLimit != nil {
		fields["attendee_limit"] = *in.AttendeeLimit
	}
	if in.ImageFileID != nil {
		fields["image_file_id"] = *in.ImageFileID
	}

	err := l.svcCtx.EventModel.UpdateFields(l.ctx, eventID, fields)
	switch {
	case err == nil:
		l.Infof("活动已更新: id=%d, fields=%d", eventID, len(fields))
		return nil
	case errors.Is(err, model.ErrNoFields):
		return errorx.New(errorx.CodeEventNoChanges)
	case errors.Is(err, model.ErrEventNotFound):
		return errorx.New(errorx.CodeEventNotFound)
	default:
		l.Errorf("更新活动失败: id=%d, err=%v", eventID, err)
		return errors.Wrap(err, "更新活动失败")
	}
}
