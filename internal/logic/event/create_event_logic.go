package event

import (
	"context"
	"strings"
	"time"

	"event-bot/common/errorx"
	"event-bot/internal/model"
	"event-bot/internal/svc"

	"github.com/pkg/errors"
	"github.com/zeromicro/go-zero/core/logx"
)

// dateLayout 活动日期统一格式
const dateLayout = "2006-01-02"

// CreateEventInput 创建活动入参
type CreateEventInput struct {
	Title         string
	Description   string
	EventDate     string
	AttendeeLimit uint32 // 0 = 不限
	ImageFileID   string
}

type CreateEventLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewCreateEventLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CreateEventLogic {
	return &CreateEventLogic{
		ctx:    ctx,
		svcCtx: svcCtx,
		Logger: logx.WithContext(ctx),
	}
}

// Create 创建活动，校验全部通过才落库
func (l *CreateEventLogic) Create(in *CreateEventInput) (uint64, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return 0, errorx.New(errorx.CodeEventTitleEmpty)
	}
	date, err := ParseDate(in.EventDate)
	if err != nil {
		return 0, err
	}

	event := &model.Event{
		Title:         title,
		Description:   strings.TrimSpace(in.Description),
		EventDate:     date,
		AttendeeLimit: in.AttendeeLimit,
		ImageFileID:   in.ImageFileID,
		IsActive:      true,
	}
	if err := l.svcCtx.EventModel.Create(l.ctx, event); err != nil {
		l.Errorf("创建活动失败: title=%s, err=%v", title, err)
		return 0, errors.Wrap(err, "创建活动失败")
	}

	l.Infof("活动已创建: id=%d, title=%s, date=%s", event.ID, title, date)
	return event.ID, nil
}

// ParseDate 校验并规范化日期文本（对话流程预校验也用它）
func ParseDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return "", errorx.New(errorx.CodeEventBadDate)
	}
	return t.Format(dateLayout), nil
}
