package model

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ==================== 错误定义 ====================

var (
	ErrEventNotFound = errors.New("活动不存在")
	ErrNoFields      = errors.New("没有需要更新的字段")
)

// ==================== Event 活动模型 ====================

type Event struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	// 基本信息
	Title       string `gorm:"type:varchar(100);not null;comment:活动标题" json:"title"`
	Description string `gorm:"type:text;comment:活动详情" json:"description"`

	// 日期只到天，统一存 YYYY-MM-DD 文本
	EventDate string `gorm:"type:varchar(10);not null;index;comment:活动日期" json:"event_date"`

	// 名额（0=不限）
	AttendeeLimit uint32 `gorm:"default:0;comment:参与人数上限(0=不限)" json:"attendee_limit"`

	// 封面图片（聊天平台侧的 file_id，本系统只保存引用）
	ImageFileID string `gorm:"type:varchar(200);default:'';comment:封面图片引用" json:"image_file_id"`

	// 状态：下架后不再出现在选择列表，但仍可按 ID 查询
	IsActive bool `gorm:"default:true;index" json:"is_active"`

	// 时间戳
	CreatedAt int64 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64 `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Event) TableName() string {
	return "events"
}

// Unlimited 判断是否不限名额
func (e *Event) Unlimited() bool {
	return e.AttendeeLimit == 0
}

// ==================== EventModel 数据访问层 ====================

type EventModel struct {
	db *gorm.DB
}

func NewEventModel(db *gorm.DB) *EventModel {
	return &EventModel{db: db}
}

// Create 创建活动
func (m *EventModel) Create(ctx context.Context, event *Event) error {
	return m.db.WithContext(ctx).Create(event).Error
}

// FindByID 根据ID查询
func (m *EventModel) FindByID(ctx context.Context, id uint64) (*Event, error) {
	var event Event
	err := m.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

// ListActive 获取上架中的活动，按活动日期升序（最近的在前）
func (m *EventModel) ListActive(ctx context.Context) ([]Event, error) {
	var events []Event
	err := m.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("event_date ASC, id ASC").
		Find(&events).Error
	return events, err
}

// UpdateFields 部分更新，只写入调用方给出的字段
//
// 约定：
//   - fields 为空时返回 ErrNoFields，调用方必须能区分"已更新"和"无变化"
//   - id 不存在时返回 ErrEventNotFound
func (m *EventModel) UpdateFields(ctx context.Context, id uint64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return ErrNoFields
	}
	result := m.db.WithContext(ctx).
		Model(&Event{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

// SetActive 上架/下架
//
// 现有流程从不下架活动，字段保留给运营补救用
func (m *EventModel) SetActive(ctx context.Context, id uint64, active bool) error {
	result := m.db.WithContext(ctx).
		Model(&Event{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}
