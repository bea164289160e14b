package model

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ==================== Registration 报名记录模型 ====================
//
// 无条件报名通道：点一下"报名"即占一个名额，没有回复值。
// 与 RSVP 回复通道并存，统计口径见 attendance.go。

type Registration struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	EventID uint64 `gorm:"uniqueIndex:uk_reg_event_user,priority:1;index:idx_reg_event;not null;comment:活动ID" json:"event_id"`
	UserID  int64  `gorm:"uniqueIndex:uk_reg_event_user,priority:2;index:idx_reg_user;not null;comment:用户ID" json:"user_id"`

	// 用户展示信息（冗余存储，避免回查平台）
	Username  string `gorm:"type:varchar(64);default:'';comment:用户名(可空)" json:"username"`
	FirstName string `gorm:"type:varchar(64);default:'';comment:昵称" json:"first_name"`

	CreatedAt int64 `gorm:"autoCreateTime" json:"created_at"`
}

func (Registration) TableName() string {
	return "registrations"
}

// ==================== RegistrationModel 数据访问层 ====================

type RegistrationModel struct {
	db *gorm.DB
}

func NewRegistrationModel(db *gorm.DB) *RegistrationModel {
	return &RegistrationModel{db: db}
}

// CreateTx 事务内创建报名记录
//
// 唯一索引兜底重复报名，重复时返回 gorm.ErrDuplicatedKey
func (m *RegistrationModel) CreateTx(ctx context.Context, tx *gorm.DB, reg *Registration) error {
	return tx.WithContext(ctx).Create(reg).Error
}

// Exists 判断是否已报名
func (m *RegistrationModel) Exists(ctx context.Context, eventID uint64, userID int64) (bool, error) {
	var count int64
	err := m.db.WithContext(ctx).
		Model(&Registration{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error
	return count > 0, err
}

// ExistsTx 事务内判断是否已报名
func (m *RegistrationModel) ExistsTx(ctx context.Context, tx *gorm.DB, eventID uint64, userID int64) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&Registration{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error
	return count > 0, err
}

// CountByEventID 统计活动的报名记录数
func (m *RegistrationModel) CountByEventID(ctx context.Context, eventID uint64) (int64, error) {
	var count int64
	err := m.db.WithContext(ctx).
		Model(&Registration{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count, err
}

// IsDuplicateKeyErr 判断是否为唯一索引冲突
func IsDuplicateKeyErr(err error) bool {
	return err != nil && errors.Is(err, gorm.ErrDuplicatedKey)
}
