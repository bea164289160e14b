package model

import (
	"context"

	"gorm.io/gorm"
)

// ==================== AttendanceModel 出席并集查询 ====================
//
// "谁会来"的唯一口径：报名通道的用户 ∪ RSVP 回复"去"的用户，
// 同一人出现在两个通道只算一次。名额校验和通知目标都用这个并集。
//
// 并集直接查库，不做缓存：名额判定必须反映当前已提交的全部写入。

const unionAttendingSQL = `
SELECT user_id FROM registrations WHERE event_id = ?
UNION
SELECT user_id FROM rsvp_responses WHERE event_id = ? AND response = ?`

type AttendanceModel struct {
	db *gorm.DB
}

func NewAttendanceModel(db *gorm.DB) *AttendanceModel {
	return &AttendanceModel{db: db}
}

// CountUnion 出席并集人数
func (m *AttendanceModel) CountUnion(ctx context.Context, eventID uint64) (int64, error) {
	return m.countUnion(ctx, m.db, eventID)
}

// CountUnionTx 事务内复核出席并集人数（名额闸门的二次校验用）
func (m *AttendanceModel) CountUnionTx(ctx context.Context, tx *gorm.DB, eventID uint64) (int64, error) {
	return m.countUnion(ctx, tx, eventID)
}

func (m *AttendanceModel) countUnion(ctx context.Context, db *gorm.DB, eventID uint64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM ("+unionAttendingSQL+") u", eventID, eventID, ResponseAttending).
		Scan(&count).Error
	return count, err
}

// IsCounted 用户是否已计入并集（已报名或已回复"去"）
//
// 已计入的人改回复/重复确认永远放行，名额校验不拦自己人
func (m *AttendanceModel) IsCounted(ctx context.Context, eventID uint64, userID int64) (bool, error) {
	return m.isCounted(ctx, m.db, eventID, userID)
}

// IsCountedTx 事务内判断是否已计入并集
func (m *AttendanceModel) IsCountedTx(ctx context.Context, tx *gorm.DB, eventID uint64, userID int64) (bool, error) {
	return m.isCounted(ctx, tx, eventID, userID)
}

func (m *AttendanceModel) isCounted(ctx context.Context, db *gorm.DB, eventID uint64, userID int64) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Raw(`SELECT COUNT(*) FROM (
SELECT user_id FROM registrations WHERE event_id = ? AND user_id = ?
UNION
SELECT user_id FROM rsvp_responses WHERE event_id = ? AND user_id = ? AND response = ?) u`,
			eventID, userID, eventID, userID, ResponseAttending).
		Scan(&count).Error
	return count > 0, err
}

// NotifiableUserIDs 通知目标：出席并集去重后的用户ID列表
func (m *AttendanceModel) NotifiableUserIDs(ctx context.Context, eventID uint64) ([]int64, error) {
	var ids []int64
	err := m.db.WithContext(ctx).
		Raw(unionAttendingSQL, eventID, eventID, ResponseAttending).
		Scan(&ids).Error
	return ids, err
}
