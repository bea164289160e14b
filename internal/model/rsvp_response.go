package model

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ==================== 回复值 ====================
//
// 只有两个合法值，没有"待定"

const (
	ResponseAttending = "attending" // 去
	ResponseDeclining = "declining" // 不去
)

// IsValidResponse 判断回复值是否合法
func IsValidResponse(resp string) bool {
	return resp == ResponseAttending || resp == ResponseDeclining
}

// ==================== RsvpResponse RSVP回复模型 ====================
//
// 显式回复通道：每人每活动至多一行，回复可反复修改，从不删除。

type RsvpResponse struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	EventID uint64 `gorm:"uniqueIndex:uk_rsvp_event_user,priority:1;index:idx_rsvp_event;not null;comment:活动ID" json:"event_id"`
	UserID  int64  `gorm:"uniqueIndex:uk_rsvp_event_user,priority:2;index:idx_rsvp_user;not null;comment:用户ID" json:"user_id"`

	Username  string `gorm:"type:varchar(64);default:'';comment:用户名(可空)" json:"username"`
	FirstName string `gorm:"type:varchar(64);default:'';comment:昵称" json:"first_name"`

	Response    string `gorm:"type:varchar(16);not null;comment:attending/declining" json:"response"`
	RespondedAt int64  `gorm:"not null;comment:最后回复时间" json:"responded_at"`

	CreatedAt int64 `gorm:"autoCreateTime" json:"created_at"`
}

func (RsvpResponse) TableName() string {
	return "rsvp_responses"
}

// ==================== RsvpResponseModel 数据访问层 ====================

type RsvpResponseModel struct {
	db *gorm.DB
}

func NewRsvpResponseModel(db *gorm.DB) *RsvpResponseModel {
	return &RsvpResponseModel{db: db}
}

// FindByEventUser 查询某人对某活动的回复
func (m *RsvpResponseModel) FindByEventUser(ctx context.Context, eventID uint64, userID int64) (*RsvpResponse, error) {
	return m.findByEventUser(ctx, m.db, eventID, userID)
}

// FindByEventUserTx 事务内查询（状态机读-改-写用）
func (m *RsvpResponseModel) FindByEventUserTx(ctx context.Context, tx *gorm.DB, eventID uint64, userID int64) (*RsvpResponse, error) {
	return m.findByEventUser(ctx, tx, eventID, userID)
}

func (m *RsvpResponseModel) findByEventUser(ctx context.Context, db *gorm.DB, eventID uint64, userID int64) (*RsvpResponse, error) {
	var resp RsvpResponse
	err := db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&resp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &resp, nil
}

// CreateTx 事务内写入首次回复
func (m *RsvpResponseModel) CreateTx(ctx context.Context, tx *gorm.DB, resp *RsvpResponse) error {
	if resp.RespondedAt == 0 {
		resp.RespondedAt = time.Now().Unix()
	}
	return tx.WithContext(ctx).Create(resp).Error
}

// UpdateResponseTx 事务内改写既有回复（整行字段一次写入）
func (m *RsvpResponseModel) UpdateResponseTx(ctx context.Context, tx *gorm.DB, eventID uint64, userID int64, username, firstName, response string) error {
	return tx.WithContext(ctx).
		Model(&RsvpResponse{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Updates(map[string]interface{}{
			"username":     username,
			"first_name":   firstName,
			"response":     response,
			"responded_at": time.Now().Unix(),
		}).Error
}

// ListAttending 获取回复"去"的用户，按回复时间升序
//
// 注意：只含 RSVP 通道，纯报名用户不在此列表（他们没有显式确认）。
// 统计/通知用的并集口径见 attendance.go。
func (m *RsvpResponseModel) ListAttending(ctx context.Context, eventID uint64) ([]RsvpResponse, error) {
	var resps []RsvpResponse
	err := m.db.WithContext(ctx).
		Where("event_id = ? AND response = ?", eventID, ResponseAttending).
		Order("responded_at ASC, id ASC").
		Find(&resps).Error
	return resps, err
}

// CountByResponse 按回复值统计
func (m *RsvpResponseModel) CountByResponse(ctx context.Context, eventID uint64) (map[string]int64, error) {
	type row struct {
		Response string
		Cnt      int64
	}
	var rows []row
	err := m.db.WithContext(ctx).
		Model(&RsvpResponse{}).
		Select("response, COUNT(*) as cnt").
		Where("event_id = ?", eventID).
		Group("response").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := map[string]int64{
		ResponseAttending: 0,
		ResponseDeclining: 0,
	}
	for _, r := range rows {
		stats[r.Response] = r.Cnt
	}
	return stats, nil
}

// ListRecent 获取最近的回复（管理端展示用）
func (m *RsvpResponseModel) ListRecent(ctx context.Context, eventID uint64, limit int) ([]RsvpResponse, error) {
	if limit <= 0 {
		limit = 5
	}
	var resps []RsvpResponse
	err := m.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("responded_at DESC, id DESC").
		Limit(limit).
		Find(&resps).Error
	return resps, err
}
