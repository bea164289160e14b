// Package testutil 测试基础设施：真·内存 SQLite，不做 mock
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"event-bot/common/breakerx"
	"event-bot/common/lockx"
	"event-bot/internal/config"
	"event-bot/internal/model"
	"event-bot/internal/session"
	"event-bot/internal/svc"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 每个测试一个独立的内存库
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	// cache=shared + 单连接：事务共享同一个内存库且写入串行
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("打开测试库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&model.Event{},
		&model.Registration{},
		&model.RsvpResponse{},
	); err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	return db
}

// NewServiceContext 逻辑层测试用的 ServiceContext（不含聊天客户端）
func NewServiceContext(t *testing.T) *svc.ServiceContext {
	t.Helper()
	db := NewDB(t)
	return &svc.ServiceContext{
		Config: config.Config{
			Broadcast: config.BroadcastConfig{
				Concurrency:         4,
				PerRecipientTimeout: 2,
			},
		},
		DB:                db,
		LedgerBreaker:     breakerx.NewSREBreaker(breakerx.SREConfig{Name: "test-ledger"}),
		EventLocks:        lockx.NewKeyedLock(),
		EventModel:        model.NewEventModel(db),
		RegistrationModel: model.NewRegistrationModel(db),
		RsvpModel:         model.NewRsvpResponseModel(db),
		AttendanceModel:   model.NewAttendanceModel(db),
		Sessions:          session.NewStore(time.Minute),
	}
}

// MustCreateEvent 建一个测试活动，limit=0 表示不限名额
func MustCreateEvent(t *testing.T, ctx *svc.ServiceContext, title, date string, limit uint32) uint64 {
	t.Helper()
	event := &model.Event{
		Title:         title,
		EventDate:     date,
		AttendeeLimit: limit,
		IsActive:      true,
	}
	if err := ctx.EventModel.Create(context.Background(), event); err != nil {
		t.Fatalf("创建测试活动失败: %v", err)
	}
	return event.ID
}
