package svc

import (
	"time"

	"event-bot/common/breakerx"
	"event-bot/common/lockx"
	"event-bot/internal/config"
	"event-bot/internal/model"
	"event-bot/internal/session"
	"event-bot/internal/transport"

	"github.com/zeromicro/go-zero/core/breaker"
	"github.com/zeromicro/go-zero/core/logx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ServiceContext struct {
	Config config.Config

	// 数据存储
	DB *gorm.DB // SQLite 连接

	// 账本写入保护
	LedgerBreaker breaker.Breaker
	EventLocks    *lockx.KeyedLock // 活动粒度互斥，名额检查与写入同临界区

	// Model 层
	EventModel        *model.EventModel
	RegistrationModel *model.RegistrationModel
	RsvpModel         *model.RsvpResponseModel
	AttendanceModel   *model.AttendanceModel

	// 边界协作方
	Chat     transport.Client       // 聊天平台出站操作
	Source   transport.UpdateSource // 入站事件来源（长轮询）
	Sessions *session.Store         // 管理端对话会话
}

func NewServiceContext(c config.Config) *ServiceContext {
	// 1. 初始化数据库连接
	db := initDB(c.SQLite)

	// 2. 初始化聊天平台客户端
	chat := transport.NewTelegramClientWithBase(c.Telegram.APIBase, c.Telegram.Token)

	// 3. 返回 ServiceContext
	return &ServiceContext{
		Config: c,

		DB: db,

		LedgerBreaker: breakerx.NewSREBreaker(breakerx.SREConfig{Name: "eventbot-ledger"}),
		EventLocks:    lockx.NewKeyedLock(),

		EventModel:        model.NewEventModel(db),
		RegistrationModel: model.NewRegistrationModel(db),
		RsvpModel:         model.NewRsvpResponseModel(db),
		AttendanceModel:   model.NewAttendanceModel(db),

		Chat:     chat,
		Source:   chat,
		Sessions: session.NewStore(time.Duration(c.Session.TTL) * time.Second),
	}
}

// initDB 初始化数据库连接
//
// 建表走 AutoMigrate：只增列不破坏已有数据（名额、封面等字段
// 都是后来加的，老库自动补列）。
func initDB(conf config.SQLiteConfig) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(conf.Path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true, // 唯一索引冲突统一转 gorm.ErrDuplicatedKey
	})
	if err != nil {
		logx.Errorf("连接数据库失败: %v", err)
		panic(err)
	}

	// SQLite 单写者，连接池收到 1，避免写竞争报 SQLITE_BUSY
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.Event{},
		&model.Registration{},
		&model.RsvpResponse{},
	); err != nil {
		logx.Errorf("建表失败: %v", err)
		panic(err)
	}

	logx.Info("数据库连接成功")
	return db
}
