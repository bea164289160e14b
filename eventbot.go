package main

import (
	"context"
	"flag"
	"fmt"

	"event-bot/internal/bot"
	"event-bot/internal/config"
	"event-bot/internal/svc"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/proc"
)

var configFile = flag.String("f", "etc/eventbot.yaml", "配置文件路径")

func main() {
	flag.Parse()

	// 1. 加载配置
	var c config.Config
	conf.MustLoad(*configFile, &c)
	c.MustSetUp()

	if c.Telegram.Token == "" {
		panic("Telegram.Token 未配置")
	}
	if len(c.Admin.IDs) == 0 {
		panic("Admin.IDs 未配置")
	}

	// 2. 初始化 ServiceContext
	ctx := svc.NewServiceContext(c)

	// 3. 启动事件循环，收到退出信号后优雅停止
	runCtx, cancel := context.WithCancel(context.Background())
	proc.AddShutdownListener(cancel)

	router := bot.NewRouter(ctx, ctx.Source)

	fmt.Println("Starting event bot...")
	logx.Info("活动机器人启动")
	router.Run(runCtx)
}
