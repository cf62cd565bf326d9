package main

import (
	"github.com/KOMKZ/go-yogan-feed/api"
	"github.com/KOMKZ/go-yogan-feed/application"
	"github.com/KOMKZ/go-yogan-feed/flagx"
	"github.com/spf13/cobra"
)

type serveFlags struct {
	Host        string `flag:"host" config:"server.host" usage:"监听地址"`
	Port        int    `flag:"port,p" config:"server.port" default:"8080" usage:"监听端口"`
	Mode        string `flag:"mode" config:"server.mode" default:"release" usage:"gin 模式（debug/release/test）"`
	AutoMigrate bool   `flag:"auto-migrate" config:"app.auto_migrate" usage:"启动前同步表结构"`
	Scheduler   bool   `flag:"scheduler" config:"scheduler.enabled" default:"true" usage:"启用后台任务"`
}

// runApp 测试中替换为非阻塞版本
var runApp = func(app *application.Application) error {
	return app.Run()
}

func newServeCmd(g *globalFlags) *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, g, f)
			if err != nil {
				return err
			}
			app.Routes(api.Routes())
			return runApp(app)
		},
	}
	if err := flagx.BindFlags(cmd.Flags(), f); err != nil {
		panic(err)
	}
	return cmd
}
