package main

import (
	"fmt"

	"github.com/KOMKZ/go-yogan-feed/application"
	"github.com/KOMKZ/go-yogan-feed/config"
	"github.com/KOMKZ/go-yogan-feed/flagx"
	"github.com/spf13/cobra"
)

// 构建时通过 -ldflags 注入
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags 所有子命令共享的参数
type globalFlags struct {
	ConfigDir string `flag:"config-dir,c" default:"configs" usage:"配置目录（config.yaml 与 <env>.yaml）"`
	EnvPrefix string `flag:"env-prefix" default:"FEED" usage:"环境变量前缀"`
	LogLevel  string `flag:"log-level" config:"logger.level" usage:"日志级别（debug/info/warn/error）"`
	NoRemote  bool   `flag:"local-only" usage:"禁用 Redis 远端缓存"`
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "feedsvc",
		Short:         "Social feed read service",
		Long:          "feedsvc 提供带两级缓存的内容流读取接口，以及帖子写入与缓存运维命令。",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	if err := flagx.BindFlags(root.PersistentFlags(), g); err != nil {
		panic(err)
	}

	root.AddCommand(
		newServeCmd(g),
		newMigrateCmd(g),
		newCacheCmd(g),
		newVersionCmd(),
	)
	return root
}

// loadConfig 组装配置：文件 < 环境变量 < 命令行
//
// locals 为子命令自己的 flag 结构体，只有显式设置过的参数参与覆盖。
func loadConfig(cmd *cobra.Command, g *globalFlags, locals ...any) (*application.AppConfig, error) {
	fs := cmd.Flags()
	if err := flagx.ParseFlags(fs, g); err != nil {
		return nil, err
	}

	overrides, err := flagx.Overrides(fs, g)
	if err != nil {
		return nil, err
	}
	for _, local := range locals {
		more, err := flagx.Overrides(fs, local)
		if err != nil {
			return nil, err
		}
		for k, v := range more {
			overrides[k] = v
		}
	}
	if g.NoRemote {
		overrides["cache.remote_enabled"] = false
	}

	loader, err := config.Build(config.Options{
		ConfigDir: g.ConfigDir,
		EnvPrefix: g.EnvPrefix,
		Overrides: overrides,
	})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg, err := application.LoadAppConfig(loader)
	if err != nil {
		return nil, err
	}
	if cfg.App.Version == "" {
		cfg.App.Version = version
		cfg.ApplyDefaults()
	}
	return cfg, nil
}

// newApp 加载配置并创建应用
func newApp(cmd *cobra.Command, g *globalFlags, locals ...any) (*application.Application, error) {
	cfg, err := loadConfig(cmd, g, locals...)
	if err != nil {
		return nil, err
	}
	return application.New(cfg)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "feedsvc %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
