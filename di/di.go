// Package di 基于 samber/do 的依赖注入：各组件的 Provider 与容器生命周期
//
//	injector := di.New()
//	do.Provide(injector, di.ProvideDatabaseManager(cfg.Database))
//	db := do.MustInvoke[*database.Manager](injector)
//
// Provider 内部通过 do.Invoke 声明依赖，samber/do 据此按逆序关闭。
package di

import "github.com/samber/do/v2"

// Injector 类型别名
type Injector = do.Injector

// RootScope 类型别名
type RootScope = do.RootScope

// New 创建新的根注入器
var New = do.New

// 实例名约定
const (
	DefaultDatabase = "main"
	DefaultRedis    = "main"
)
