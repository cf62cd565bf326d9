package application

import (
	"github.com/gin-gonic/gin"
)

// APIPrefix 业务路由前缀
const APIPrefix = "/api/v1"

// Router 路由模块，注册到 /api/v1 分组
// 通过 app.Injector() 取得所需服务
type Router interface {
	Register(api *gin.RouterGroup, app *Application)
}

// RouterFunc 函数式路由模块
type RouterFunc func(api *gin.RouterGroup, app *Application)

func (f RouterFunc) Register(api *gin.RouterGroup, app *Application) {
	f(api, app)
}

// Manager 路由模块集合，按添加顺序注册
type Manager struct {
	routers []Router
}

func NewManager() *Manager {
	return &Manager{}
}

// Add 追加路由模块
func (m *Manager) Add(routers ...Router) *Manager {
	m.routers = append(m.routers, routers...)
	return m
}

// Register 注册全部模块
func (m *Manager) Register(api *gin.RouterGroup, app *Application) {
	for _, r := range m.routers {
		r.Register(api, app)
	}
}
