// Package urls 维护命名路由表，服务端路由注册和客户端链接生成共用同一份定义。
package urls

import (
	"fmt"
	"strconv"
	"strings"
)

// 命名路由
const (
	MessageDetail = "msg.message"
	MessageCreate = "msg.create"
	Notifications = "msg.notifications"
)

// route 使用 {id} 作为唯一占位符
var routes = map[string]string{
	MessageDetail: "/msg/{id}",
	MessageCreate: "/msg/create/{id}",
	Notifications: "/notifications",
}

// Pattern 返回 gin 风格的路由模式，例如 /msg/:id
func Pattern(name string) string {
	return strings.ReplaceAll(mustRoute(name), "{id}", ":id")
}

// Path 生成命名路由的路径
func Path(name string, id uint) string {
	return strings.ReplaceAll(mustRoute(name), "{id}", strconv.FormatUint(uint64(id), 10))
}

func mustRoute(name string) string {
	route, ok := routes[name]
	if !ok {
		panic(fmt.Sprintf("urls: unknown route %q", name))
	}
	return route
}

// Generator 生成带站点前缀的链接，BaseURL 为空时生成相对路径
type Generator struct {
	BaseURL string
}

// NewGenerator 创建链接生成器
func NewGenerator(baseURL string) *Generator {
	return &Generator{BaseURL: strings.TrimRight(baseURL, "/")}
}

// MessageURL 返回消息详情页链接
func (g *Generator) MessageURL(id uint) string {
	return g.BaseURL + Path(MessageDetail, id)
}

// NotificationsURL 返回通知接口地址
func (g *Generator) NotificationsURL() string {
	return g.BaseURL + Path(Notifications, 0)
}
