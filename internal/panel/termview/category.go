package termview

import "sync"

// Category 是当前显示的分类，键盘和推送两个 goroutine 共享。
type Category struct {
	mu    sync.RWMutex
	value string
}

// NewCategory 创建分类
func NewCategory(value string) *Category {
	return &Category{value: value}
}

func (c *Category) Get() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

func (c *Category) Set(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
}
