package termview

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"tradyfit/backend/internal/domain"
	"tradyfit/backend/internal/panel"
)

// RefreshedMsg 在一次刷新完成后发送给 Update
type RefreshedMsg struct {
	Resp *domain.MessageListResponse
	Err  error
}

// 可切换的分类，按键 1/2/3
var categories = []string{"unread", "inbox", "sent"}

// Model 是 msgpanel watch 的 Bubble Tea 模型。
type Model struct {
	ctx       context.Context
	refresher *panel.Refresher
	view      *View
	category  *Category
	showLinks bool
	width     int
}

// NewModel 创建模型，category 与 Watcher 共享。
func NewModel(ctx context.Context, refresher *panel.Refresher, view *View, category *Category) Model {
	return Model{
		ctx:       ctx,
		refresher: refresher,
		view:      view,
		category:  category,
	}
}

// WaitCmd 把一次异步刷新转换为 tea.Cmd
func WaitCmd(ctx context.Context, p *panel.Pending) tea.Cmd {
	return func() tea.Msg {
		resp, err := p.Wait(ctx)
		return RefreshedMsg{Resp: resp, Err: err}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	return WaitCmd(m.ctx, m.refresher.Refresh(m.ctx, m.category.Get()))
}

func (m Model) Init() tea.Cmd {
	return m.refreshCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case RefreshedMsg:
		// 视图已由刷新器更新，这里只触发重绘
		return m, nil

	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			return m, m.refreshCmd()
		case "l":
			m.showLinks = !m.showLinks
			return m, nil
		case "1", "2", "3":
			m.category.Set(categories[key[0]-'1'])
			return m, m.refreshCmd()
		}
	}
	return m, nil
}

func (m Model) View() string {
	var out string
	m.refresher.WithView(func() {
		out = m.view.Render(m.showLinks)
	})
	footer := "1: unread  2: inbox  3: sent  r: refresh  l: links  q: quit"
	if n := m.refresher.InFlight(); n > 0 {
		footer = "refreshing…  " + footer
	}
	return out + footerStyle.Render(footer)
}
