// Package termview 在终端中渲染消息面板。
package termview

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"tradyfit/backend/internal/panel"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	rowStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

// View 是终端面板，实现 panel.Container、panel.SummaryFields 和 panel.ErrorIndicator。
type View struct {
	mu       sync.Mutex
	title    string
	unread   string
	sent     string
	received string
	rows     []panel.Row
	err      error
}

var (
	_ panel.Container      = (*View)(nil)
	_ panel.SummaryFields  = (*View)(nil)
	_ panel.ErrorIndicator = (*View)(nil)
)

// New 创建空面板
func New() *View {
	return &View{unread: "0", sent: "0", received: "0"}
}

func (v *View) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = v.rows[:0]
	v.err = nil
}

func (v *View) AppendRow(row panel.Row) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rows = append(v.rows, row)
}

func (v *View) SetTitle(text string)    { v.set(&v.title, text) }
func (v *View) SetUnread(text string)   { v.set(&v.unread, text) }
func (v *View) SetSent(text string)     { v.set(&v.sent, text) }
func (v *View) SetReceived(text string) { v.set(&v.received, text) }

func (v *View) set(field *string, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	*field = text
}

// ShowError 记录最近一次失败，下次成功刷新时清除
func (v *View) ShowError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.err = err
}

// Rows 返回当前行的副本
func (v *View) Rows() []panel.Row {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]panel.Row(nil), v.rows...)
}

// Render 渲染面板，showLinks 为 true 时在主题后显示链接。
func (v *View) Render(showLinks bool) string {
	v.mu.Lock()
	defer v.mu.Unlock()

	var b strings.Builder
	title := v.title
	if title == "" {
		title = "messages"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("  ")
	b.WriteString(countStyle.Render(fmt.Sprintf("unread %s · sent %s · received %s", v.unread, v.sent, v.received)))
	b.WriteString("\n\n")

	if len(v.rows) == 0 {
		b.WriteString(rowStyle.Render(countStyle.Render("no messages")))
		b.WriteString("\n")
	}
	for _, row := range v.rows {
		line := row.Text
		if showLinks {
			line += "  " + linkStyle.Render(row.Href)
		}
		b.WriteString(rowStyle.Render(line))
		b.WriteString("\n")
	}

	if v.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("refresh failed: " + v.err.Error()))
		b.WriteString("\n")
	}
	return b.String()
}
