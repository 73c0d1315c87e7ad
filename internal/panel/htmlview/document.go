// Package htmlview 提供基于 HTML 节点树的消息面板视图。
package htmlview

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"tradyfit/backend/internal/panel"
)

// IDs 指定模板中各元素的 id。
type IDs struct {
	List     string
	Title    string
	Unread   string
	Sent     string
	Received string
	Error    string
}

// DefaultIDs 对应 DefaultTemplate
var DefaultIDs = IDs{
	List:     "msgs",
	Title:    "msg-title",
	Unread:   "num-unread",
	Sent:     "num-sent",
	Received: "num-received",
	Error:    "msg-error",
}

// DefaultTemplate 是默认的面板页面
const DefaultTemplate = `<div id="message-panel">
<h3 id="msg-title"></h3>
<p>Unread <span id="num-unread">0</span> Sent <span id="num-sent">0</span> Received <span id="num-received">0</span></p>
<p id="msg-error" class="error" hidden></p>
<ul id="msgs"></ul>
</div>`

// Document 是解析后的页面，实现 panel.Container、panel.SummaryFields 和 panel.ErrorIndicator。
//
// 除列表外的元素都是可选的，模板中缺失时对应的更新被忽略。
type Document struct {
	root     *html.Node
	list     *html.Node
	title    *html.Node
	unread   *html.Node
	sent     *html.Node
	received *html.Node
	errBox   *html.Node
}

var (
	_ panel.Container      = (*Document)(nil)
	_ panel.SummaryFields  = (*Document)(nil)
	_ panel.ErrorIndicator = (*Document)(nil)
)

// Parse 解析模板并按 id 定位面板元素。
func Parse(r io.Reader, ids IDs) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	doc := &Document{
		root:     root,
		list:     findByID(root, ids.List),
		title:    findByID(root, ids.Title),
		unread:   findByID(root, ids.Unread),
		sent:     findByID(root, ids.Sent),
		received: findByID(root, ids.Received),
		errBox:   findByID(root, ids.Error),
	}
	if doc.list == nil {
		return nil, errors.New("template has no message container")
	}
	return doc, nil
}

// New 使用默认模板创建页面
func New() *Document {
	doc, err := Parse(strings.NewReader(DefaultTemplate), DefaultIDs)
	if err != nil {
		panic(err)
	}
	return doc
}

// Clear 移除所有消息行，同时隐藏错误提示。
func (d *Document) Clear() {
	removeChildren(d.list)
	if d.errBox != nil {
		removeChildren(d.errBox)
		setAttr(d.errBox, "hidden", "")
	}
}

// AppendRow 追加 <li id="msg-N" class="msg"><a href="...">主题</a></li>
func (d *Document) AppendRow(row panel.Row) {
	link := &html.Node{
		Type:     html.ElementNode,
		Data:     "a",
		DataAtom: atom.A,
		Attr:     []html.Attribute{{Key: "href", Val: row.Href}},
	}
	link.AppendChild(&html.Node{Type: html.TextNode, Data: row.Text})

	item := &html.Node{
		Type:     html.ElementNode,
		Data:     "li",
		DataAtom: atom.Li,
		Attr: []html.Attribute{
			{Key: "id", Val: row.Key},
			{Key: "class", Val: row.Class},
		},
	}
	item.AppendChild(link)
	d.list.AppendChild(item)
}

func (d *Document) SetTitle(text string)    { setText(d.title, text) }
func (d *Document) SetUnread(text string)   { setText(d.unread, text) }
func (d *Document) SetSent(text string)     { setText(d.sent, text) }
func (d *Document) SetReceived(text string) { setText(d.received, text) }

// ShowError 显示错误提示，不改动消息列表。
func (d *Document) ShowError(err error) {
	if d.errBox == nil {
		return
	}
	setText(d.errBox, "Could not refresh messages: "+err.Error())
	removeAttr(d.errBox, "hidden")
}

// Rows 读取当前列表中的所有行
func (d *Document) Rows() []panel.Row {
	var rows []panel.Row
	for li := d.list.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		row := panel.Row{Key: attr(li, "id"), Class: attr(li, "class")}
		if a := firstElement(li, atom.A); a != nil {
			row.Href = attr(a, "href")
			row.Text = textContent(a)
		}
		rows = append(rows, row)
	}
	return rows
}

// Text 返回指定 id 元素的文本内容
func (d *Document) Text(id string) string {
	n := findByID(d.root, id)
	if n == nil {
		return ""
	}
	return textContent(n)
}

// ErrorVisible 判断错误提示是否可见
func (d *Document) ErrorVisible() bool {
	return d.errBox != nil && !hasAttr(d.errBox, "hidden")
}

// Render 输出整个页面
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// RenderPanel 只输出消息列表容器
func (d *Document) RenderPanel(w io.Writer) error {
	return html.Render(w, d.list)
}

func findByID(n *html.Node, id string) *html.Node {
	if id == "" || n == nil {
		return nil
	}
	if n.Type == html.ElementNode && attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func firstElement(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func setText(n *html.Node, text string) {
	if n == nil {
		return
	}
	removeChildren(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

func removeChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}
