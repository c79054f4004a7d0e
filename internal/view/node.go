package view

import (
	"html"
	"sort"
	"strings"
)

// Node is one element of a rendered output tree. A node with an empty Tag
// is a text node.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

func el(tag string, attrs map[string]string, children ...*Node) *Node {
	return &Node{Tag: tag, Attrs: attrs, Children: children}
}

func text(s string) *Node {
	return &Node{Text: s}
}

func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	return n.Attrs[name]
}

// Find returns the first descendant (depth first) with the given tag.
func (n *Node) Find(tag string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
		if found := c.Find(tag); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant with the given tag in document order.
func (n *Node) FindAll(tag string) []*Node {
	var out []*Node
	if n == nil {
		return out
	}
	for _, c := range n.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
		out = append(out, c.FindAll(tag)...)
	}
	return out
}

// Slot returns the first descendant div carrying slot=name.
func (n *Node) Slot(name string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Tag == "div" && c.Attrs["slot"] == name {
			return c
		}
		if found := c.Slot(name); found != nil {
			return found
		}
	}
	return nil
}

// TextContent concatenates the text of the node and all descendants.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	n.writeText(&sb)
	return sb.String()
}

func (n *Node) writeText(sb *strings.Builder) {
	sb.WriteString(n.Text)
	for _, c := range n.Children {
		c.writeText(sb)
	}
}

func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Tag != o.Tag || n.Text != o.Text || len(n.Attrs) != len(o.Attrs) || len(n.Children) != len(o.Children) {
		return false
	}
	for k, v := range n.Attrs {
		if ov, ok := o.Attrs[k]; !ok || ov != v {
			return false
		}
	}
	for i := range n.Children {
		if !n.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// HTML serializes the tree. Attributes are written in sorted order so the
// same tree always produces the same bytes.
func (n *Node) HTML() string {
	var sb strings.Builder
	n.writeHTML(&sb)
	return sb.String()
}

func (n *Node) writeHTML(sb *strings.Builder) {
	if n == nil {
		return
	}
	if n.Tag == "" {
		sb.WriteString(html.EscapeString(n.Text))
		return
	}

	sb.WriteByte('<')
	sb.WriteString(n.Tag)
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteByte(' ')
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(n.Attrs[k]))
		sb.WriteByte('"')
	}
	sb.WriteByte('>')

	sb.WriteString(html.EscapeString(n.Text))
	for _, c := range n.Children {
		c.writeHTML(sb)
	}

	sb.WriteString("</")
	sb.WriteString(n.Tag)
	sb.WriteByte('>')
}
