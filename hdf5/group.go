package hdf5

import (
	"fmt"
	"path"
	"strings"

	"github.com/robert-malhotra/go-asdf/internal/btree"
	"github.com/robert-malhotra/go-asdf/internal/heap"
	"github.com/robert-malhotra/go-asdf/internal/message"
	"github.com/robert-malhotra/go-asdf/internal/object"
)

// Group is a container of named links to groups and datasets.
type Group struct {
	file     *File
	path     string
	addr     uint64
	capacity uint64

	// msgs are the header messages other than links, in header order.
	msgs  []message.Raw
	links []*message.Link

	// dense is set when links live in a fractal heap.
	dense bool

	attrs []*Attribute
}

func newGroup(f *File, p string, h *object.Header) (*Group, error) {
	g := &Group{file: f, path: p, addr: h.Addr, capacity: h.Capacity}
	sizes := f.sb.Sizes

	for _, m := range h.Messages {
		switch m.Type {
		case message.TypeLink:
			l, err := message.DecodeLink(m.Data, sizes)
			if err != nil {
				return nil, fmt.Errorf("group %s: %w", p, err)
			}
			g.links = append(g.links, l)
			continue

		case message.TypeSymbolTable:
			if err := g.loadSymbolTable(m); err != nil {
				return nil, fmt.Errorf("group %s: %w", p, err)
			}
			// rewritten as link messages on the next store
			continue

		case message.TypeLinkInfo:
			li, err := message.DecodeLinkInfo(m.Data, sizes)
			if err != nil {
				return nil, fmt.Errorf("group %s: %w", p, err)
			}
			g.dense = li.Dense()

		case message.TypeAttribute:
			g.attrs = append(g.attrs, decodeAttribute(f, m))
		}
		g.msgs = append(g.msgs, m)
	}
	return g, nil
}

func (g *Group) loadSymbolTable(m message.Raw) error {
	r := g.file.r
	st, err := message.DecodeSymbolTable(m.Data, r.Sizes)
	if err != nil {
		return err
	}
	names, err := heap.ReadLocal(r, st.Heap)
	if err != nil {
		return err
	}
	entries, err := btree.GroupEntries(r, st.BTree, names)
	if err != nil {
		return err
	}
	for _, e := range entries {
		l := &message.Link{Name: e.Name, Addr: e.Addr}
		if e.Soft != "" {
			l.Kind, l.Target = message.LinkSoft, e.Soft
		}
		g.links = append(g.links, l)
	}
	return nil
}

// Path returns the absolute path of the group.
func (g *Group) Path() string { return g.path }

// Name returns the last path element.
func (g *Group) Name() string { return path.Base(g.path) }

// Members lists link names in storage order.
func (g *Group) Members() ([]string, error) {
	if g.dense {
		return nil, fmt.Errorf("group %s: %w: dense link storage", g.path, ErrUnsupported)
	}
	names := make([]string, len(g.links))
	for i, l := range g.links {
		names[i] = l.Name
	}
	return names, nil
}

func (g *Group) link(name string) (*message.Link, int, error) {
	if g.dense {
		return nil, -1, fmt.Errorf("%w: dense link storage", ErrUnsupported)
	}
	for i, l := range g.links {
		if l.Name == name {
			return l, i, nil
		}
	}
	return nil, -1, ErrNotFound
}

// Has reports whether p names an existing object.
func (g *Group) Has(p string) bool {
	_, err := g.object(p, 0)
	return err == nil
}

// OpenGroup opens the group at p, relative to g unless absolute.
func (g *Group) OpenGroup(p string) (*Group, error) {
	obj, err := g.object(p, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	sub, ok := obj.(*Group)
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrNotGroup)
	}
	return sub, nil
}

// OpenDataset opens the dataset at p, relative to g unless absolute.
func (g *Group) OpenDataset(p string) (*Dataset, error) {
	obj, err := g.object(p, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	d, ok := obj.(*Dataset)
	if !ok {
		return nil, fmt.Errorf("%s: %w", p, ErrNotDataset)
	}
	return d, nil
}

// object resolves p to a *Group or *Dataset, following soft links.
func (g *Group) object(p string, depth int) (any, error) {
	if depth > MaxLinkDepth {
		return nil, ErrLinkDepth
	}
	if p == "" {
		return nil, ErrInvalidPath
	}

	cur := g
	if strings.HasPrefix(p, "/") {
		cur = g.file.Root()
	}
	var parts []string
	for _, s := range strings.Split(p, "/") {
		if s != "" && s != "." {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return cur, nil
	}

	for i, name := range parts {
		if name == ".." {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
		l, _, err := cur.link(name)
		if err != nil {
			return nil, err
		}

		var obj any
		switch l.Kind {
		case message.LinkHard:
			obj, err = g.file.loadObject(path.Join(cur.path, name), l.Addr)
		case message.LinkSoft:
			target := l.Target
			if !strings.HasPrefix(target, "/") {
				target = path.Join(cur.path, target)
			}
			obj, err = cur.object(target, depth+1)
		default:
			err = fmt.Errorf("%w: external link to %s:%s", ErrUnsupported, l.File, l.Target)
		}
		if err != nil {
			return nil, err
		}

		if i == len(parts)-1 {
			return obj, nil
		}
		next, ok := obj.(*Group)
		if !ok {
			return nil, ErrNotGroup
		}
		cur = next
	}
	return cur, nil
}

// Attrs lists attribute names in header order.
func (g *Group) Attrs() []string {
	return attrNames(g.attrs)
}

// Attr returns the named attribute, or nil.
func (g *Group) Attr(name string) *Attribute {
	return findAttr(g.attrs, name)
}
