package hdf5

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/robert-malhotra/go-asdf/internal/binary"
	"github.com/robert-malhotra/go-asdf/internal/message"
	"github.com/robert-malhotra/go-asdf/internal/object"
)

// minGroupSpace is the smallest message space given to a group header.
// Headers are allocated with room to grow so that adding a link rarely
// moves them.
const minGroupSpace = 512

func newGroupMessages(sizes binary.Sizes) []message.Raw {
	return []message.Raw{
		{Type: message.TypeLinkInfo, Data: (&message.LinkInfo{}).Encode(sizes)},
		{Type: message.TypeGroupInfo, Data: message.GroupInfo{}.Encode(sizes)},
	}
}

func validName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidPath, name)
	case strings.Contains(name, "/"):
		return fmt.Errorf("%w: %q contains a slash", ErrInvalidPath, name)
	}
	return nil
}

// writable reports an error unless g can be modified: the file must be
// open for writing and g still linked where it was opened.
func (g *Group) writable() error {
	if err := g.file.checkWritable(); err != nil {
		return err
	}
	if g.file.groups[g.path] != g {
		return fmt.Errorf("group %s: %w", g.path, ErrNotFound)
	}
	if g.dense {
		return fmt.Errorf("group %s: %w: dense link storage", g.path, ErrUnsupported)
	}
	return nil
}

// CreateGroup creates a new empty group named name in g.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if err := g.canLink(name); err != nil {
		return nil, err
	}
	sub := &Group{file: g.file, path: path.Join(g.path, name), msgs: newGroupMessages(g.file.sb.Sizes)}
	if err := sub.store(); err != nil {
		return nil, fmt.Errorf("group %s: %w", sub.path, err)
	}
	if err := g.addLink(&message.Link{Name: name, Addr: sub.addr}); err != nil {
		return nil, err
	}
	g.file.groups[sub.path] = sub
	return sub, nil
}

// RequireGroup opens the group at p, creating it and any missing parents.
func (g *Group) RequireGroup(p string) (*Group, error) {
	cur := g
	if strings.HasPrefix(p, "/") {
		cur = g.file.Root()
	}
	for _, name := range strings.Split(p, "/") {
		if name == "" {
			continue
		}
		next, err := cur.OpenGroup(name)
		switch {
		case err == nil:
		case errors.Is(err, ErrNotFound):
			if next, err = cur.CreateGroup(name); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// Unlink removes the link name from g. The object's space is not reclaimed
// until the file is rewritten.
func (g *Group) Unlink(name string) error {
	if err := g.writable(); err != nil {
		return err
	}
	_, i, err := g.link(name)
	if err != nil {
		return fmt.Errorf("%s: %w", path.Join(g.path, name), err)
	}
	g.links = slices.Delete(g.links, i, i+1)
	g.file.forget(path.Join(g.path, name))
	return g.store()
}

// SetAttr creates or replaces the attribute name on g.
func (g *Group) SetAttr(name string, value any) error {
	if err := g.writable(); err != nil {
		return err
	}
	m, err := encodeAttribute(name, value, g.file.sb.Sizes)
	if err != nil {
		return err
	}

	replaced := false
	for i := range g.msgs {
		if g.msgs[i].Type == message.TypeAttribute && attrName(g.msgs[i], g.file.sb.Sizes) == name {
			g.msgs[i] = m
			replaced = true
			break
		}
	}
	if !replaced {
		g.msgs = append(g.msgs, m)
	}

	attrs := make([]*Attribute, 0, len(g.attrs)+1)
	for _, msg := range g.msgs {
		if msg.Type == message.TypeAttribute {
			attrs = append(attrs, decodeAttribute(g.file, msg))
		}
	}
	g.attrs = attrs
	return g.store()
}

func (g *Group) canLink(name string) error {
	if err := g.writable(); err != nil {
		return err
	}
	if err := validName(name); err != nil {
		return err
	}
	if _, _, err := g.link(name); err == nil {
		return fmt.Errorf("%s: %w", path.Join(g.path, name), ErrExists)
	}
	return nil
}

func (g *Group) addLink(l *message.Link) error {
	g.links = append(g.links, l)
	if err := g.store(); err != nil {
		g.links = g.links[:len(g.links)-1]
		return err
	}
	return nil
}

// store writes the group header. It is rewritten in place while the
// messages fit; otherwise a larger header is allocated and the parent's
// link is moved to it.
func (g *Group) store() error {
	f := g.file
	sizes := f.sb.Sizes

	if !slices.ContainsFunc(g.msgs, func(m message.Raw) bool { return m.Type == message.TypeLinkInfo }) {
		g.msgs = append(newGroupMessages(sizes), g.msgs...)
	}

	enc := make([]message.Encoder, 0, len(g.msgs)+len(g.links))
	for _, m := range g.msgs {
		enc = append(enc, m)
	}
	for _, l := range g.links {
		enc = append(enc, l)
	}
	body, err := object.EncodeMessages(enc, sizes)
	if err != nil {
		return err
	}

	if g.addr != 0 && uint64(len(body)) <= g.capacity {
		return f.writeHeader(g.addr, body, g.capacity)
	}

	space := max(2*uint64(len(body)), minGroupSpace)
	addr := f.alloc.Alloc(object.Size(space))
	if err := f.writeHeader(addr, body, space); err != nil {
		return err
	}
	old, oldCap := g.addr, g.capacity
	g.addr, g.capacity = addr, space
	if old == 0 {
		return nil
	}
	if oldCap > 0 {
		f.alloc.Release(old, object.Size(oldCap))
	}
	return g.relink(old)
}

// relink points the link that referenced the header at old to the
// group's current address.
func (g *Group) relink(old uint64) error {
	f := g.file
	if g.path == "/" {
		f.sb.Root = g.addr
		return f.Flush()
	}

	parent, ok := f.groups[path.Dir(g.path)]
	if !ok {
		return fmt.Errorf("group %s: parent not open", g.path)
	}
	l, _, err := parent.link(path.Base(g.path))
	if err != nil {
		return fmt.Errorf("group %s: %w", g.path, err)
	}
	if l.Kind != message.LinkHard || l.Addr != old {
		return fmt.Errorf("group %s: parent link does not reference address %d", g.path, old)
	}
	l.Addr = g.addr
	return parent.store()
}
