package hdf5

import (
	"errors"
	"path"
)

// SkipGroup is returned by a WalkFunc to skip the members of the group it
// was called with.
var SkipGroup = errors.New("skip this group")

// WalkFunc is called for every object Walk visits. obj is a *Group or
// *Dataset; when the object cannot be opened obj is nil and err says why.
// Returning an error other than SkipGroup stops the walk.
type WalkFunc func(p string, obj any, err error) error

// Walk visits g and everything below it depth-first, members in storage
// order. Objects reachable through more than one link are visited once.
func Walk(g *Group, fn WalkFunc) error {
	seen := make(map[uint64]bool)
	err := walk(g, fn, seen)
	if errors.Is(err, SkipGroup) {
		return nil
	}
	return err
}

func walk(g *Group, fn WalkFunc, seen map[uint64]bool) error {
	seen[g.addr] = true
	if err := fn(g.path, g, nil); err != nil {
		return err
	}

	members, err := g.Members()
	if err != nil {
		return fn(g.path, nil, err)
	}
	for _, name := range members {
		p := path.Join(g.path, name)
		obj, err := g.object(name, 0)
		if err != nil {
			if ferr := fn(p, nil, err); ferr != nil && !errors.Is(ferr, SkipGroup) {
				return ferr
			}
			continue
		}

		switch o := obj.(type) {
		case *Group:
			if seen[o.addr] {
				continue
			}
			err = walk(o, fn, seen)
		case *Dataset:
			if seen[o.addr] {
				continue
			}
			seen[o.addr] = true
			err = fn(p, o, nil)
		}
		if err != nil && !errors.Is(err, SkipGroup) {
			return err
		}
	}
	return nil
}
