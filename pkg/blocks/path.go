package blocks

// Slot is one step from a block list into a container's child list.
// For a columns block Column selects the column; a box has a single
// child list addressed with Column 0.
type Slot struct {
	Block  int `json:"block"`
	Column int `json:"column"`
}

// ListPath addresses a block list inside a document. The empty path is
// the top-level list.
type ListPath []Slot

// Location addresses one block: the list it lives in and its index.
type Location struct {
	Path  ListPath `json:"path"`
	Index int      `json:"index"`
}

// At returns the location of the index-th block of the list at p.
func (p ListPath) At(index int) Location {
	return Location{Path: p.clone(), Index: index}
}

// Into returns the path of a child list of the block at l.
func (l Location) Into(column int) ListPath {
	out := make(ListPath, len(l.Path), len(l.Path)+1)
	copy(out, l.Path)
	return append(out, Slot{Block: l.Index, Column: column})
}

// Equal reports whether two paths address the same list.
func (p ListPath) Equal(o ListPath) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether p starts with prefix.
func (p ListPath) HasPrefix(prefix ListPath) bool {
	return len(p) >= len(prefix) && p[:len(prefix)].Equal(prefix)
}

func (p ListPath) clone() ListPath {
	if len(p) == 0 {
		return nil
	}
	out := make(ListPath, len(p))
	copy(out, p)
	return out
}

// Equal reports whether two locations address the same block.
func (l Location) Equal(o Location) bool {
	return l.Index == o.Index && l.Path.Equal(o.Path)
}

// Contains reports whether other lies strictly inside the block at l.
func (l Location) Contains(other Location) bool {
	depth := len(l.Path)
	return len(other.Path) > depth &&
		other.Path.HasPrefix(l.Path) &&
		other.Path[depth].Block == l.Index
}

// AfterRemoval maps l to where the same block sits once the block at
// removed is taken out of the tree. It reports false when l was the
// removed block or lived inside it.
func (l Location) AfterRemoval(removed Location) (Location, bool) {
	if l.Equal(removed) || removed.Contains(l) {
		return Location{}, false
	}
	return l.shift(removed, -1), true
}

// AfterInsertion maps l to where the same block sits once n blocks are
// inserted at the given location.
func (l Location) AfterInsertion(inserted Location, n int) Location {
	return l.shift(inserted, n)
}

// shift moves every address at or after at, within at's list, by delta.
func (l Location) shift(at Location, delta int) Location {
	depth := len(at.Path)
	switch {
	case l.Path.Equal(at.Path):
		if l.Index > at.Index || (delta > 0 && l.Index == at.Index) {
			return Location{Path: l.Path.clone(), Index: l.Index + delta}
		}
	case len(l.Path) > depth && l.Path.HasPrefix(at.Path):
		step := l.Path[depth].Block
		if step > at.Index || (delta > 0 && step == at.Index) {
			path := l.Path.clone()
			path[depth].Block += delta
			return Location{Path: path, Index: l.Index}
		}
	}
	return Location{Path: l.Path.clone(), Index: l.Index}
}

// ListAt returns the block list addressed by path.
func ListAt(doc []Block, path ListPath) ([]Block, bool) {
	list := doc
	for _, s := range path {
		if s.Block < 0 || s.Block >= len(list) {
			return nil, false
		}
		children, ok := childList(list[s.Block], s.Column)
		if !ok {
			return nil, false
		}
		list = children
	}
	return list, true
}

// BlockAt returns the block addressed by loc.
func BlockAt(doc []Block, loc Location) (Block, bool) {
	list, ok := ListAt(doc, loc.Path)
	if !ok || loc.Index < 0 || loc.Index >= len(list) {
		return Block{}, false
	}
	return list[loc.Index], true
}

func childList(b Block, column int) ([]Block, bool) {
	switch p := b.Props.(type) {
	case ColumnsProps:
		cols := p.visibleColumns()
		if column < 0 || column >= len(cols) {
			return nil, false
		}
		return cols[column].Blocks, true
	case BoxProps:
		if column != 0 {
			return nil, false
		}
		return p.Blocks, true
	default:
		return nil, false
	}
}

// updateList rebuilds the spine from the root to the list at path,
// replacing that list with the result of fn. Lists and containers off the
// path are shared with the input.
func updateList(doc []Block, path ListPath, fn func([]Block) ([]Block, bool)) ([]Block, bool) {
	if len(path) == 0 {
		return fn(doc)
	}

	s := path[0]
	if s.Block < 0 || s.Block >= len(doc) {
		return nil, false
	}

	var updated Block
	switch p := doc[s.Block].Props.(type) {
	case ColumnsProps:
		if s.Column < 0 || s.Column >= len(p.visibleColumns()) {
			return nil, false
		}
		child, ok := updateList(p.Columns[s.Column].Blocks, path[1:], fn)
		if !ok {
			return nil, false
		}
		cols := make([]Column, len(p.Columns))
		copy(cols, p.Columns)
		cols[s.Column] = Column{ID: cols[s.Column].ID, Blocks: child}
		p.Columns = cols
		updated = New(p)
	case BoxProps:
		if s.Column != 0 {
			return nil, false
		}
		child, ok := updateList(p.Blocks, path[1:], fn)
		if !ok {
			return nil, false
		}
		p.Blocks = child
		updated = New(p)
	default:
		return nil, false
	}

	out := make([]Block, len(doc))
	copy(out, doc)
	out[s.Block] = updated
	return out, true
}
