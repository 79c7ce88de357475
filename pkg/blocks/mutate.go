package blocks

// All operations in this file are copy-on-write: they never modify the
// list or blocks they are given, and they return the input unchanged when
// an index or path is out of range. Edits that would nest lists deeper
// than MaxNestingDepth are refused the same way.

// Insert places b before position index. index may equal len(list).
func Insert(list []Block, index int, b Block) []Block {
	return InsertPreset(list, index, []Block{b})
}

// InsertPreset splices an ordered run of blocks before position index.
func InsertPreset(list []Block, index int, bs []Block) []Block {
	if index < 0 || index > len(list) || len(bs) == 0 {
		return list
	}
	out := make([]Block, 0, len(list)+len(bs))
	out = append(out, list[:index]...)
	out = append(out, bs...)
	out = append(out, list[index:]...)
	return out
}

// Reorder moves the element at from to drop-zone to. Drop-zone i sits
// between elements i-1 and i, so dropping after the element itself
// (to > from) lands at to-1 once the element has been taken out.
func Reorder(list []Block, from, to int) []Block {
	if from < 0 || from >= len(list) || to < 0 || to > len(list) || from == to {
		return list
	}
	item := list[from]
	rest := Delete(list, from)
	return Insert(rest, reorderTarget(from, to), item)
}

func reorderTarget(from, to int) int {
	if from < to {
		return to - 1
	}
	return to
}

// Delete removes the element at index.
func Delete(list []Block, index int) []Block {
	if index < 0 || index >= len(list) {
		return list
	}
	out := make([]Block, 0, len(list)-1)
	out = append(out, list[:index]...)
	return append(out, list[index+1:]...)
}

// InsertAt inserts blocks into the list addressed by path.
func InsertAt(doc []Block, path ListPath, index int, bs ...Block) []Block {
	if !FitsAt(path, bs...) {
		return doc
	}
	return apply(doc, path, func(list []Block) ([]Block, bool) {
		if index < 0 || index > len(list) || len(bs) == 0 {
			return nil, false
		}
		return InsertPreset(list, index, bs), true
	})
}

// ReorderAt reorders within the list addressed by path.
func ReorderAt(doc []Block, path ListPath, from, to int) []Block {
	return apply(doc, path, func(list []Block) ([]Block, bool) {
		if from < 0 || from >= len(list) || to < 0 || to > len(list) || from == to {
			return nil, false
		}
		return Reorder(list, from, to), true
	})
}

// DeleteAt removes the block at loc.
func DeleteAt(doc []Block, loc Location) []Block {
	return apply(doc, loc.Path, func(list []Block) ([]Block, bool) {
		if loc.Index < 0 || loc.Index >= len(list) {
			return nil, false
		}
		return Delete(list, loc.Index), true
	})
}

// ReplaceAt swaps the block at loc for b.
func ReplaceAt(doc []Block, loc Location, b Block) []Block {
	return apply(doc, loc.Path, func(list []Block) ([]Block, bool) {
		if loc.Index < 0 || loc.Index >= len(list) {
			return nil, false
		}
		out := make([]Block, len(list))
		copy(out, list)
		out[loc.Index] = b
		return out, true
	})
}

// PatchAt applies PatchProps to the block at loc. A rejected patch
// returns doc itself.
func PatchAt(doc []Block, loc Location, patch map[string]interface{}) []Block {
	b, ok := BlockAt(doc, loc)
	if !ok {
		return doc
	}
	patched, ok := patchProps(b, patch)
	if !ok || !FitsAt(loc.Path, patched) {
		return doc
	}
	return ReplaceAt(doc, loc, patched)
}

// MoveIntoContainer moves the block at from into the list at to, before
// drop-zone index. Within a single list this is Reorder.
func MoveIntoContainer(doc []Block, from Location, to ListPath, index int) []Block {
	out, _, _ := Move(doc, from, to, index)
	return out
}

// Move is MoveIntoContainer that also returns where the block ended up.
// It reports false, with doc unchanged, when nothing moved. Dropping a
// block next to itself moves nothing, and neither does a drop inside the
// moved block or past MaxNestingDepth.
func Move(doc []Block, from Location, to ListPath, index int) ([]Block, Location, bool) {
	b, ok := BlockAt(doc, from)
	if !ok {
		return doc, Location{}, false
	}
	target, ok := ListAt(doc, to)
	if !ok || index < 0 || index > len(target) {
		return doc, Location{}, false
	}

	if from.Path.Equal(to) {
		if reorderTarget(from.Index, index) == from.Index {
			return doc, Location{}, false
		}
		out := ReorderAt(doc, to, from.Index, index)
		return out, to.At(reorderTarget(from.Index, index)), true
	}

	if from.Contains(to.At(0)) || !FitsAt(to, b) {
		return doc, Location{}, false
	}

	removed := DeleteAt(doc, from)
	dest := to.At(index)
	if rebased, ok := dest.AfterRemoval(from); ok {
		dest = rebased
	}
	out := InsertAt(removed, dest.Path, dest.Index, b)
	return out, dest, true
}

// Depth counts the levels of block lists b opens below the list holding
// it: 0 for leaf blocks, one more than the deepest child for containers.
func Depth(b Block) int {
	var lists [][]Block
	switch p := b.Props.(type) {
	case BoxProps:
		lists = [][]Block{p.Blocks}
	case ColumnsProps:
		for _, col := range p.Columns {
			lists = append(lists, col.Blocks)
		}
	default:
		return 0
	}

	deepest := 0
	for _, list := range lists {
		for _, child := range list {
			if d := Depth(child); d > deepest {
				deepest = d
			}
		}
	}
	return deepest + 1
}

// FitsAt reports whether bs can be placed in the list at path without
// nesting any list deeper than MaxNestingDepth.
func FitsAt(path ListPath, bs ...Block) bool {
	for _, b := range bs {
		if len(path)+Depth(b) > MaxNestingDepth {
			return false
		}
	}
	return true
}

func apply(doc []Block, path ListPath, fn func([]Block) ([]Block, bool)) []Block {
	out, ok := updateList(doc, path, fn)
	if !ok {
		return doc
	}
	return out
}
