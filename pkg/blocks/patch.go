package blocks

import "encoding/json"

// PatchProps shallow-merges fields into the block's props, keyed by their
// JSON names. Fields not named in the patch keep their values. A patch
// whose values do not fit the variant's fields, or that would leave the
// props invalid, returns b unchanged.
func PatchProps(b Block, patch map[string]interface{}) Block {
	out, _ := patchProps(b, patch)
	return out
}

// patchProps is PatchProps that also reports whether the patch applied.
func patchProps(b Block, patch map[string]interface{}) (Block, bool) {
	if b.Props == nil || len(patch) == 0 {
		return b, false
	}
	data, err := json.Marshal(patch)
	if err != nil {
		return b, false
	}

	switch p := b.Props.(type) {
	case TextProps:
		return patchWith(b, p, data, func(p TextProps) bool {
			return p.FontSize >= 0 && validAlign(p.Align)
		})
	case ImageProps:
		return patchWith(b, p, data, func(p ImageProps) bool {
			return p.Width >= 0 && p.Height >= 0
		})
	case ButtonProps:
		return patchWith(b, p, data, func(p ButtonProps) bool {
			return validAlign(p.Align)
		})
	case DividerProps:
		return patchWith(b, p, data, nil)
	case ColumnsProps:
		next := p.clone().(ColumnsProps)
		if err := json.Unmarshal(data, &next); err != nil {
			return b, false
		}
		if next.ColumnCount != MinColumnCount && next.ColumnCount != MaxColumnCount || !validLayout(next.Layout) {
			return b, false
		}
		for len(next.Columns) < next.ColumnCount {
			next.Columns = append(next.Columns, Column{ID: NewColumnID(), Blocks: []Block{}})
		}
		return New(next), true
	case BoxProps:
		return patchWith(b, p.clone().(BoxProps), data, func(p BoxProps) bool {
			return p.Padding >= 0 && p.Margin >= 0 && p.BorderRadius >= 0
		})
	case SpacerProps:
		return patchWith(b, p, data, func(p SpacerProps) bool {
			return p.Height >= 0
		})
	default:
		return b, false
	}
}

func patchWith[T Props](orig Block, p T, data []byte, valid func(T) bool) (Block, bool) {
	if err := json.Unmarshal(data, &p); err != nil {
		return orig, false
	}
	if valid != nil && !valid(p) {
		return orig, false
	}
	return New(p), true
}

func validAlign(a Align) bool {
	return a == "" || a == AlignLeft || a == AlignCenter || a == AlignRight
}

func validLayout(l ColumnLayout) bool {
	return l == "" || l == LayoutEqual || l == Layout70_30 || l == Layout30_70
}
