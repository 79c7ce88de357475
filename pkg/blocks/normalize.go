package blocks

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// MaxNestingDepth is the deepest block list a document may hold; the
// top-level list is depth 0. Edits never build deeper lists, and the
// normalizer drops the children of deeper containers in untrusted input.
const MaxNestingDepth = 64

// Normalize converts arbitrary JSON into a valid Block. It never fails:
// malformed or missing fields fall back to their defaults one by one, and
// anything that is not an object with a known type becomes an empty text
// block.
func Normalize(raw []byte) Block {
	if !gjson.ValidBytes(raw) {
		return emptyText()
	}
	return NormalizeResult(gjson.ParseBytes(raw))
}

// NormalizeResult is Normalize for an already parsed value.
func NormalizeResult(r gjson.Result) Block {
	return normalizeBlock(r, 0)
}

// ParseDocument turns persisted template content into a block list.
// Accepted shapes are a bare array of blocks and an object with a "blocks"
// array. Empty content yields an empty document; any other content,
// including a JSON null, is kept as the text of a single text block.
func ParseDocument(content *string) []Block {
	if content == nil {
		return []Block{}
	}
	raw := *content
	if strings.TrimSpace(raw) == "" {
		return []Block{}
	}
	if !gjson.Valid(raw) {
		return []Block{textBlock(raw)}
	}

	r := gjson.Parse(raw)
	switch {
	case r.IsArray():
		return normalizeList(r, 0)
	case r.IsObject() && r.Get("blocks").IsArray():
		return normalizeList(r.Get("blocks"), 0)
	case r.Type == gjson.String:
		return []Block{textBlock(r.Str)}
	default:
		return []Block{textBlock(raw)}
	}
}

func normalizeList(r gjson.Result, depth int) []Block {
	out := []Block{}
	if !r.IsArray() || depth > MaxNestingDepth {
		return out
	}
	r.ForEach(func(_, item gjson.Result) bool {
		out = append(out, normalizeBlock(item, depth))
		return true
	})
	return out
}

func normalizeBlock(r gjson.Result, depth int) Block {
	if !r.IsObject() {
		return emptyText()
	}
	t := r.Get("type")
	if t.Type != gjson.String {
		return emptyText()
	}
	p := r.Get("props")

	switch BlockType(t.Str) {
	case TypeText:
		return New(TextProps{
			Text:     str(p, "text", ""),
			FontSize: num(p, "fontSize", DefaultFontSize),
			Color:    str(p, "color", DefaultTextColor),
			Align:    align(p, "align"),
		})
	case TypeImage:
		return New(ImageProps{
			Src:    str(p, "src", ""),
			Alt:    str(p, "alt", ""),
			Width:  num(p, "width", 0),
			Height: num(p, "height", 0),
		})
	case TypeButton:
		return New(ButtonProps{
			Label: str(p, "label", fallbackButtonLabel),
			Href:  str(p, "href", DefaultButtonHref),
			Bg:    str(p, "bg", DefaultButtonBg),
			Color: str(p, "color", DefaultButtonColor),
			Align: align(p, "align"),
		})
	case TypeDivider:
		return New(DividerProps{Color: str(p, "color", DefaultDividerColor)})
	case TypeColumns:
		return New(normalizeColumns(p, depth))
	case TypeBox:
		return New(BoxProps{
			BackgroundColor: str(p, "backgroundColor", DefaultBoxBackground),
			Padding:         num(p, "padding", DefaultBoxPadding),
			Margin:          num(p, "margin", defaultBoxMargin),
			Border:          str(p, "border", DefaultBoxBorder),
			BorderRadius:    num(p, "borderRadius", DefaultBoxBorderRad),
			Blocks:          normalizeList(p.Get("blocks"), depth+1),
		})
	case TypeSpacer:
		return New(SpacerProps{Height: num(p, "height", DefaultSpacerHeight)})
	default:
		return emptyText()
	}
}

func normalizeColumns(p gjson.Result, depth int) ColumnsProps {
	count := MinColumnCount
	if c := p.Get("columnCount"); c.Type == gjson.Number && c.Num == MaxColumnCount {
		count = MaxColumnCount
	}

	layout := LayoutEqual
	if l := p.Get("layout"); l.Type == gjson.String {
		switch ColumnLayout(l.Str) {
		case LayoutEqual, Layout70_30, Layout30_70:
			layout = ColumnLayout(l.Str)
		}
	}

	seen := make(map[string]bool)
	columns := []Column{}
	if raw := p.Get("columns"); raw.IsArray() {
		raw.ForEach(func(_, item gjson.Result) bool {
			col := Column{Blocks: []Block{}}
			if item.IsObject() {
				col.ID = str(item, "id", "")
				col.Blocks = normalizeList(item.Get("blocks"), depth+1)
			}
			if col.ID == "" || seen[col.ID] {
				col.ID = NewColumnID()
			}
			seen[col.ID] = true
			columns = append(columns, col)
			return true
		})
	}
	for len(columns) < count {
		columns = append(columns, Column{ID: NewColumnID(), Blocks: []Block{}})
	}

	return ColumnsProps{ColumnCount: count, Layout: layout, Columns: columns}
}

func emptyText() Block {
	return textBlock("")
}

func textBlock(text string) Block {
	return New(TextProps{Text: text, FontSize: DefaultFontSize, Color: DefaultTextColor, Align: AlignLeft})
}

func str(r gjson.Result, key, fallback string) string {
	v := r.Get(key)
	if v.Type != gjson.String {
		return fallback
	}
	return v.Str
}

// num accepts JSON numbers and numeric strings, rounded to whole pixels.
func num(r gjson.Result, key string, fallback int) int {
	v := r.Get(key)
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return fallback
		}
		f = parsed
	default:
		return fallback
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return fallback
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Round(f))
}

func align(r gjson.Result, key string) Align {
	switch a := Align(str(r, key, "")); a {
	case AlignLeft, AlignCenter, AlignRight:
		return a
	default:
		return AlignLeft
	}
}
