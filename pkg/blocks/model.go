package blocks

// BlockType is the discriminator of a Block variant.
type BlockType string

const (
	TypeText    BlockType = "text"
	TypeImage   BlockType = "image"
	TypeButton  BlockType = "button"
	TypeDivider BlockType = "divider"
	TypeColumns BlockType = "columns"
	TypeBox     BlockType = "box"
	TypeSpacer  BlockType = "spacer"
)

// Align is the horizontal alignment of text and buttons.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// ColumnLayout describes how a two-column block splits its width.
type ColumnLayout string

const (
	LayoutEqual ColumnLayout = "equal"
	Layout70_30 ColumnLayout = "70-30"
	Layout30_70 ColumnLayout = "30-70"
)

const (
	MinColumnCount = 2
	MaxColumnCount = 3
)

// Block is one content node of a template document.
// Props always holds the payload type matching Type.
type Block struct {
	Type  BlockType
	Props Props
}

// Props is the payload of a Block. It is implemented only by the
// variant payloads of this package.
type Props interface {
	blockType() BlockType
	clone() Props
}

// TextProps is the payload of a text block. Zero values mean "unset".
type TextProps struct {
	Text     string `json:"text"`
	FontSize int    `json:"fontSize"`
	Color    string `json:"color"`
	Align    Align  `json:"align"`
}

// ImageProps is the payload of an image block. A zero Width or Height
// renders as auto.
type ImageProps struct {
	Src    string `json:"src"`
	Alt    string `json:"alt"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type ButtonProps struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	Bg    string `json:"bg"`
	Color string `json:"color"`
	Align Align  `json:"align"`
}

type DividerProps struct {
	Color string `json:"color"`
}

// ColumnsProps is the payload of a multi-column block. Columns beyond
// ColumnCount are kept but never rendered or addressed.
type ColumnsProps struct {
	ColumnCount int          `json:"columnCount"`
	Layout      ColumnLayout `json:"layout"`
	Columns     []Column     `json:"columns"`
}

// BoxProps is the payload of a styled container.
type BoxProps struct {
	BackgroundColor string  `json:"backgroundColor"`
	Padding         int     `json:"padding"`
	Margin          int     `json:"margin"`
	Border          string  `json:"border"`
	BorderRadius    int     `json:"borderRadius"`
	Blocks          []Block `json:"blocks"`
}

type SpacerProps struct {
	Height int `json:"height"`
}

// Column is one cell of a columns block. The ID only keys UI elements.
type Column struct {
	ID     string  `json:"id"`
	Blocks []Block `json:"blocks"`
}

// Document is the unit of persistence: a name and the top-level blocks.
type Document struct {
	Name   string
	Blocks []Block
}

func (TextProps) blockType() BlockType    { return TypeText }
func (ImageProps) blockType() BlockType   { return TypeImage }
func (ButtonProps) blockType() BlockType  { return TypeButton }
func (DividerProps) blockType() BlockType { return TypeDivider }
func (ColumnsProps) blockType() BlockType { return TypeColumns }
func (BoxProps) blockType() BlockType     { return TypeBox }
func (SpacerProps) blockType() BlockType  { return TypeSpacer }

func (p TextProps) clone() Props    { return p }
func (p ImageProps) clone() Props   { return p }
func (p ButtonProps) clone() Props  { return p }
func (p DividerProps) clone() Props { return p }
func (p SpacerProps) clone() Props  { return p }

func (p ColumnsProps) clone() Props {
	cols := make([]Column, len(p.Columns))
	for i, c := range p.Columns {
		cols[i] = Column{ID: c.ID, Blocks: cloneList(c.Blocks)}
	}
	p.Columns = cols
	return p
}

func (p BoxProps) clone() Props {
	p.Blocks = cloneList(p.Blocks)
	return p
}

// New wraps props into a Block with the matching type tag.
func New(p Props) Block {
	return Block{Type: p.blockType(), Props: p}
}

// IsContainer reports whether the block owns child blocks.
func (b Block) IsContainer() bool {
	return b.Type == TypeColumns || b.Type == TypeBox
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	if b.Props == nil {
		return b
	}
	return Block{Type: b.Type, Props: b.Props.clone()}
}

func cloneList(list []Block) []Block {
	if list == nil {
		return []Block{}
	}
	out := make([]Block, len(list))
	for i, b := range list {
		out[i] = b.Clone()
	}
	return out
}

// CloneDocument returns a deep copy of a block list.
func CloneDocument(list []Block) []Block {
	return cloneList(list)
}

// visibleColumns returns the columns that take part in rendering and
// mutation addressing.
func (p ColumnsProps) visibleColumns() []Column {
	n := p.ColumnCount
	if n > len(p.Columns) {
		n = len(p.Columns)
	}
	if n < 0 {
		n = 0
	}
	return p.Columns[:n]
}

// ColumnWidths returns the percentage width of each rendered column.
func (p ColumnsProps) ColumnWidths() []int {
	if p.ColumnCount == 3 {
		return []int{33, 34, 33}
	}
	switch p.Layout {
	case Layout70_30:
		return []int{70, 30}
	case Layout30_70:
		return []int{30, 70}
	default:
		return []int{50, 50}
	}
}
