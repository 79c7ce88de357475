package blocks

// Default style values shared by DefaultBlock, the normalizer and the
// renderer.
const (
	DefaultFontSize      = 14
	DefaultTextColor     = "#0F172A"
	DefaultButtonBg      = "#2563EB"
	DefaultButtonColor   = "#FFFFFF"
	DefaultDividerColor  = "#E2E8F0"
	DefaultImageSrc      = "https://placehold.co/600x200"
	DefaultImageWidth    = 600
	DefaultBoxBackground = "transparent"
	DefaultBoxPadding    = 16
	DefaultBoxBorder     = "1px solid #E2E8F0"
	DefaultBoxBorderRad  = 8
	DefaultSpacerHeight  = 32
	DefaultButtonLabel   = "Call to Action"
	DefaultButtonHref    = "#"
	DefaultSampleText    = "Sample paragraph."
	DefaultImageAlt      = "Image"
	fallbackButtonLabel  = "CTA"
	fallbackResizeWidth  = 300
	fallbackResizeHeight = 150
	defaultBoxMargin     = 0
)

// BlockTypes returns every block type in palette order.
func BlockTypes() []BlockType {
	return []BlockType{TypeText, TypeImage, TypeButton, TypeDivider, TypeColumns, TypeBox, TypeSpacer}
}

// IsValidType reports whether t names a known variant.
func IsValidType(t BlockType) bool {
	for _, known := range BlockTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// DefaultBlock returns a new block of the given type populated with the
// palette defaults. Unknown types produce a text block.
func DefaultBlock(t BlockType) Block {
	switch t {
	case TypeImage:
		return New(ImageProps{Src: DefaultImageSrc, Alt: DefaultImageAlt, Width: DefaultImageWidth})
	case TypeButton:
		return New(ButtonProps{
			Label: DefaultButtonLabel,
			Href:  DefaultButtonHref,
			Bg:    DefaultButtonBg,
			Color: DefaultButtonColor,
			Align: AlignLeft,
		})
	case TypeDivider:
		return New(DividerProps{Color: DefaultDividerColor})
	case TypeColumns:
		cols := make([]Column, MinColumnCount)
		for i := range cols {
			cols[i] = Column{ID: NewColumnID(), Blocks: []Block{}}
		}
		return New(ColumnsProps{ColumnCount: MinColumnCount, Layout: LayoutEqual, Columns: cols})
	case TypeBox:
		return New(BoxProps{
			BackgroundColor: DefaultBoxBackground,
			Padding:         DefaultBoxPadding,
			Margin:          defaultBoxMargin,
			Border:          DefaultBoxBorder,
			BorderRadius:    DefaultBoxBorderRad,
			Blocks:          []Block{},
		})
	case TypeSpacer:
		return New(SpacerProps{Height: DefaultSpacerHeight})
	default:
		return New(TextProps{Text: DefaultSampleText, FontSize: DefaultFontSize, Color: DefaultTextColor, Align: AlignLeft})
	}
}

// DisplayName returns the palette label of a block type.
func DisplayName(t BlockType) string {
	switch t {
	case TypeText:
		return "Text"
	case TypeImage:
		return "Image"
	case TypeButton:
		return "Button"
	case TypeDivider:
		return "Divider"
	case TypeColumns:
		return "Columns"
	case TypeBox:
		return "Box"
	case TypeSpacer:
		return "Spacer"
	default:
		return string(t)
	}
}

// Category groups block types in the palette.
func Category(t BlockType) string {
	switch t {
	case TypeText, TypeImage, TypeButton:
		return "content"
	case TypeColumns, TypeBox:
		return "layout"
	case TypeDivider, TypeSpacer:
		return "separator"
	default:
		return "unknown"
	}
}
