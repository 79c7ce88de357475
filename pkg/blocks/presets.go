package blocks

// Preset keys for InsertPreset.
const (
	PresetHero             = "hero"
	PresetTwoColumnFeature = "two-column-feature"
	PresetFooter           = "footer"
	PresetCallToActionBox  = "cta-box"
)

var presetOrder = []string{PresetHero, PresetTwoColumnFeature, PresetFooter, PresetCallToActionBox}

var presetBuilders = map[string]func() []Block{
	PresetHero: func() []Block {
		return []Block{
			DefaultBlock(TypeImage),
			New(TextProps{Text: "Headline goes here", FontSize: 24, Color: DefaultTextColor, Align: AlignCenter}),
			New(TextProps{Text: "A short supporting paragraph.", FontSize: DefaultFontSize, Color: "#475569", Align: AlignCenter}),
			PatchProps(DefaultBlock(TypeButton), map[string]interface{}{"align": "center"}),
		}
	},
	PresetTwoColumnFeature: func() []Block {
		feature := func() []Block {
			return []Block{
				New(ImageProps{Src: "https://placehold.co/280x160", Alt: "Feature", Width: 280}),
				DefaultBlock(TypeText),
			}
		}
		return []Block{New(ColumnsProps{
			ColumnCount: 2,
			Layout:      LayoutEqual,
			Columns: []Column{
				{ID: NewColumnID(), Blocks: feature()},
				{ID: NewColumnID(), Blocks: feature()},
			},
		})}
	},
	PresetFooter: func() []Block {
		return []Block{
			DefaultBlock(TypeDivider),
			New(TextProps{Text: "You are receiving this email because you subscribed.", FontSize: 12, Color: "#64748B", Align: AlignCenter}),
		}
	},
	PresetCallToActionBox: func() []Block {
		box := DefaultBlock(TypeBox).Props.(BoxProps)
		box.BackgroundColor = "#F8FAFC"
		box.Blocks = []Block{DefaultBlock(TypeText), DefaultBlock(TypeButton)}
		return []Block{New(box)}
	},
}

// PresetKeys lists the preset layouts in palette order.
func PresetKeys() []string {
	out := make([]string, len(presetOrder))
	copy(out, presetOrder)
	return out
}

// Preset returns a fresh copy of a named preset layout.
func Preset(key string) ([]Block, bool) {
	build, ok := presetBuilders[key]
	if !ok {
		return nil, false
	}
	return build(), true
}
