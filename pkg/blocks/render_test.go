package blocks

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testOpen  = `<table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="font-family: Inter, Arial, sans-serif;"><tr><td align="center" style="padding:16px;"><table role="presentation" width="600" cellspacing="0" cellpadding="0" style="width:600px; max-width:100%;">`
	testClose = `</table></td></tr></table>`
	testInner = `<table role="presentation" width="100%" cellspacing="0" cellpadding="0">`
)

func TestRender_Scaffold(t *testing.T) {
	assert.Equal(t, testOpen+testClose, Render(nil))
	assert.Equal(t, testOpen+testClose, Render([]Block{}))
}

func TestRenderBlock(t *testing.T) {
	tests := []struct {
		name     string
		block    Block
		expected string
	}{
		{
			name:     "text with every style",
			block:    New(TextProps{Text: "Hello", FontSize: 14, Color: "#0F172A", Align: AlignLeft}),
			expected: `<tr><td style="padding:12px 0; line-height:1.6; color:#0F172A; font-size:14px; text-align:left">Hello</td></tr>`,
		},
		{
			name:     "text only emits set styles",
			block:    New(TextProps{Text: "Bare"}),
			expected: `<tr><td style="padding:12px 0; line-height:1.6">Bare</td></tr>`,
		},
		{
			name:     "image with width",
			block:    New(ImageProps{Src: "a.png", Alt: "A", Width: 600}),
			expected: `<tr><td style="padding:12px 0;"><img src="a.png" alt="A" style="display:block; width:600px; height:auto; border:0;"/></td></tr>`,
		},
		{
			name:     "image auto",
			block:    New(ImageProps{Src: "a.png"}),
			expected: `<tr><td style="padding:12px 0;"><img src="a.png" alt="" style="display:block; width:100%; height:auto; border:0;"/></td></tr>`,
		},
		{
			name:     "image with both dimensions",
			block:    New(ImageProps{Src: "a.png", Alt: "A", Width: 120, Height: 80}),
			expected: `<tr><td style="padding:12px 0;"><img src="a.png" alt="A" style="display:block; width:120px; height:80px; border:0;"/></td></tr>`,
		},
		{
			name:     "button defaults",
			block:    New(ButtonProps{Label: "Go", Href: "/x"}),
			expected: `<tr><td style="padding:16px 0; text-align:left;"><a href="/x" style="background:#2563EB; color:#FFFFFF; text-decoration:none; font-weight:600; padding:10px 16px; border-radius:6px; display:inline-block;">Go</a></td></tr>`,
		},
		{
			name:     "button styled",
			block:    New(ButtonProps{Label: "Buy", Href: "https://shop", Bg: "#000000", Color: "#FAFAFA", Align: AlignCenter}),
			expected: `<tr><td style="padding:16px 0; text-align:center;"><a href="https://shop" style="background:#000000; color:#FAFAFA; text-decoration:none; font-weight:600; padding:10px 16px; border-radius:6px; display:inline-block;">Buy</a></td></tr>`,
		},
		{
			name:     "divider",
			block:    DefaultBlock(TypeDivider),
			expected: `<tr><td style="padding:8px 0;"><hr style="border:none; border-top:1px solid #E2E8F0; margin:0;"/></td></tr>`,
		},
		{
			name:     "divider without color",
			block:    New(DividerProps{}),
			expected: `<tr><td style="padding:8px 0;"><hr style="border:none; border-top:1px solid #E2E8F0; margin:0;"/></td></tr>`,
		},
		{
			name:     "spacer",
			block:    New(SpacerProps{Height: 24}),
			expected: `<tr><td style="height:24px; line-height:24px; font-size:1px;">&nbsp;</td></tr>`,
		},
		{
			name:     "spacer without height",
			block:    New(SpacerProps{}),
			expected: `<tr><td style="height:32px; line-height:32px; font-size:1px;">&nbsp;</td></tr>`,
		},
		{
			name:  "box defaults",
			block: DefaultBlock(TypeBox),
			expected: `<tr><td style="padding:0px 0;"><table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background:transparent; border:1px solid #E2E8F0; border-radius:8px;"><tr><td style="padding:16px;">` +
				testInner + `</table></td></tr></table></td></tr>`,
		},
		{
			name:  "unset box styles",
			block: New(BoxProps{Margin: 12, Blocks: []Block{New(SpacerProps{Height: 4})}}),
			expected: `<tr><td style="padding:12px 0;"><table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background:transparent; border:none; border-radius:0px;"><tr><td style="padding:0px;">` +
				testInner + `<tr><td style="height:4px; line-height:4px; font-size:1px;">&nbsp;</td></tr></table></td></tr></table></td></tr>`,
		},
		{
			name: "columns",
			block: New(ColumnsProps{ColumnCount: 2, Layout: Layout70_30, Columns: []Column{
				{ID: "a", Blocks: []Block{New(TextProps{Text: "L"})}},
				{ID: "b"},
			}}),
			expected: `<tr><td style="padding:12px 0;">` + testInner + `<tr>` +
				`<td width="70%" style="vertical-align:top; width:70%;">` + testInner + `<tr><td style="padding:12px 0; line-height:1.6">L</td></tr></table></td>` +
				`<td width="30%" style="vertical-align:top; width:30%;">` + testInner + `</table></td>` +
				`</tr></table></td></tr>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RenderBlock(tt.block))
			assert.Equal(t, testOpen+tt.expected+testClose, Render([]Block{tt.block}))
		})
	}
}

func columnWidthAttrs(t *testing.T, html string) []string {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	var widths []string
	doc.Find("td[width]").Each(func(_ int, s *goquery.Selection) {
		w, _ := s.Attr("width")
		widths = append(widths, w)
	})
	return widths
}

func TestRender_ColumnWidths(t *testing.T) {
	twoCols := func(layout ColumnLayout) Block {
		return New(ColumnsProps{ColumnCount: 2, Layout: layout, Columns: []Column{{ID: "a"}, {ID: "b"}}})
	}

	assert.Equal(t, []string{"70%", "30%"}, columnWidthAttrs(t, Render([]Block{twoCols(Layout70_30)})))
	assert.Equal(t, []string{"30%", "70%"}, columnWidthAttrs(t, Render([]Block{twoCols(Layout30_70)})))
	assert.Equal(t, []string{"50%", "50%"}, columnWidthAttrs(t, Render([]Block{twoCols(LayoutEqual)})))

	three := New(ColumnsProps{ColumnCount: 3, Layout: Layout70_30, Columns: []Column{{ID: "a"}, {ID: "b"}, {ID: "c"}}})
	assert.Equal(t, []string{"33%", "34%", "33%"}, columnWidthAttrs(t, Render([]Block{three})))

	t.Run("extra columns are not rendered", func(t *testing.T) {
		b := New(ColumnsProps{ColumnCount: 2, Layout: LayoutEqual, Columns: []Column{
			{ID: "a"}, {ID: "b"}, {ID: "c", Blocks: []Block{New(TextProps{Text: "hidden"})}},
		}})
		html := Render([]Block{b})
		assert.Len(t, columnWidthAttrs(t, html), 2)
		assert.NotContains(t, html, "hidden")
	})
}

func TestRender_Escaping(t *testing.T) {
	t.Run("text content", func(t *testing.T) {
		payload := `<script>&"'</script>`
		html := RenderBlock(New(TextProps{Text: payload}))

		assert.Contains(t, html, `&lt;script&gt;&amp;&quot;'&lt;/script&gt;`)
		assert.NotContains(t, html, payload)
		assert.NotContains(t, html, "<script>")
	})

	t.Run("attributes", func(t *testing.T) {
		html := RenderBlock(New(ImageProps{Src: "a.png?x=1&y=\"2\"", Alt: "say \"cheese\"\nplease"}))

		assert.Contains(t, html, `src="a.png?x=1&amp;y=&quot;2&quot;"`)
		assert.Contains(t, html, `alt="say &quot;cheese&quot; please"`)
	})

	t.Run("button label and href", func(t *testing.T) {
		html := RenderBlock(New(ButtonProps{Label: "<Go>", Href: "/a?b=1&c=\"2\""}))

		assert.Contains(t, html, `href="/a?b=1&amp;c=&quot;2&quot;"`)
		assert.Contains(t, html, `>&lt;Go&gt;</a>`)
	})

	t.Run("style values cannot break out of the attribute", func(t *testing.T) {
		html := RenderBlock(New(DividerProps{Color: `red" onclick="x`}))
		assert.NotContains(t, html, `" onclick="`)
	})

	assert.Equal(t, "a &amp; b &lt;c&gt; &quot;d&quot; 'e'", EscapeHTML(`a & b <c> "d" 'e'`))
	assert.Equal(t, "line one line two", EscapeAttr("line one\nline two"))
}

func TestRender_Determinism(t *testing.T) {
	doc := []Block{DefaultBlock(TypeText), DefaultBlock(TypeColumns), DefaultBlock(TypeBox), DefaultBlock(TypeImage)}
	first := Render(doc)
	second := Render(CloneDocument(doc))
	assert.Equal(t, first, second)

	for _, col := range doc[1].Props.(ColumnsProps).Columns {
		assert.NotContains(t, first, col.ID)
	}
}

func TestRender_EndToEnd(t *testing.T) {
	doc := []Block{
		New(TextProps{Text: "Hello", FontSize: 14, Color: "#0F172A", Align: AlignLeft}),
		DefaultBlock(TypeDivider),
		New(ButtonProps{Label: "Go", Href: "/x"}),
	}

	html := Render(doc)

	assert.Equal(t, 1, strings.Count(html, "<hr"))
	assert.Contains(t, html, "Hello")

	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	anchors := parsed.Find("a")
	require.Equal(t, 1, anchors.Length())
	href, _ := anchors.Attr("href")
	assert.Equal(t, "/x", href)
	assert.Equal(t, "Go", anchors.Text())
}
