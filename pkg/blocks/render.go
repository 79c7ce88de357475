package blocks

import (
	"strconv"
	"strings"
)

const (
	innerTable    = `<table role="presentation" width="100%" cellspacing="0" cellpadding="0">`
	documentOpen  = `<table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="font-family: Inter, Arial, sans-serif;">` + `<tr><td align="center" style="padding:16px;">` + `<table role="presentation" width="600" cellspacing="0" cellpadding="0" style="width:600px; max-width:100%;">`
	documentClose = `</table></td></tr></table>`
)

// Render converts a block list into table based email HTML. The output
// depends only on the blocks, so equal documents render to equal bytes.
func Render(list []Block) string {
	var sb strings.Builder
	sb.WriteString(documentOpen)
	renderList(&sb, list)
	sb.WriteString(documentClose)
	return sb.String()
}

// RenderBlock renders a single block as a table row, without the
// document scaffold.
func RenderBlock(b Block) string {
	var sb strings.Builder
	renderBlock(&sb, b)
	return sb.String()
}

func renderList(sb *strings.Builder, list []Block) {
	for _, b := range list {
		renderBlock(sb, b)
	}
}

func renderBlock(sb *strings.Builder, b Block) {
	switch p := b.Props.(type) {
	case TextProps:
		renderText(sb, p)
	case ImageProps:
		renderImage(sb, p)
	case ButtonProps:
		renderButton(sb, p)
	case DividerProps:
		renderDivider(sb, p)
	case ColumnsProps:
		renderColumns(sb, p)
	case BoxProps:
		renderBox(sb, p)
	case SpacerProps:
		renderSpacer(sb, p)
	}
}

func renderText(sb *strings.Builder, p TextProps) {
	styles := []string{"padding:12px 0", "line-height:1.6"}
	if p.Color != "" {
		styles = append(styles, "color:"+p.Color)
	}
	if p.FontSize > 0 {
		styles = append(styles, "font-size:"+px(p.FontSize))
	}
	if p.Align != "" {
		styles = append(styles, "text-align:"+string(p.Align))
	}

	sb.WriteString(`<tr><td style="`)
	sb.WriteString(EscapeAttr(strings.Join(styles, "; ")))
	sb.WriteString(`">`)
	sb.WriteString(EscapeHTML(p.Text))
	sb.WriteString(`</td></tr>`)
}

func renderImage(sb *strings.Builder, p ImageProps) {
	w := "width:100%;"
	if p.Width > 0 {
		w = "width:" + px(p.Width) + ";"
	}
	h := "height:auto;"
	if p.Height > 0 {
		h = "height:" + px(p.Height) + ";"
	}

	sb.WriteString(`<tr><td style="padding:12px 0;"><img src="`)
	sb.WriteString(EscapeAttr(p.Src))
	sb.WriteString(`" alt="`)
	sb.WriteString(EscapeAttr(p.Alt))
	sb.WriteString(`" style="display:block; ` + w + ` ` + h + ` border:0;"/></td></tr>`)
}

func renderButton(sb *strings.Builder, p ButtonProps) {
	bg := orDefault(p.Bg, DefaultButtonBg)
	color := orDefault(p.Color, DefaultButtonColor)
	align := orDefault(string(p.Align), string(AlignLeft))

	sb.WriteString(`<tr><td style="padding:16px 0; text-align:`)
	sb.WriteString(EscapeAttr(align))
	sb.WriteString(`;"><a href="`)
	sb.WriteString(EscapeAttr(p.Href))
	sb.WriteString(`" style="background:`)
	sb.WriteString(EscapeAttr(bg))
	sb.WriteString(`; color:`)
	sb.WriteString(EscapeAttr(color))
	sb.WriteString(`; text-decoration:none; font-weight:600; padding:10px 16px; border-radius:6px; display:inline-block;">`)
	sb.WriteString(EscapeHTML(p.Label))
	sb.WriteString(`</a></td></tr>`)
}

func renderDivider(sb *strings.Builder, p DividerProps) {
	sb.WriteString(`<tr><td style="padding:8px 0;"><hr style="border:none; border-top:1px solid `)
	sb.WriteString(EscapeAttr(orDefault(p.Color, DefaultDividerColor)))
	sb.WriteString(`; margin:0;"/></td></tr>`)
}

func renderColumns(sb *strings.Builder, p ColumnsProps) {
	widths := p.ColumnWidths()
	cols := p.visibleColumns()
	if len(cols) > len(widths) {
		cols = cols[:len(widths)]
	}

	sb.WriteString(`<tr><td style="padding:12px 0;">` + innerTable + `<tr>`)
	for i, col := range cols {
		w := strconv.Itoa(widths[i]) + "%"
		sb.WriteString(`<td width="` + w + `" style="vertical-align:top; width:` + w + `;">`)
		sb.WriteString(innerTable)
		renderList(sb, col.Blocks)
		sb.WriteString(`</table>`)
		sb.WriteString(`</td>`)
	}
	sb.WriteString(`</tr></table></td></tr>`)
}

func renderBox(sb *strings.Builder, p BoxProps) {
	bg := orDefault(p.BackgroundColor, DefaultBoxBackground)
	border := orDefault(p.Border, "none")

	sb.WriteString(`<tr><td style="padding:` + px(p.Margin) + ` 0;">`)
	sb.WriteString(`<table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background:`)
	sb.WriteString(EscapeAttr(bg))
	sb.WriteString(`; border:`)
	sb.WriteString(EscapeAttr(border))
	sb.WriteString(`; border-radius:` + px(p.BorderRadius) + `;">`)
	sb.WriteString(`<tr><td style="padding:` + px(p.Padding) + `;">`)
	sb.WriteString(innerTable)
	renderList(sb, p.Blocks)
	sb.WriteString(`</table>`)
	sb.WriteString(`</td></tr></table></td></tr>`)
}

func renderSpacer(sb *strings.Builder, p SpacerProps) {
	h := p.Height
	if h <= 0 {
		h = DefaultSpacerHeight
	}
	sb.WriteString(`<tr><td style="height:` + px(h) + `; line-height:` + px(h) + `; font-size:1px;">&nbsp;</td></tr>`)
}

func px(n int) string {
	if n < 0 {
		n = 0
	}
	return strconv.Itoa(n) + "px"
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
