package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/atelierlab/maquette/element"
)

// Fixed element ids in the generated post layout. The auto-fit loop targets
// the title's inner content node.
const (
	idBackground = "background"
	idOverlay    = "overlay"
	idBadge      = "badge"
	idTitle      = "title"
	idBanner     = "banner"
)

// titleSelector matches the measurable title content inside its container.
const titleSelector = "#el-title .content"

// Layout constants for the canonical 1080x1350 post.
const (
	badgeSize    = 96
	badgeMargin  = 48
	bannerHeight = 110
	titleMarginX = 64
	// initialTitleSize is the starting font size before auto-fit.
	initialTitleSize = 72
)

// textPolicy strips all markup from user-supplied text before it is
// embedded in the render document.
var textPolicy = bluemonday.StrictPolicy()

// buildLayout assembles the fixed post template: background (z=1),
// gradient overlay over the lower canvas (z=2), category badge (z=10),
// title block (z=11), banner (z=12). Text mode swaps the image for a solid
// color and stretches the title block over nearly the full canvas.
func buildLayout(mode element.Mode, background, bgColor, title, badgeURI, bannerURI, fontFamily string) *element.Template {
	w, h := float64(element.CanvasWidth), float64(element.CanvasHeight)

	tpl := &element.Template{
		CanvasWidth:  element.CanvasWidth,
		CanvasHeight: element.CanvasHeight,
		Mode:         mode,
	}

	if mode == element.ModeText || background == "" {
		color := bgColor
		if color == "" {
			color = "#10141a"
		}
		tpl.BackgroundColor = color
		tpl.Elements = append(tpl.Elements, element.Element{
			ID: idBackground, Name: "Background",
			Width: w, Height: h, ZIndex: 1, Opacity: 100, Visible: true,
			Props: element.Solid{Color: color},
		})
	} else {
		tpl.BackgroundResource = background
		tpl.Elements = append(tpl.Elements, element.Element{
			ID: idBackground, Name: "Background",
			Width: w, Height: h, ZIndex: 1, Opacity: 100, Visible: true,
			Props: element.Image{Src: background, ObjectFit: "cover"},
		})
	}

	tpl.Elements = append(tpl.Elements, element.Element{
		ID: idOverlay, Name: "Overlay",
		Y: h * 0.45, Width: w, Height: h * 0.55,
		ZIndex: 2, Opacity: 100, Visible: true,
		Props: element.Gradient{Start: "rgba(0,0,0,0.88)", End: "rgba(0,0,0,0)", Direction: "to top"},
	})

	tpl.Elements = append(tpl.Elements, element.Element{
		ID: idBadge, Name: "Badge",
		X: badgeMargin, Y: badgeMargin, Width: badgeSize, Height: badgeSize,
		ZIndex: 10, Opacity: 100, Visible: true, Locked: true,
		Props: element.Image{Src: badgeURI, ObjectFit: "contain"},
	})

	// Title block: lower third in visual mode, nearly full height in text
	// mode where no photo competes for space.
	titleY, titleH := h-470-bannerHeight, 470.0
	if mode == element.ModeText {
		titleY, titleH = 180, h-180-bannerHeight-40
	}
	tpl.Elements = append(tpl.Elements, element.Element{
		ID: idTitle, Name: "Title",
		X: titleMarginX, Y: titleY, Width: w - 2*titleMarginX, Height: titleH,
		ZIndex: 11, Opacity: 100, Visible: true,
		Props: element.Text{
			Text:          title,
			FontFamily:    fontFamily,
			FontWeight:    "800",
			FontSize:      initialTitleSize,
			Color:         "#ffffff",
			LineHeight:    1.15,
			TextAlign:     "left",
			TextTransform: "uppercase",
			Shadow:        true,
		},
	})

	tpl.Elements = append(tpl.Elements, element.Element{
		ID: idBanner, Name: "Banner",
		Y: h - bannerHeight, Width: w, Height: bannerHeight,
		ZIndex: 12, Opacity: 100, Visible: true, Locked: true,
		Props: element.Image{Src: bannerURI, ObjectFit: "cover"},
	})

	element.NormalizeZ(tpl.Elements)
	return tpl
}

// CompileHTML renders a template to a standalone HTML document. Every
// variant of the element union is handled; an unknown variant is an error
// rather than a silently missing layer.
func CompileHTML(tpl *element.Template, fontFaceCSS string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, `<!DOCTYPE html><html><head><meta charset="utf-8"><style>
html,body{margin:0;padding:0}
%s
#canvas{position:relative;overflow:hidden;width:%dpx;height:%dpx;background:%s}
#canvas .el{position:absolute}
#canvas .content{width:100%%;word-wrap:break-word}
</style></head><body><div id="canvas">`,
		fontFaceCSS, tpl.CanvasWidth, tpl.CanvasHeight, cssColor(tpl.BackgroundColor, "#000"))

	for _, e := range tpl.Elements {
		if !e.Visible {
			continue
		}
		frag, err := compileElement(e)
		if err != nil {
			return "", err
		}
		b.WriteString(frag)
	}

	b.WriteString(`</div></body></html>`)
	return b.String(), nil
}

func compileElement(e element.Element) (string, error) {
	var style strings.Builder
	fmt.Fprintf(&style, "left:%.2fpx;top:%.2fpx;width:%.2fpx;height:%.2fpx;z-index:%d;opacity:%.3f;",
		e.X, e.Y, e.Width, e.Height, e.ZIndex, e.Opacity/100)
	if e.Rotation != 0 {
		fmt.Fprintf(&style, "transform:rotate(%.2fdeg);", e.Rotation)
	}

	inner := ""
	switch p := e.Props.(type) {
	case element.Gradient:
		fmt.Fprintf(&style, "background:linear-gradient(%s,%s,%s);",
			cssValue(p.Direction), cssColor(p.Start, "rgba(0,0,0,0.85)"), cssColor(p.End, "rgba(0,0,0,0)"))
	case element.Image:
		inner = fmt.Sprintf(`<img src="%s" style="width:100%%;height:100%%;object-fit:%s">`,
			html.EscapeString(p.Src), cssValue(p.ObjectFit))
	case element.Text:
		var ts strings.Builder
		fmt.Fprintf(&ts, "font-family:%s;font-weight:%s;font-size:%.2fpx;color:%s;line-height:%.3f;text-align:%s;",
			cssValue(p.FontFamily), cssValue(p.FontWeight), p.FontSize,
			cssColor(p.Color, "#fff"), p.LineHeight, cssValue(p.TextAlign))
		if p.LetterSpacing != 0 {
			fmt.Fprintf(&ts, "letter-spacing:%.2fpx;", p.LetterSpacing)
		}
		if p.TextTransform != "" {
			fmt.Fprintf(&ts, "text-transform:%s;", cssValue(p.TextTransform))
		}
		if p.Shadow {
			ts.WriteString("text-shadow:0 2px 12px rgba(0,0,0,0.6);")
		}
		inner = fmt.Sprintf(`<div class="content" style="%s">%s</div>`,
			ts.String(), textPolicy.Sanitize(p.Text))
	case element.Solid:
		fmt.Fprintf(&style, "background:%s;", cssColor(p.Color, "#000"))
	case element.Rect:
		fmt.Fprintf(&style, "background:%s;", cssColor(p.Fill, "transparent"))
		if p.StrokeWidth > 0 {
			fmt.Fprintf(&style, "border:%.2fpx solid %s;", p.StrokeWidth, cssColor(p.Stroke, "#000"))
		}
		if p.BorderRadius > 0 {
			fmt.Fprintf(&style, "border-radius:%.2fpx;", p.BorderRadius)
		}
	case element.Circle:
		fmt.Fprintf(&style, "background:%s;border-radius:50%%;", cssColor(p.Fill, "transparent"))
		if p.StrokeWidth > 0 {
			fmt.Fprintf(&style, "border:%.2fpx solid %s;", p.StrokeWidth, cssColor(p.Stroke, "#000"))
		}
	case element.Line:
		fmt.Fprintf(&style, "background:%s;", cssColor(p.Fill, "#000"))
		if p.StrokeWidth > 0 {
			fmt.Fprintf(&style, "height:%.2fpx;", p.StrokeWidth)
		}
	default:
		return "", fmt.Errorf("render: unhandled element variant %T", e.Props)
	}

	return fmt.Sprintf(`<div class="el" id="el-%s" style="%s">%s</div>`,
		html.EscapeString(e.ID), style.String(), inner), nil
}

// cssColor passes through a color token, falling back when empty. Values
// are restricted to the charset of CSS color syntax to keep user input from
// escaping the style attribute.
func cssColor(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return cssValue(v)
}

// cssValue strips characters that could break out of an inline style.
func cssValue(v string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'', ';', '<', '>', '{', '}', '\\':
			return -1
		}
		return r
	}, v)
}
