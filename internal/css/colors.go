package css

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"mosaic/internal/analysis"

	sitter "github.com/smacker/go-tree-sitter"
)

// Colors returns every color literal of the sheet.
func (e *Engine) Colors(sheet *Stylesheet) []analysis.ColorInfo {
	var colors []analysis.ColorInfo
	walk(sheet.Root(), func(n *sitter.Node) bool {
		var c analysis.Color
		var ok bool
		switch n.Type() {
		case "color_value":
			c, ok = parseHex(sheet.content(n))
		case "call_expression":
			c, ok = parseColorFunction(sheet, n)
		case "plain_value":
			if ancestor(n, "declaration") != nil && ancestor(n, "call_expression") == nil {
				var rgb uint32
				rgb, ok = namedColors[strings.ToLower(sheet.content(n))]
				c = colorFromRGB(rgb)
			}
		}
		if ok {
			colors = append(colors, analysis.ColorInfo{Span: span(n), Color: c})
			return false
		}
		return true
	})
	return colors
}

func colorFromRGB(rgb uint32) analysis.Color {
	return analysis.Color{
		Red:   float64(rgb>>16&0xff) / 255,
		Green: float64(rgb>>8&0xff) / 255,
		Blue:  float64(rgb&0xff) / 255,
		Alpha: 1,
	}
}

func parseHex(text string) (analysis.Color, bool) {
	hex := strings.TrimPrefix(text, "#")
	digit := func(i int) (float64, bool) {
		v, err := strconv.ParseUint(hex[i:i+1], 16, 8)
		return float64(v), err == nil
	}
	pair := func(i int) (float64, bool) {
		v, err := strconv.ParseUint(hex[i:i+2], 16, 8)
		return float64(v), err == nil
	}

	var parts []float64
	switch len(hex) {
	case 3, 4:
		for i := 0; i < len(hex); i++ {
			v, ok := digit(i)
			if !ok {
				return analysis.Color{}, false
			}
			parts = append(parts, (v*16+v)/255)
		}
	case 6, 8:
		for i := 0; i < len(hex); i += 2 {
			v, ok := pair(i)
			if !ok {
				return analysis.Color{}, false
			}
			parts = append(parts, v/255)
		}
	default:
		return analysis.Color{}, false
	}
	if len(parts) == 3 {
		parts = append(parts, 1)
	}
	return analysis.Color{Red: parts[0], Green: parts[1], Blue: parts[2], Alpha: parts[3]}, true
}

func parseColorFunction(sheet *Stylesheet, call *sitter.Node) (analysis.Color, bool) {
	fn := childOfType(call, "function_name")
	args := childOfType(call, "arguments")
	if fn == nil || args == nil {
		return analysis.Color{}, false
	}
	name := strings.ToLower(sheet.content(fn))
	if name != "rgb" && name != "rgba" && name != "hsl" && name != "hsla" {
		return analysis.Color{}, false
	}

	var values []string
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		switch arg.Type() {
		case "integer_value", "float_value":
			values = append(values, sheet.content(arg))
		case "comment":
		default:
			return analysis.Color{}, false
		}
	}
	if len(values) != 3 && len(values) != 4 {
		return analysis.Color{}, false
	}

	alpha := 1.0
	if len(values) == 4 {
		a, ok := parseNumber(values[3], 1)
		if !ok {
			return analysis.Color{}, false
		}
		alpha = clamp01(a)
	}

	if strings.HasPrefix(name, "rgb") {
		var rgb [3]float64
		for i := 0; i < 3; i++ {
			v, ok := parseNumber(values[i], 255)
			if !ok {
				return analysis.Color{}, false
			}
			rgb[i] = clamp01(v / 255)
		}
		return analysis.Color{Red: rgb[0], Green: rgb[1], Blue: rgb[2], Alpha: alpha}, true
	}

	h, ok1 := parseNumber(strings.TrimSuffix(values[0], "deg"), 1)
	s, ok2 := parseNumber(values[1], 1)
	l, ok3 := parseNumber(values[2], 1)
	if !ok1 || !ok2 || !ok3 {
		return analysis.Color{}, false
	}
	if !strings.HasSuffix(values[1], "%") {
		s /= 100
	}
	if !strings.HasSuffix(values[2], "%") {
		l /= 100
	}
	c := hslToRGB(h, clamp01(s), clamp01(l))
	c.Alpha = alpha
	return c, true
}

// parseNumber parses a number, mapping percentages onto scale.
func parseNumber(text string, scale float64) (float64, bool) {
	if strings.HasSuffix(text, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(text, "%"), 64)
		return v / 100 * scale, err == nil
	}
	v, err := strconv.ParseFloat(text, 64)
	return v, err == nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func hslToRGB(h, s, l float64) analysis.Color {
	h = math.Mod(math.Mod(h, 360)+360, 360) / 360
	if s == 0 {
		return analysis.Color{Red: l, Green: l, Blue: l, Alpha: 1}
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	hue := func(t float64) float64 {
		if t < 0 {
			t++
		}
		if t > 1 {
			t--
		}
		switch {
		case t < 1.0/6:
			return p + (q-p)*6*t
		case t < 1.0/2:
			return q
		case t < 2.0/3:
			return p + (q-p)*(2.0/3-t)*6
		}
		return p
	}
	return analysis.Color{Red: hue(h + 1.0/3), Green: hue(h), Blue: hue(h - 1.0/3), Alpha: 1}
}

func rgbToHSL(c analysis.Color) (h, s, l float64) {
	maxC := math.Max(c.Red, math.Max(c.Green, c.Blue))
	minC := math.Min(c.Red, math.Min(c.Green, c.Blue))
	l = (maxC + minC) / 2
	if maxC == minC {
		return 0, 0, l
	}
	d := maxC - minC
	if l > 0.5 {
		s = d / (2 - maxC - minC)
	} else {
		s = d / (maxC + minC)
	}
	switch maxC {
	case c.Red:
		h = (c.Green - c.Blue) / d
		if c.Green < c.Blue {
			h += 6
		}
	case c.Green:
		h = (c.Blue-c.Red)/d + 2
	default:
		h = (c.Red-c.Green)/d + 4
	}
	return h * 60, s, l
}

func byteOf(v float64) int {
	return int(math.Round(clamp01(v) * 255))
}

func hexString(c analysis.Color) string {
	s := fmt.Sprintf("#%02x%02x%02x", byteOf(c.Red), byteOf(c.Green), byteOf(c.Blue))
	if c.Alpha < 1 {
		s += fmt.Sprintf("%02x", byteOf(c.Alpha))
	}
	return s
}

func formatAlpha(a float64) string {
	return strconv.FormatFloat(math.Round(a*100)/100, 'f', -1, 64)
}

// ColorPresentations renders c as rgb, hex and hsl notation.
func (e *Engine) ColorPresentations(c analysis.Color) []string {
	r, g, b := byteOf(c.Red), byteOf(c.Green), byteOf(c.Blue)
	h, s, l := rgbToHSL(c)

	var rgb, hsl string
	if c.Alpha >= 1 {
		rgb = fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
		hsl = fmt.Sprintf("hsl(%d, %d%%, %d%%)", int(math.Round(h)), int(math.Round(s*100)), int(math.Round(l*100)))
	} else {
		rgb = fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, formatAlpha(c.Alpha))
		hsl = fmt.Sprintf("hsla(%d, %d%%, %d%%, %s)", int(math.Round(h)), int(math.Round(s*100)), int(math.Round(l*100)), formatAlpha(c.Alpha))
	}
	return []string{rgb, hexString(c), hsl}
}
