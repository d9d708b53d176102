package css

import (
	"sort"
	"strings"
)

type property struct {
	description string
	values      []string
}

var globalValues = []string{"inherit", "initial", "unset", "revert"}

var properties = map[string]property{
	"align-items":         {"Aligns flex items along the cross axis of the current line of the flex container.", []string{"baseline", "center", "flex-end", "flex-start", "stretch"}},
	"align-self":          {"Allows the default alignment along the cross axis to be overridden for individual flex items.", []string{"auto", "baseline", "center", "flex-end", "flex-start", "stretch"}},
	"animation":           {"Shorthand property combining six of the animation properties into a single property.", []string{"alternate", "infinite", "linear", "none"}},
	"animation-delay":     {"Defines when the animation will start.", nil},
	"animation-duration":  {"Defines the length of time that an animation takes to complete one cycle.", nil},
	"animation-name":      {"Defines a list of animations that apply.", []string{"none"}},
	"background":          {"Shorthand property for setting most background properties at the same place in the style sheet.", []string{"none", "no-repeat", "repeat", "fixed", "center"}},
	"background-color":    {"Sets the background color of an element.", []string{"transparent", "currentColor"}},
	"background-image":    {"Sets the background image(s) of an element.", []string{"none"}},
	"background-position": {"Specifies the initial position of the background image(s).", []string{"bottom", "center", "left", "right", "top"}},
	"background-repeat":   {"Specifies how background images are tiled after they have been sized and positioned.", []string{"no-repeat", "repeat", "repeat-x", "repeat-y", "round", "space"}},
	"background-size":     {"Specifies the size of the background images.", []string{"auto", "contain", "cover"}},
	"border":              {"Shorthand property for setting border width, style, and color.", []string{"none", "solid", "dashed", "dotted", "double"}},
	"border-bottom":       {"Shorthand property for setting border width, style and color.", []string{"none", "solid"}},
	"border-color":        {"The color of the border around all four edges of an element.", nil},
	"border-left":         {"Shorthand property for setting border width, style and color.", []string{"none", "solid"}},
	"border-radius":       {"Defines the radii of the outer border edge.", nil},
	"border-right":        {"Shorthand property for setting border width, style and color.", []string{"none", "solid"}},
	"border-style":        {"The style of the border around edges of an element.", []string{"none", "hidden", "dotted", "dashed", "solid", "double", "groove", "ridge", "inset", "outset"}},
	"border-top":          {"Shorthand property for setting border width, style and color.", []string{"none", "solid"}},
	"border-width":        {"Shorthand that sets the four border-*-width properties.", []string{"medium", "thick", "thin"}},
	"bottom":              {"Specifies how far an absolutely positioned box's bottom margin edge is offset above the bottom edge of the box's containing block.", []string{"auto"}},
	"box-shadow":          {"Attaches one or more drop-shadows to the box.", []string{"inset", "none"}},
	"box-sizing":          {"Specifies the behavior of the 'width' and 'height' properties.", []string{"border-box", "content-box"}},
	"clear":               {"Indicates which sides of an element's box(es) may not be adjacent to an earlier floating box.", []string{"both", "left", "none", "right"}},
	"color":               {"Sets the color of an element's text.", []string{"currentColor", "transparent"}},
	"content":             {"Determines which page-based occurrence of a given element is applied to a counter or string value.", []string{"attr()", "counter()", "none", "normal"}},
	"cursor":              {"Allows control over cursor appearance in an element.", []string{"auto", "default", "move", "pointer", "text", "wait", "not-allowed", "grab"}},
	"display":             {"In combination with 'float' and 'position', determines the type of box or boxes that are generated for an element.", []string{"block", "contents", "flex", "grid", "inline", "inline-block", "inline-flex", "none", "table"}},
	"flex":                {"Specifies the components of a flexible length.", []string{"auto", "none"}},
	"flex-direction":      {"Specifies how flex items are placed in the flex container.", []string{"column", "column-reverse", "row", "row-reverse"}},
	"flex-grow":           {"Sets the flex grow factor.", nil},
	"flex-shrink":         {"Sets the flex shrink factor.", nil},
	"flex-wrap":           {"Controls whether the flex container is single-line or multi-line.", []string{"nowrap", "wrap", "wrap-reverse"}},
	"float":               {"Specifies how a box should be floated.", []string{"left", "none", "right"}},
	"font":                {"Shorthand property for setting font properties.", []string{"caption", "icon", "menu"}},
	"font-family":         {"Specifies a prioritized list of font family names or generic family names.", []string{"serif", "sans-serif", "monospace", "cursive", "fantasy", "system-ui"}},
	"font-size":           {"Indicates the desired height of glyphs from the font.", []string{"large", "larger", "medium", "small", "smaller", "x-large", "x-small"}},
	"font-style":          {"Allows italic or oblique faces to be selected.", []string{"italic", "normal", "oblique"}},
	"font-weight":         {"Specifies weight of glyphs in the font.", []string{"100", "200", "300", "400", "500", "600", "700", "800", "900", "bold", "bolder", "lighter", "normal"}},
	"gap":                 {"Sets the gaps between rows and columns.", []string{"normal"}},
	"grid-template-columns": {"Specifies the track list for the grid columns.", []string{"none", "auto", "min-content", "max-content"}},
	"grid-template-rows":  {"Specifies the track list for the grid rows.", []string{"none", "auto", "min-content", "max-content"}},
	"height":              {"Specifies the height of the content area, padding area or border area of certain boxes.", []string{"auto", "fit-content", "max-content", "min-content"}},
	"justify-content":     {"Aligns flex items along the main axis of the current line of the flex container.", []string{"center", "flex-end", "flex-start", "space-around", "space-between", "space-evenly"}},
	"left":                {"Specifies how far an absolutely positioned box's left margin edge is offset to the right of the left edge of the box's containing block.", []string{"auto"}},
	"letter-spacing":      {"Specifies the minimum, maximum, and optimal spacing between grapheme clusters.", []string{"normal"}},
	"line-height":         {"Determines the block-progression dimension of the text content area of an inline box.", []string{"normal"}},
	"list-style":          {"Shorthand for setting 'list-style-type', 'list-style-position' and 'list-style-image'.", []string{"none", "disc", "circle", "square", "decimal", "inside", "outside"}},
	"margin":              {"Shorthand property to set values of the thickness of the margin area.", []string{"auto"}},
	"margin-bottom":       {"Shorthand property to set values of the thickness of the margin area.", []string{"auto"}},
	"margin-left":         {"Shorthand property to set values of the thickness of the margin area.", []string{"auto"}},
	"margin-right":        {"Shorthand property to set values of the thickness of the margin area.", []string{"auto"}},
	"margin-top":          {"Shorthand property to set values of the thickness of the margin area.", []string{"auto"}},
	"max-height":          {"Allows authors to constrain content height to a certain range.", []string{"none"}},
	"max-width":           {"Allows authors to constrain content width to a certain range.", []string{"none"}},
	"min-height":          {"Allows authors to constrain content height to a certain range.", []string{"auto"}},
	"min-width":           {"Allows authors to constrain content width to a certain range.", []string{"auto"}},
	"opacity":             {"Opacity of an element's text, where 1 is opaque and 0 is entirely transparent.", nil},
	"outline":             {"Shorthand property for 'outline-style', 'outline-width', and 'outline-color'.", []string{"none", "auto"}},
	"overflow":            {"Shorthand for setting 'overflow-x' and 'overflow-y'.", []string{"auto", "hidden", "scroll", "visible", "clip"}},
	"padding":             {"Shorthand property to set values of the thickness of the padding area.", nil},
	"padding-bottom":      {"Shorthand property to set values of the thickness of the padding area.", nil},
	"padding-left":        {"Shorthand property to set values of the thickness of the padding area.", nil},
	"padding-right":       {"Shorthand property to set values of the thickness of the padding area.", nil},
	"padding-top":         {"Shorthand property to set values of the thickness of the padding area.", nil},
	"pointer-events":      {"Specifies under what circumstances a given element can be the target element for a pointer event.", []string{"all", "auto", "none"}},
	"position":            {"The position CSS property sets how an element is positioned in a document.", []string{"absolute", "fixed", "relative", "static", "sticky"}},
	"right":               {"Specifies how far an absolutely positioned box's right margin edge is offset to the left of the right edge of the box's containing block.", []string{"auto"}},
	"text-align":          {"Describes how inline contents of a block are horizontally aligned if the contents do not completely fill the line box.", []string{"center", "end", "justify", "left", "right", "start"}},
	"text-decoration":     {"Decorations applied to font used for an element's text.", []string{"line-through", "none", "overline", "underline"}},
	"text-overflow":       {"Text can overflow for example when it is prevented from wrapping.", []string{"clip", "ellipsis"}},
	"text-transform":      {"Controls capitalization effects of an element's text.", []string{"capitalize", "lowercase", "none", "uppercase"}},
	"top":                 {"Specifies how far an absolutely positioned box's top margin edge is offset below the top edge of the box's containing block.", []string{"auto"}},
	"transform":           {"A two-dimensional transformation is applied to an element through the 'transform' property.", []string{"none", "rotate()", "scale()", "translate()"}},
	"transition":          {"Shorthand property combines four of the transition properties into a single property.", []string{"all", "none", "ease", "ease-in", "ease-out", "linear"}},
	"vertical-align":      {"Affects the vertical positioning of the inline boxes generated by an inline-level element inside a line box.", []string{"baseline", "bottom", "middle", "sub", "super", "text-bottom", "text-top", "top"}},
	"visibility":          {"Specifies whether the boxes generated by an element are rendered.", []string{"collapse", "hidden", "visible"}},
	"white-space":         {"Specifies how whitespace is handled in an element.", []string{"normal", "nowrap", "pre", "pre-line", "pre-wrap"}},
	"width":               {"Specifies the width of the content area, padding area or border area of certain boxes.", []string{"auto", "fit-content", "max-content", "min-content"}},
	"word-break":          {"Specifies line break opportunities for non-CJK scripts.", []string{"break-all", "keep-all", "normal"}},
	"z-index":             {"For a positioned box, the 'z-index' property specifies the stack level of the box in the current stacking context.", []string{"auto"}},
}

// lookupProperty finds a property, ignoring vendor prefixes.
func lookupProperty(name string) (property, bool) {
	name = strings.ToLower(name)
	if p, ok := properties[name]; ok {
		return p, true
	}
	for _, prefix := range []string{"-webkit-", "-moz-", "-ms-", "-o-"} {
		if strings.HasPrefix(name, prefix) {
			p, ok := properties[strings.TrimPrefix(name, prefix)]
			return p, ok
		}
	}
	return property{}, false
}

func propertyNames() []string {
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// namedColors maps color keywords to 0xRRGGBB.
var namedColors = map[string]uint32{
	"aqua":        0x00ffff,
	"black":       0x000000,
	"blue":        0x0000ff,
	"brown":       0xa52a2a,
	"coral":       0xff7f50,
	"crimson":     0xdc143c,
	"cyan":        0x00ffff,
	"darkblue":    0x00008b,
	"darkgray":    0xa9a9a9,
	"darkgreen":   0x006400,
	"darkred":     0x8b0000,
	"fuchsia":     0xff00ff,
	"gold":        0xffd700,
	"gray":        0x808080,
	"green":       0x008000,
	"grey":        0x808080,
	"indigo":      0x4b0082,
	"ivory":       0xfffff0,
	"khaki":       0xf0e68c,
	"lavender":    0xe6e6fa,
	"lightblue":   0xadd8e6,
	"lightgray":   0xd3d3d3,
	"lightgreen":  0x90ee90,
	"lime":        0x00ff00,
	"magenta":     0xff00ff,
	"maroon":      0x800000,
	"navy":        0x000080,
	"olive":       0x808000,
	"orange":      0xffa500,
	"pink":        0xffc0cb,
	"purple":      0x800080,
	"rebeccapurple": 0x663399,
	"red":         0xff0000,
	"salmon":      0xfa8072,
	"silver":      0xc0c0c0,
	"skyblue":     0x87ceeb,
	"steelblue":   0x4682b4,
	"tan":         0xd2b48c,
	"teal":        0x008080,
	"tomato":      0xff6347,
	"turquoise":   0x40e0d0,
	"violet":      0xee82ee,
	"white":       0xffffff,
	"yellow":      0xffff00,
}

// colorProperties accept color values.
var colorProperties = map[string]bool{
	"background":       true,
	"background-color": true,
	"border":           true,
	"border-bottom":    true,
	"border-color":     true,
	"border-left":      true,
	"border-right":     true,
	"border-top":       true,
	"box-shadow":       true,
	"color":            true,
	"outline":          true,
	"text-decoration":  true,
}

var atRules = []string{"@charset", "@font-face", "@import", "@keyframes", "@media", "@namespace", "@page", "@supports"}

var htmlTags = []string{
	"a", "article", "aside", "body", "button", "div", "footer", "form", "h1", "h2", "h3", "h4", "h5", "h6",
	"header", "html", "img", "input", "label", "li", "main", "nav", "ol", "p", "section", "select", "span",
	"table", "tbody", "td", "textarea", "th", "thead", "tr", "ul",
}
