package imaging

import (
	"image"
	"image/color"
	"image/draw"
)

// glyphs is a 3x5 pixel font covering marker labels.
var glyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	'#': {"101", "111", "101", "111", "101"},
	'.': {"000", "000", "000", "000", "010"},
	'%': {"101", "001", "010", "100", "101"},
}

const (
	glyphAdvance = 4
	labelHeight  = 7
)

// labelSize returns the width and height drawLabel covers for text.
func labelSize(text string) (int, int) {
	return len([]rune(text))*glyphAdvance + 1, labelHeight
}

// drawLabel writes text with its top-left corner at (x, y). A nil bg leaves
// the background untouched. Runes without a glyph advance the cursor.
func drawLabel(img draw.Image, x, y int, text string, fg, bg color.Color) {
	bounds := img.Bounds()
	set := func(px, py int, c color.Color) {
		if image.Pt(px, py).In(bounds) {
			img.Set(px, py, c)
		}
	}

	if bg != nil {
		w, h := labelSize(text)
		for dy := -1; dy < h-1; dy++ {
			for dx := -1; dx < w-1; dx++ {
				set(x+dx, y+dy, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		if glyph, ok := glyphs[ch]; ok {
			for row, line := range glyph {
				for col, pixel := range line {
					if pixel == '1' {
						set(cx+col, y+row, fg)
					}
				}
			}
		}
		cx += glyphAdvance
	}
}
