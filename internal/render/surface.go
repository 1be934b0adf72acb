// Package render 把带标注的句子排版并绘制到二维画布上：
// 重读词加粗放大并在上方画圆点，失爆字母上画斜线，
// 同一行内带连读标记的单词和下一个单词之间画弧线。
package render

import "image/color"

// Font 描述绘制文字用的字号和粗细。
type Font struct {
	Size float64
	Bold bool
}

// Surface 是绘图协作方，坐标原点在左上角，单位为像素。
type Surface interface {
	Width() float64
	Height() float64
	Clear(bg color.Color)
	MeasureText(text string, f Font) float64
	// DrawText 以 (x, y) 为基线起点绘制文字。
	DrawText(text string, x, y float64, f Font, c color.Color)
	FillCircle(x, y, r float64, c color.Color)
	QuadraticCurve(x0, y0, cx, cy, x1, y1 float64, c color.Color, lineWidth float64)
}

// Palette 渲染用色。
type Palette struct {
	Background color.Color
	Text       color.Color
	Highlight  color.Color
	Stress     color.Color
	Elision    color.Color
	Connector  color.Color
	Caption    color.Color
}

// DefaultPalette 白底黑字，高亮为橙色。
func DefaultPalette() Palette {
	return Palette{
		Background: color.White,
		Text:       color.RGBA{0x22, 0x22, 0x22, 0xff},
		Highlight:  color.RGBA{0xe6, 0x7e, 0x22, 0xff},
		Stress:     color.RGBA{0xc0, 0x39, 0x2b, 0xff},
		Elision:    color.RGBA{0x95, 0xa5, 0xa6, 0xff},
		Connector:  color.RGBA{0x29, 0x80, 0xb9, 0xff},
		Caption:    color.RGBA{0x7f, 0x8c, 0x8d, 0xff},
	}
}
