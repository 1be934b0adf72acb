package render

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Canvas 是基于 gg 的位图画布，使用 Go 字体。不是并发安全的。
type Canvas struct {
	dc      *gg.Context
	regular *truetype.Font
	bold    *truetype.Font
	faces   map[Font]font.Face
}

// NewCanvas 创建指定像素尺寸的画布。
func NewCanvas(width, height int) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("画布尺寸无效: %dx%d", width, height)
	}
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("加载字体失败: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("加载粗体失败: %w", err)
	}
	return &Canvas{
		dc:      gg.NewContext(width, height),
		regular: regular,
		bold:    bold,
		faces:   make(map[Font]font.Face),
	}, nil
}

func (c *Canvas) Width() float64  { return float64(c.dc.Width()) }
func (c *Canvas) Height() float64 { return float64(c.dc.Height()) }

func (c *Canvas) Clear(bg color.Color) {
	c.dc.SetColor(bg)
	c.dc.Clear()
}

func (c *Canvas) MeasureText(text string, f Font) float64 {
	c.dc.SetFontFace(c.face(f))
	w, _ := c.dc.MeasureString(text)
	return w
}

func (c *Canvas) DrawText(text string, x, y float64, f Font, col color.Color) {
	c.dc.SetFontFace(c.face(f))
	c.dc.SetColor(col)
	c.dc.DrawString(text, x, y)
}

func (c *Canvas) FillCircle(x, y, r float64, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawCircle(x, y, r)
	c.dc.Fill()
}

func (c *Canvas) QuadraticCurve(x0, y0, cx, cy, x1, y1 float64, col color.Color, lineWidth float64) {
	c.dc.SetColor(col)
	c.dc.SetLineWidth(lineWidth)
	c.dc.MoveTo(x0, y0)
	c.dc.QuadraticTo(cx, cy, x1, y1)
	c.dc.Stroke()
}

// Image 返回当前画面。
func (c *Canvas) Image() image.Image {
	return c.dc.Image()
}

// SavePNG 把当前画面写入 PNG 文件，目录不存在时自动创建。
// 先写临时文件再重命名。
func (c *Canvas) SavePNG(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("创建 PNG 文件失败: %w", err)
	}
	if err := c.dc.EncodePNG(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("编码 PNG 失败: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("写入 PNG 失败: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("重命名 PNG 失败: %w", err)
	}
	return nil
}

func (c *Canvas) face(f Font) font.Face {
	if face, ok := c.faces[f]; ok {
		return face
	}
	ttf := c.regular
	if f.Bold {
		ttf = c.bold
	}
	face := truetype.NewFace(ttf, &truetype.Options{Size: f.Size})
	c.faces[f] = face
	return face
}
