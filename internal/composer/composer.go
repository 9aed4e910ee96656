package composer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	apperrors "github.com/memegen/memebot/internal/errors"
)

const (
	lineSpacing = 4
	jpegQuality = 75
)

var templateExts = []string{".jpg", ".jpeg", ".png", ".webp"}

type Options struct {
	ImagesDir  string
	OutputDir  string
	FontData   []byte
	FontSize   float64
	CanvasSize int
	WrapWidth  int
	Padding    int
	TextColor  color.Color
	BoxColor   color.Color
}

// Composer draws a caption box at the bottom of a random template.
type Composer struct {
	opts Options
	face font.Face
}

func New(opts Options) (*Composer, error) {
	f, err := opentype.Parse(opts.FontData)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    opts.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}

	if opts.TextColor == nil {
		opts.TextColor = color.Black
	}
	if opts.BoxColor == nil {
		opts.BoxColor = color.White
	}

	return &Composer{opts: opts, face: face}, nil
}

// LoadFont reads a font file for Options.FontData.
func LoadFont(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	return data, nil
}

// Render writes OutputDir/<chatID>.jpg, replacing any earlier image for that chat.
func (c *Composer) Render(ctx context.Context, text, chatID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if chatID == "" || strings.ContainsAny(chatID, `/\`) || strings.Contains(chatID, "..") {
		return "", apperrors.InvalidInput("chatID", "must be a plain identifier")
	}

	templatePath, err := c.pickTemplate()
	if err != nil {
		return "", apperrors.Render(err)
	}

	canvas, err := c.loadCanvas(templatePath)
	if err != nil {
		return "", apperrors.Render(err)
	}

	c.drawCaption(canvas, Wrap(text, c.opts.WrapWidth))

	out, err := c.write(canvas, chatID)
	if err != nil {
		return "", apperrors.Render(err)
	}

	log.Debug().
		Str("chatId", chatID).
		Str("template", filepath.Base(templatePath)).
		Str("output", out).
		Msg("meme rendered")

	return out, nil
}

func (c *Composer) pickTemplate() (string, error) {
	entries, err := os.ReadDir(c.opts.ImagesDir)
	if err != nil {
		return "", fmt.Errorf("read templates: %w", err)
	}

	names := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		return e.Name(), !e.IsDir() && lo.Contains(templateExts, ext)
	})
	if len(names) == 0 {
		return "", fmt.Errorf("no template images in %s", c.opts.ImagesDir)
	}

	return filepath.Join(c.opts.ImagesDir, lo.Sample(names)), nil
}

func (c *Composer) loadCanvas(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode template %s: %w", filepath.Base(path), err)
	}

	size := c.opts.CanvasSize
	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(canvas, canvas.Bounds(), src, src.Bounds(), draw.Src, nil)
	return canvas, nil
}

// textBlock returns the width and height of the wrapped caption in pixels.
func (c *Composer) textBlock(lines []string) (int, int) {
	if len(lines) == 0 {
		return 0, 0
	}

	m := c.face.Metrics()
	lineHeight := (m.Ascent + m.Descent).Ceil()

	width := 0
	for _, line := range lines {
		width = max(width, font.MeasureString(c.face, line).Ceil())
	}
	height := len(lines)*lineHeight + (len(lines)-1)*lineSpacing
	return width, height
}

func (c *Composer) drawCaption(canvas *image.RGBA, lines []string) {
	w, h := c.textBlock(lines)
	if w == 0 {
		return
	}

	size := c.opts.CanvasSize
	pad := c.opts.Padding
	x1 := (size - w) / 2
	y1 := size - h - pad

	box := image.Rect(x1, y1, x1+w, y1+h+pad)
	draw.Draw(canvas, box, image.NewUniform(c.opts.BoxColor), image.Point{}, draw.Src)

	m := c.face.Metrics()
	lineHeight := (m.Ascent + m.Descent).Ceil() + lineSpacing
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(c.opts.TextColor),
		Face: c.face,
	}
	for i, line := range lines {
		d.Dot = fixed.Point26_6{
			X: fixed.I(x1),
			Y: fixed.I(y1+i*lineHeight) + m.Ascent,
		}
		d.DrawString(line)
	}
}

func (c *Composer) write(canvas image.Image, chatID string) (string, error) {
	if err := os.MkdirAll(c.opts.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.opts.OutputDir, chatID+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := jpeg.Encode(tmp, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	out := OutputPath(c.opts.OutputDir, chatID)
	if err := os.Rename(tmp.Name(), out); err != nil {
		return "", fmt.Errorf("move image into place: %w", err)
	}
	return out, nil
}

func OutputPath(dir, chatID string) string {
	return filepath.Join(dir, chatID+".jpg")
}

// PruneOlderThan deletes rendered images last written more than maxAge ago.
func (c *Composer) PruneOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	entries, err := os.ReadDir(c.opts.OutputDir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read output dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	var removed int64
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".jpg") {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(c.opts.OutputDir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}
