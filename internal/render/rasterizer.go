package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"

	"posterstudio/internal/metrics"
)

const (
	// PrintDPI is the resolution print renders target.
	PrintDPI = 300
	// MaxPrintScale bounds print renders; small scenes requesting large
	// prints under-resolve instead of allocating unbounded rasters.
	MaxPrintScale = 4
	// DefaultQuality is the JPEG quality of full renders.
	DefaultQuality = 92
	// ThumbnailQuality is the JPEG quality of thumbnails.
	ThumbnailQuality = 60
)

type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}

type Options struct {
	// Scale multiplies the scene's native size. Zero means 1.
	Scale float64
	// Background is painted under the scene. Empty means white.
	Background string
	// Quality applies to JPEG only. Zero means DefaultQuality.
	Quality int
	Format  Format
}

// Result is an encoded raster in both inline and binary form.
type Result struct {
	DataURL     string
	Blob        []byte
	ContentType string
	Width       int
	Height      int
}

// RenderError reports a failure to produce an image.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Rasterizer draws scene trees. It is safe for concurrent use as long as
// each scene is not mutated while it renders.
type Rasterizer struct {
	loader ImageLoader
	logger zerolog.Logger
	font   *opentype.Font
}

func New(loader ImageLoader, logger zerolog.Logger) (*Rasterizer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Rasterizer{loader: loader, logger: logger, font: f}, nil
}

// Render waits for every embedded image, then draws the scene at
// opts.Scale and encodes it.
func (r *Rasterizer) Render(ctx context.Context, root *Node, opts Options) (Result, error) {
	return r.render(ctx, "render", root, opts)
}

// Thumbnail renders at scale 1 and fits the longer side to maxSize.
func (r *Rasterizer) Thumbnail(ctx context.Context, root *Node, maxSize int) (Result, error) {
	start := time.Now()
	defer func() { metrics.RenderDuration.WithLabelValues("thumbnail").Observe(time.Since(start).Seconds()) }()

	if maxSize <= 0 {
		return Result{}, &RenderError{Op: "thumbnail", Err: fmt.Errorf("max size %d", maxSize)}
	}
	full, err := r.rasterize(ctx, root, 1, "")
	if err != nil {
		return Result{}, err
	}
	w, h := FitSize(full.Bounds().Dx(), full.Bounds().Dy(), maxSize)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), full, full.Bounds(), draw.Src, nil)
	return encode(dst, FormatJPEG, ThumbnailQuality)
}

// PosterRender renders the scene so that it covers widthCm x heightCm at
// PrintDPI, on white, as PNG.
func (r *Rasterizer) PosterRender(ctx context.Context, root *Node, widthCm, heightCm float64) (Result, error) {
	scale := PrintScale(root.W, root.H, widthCm, heightCm)
	return r.render(ctx, "print", root, Options{Scale: scale, Background: "#FFFFFF", Format: FormatPNG})
}

// PrintScale is the larger of the two axis ratios between the print target
// and the scene, clamped to MaxPrintScale.
func PrintScale(nodeW, nodeH, widthCm, heightCm float64) float64 {
	if nodeW <= 0 || nodeH <= 0 {
		return 1
	}
	targetW := widthCm / 2.54 * PrintDPI
	targetH := heightCm / 2.54 * PrintDPI
	return math.Min(math.Max(targetW/nodeW, targetH/nodeH), MaxPrintScale)
}

// FitSize scales w x h so the longer side equals maxSize.
func FitSize(w, h, maxSize int) (int, int) {
	if w <= 0 || h <= 0 {
		return maxSize, maxSize
	}
	if w >= h {
		return maxSize, max(1, int(math.Round(float64(h)*float64(maxSize)/float64(w))))
	}
	return max(1, int(math.Round(float64(w)*float64(maxSize)/float64(h)))), maxSize
}

func (r *Rasterizer) render(ctx context.Context, kind string, root *Node, opts Options) (Result, error) {
	start := time.Now()
	defer func() { metrics.RenderDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds()) }()

	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.Quality <= 0 {
		opts.Quality = DefaultQuality
	}
	if opts.Format == "" {
		opts.Format = FormatJPEG
	}
	img, err := r.rasterize(ctx, root, opts.Scale, opts.Background)
	if err != nil {
		return Result{}, err
	}
	return encode(img, opts.Format, opts.Quality)
}

func (r *Rasterizer) rasterize(ctx context.Context, root *Node, scale float64, background string) (*image.RGBA, error) {
	if root == nil {
		return nil, &RenderError{Op: "rasterize", Err: errors.New("nil scene")}
	}
	w := int(math.Ceil(root.W * scale))
	h := int(math.Ceil(root.H * scale))
	if w <= 0 || h <= 0 {
		return nil, &RenderError{Op: "rasterize", Err: fmt.Errorf("empty scene %gx%g", root.W, root.H)}
	}

	images, err := r.loadImages(ctx, root)
	if err != nil {
		return nil, err
	}

	bg := color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	if background != "" {
		c, err := ParseColor(background)
		if err != nil {
			return nil, &RenderError{Op: "rasterize", Err: err}
		}
		bg = c
	}
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	p := painter{dst: canvas, scale: scale, images: images, font: r.font, faces: map[float64]font.Face{}, logger: r.logger}
	defer p.close()
	p.paint(root, 0, 0)
	return canvas, nil
}

// loadImages fetches every image in the capture concurrently and waits for
// all of them. Failed loads are logged and left out of the result.
func (r *Rasterizer) loadImages(ctx context.Context, root *Node) (map[*ImageRef]image.Image, error) {
	var refs []*ImageRef
	root.Walk(func(n *Node) bool {
		if n.Exclude {
			return false
		}
		if n.Image != nil && n.Image.URL != "" {
			refs = append(refs, n.Image)
		}
		return true
	})

	var mu sync.Mutex
	out := make(map[*ImageRef]image.Image, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, ref := range refs {
		g.Go(func() error {
			img, err := r.loader.Load(gctx, ref.URL)
			if err != nil {
				metrics.ImageLoadFailures.Inc()
				r.logger.Warn().Err(err).Str("url", ref.URL).Msg("skipping image that failed to load")
				return nil
			}
			mu.Lock()
			out[ref] = img
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, &RenderError{Op: "load images", Err: err}
	}
	return out, nil
}

type painter struct {
	dst    *image.RGBA
	scale  float64
	images map[*ImageRef]image.Image
	font   *opentype.Font
	faces  map[float64]font.Face
	logger zerolog.Logger
}

func (p *painter) paint(n *Node, ox, oy float64) {
	if n.Exclude {
		return
	}
	x, y := ox+n.X, oy+n.Y
	rect := image.Rect(
		int(math.Round(x*p.scale)), int(math.Round(y*p.scale)),
		int(math.Round((x+n.W)*p.scale)), int(math.Round((y+n.H)*p.scale)),
	)

	if n.Fill != "" {
		if c, err := ParseColor(n.Fill); err == nil {
			draw.Draw(p.dst, rect, image.NewUniform(c), image.Point{}, draw.Over)
		} else {
			p.logger.Debug().Err(err).Msg("ignoring fill")
		}
	}
	if n.Image != nil {
		if img, ok := p.images[n.Image]; ok {
			draw.ApproxBiLinear.Scale(p.dst, rect, img, img.Bounds(), draw.Over, nil)
		}
	}
	if n.Text != nil && n.Text.Content != "" {
		p.text(n.Text, rect)
	}
	for _, c := range n.Children {
		p.paint(c, x, y)
	}
}

func (p *painter) text(t *Text, rect image.Rectangle) {
	size := t.Size * p.scale
	if size <= 0 {
		return
	}
	face, err := p.face(size)
	if err != nil {
		p.logger.Debug().Err(err).Msg("skipping text")
		return
	}
	col := color.NRGBA{A: 0xff}
	if t.Color != "" {
		if c, err := ParseColor(t.Color); err == nil {
			col = c
		}
	}

	d := font.Drawer{Dst: p.dst, Src: image.NewUniform(col), Face: face}
	width := d.MeasureString(t.Content).Ceil()
	x := rect.Min.X
	switch t.Align {
	case AlignCenter:
		x += (rect.Dx() - width) / 2
	case AlignRight:
		x = rect.Max.X - width
	}
	ascent := face.Metrics().Ascent.Ceil()
	d.Dot = fixed.P(x, rect.Min.Y+ascent)
	d.DrawString(t.Content)
}

func (p *painter) face(size float64) (font.Face, error) {
	if f, ok := p.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(p.font, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, err
	}
	p.faces[size] = f
	return f, nil
}

func (p *painter) close() {
	for _, f := range p.faces {
		_ = f.Close()
	}
}

func encode(img image.Image, format Format, quality int) (Result, error) {
	var buf bytes.Buffer
	switch format {
	case FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return Result{}, &RenderError{Op: "encode png", Err: err}
		}
	case FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return Result{}, &RenderError{Op: "encode jpeg", Err: err}
		}
	default:
		return Result{}, &RenderError{Op: "encode", Err: fmt.Errorf("unsupported format %q", format)}
	}
	blob := buf.Bytes()
	b := img.Bounds()
	return Result{
		DataURL:     DataURI(format.ContentType(), blob),
		Blob:        blob,
		ContentType: format.ContentType(),
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}
