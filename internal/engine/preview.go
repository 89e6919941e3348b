package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	_ "image/gif"
	_ "image/jpeg"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bouquet-builder-backend/internal/domain"
)

// ErrStalePreview — пока шёл рендер, был выпущен более новый проход;
// устаревший результат отбрасывается и не должен попадать на экран
var ErrStalePreview = errors.New("preview pass superseded")

// PreviewRenderer собирает серверное превью: скачивает картинки стека
// параллельно и рисует их по порядку. Порядок завершения загрузок
// на результат не влияет — позиция слоя задана индексом в стеке.
type PreviewRenderer struct {
	Client  *http.Client
	BaseURL string // для относительных /uploads/... ссылок
	Width   int
	Height  int
	Log     *zap.SugaredLogger

	seq atomic.Uint64
}

func (r *PreviewRenderer) size() (int, int) {
	w, h := r.Width, r.Height
	if w <= 0 {
		w = 600
	}
	if h <= 0 {
		h = 600
	}
	return w, h
}

func (r *PreviewRenderer) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// Render выполняет один проход отрисовки. Загрузки идут независимо,
// отказ одной картинки не отменяет остальные — частичный стек лучше
// пустого. Если за время прохода стартовал новый, результат отбрасывается
// с ErrStalePreview.
func (r *PreviewRenderer) Render(ctx context.Context, stack []domain.Layer) ([]byte, error) {
	pass := r.seq.Add(1)

	images := make([]image.Image, len(stack))
	g, gctx := errgroup.WithContext(ctx)
	for i, layer := range stack {
		i, url := i, layer.URL
		g.Go(func() error {
			img, err := r.fetchLayer(gctx, url)
			if err != nil {
				if r.Log != nil {
					r.Log.Warnf("preview: layer %d (%s) skipped: %v", i, url, err)
				}
				return nil
			}
			images[i] = img
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.seq.Load() != pass {
		return nil, ErrStalePreview
	}

	w, h := r.size()
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	for _, img := range images {
		if img != nil {
			drawScaled(canvas, img)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *PreviewRenderer) fetchLayer(ctx context.Context, rawURL string) (image.Image, error) {
	url := strings.TrimSpace(rawURL)
	switch {
	case url == "", url == domain.PlaceholderLayerURL, strings.HasPrefix(url, "attachment://"):
		return nil, fmt.Errorf("no fetchable url")
	case strings.HasPrefix(url, "//"):
		url = "https:" + url
	case strings.HasPrefix(url, "/"):
		if r.BaseURL == "" {
			return nil, fmt.Errorf("relative url without base")
		}
		url = strings.TrimSuffix(r.BaseURL, "/") + url
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("unsupported url scheme")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

// drawScaled растягивает слой на весь холст (ближайший сосед)
// и накладывает поверх с учётом альфы
func drawScaled(dst *image.RGBA, src image.Image) {
	b := dst.Bounds()
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return
	}

	scaled := image.NewRGBA(b)
	for y := 0; y < b.Dy(); y++ {
		sy := sb.Min.Y + y*sb.Dy()/b.Dy()
		for x := 0; x < b.Dx(); x++ {
			sx := sb.Min.X + x*sb.Dx()/b.Dx()
			scaled.Set(b.Min.X+x, b.Min.Y+y, src.At(sx, sy))
		}
	}

	draw.Draw(dst, b, scaled, b.Min, draw.Over)
}
