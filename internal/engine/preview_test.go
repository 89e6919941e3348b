package engine

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bouquet-builder-backend/internal/domain"
)

func testPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func layerServer(t *testing.T) *httptest.Server {
	t.Helper()
	red := testPNG(t, color.RGBA{R: 255, A: 255})
	blue := testPNG(t, color.RGBA{B: 255, A: 255})

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/uploads/red.png":
			w.Write(red)
		case "/uploads/blue.png":
			w.Write(blue)
		case "/uploads/broken.png":
			http.NotFound(w, r)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestRenderCompositesStack(t *testing.T) {
	srv := layerServer(t)
	defer srv.Close()

	r := &PreviewRenderer{BaseURL: srv.URL, Width: 8, Height: 8}
	out, err := r.Render(context.Background(), []domain.Layer{
		{URL: "/uploads/red.png"},
		{URL: "/uploads/blue.png"},
	})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())

	// верхний слой непрозрачный — в центре должен быть синий
	_, _, b, _ := img.At(4, 4).RGBA()
	assert.NotZero(t, b)
}

func TestRenderPartialStack(t *testing.T) {
	srv := layerServer(t)
	defer srv.Close()

	r := &PreviewRenderer{BaseURL: srv.URL, Width: 8, Height: 8}

	// битые, нерисуемые и отсутствующие слои пропускаются, рендер не падает
	out, err := r.Render(context.Background(), []domain.Layer{
		{URL: "/uploads/red.png"},
		{URL: "/uploads/broken.png"},
		{URL: domain.PlaceholderLayerURL},
		{URL: "attachment://42"},
	})
	require.NoError(t, err)

	_, err = png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
}

func TestRenderEmptyStack(t *testing.T) {
	r := &PreviewRenderer{}
	out, err := r.Render(context.Background(), nil)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())
}

func TestRenderStaleness(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	red := testPNG(t, color.RGBA{R: 255, A: 255})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/uploads/slow.png" {
			close(started)
			<-release
		}
		w.Write(red)
	}))
	defer srv.Close()

	r := &PreviewRenderer{BaseURL: srv.URL, Width: 8, Height: 8}

	firstDone := make(chan error, 1)
	go func() {
		_, err := r.Render(context.Background(), []domain.Layer{{URL: "/uploads/slow.png"}})
		firstDone <- err
	}()
	<-started

	// второй проход обгоняет первый
	_, err := r.Render(context.Background(), []domain.Layer{{URL: "/uploads/fast.png"}})
	require.NoError(t, err)

	close(release)
	assert.ErrorIs(t, <-firstDone, ErrStalePreview)
}

func TestFetchLayerURLResolution(t *testing.T) {
	r := &PreviewRenderer{}

	_, err := r.fetchLayer(context.Background(), "/uploads/a.png")
	assert.Error(t, err) // относительный URL без BaseURL

	_, err = r.fetchLayer(context.Background(), "ftp://example.com/a.png")
	assert.Error(t, err)

	_, err = r.fetchLayer(context.Background(), "")
	assert.Error(t, err)
}
