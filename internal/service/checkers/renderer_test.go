package checkers

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	core "github.com/park285/Cheese-Checkers-bot/internal/checkers"
)

func TestRenderPNGStartingBoard(t *testing.T) {
	r := NewSVGBoardRenderer()
	from := core.Square(17)
	data, err := r.RenderPNG(context.Background(), core.StartingBoard(), RenderOptions{
		Selected:     &from,
		Destinations: []core.Square{24, 26},
		HUDHeader:    "tester",
		HUDTurn:      "dark to move",
	})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 64*8+sideMargin*2 || b.Dy() != 64*8+topMargin+bottomMargin {
		t.Fatalf("unexpected size %v", b)
	}
}

func TestRenderPNGNilBoard(t *testing.T) {
	if _, err := NewSVGBoardRenderer().RenderPNG(context.Background(), nil, RenderOptions{}); err == nil {
		t.Fatalf("expected error for nil board")
	}
}

func TestRenderPNGCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSVGBoardRenderer().RenderPNG(ctx, core.StartingBoard(), RenderOptions{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestPieceAssetsParse(t *testing.T) {
	for _, c := range []core.Color{core.Dark, core.Light} {
		img, err := renderPieceImage(c, 40)
		if err != nil {
			t.Fatalf("%s: %v", c, err)
		}
		if img.Bounds().Dx() != 40 {
			t.Fatalf("%s: size %v", c, img.Bounds())
		}
	}
}
