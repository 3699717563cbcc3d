package checkers

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	core "github.com/park285/Cheese-Checkers-bot/internal/checkers"
)

//go:embed assets/pieces/*.svg
var pieceFiles embed.FS

// pieceSprites holds rasterized men keyed by color and pixel size.
var pieceSprites sync.Map

type spriteKey struct {
	color core.Color
	size  int
}

func renderPieceImage(c core.Color, size int) (image.Image, error) {
	if size <= 0 {
		return nil, fmt.Errorf("piece size %d", size)
	}
	key := spriteKey{c, size}
	if img, ok := pieceSprites.Load(key); ok {
		return img.(image.Image), nil
	}

	file := "assets/pieces/dark.svg"
	if c == core.Light {
		file = "assets/pieces/light.svg"
	}
	src, err := pieceFiles.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("piece asset %s: %w", file, err)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(src), oksvg.WarnErrorMode)
	if err != nil {
		return nil, fmt.Errorf("piece asset %s: %w", file, err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	// a fresh RGBA is fully transparent
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	icon.Draw(rasterx.NewDasher(size, size, rasterx.NewScannerGV(size, size, img, img.Bounds())), 1)

	actual, _ := pieceSprites.LoadOrStore(key, image.Image(img))
	return actual.(image.Image), nil
}
