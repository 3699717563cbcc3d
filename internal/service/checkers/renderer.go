package checkers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	core "github.com/park285/Cheese-Checkers-bot/internal/checkers"
)

// RenderOptions decorates the board picture. Zero values draw nothing extra.
type RenderOptions struct {
	Selected     *core.Square
	Destinations []core.Square
	LastMove     *core.Move
	Score        core.Score
	HUDHeader    string
	HUDTurn      string
	// Flip draws the board from Light's side.
	Flip         bool
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, board *core.Board, opts RenderOptions) ([]byte, error)
}

type svgBoardRenderer struct {
	squareSize int
}

func NewSVGBoardRenderer() BoardRenderer {
	return &svgBoardRenderer{squareSize: 64}
}

const (
	sideMargin   = 28
	topMargin    = 64
	bottomMargin = 28
	pieceInset   = 6
)

var (
	lightSquare         = color.RGBA{240, 217, 181, 255}
	darkSquare          = color.RGBA{102, 140, 86, 255}
	backgroundColor     = color.RGBA{28, 31, 46, 255}
	selectedColor       = color.NRGBA{R: 255, G: 228, B: 120, A: 150}
	destinationColor    = color.NRGBA{R: 148, G: 207, B: 255, A: 150}
	lastMoveColor       = color.NRGBA{R: 182, G: 184, B: 190, A: 110}
	hudTextPrimary      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTextSecondary    = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

func (r *svgBoardRenderer) RenderPNG(ctx context.Context, board *core.Board, opts RenderOptions) ([]byte, error) {
	if board == nil {
		return nil, fmt.Errorf("board is nil")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	sq := r.squareSize
	boardPx := sq * core.BoardSize
	img := image.NewRGBA(image.Rect(0, 0, boardPx+sideMargin*2, boardPx+topMargin+bottomMargin))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	g := boardGeometry{size: sq, origin: image.Point{X: sideMargin, Y: topMargin}, flip: opts.Flip}
	drawSquares(img, g)
	if opts.LastMove != nil {
		fillSquare(img, g, opts.LastMove.From, lastMoveColor)
		fillSquare(img, g, opts.LastMove.To, lastMoveColor)
	}
	if opts.Selected != nil {
		fillSquare(img, g, *opts.Selected, selectedColor)
	}
	for _, d := range opts.Destinations {
		fillSquare(img, g, d, destinationColor)
	}
	if err := drawPieces(img, g, board); err != nil {
		return nil, err
	}
	drawCoordinates(img, g)
	drawHUD(img, opts)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

type boardGeometry struct {
	size   int
	origin image.Point
	flip   bool
}

// cell returns the on-screen column and row of a board position. Without
// flip, row 7 is drawn at the top.
func (g boardGeometry) cell(row, col int) (int, int) {
	if g.flip {
		return core.BoardSize - 1 - col, row
	}
	return col, core.BoardSize - 1 - row
}

func (g boardGeometry) rect(s core.Square) image.Rectangle {
	x, y := g.cell(s.Row(), s.Col())
	px := g.origin.X + x*g.size
	py := g.origin.Y + y*g.size
	return image.Rect(px, py, px+g.size, py+g.size)
}

func drawSquares(dst imagedraw.Image, g boardGeometry) {
	for i := 0; i < core.NumCells; i++ {
		s := core.Square(i)
		clr := lightSquare
		if core.IsPlayable(s) {
			clr = darkSquare
		}
		imagedraw.Draw(dst, g.rect(s), image.NewUniform(clr), image.Point{}, imagedraw.Src)
	}
}

func fillSquare(dst imagedraw.Image, g boardGeometry, s core.Square, clr color.Color) {
	if !s.Valid() {
		return
	}
	imagedraw.Draw(dst, g.rect(s), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawPieces(dst imagedraw.Image, g boardGeometry, board *core.Board) error {
	pieceSize := g.size - pieceInset*2
	for i := 0; i < core.NumCells; i++ {
		s := core.Square(i)
		p, ok := board.Occupant(s)
		if !ok {
			continue
		}
		pieceImg, err := renderPieceImage(p.Color, pieceSize)
		if err != nil {
			return err
		}
		rect := g.rect(s).Inset(pieceInset)
		imagedraw.Draw(dst, rect, pieceImg, image.Point{}, imagedraw.Over)
	}
	return nil
}

func drawCoordinates(dst imagedraw.Image, g boardGeometry) {
	face := basicfont.Face7x13
	bottom := g.origin.Y + g.size*core.BoardSize + 18
	for i := 0; i < core.BoardSize; i++ {
		x, _ := g.cell(0, i)
		_, y := g.cell(i, 0)
		drawText(dst, face, string(rune('a'+i)), g.origin.X+x*g.size+g.size/2-3, bottom, coordinateTextColor)
		drawText(dst, face, string(rune('1'+i)), g.origin.X-16, g.origin.Y+y*g.size+g.size/2+5, coordinateTextColor)
	}
}

func drawHUD(dst imagedraw.Image, opts RenderOptions) {
	face := basicfont.Face7x13
	header := opts.HUDHeader
	if header == "" {
		header = "Checkers"
	}
	drawText(dst, face, header, sideMargin, 24, hudTextPrimary)

	score := fmt.Sprintf("captured  dark %d / light %d", opts.Score.CapturedDark, opts.Score.CapturedLight)
	drawText(dst, face, score, sideMargin, 46, hudTextSecondary)

	if opts.HUDTurn != "" {
		width := font.MeasureString(face, opts.HUDTurn).Ceil()
		x := dst.Bounds().Dx() - sideMargin - width
		drawText(dst, face, opts.HUDTurn, x, 46, hudTextPrimary)
	}
}

func drawText(dst imagedraw.Image, face font.Face, text string, x, y int, clr color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(clr),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
