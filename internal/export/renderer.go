package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/openattest/certgen-backend/internal/binding"
	"github.com/openattest/certgen-backend/internal/domain"
	"github.com/openattest/certgen-backend/internal/platform/logger"
)

// Exporter turns a materialized artifact into its deliverable blob.
type Exporter interface {
	Render(ctx context.Context, artifact *binding.MaterializedArtifact) ([]byte, error)
}

type pngExporter struct {
	log  *logger.Logger
	font *truetype.Font
}

// NewPNGExporter loads the TTF at fontPath once and reuses it for every
// render. An empty fontPath falls back to the built-in bitmap face, which
// keeps rendering functional in environments without font assets.
func NewPNGExporter(baseLog *logger.Logger, fontPath string) (Exporter, error) {
	exporterLog := baseLog.With("component", "PNGExporter")

	var parsed *truetype.Font
	if strings.TrimSpace(fontPath) != "" {
		fontBytes, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		parsed, err = truetype.Parse(fontBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TTF: %w", err)
		}
	} else {
		exporterLog.Warn("no certificate font configured, using built-in face")
	}

	return &pngExporter{log: exporterLog, font: parsed}, nil
}

func (e *pngExporter) Render(ctx context.Context, artifact *binding.MaterializedArtifact) ([]byte, error) {
	if artifact == nil {
		return nil, fmt.Errorf("nil artifact")
	}
	if artifact.Width <= 0 || artifact.Height <= 0 {
		return nil, fmt.Errorf("artifact has invalid dimensions %dx%d", artifact.Width, artifact.Height)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dc := gg.NewContext(artifact.Width, artifact.Height)
	dc.SetColor(color.White)
	dc.Clear()

	for _, node := range artifact.Nodes {
		switch node.Kind {
		case domain.NodeKindVerification:
			if err := e.drawImageNode(dc, node); err != nil {
				return nil, fmt.Errorf("draw verification node %s: %w", node.ID, err)
			}
		default:
			e.drawTextNode(dc, node)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// drawTextNode centers the node's text on its (x, y) anchor point.
func (e *pngExporter) drawTextNode(dc *gg.Context, node binding.ResolvedNode) {
	text := node.Text
	if text == "" {
		return
	}

	size := node.FontSize
	if size <= 0 {
		size = 24
	}
	dc.SetFontFace(e.face(size))
	dc.SetColor(parseColor(node.FontColor))

	tw, th := dc.MeasureString(text)
	dc.DrawString(text, node.X-tw/2, node.Y+th/2)
}

func (e *pngExporter) drawImageNode(dc *gg.Context, node binding.ResolvedNode) error {
	if len(node.Image) == 0 {
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(node.Image))
	if err != nil {
		return err
	}

	size := node.Size
	if size <= 0 {
		size = img.Bounds().Dx()
	}
	if img.Bounds().Dx() != size || img.Bounds().Dy() != size {
		dst := image.NewRGBA(image.Rect(0, 0, size, size))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
		img = dst
	}

	dc.DrawImageAnchored(img, int(node.X), int(node.Y), 0.5, 0.5)
	return nil
}

func (e *pngExporter) face(size float64) font.Face {
	if e.font == nil {
		return basicfont.Face7x13
	}
	return truetype.NewFace(e.font, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

func parseColor(hex string) color.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return color.Black
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.Black
	}
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
