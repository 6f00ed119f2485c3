package binding

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"strings"

	"github.com/fogleman/gg"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

const defaultQRSize = 160

// QRStyle controls the rendered verification image. Zero values fall back
// to a black-on-white square of defaultQRSize.
type QRStyle struct {
	Size       int
	Foreground string
	Background string
}

func (s QRStyle) size() int {
	if s.Size <= 0 {
		return defaultQRSize
	}
	return s.Size
}

func (e *engine) RegenerateVerificationImage(ctx context.Context, certificateID uuid.UUID, style QRStyle) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return placeholderImage(style.size()), err
	}

	q, err := qrcode.New(e.VerificationURL(certificateID), qrcode.Medium)
	if err != nil {
		e.log.Warn("qr encode failed, using placeholder", "certificate_id", certificateID.String(), "error", err)
		return placeholderImage(style.size()), nil
	}
	q.ForegroundColor = parseHexColor(style.Foreground, color.NRGBA{A: 255})
	q.BackgroundColor = parseHexColor(style.Background, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	data, err := q.PNG(style.size())
	if err != nil {
		e.log.Warn("qr render failed, using placeholder", "certificate_id", certificateID.String(), "error", err)
		return placeholderImage(style.size()), nil
	}
	return data, nil
}

// placeholderImage is the neutral stand-in drawn when QR generation fails:
// a light gray square with a darker border.
func placeholderImage(size int) []byte {
	dc := gg.NewContext(size, size)
	dc.SetColor(color.NRGBA{R: 235, G: 235, B: 235, A: 255})
	dc.Clear()
	dc.SetColor(color.NRGBA{R: 180, G: 180, B: 180, A: 255})
	dc.SetLineWidth(2)
	dc.DrawRectangle(1, 1, float64(size)-2, float64(size)-2)
	dc.Stroke()

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil
	}
	return buf.Bytes()
}

func parseHexColor(s string, def color.NRGBA) color.NRGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return def
	}
	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		hi, ok1 := hexDigit(s[i*2])
		lo, ok2 := hexDigit(s[i*2+1])
		if !ok1 || !ok2 {
			return def
		}
		rgb[i] = hi<<4 | lo
	}
	return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}
}

func hexDigit(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}
