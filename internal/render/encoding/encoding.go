package encoding

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Raster sizes are chosen for print reproduction; both codes end up roughly
// 80mm wide on the ticket, so ~300dpi needs at least ~950px.
const (
	barcodeWidth  = 1200
	barcodeHeight = 240
	barHeight     = 190
	captionScale  = 3
	qrSize        = 512
)

// RenderBarcode encodes the payload as a Code 128 PNG, bars on top and the
// human-readable code beneath them. The scaled bars are redrawn onto an
// 8-bit canvas; PDF backends reject the 16-bit grayscale the scaler emits.
func RenderBarcode(payload string) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("barcode payload is empty")
	}

	code, err := code128.Encode(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode barcode: %w", err)
	}

	scaled, err := barcode.Scale(code, barcodeWidth, barHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to scale barcode: %w", err)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, barcodeWidth, barcodeHeight))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, 0, barcodeWidth, barHeight), scaled, image.Point{}, draw.Src)
	drawCaption(canvas, payload)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode barcode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// drawCaption centers the payload text in the strip beneath the bars.
func drawCaption(dst *image.RGBA, text string) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	if width == 0 {
		return
	}

	strip := image.NewRGBA(image.Rect(0, 0, width, face.Height))
	draw.Draw(strip, strip.Bounds(), image.White, image.Point{}, draw.Src)
	drawer := font.Drawer{
		Dst:  strip,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	drawer.DrawString(text)

	scaledW := width * captionScale
	scaledH := face.Height * captionScale
	x := (barcodeWidth - scaledW) / 2
	if x < 0 {
		x = 0
	}
	y := barHeight + (barcodeHeight-barHeight-scaledH)/2
	band := image.Rect(x, y, x+scaledW, y+scaledH)
	xdraw.NearestNeighbor.Scale(dst, band, strip, strip.Bounds(), xdraw.Src, nil)
}

// RenderQR encodes the payload as a QR PNG with medium error correction.
func RenderQR(payload string) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("qr payload is empty")
	}

	data, err := qrcode.Encode(payload, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR: %w", err)
	}
	return data, nil
}
