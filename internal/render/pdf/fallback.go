package pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/signintech/gopdf"
)

// Point-space page box matching the external renderer's.
const (
	mmToPt     = 72.0 / 25.4
	pageWidth  = PageWidthMM * mmToPt
	pageHeight = PageHeightMM * mmToPt
	margin     = 20.0
)

// FallbackRenderer composes ticket pages directly with drawing primitives.
// It needs no external process and no template; an error here is fatal for
// the render request.
type FallbackRenderer struct {
	FontDir string
}

func NewFallbackRenderer(fontDir string) *FallbackRenderer {
	return &FallbackRenderer{FontDir: fontDir}
}

// Render composes one fixed-layout page per variable context, in input order.
func (r *FallbackRenderer) Render(contexts []map[string]string) ([]byte, error) {
	if len(contexts) == 0 {
		return nil, fmt.Errorf("fallback render failed: no ticket contexts")
	}

	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: gopdf.Rect{W: pageWidth, H: pageHeight}})

	if err := pdf.AddTTFFont("dejavu", filepath.Join(r.FontDir, "DejaVuSans.ttf")); err != nil {
		return nil, fmt.Errorf("fallback render failed to load font: %w", err)
	}
	if err := pdf.AddTTFFont("dejavu-bold", filepath.Join(r.FontDir, "DejaVuSans-Bold.ttf")); err != nil {
		return nil, fmt.Errorf("fallback render failed to load bold font: %w", err)
	}

	for _, vars := range contexts {
		if err := composePage(pdf, vars); err != nil {
			return nil, fmt.Errorf("fallback render failed: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("fallback render failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func composePage(pdf *gopdf.GoPdf, vars map[string]string) error {
	pdf.AddPage()

	y := margin
	y = drawLogo(pdf, vars["logo"], y)

	if err := pdf.SetFont("dejavu-bold", "", 15); err != nil {
		return err
	}
	pdf.SetTextColor(20, 20, 20)
	y += 14
	if err := drawCentered(pdf, fallbackText(vars["experienceTitle"], "Your Ticket"), y); err != nil {
		return err
	}
	y += 22

	if err := pdf.SetFont("dejavu", "", 10); err != nil {
		return err
	}
	pdf.SetTextColor(90, 90, 90)
	if dateLine := composeDateLine(vars); dateLine != "" {
		if err := drawCentered(pdf, dateLine, y); err != nil {
			return err
		}
		y += 14
	}
	if vars["timeRange"] != "" {
		if err := drawCentered(pdf, vars["timeRange"], y); err != nil {
			return err
		}
		y += 14
	}

	y += 8
	pdf.SetStrokeColor(220, 220, 220)
	pdf.SetLineWidth(0.6)
	pdf.Line(margin, y, pageWidth-margin, y)
	y += 14

	rows := []struct {
		label string
		value string
	}{
		{"Passenger", vars["explorerName"]},
		{"Booking Reference", vars["bookingRef"]},
		{"Seat", seatLabel(vars)},
		{"Boarding Time", vars["startTime"]},
		{"Ticket Code", vars["ticketCode"]},
		{"Meeting Point", vars["location"]},
	}
	for _, row := range rows {
		if err := pdf.SetFont("dejavu-bold", "", 7); err != nil {
			return err
		}
		pdf.SetTextColor(130, 130, 130)
		pdf.SetX(margin)
		pdf.SetY(y)
		if err := pdf.Cell(nil, strings.ToUpper(row.label)); err != nil {
			return err
		}
		y += 10

		if err := pdf.SetFont("dejavu", "", 10); err != nil {
			return err
		}
		pdf.SetTextColor(20, 20, 20)
		pdf.SetX(margin)
		pdf.SetY(y)
		if err := pdf.Cell(nil, fallbackText(row.value, "-")); err != nil {
			return err
		}
		y += 18
	}

	return drawBarcode(pdf, vars)
}

// drawLogo draws the brand mark centered at the top and returns the next
// free y position. A missing logo just collapses the block.
func drawLogo(pdf *gopdf.GoPdf, dataURI string, y float64) float64 {
	img, ok := decodeDataURI(dataURI)
	if !ok {
		return y
	}

	bounds := img.Bounds()
	if bounds.Dy() == 0 {
		return y
	}

	height := 28.0
	width := height * float64(bounds.Dx()) / float64(bounds.Dy())
	if max := pageWidth - 2*margin; width > max {
		width = max
	}

	if err := pdf.ImageFrom(img, (pageWidth-width)/2, y, &gopdf.Rect{W: width, H: height}); err != nil {
		return y
	}
	return y + height
}

// drawBarcode places the full-width barcode near the bottom. The raster
// already carries the human-readable code; only when the barcode is missing
// does the code get drawn as plain text.
func drawBarcode(pdf *gopdf.GoPdf, vars map[string]string) error {
	y := pageHeight - 105

	img, ok := decodeDataURI(vars["barcode"])
	if !ok {
		if vars["ticketCode"] == "" {
			return nil
		}
		if err := pdf.SetFont("dejavu-bold", "", 9); err != nil {
			return err
		}
		pdf.SetTextColor(20, 20, 20)
		return drawCentered(pdf, vars["ticketCode"], y)
	}

	width := pageWidth - 2*margin
	height := width * float64(img.Bounds().Dy()) / float64(img.Bounds().Dx())
	return pdf.ImageFrom(img, margin, y, &gopdf.Rect{W: width, H: height})
}

func drawCentered(pdf *gopdf.GoPdf, text string, y float64) error {
	width, err := pdf.MeasureTextWidth(text)
	if err != nil {
		return err
	}
	x := (pageWidth - width) / 2
	if x < margin {
		x = margin
	}
	pdf.SetX(x)
	pdf.SetY(y)
	return pdf.Cell(nil, text)
}

func composeDateLine(vars map[string]string) string {
	if vars["weekday"] == "" {
		return vars["reservationDate"]
	}
	return fmt.Sprintf("%s, %s %s %s", vars["weekday"], vars["day"], vars["month"], vars["year"])
}

func seatLabel(vars map[string]string) string {
	if vars["seatNumber"] == "" {
		return ""
	}
	if vars["guests"] == "" || vars["guests"] == "0" {
		return vars["seatNumber"]
	}
	return fmt.Sprintf("%s of %s", vars["seatNumber"], vars["guests"])
}

func fallbackText(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func decodeDataURI(dataURI string) (image.Image, bool) {
	if !strings.HasPrefix(dataURI, "data:") {
		return nil, false
	}
	_, payload, found := strings.Cut(dataURI, ";base64,")
	if !found {
		return nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, false
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, false
	}
	return img, true
}
