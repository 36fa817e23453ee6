package variables

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ticket-engine/internal/logger"
	"ticket-engine/internal/models"
	"ticket-engine/internal/render/assets"
	"ticket-engine/internal/render/encoding"
)

// Local fallbacks under the asset root, used when an experience carries no
// usable image reference.
const (
	logoFallback    = "logo.png"
	patternFallback = "pattern.png"
	coverFallback   = "placeholder.png"
)

// Builder projects a ticket and its booking graph into the flat string map
// consumed by the template engine and the programmatic renderer. Every value
// is a plain string; missing data becomes "" rather than an error.
type Builder struct {
	Assets  *assets.Resolver
	BaseURL string
	Logger  *logger.Logger
}

func NewBuilder(resolver *assets.Resolver, baseURL string, log *logger.Logger) *Builder {
	return &Builder{Assets: resolver, BaseURL: baseURL, Logger: log}
}

func (b *Builder) Build(ctx context.Context, ticket models.Ticket, booking *models.Booking) map[string]string {
	vars := map[string]string{
		"ticketCode": ticket.Code,
		"seatNumber": strconv.Itoa(ticket.SeatNumber),
	}

	if booking == nil {
		booking = &models.Booking{}
	}

	exp := booking.Experience
	if exp == nil {
		exp = &models.Experience{}
	}
	session := booking.Session
	explorer := booking.Explorer
	if explorer == nil {
		explorer = &models.Explorer{}
	}

	vars["bookingRef"] = booking.ID
	vars["guests"] = strconv.Itoa(booking.Guests)
	vars["experienceTitle"] = exp.Title
	vars["organizerName"] = exp.OrganizerName
	vars["explorerName"] = explorer.Name
	vars["explorerEmail"] = explorer.Email

	if !booking.CreatedAt.IsZero() {
		vars["reservationDate"] = booking.CreatedAt.Format("02 January 2006")
	} else {
		vars["reservationDate"] = ""
	}

	b.applySchedule(vars, session, exp)

	vars["price"] = FormatPrice(EffectivePrice(session, exp), exp.Currency)
	vars["location"] = EffectiveLocation(session, exp)
	vars["experienceUrl"] = ExperienceURL(b.BaseURL, exp.Slug)

	vars["logo"] = b.Assets.Resolve(ctx, "", logoFallback).DataURI()
	vars["pattern"] = b.Assets.Resolve(ctx, "", patternFallback).DataURI()
	vars["coverImage"] = b.Assets.Resolve(ctx, exp.HeroImage, coverFallback).DataURI()

	vars["barcode"] = b.encodeBarcode(ticket.Code)
	vars["qr"] = b.encodeQR(vars["experienceUrl"])

	return vars
}

// applySchedule fills the date/time variables from the session start and the
// effective duration. Everything is formatted in a fixed English 24-hour style.
func (b *Builder) applySchedule(vars map[string]string, session *models.Session, exp *models.Experience) {
	for _, key := range []string{"weekday", "day", "month", "year", "startTime", "endTime", "timeRange", "duration"} {
		vars[key] = ""
	}

	if session == nil || session.StartAt.IsZero() {
		return
	}

	start := session.StartAt.UTC()
	minutes := EffectiveDurationMinutes(session, exp)
	end := start.Add(time.Duration(minutes) * time.Minute)

	vars["weekday"] = start.Format("Monday")
	vars["day"] = start.Format("02")
	vars["month"] = start.Format("January")
	vars["year"] = start.Format("2006")
	vars["startTime"] = start.Format("15:04")
	vars["endTime"] = end.Format("15:04")
	vars["timeRange"] = fmt.Sprintf("%s to %s", start.Format("15:04"), end.Format("15:04"))
	if minutes > 0 {
		vars["duration"] = FormatDurationLabel(minutes)
	}
}

// EffectiveDurationMinutes resolves the session duration, falling back to the
// experience duration when the session label is absent or unparseable.
func EffectiveDurationMinutes(session *models.Session, exp *models.Experience) int {
	if session != nil {
		if minutes, ok := ParseDurationLabel(session.Duration); ok {
			return minutes
		}
	}
	if exp != nil {
		if minutes, ok := ParseDurationLabel(exp.Duration); ok {
			return minutes
		}
	}
	return 0
}

// EffectivePrice resolves the per-spot price: session override wins over the
// experience base price.
func EffectivePrice(session *models.Session, exp *models.Experience) float64 {
	if session != nil && session.PriceOverride != nil {
		return *session.PriceOverride
	}
	if exp != nil {
		return exp.Price
	}
	return 0
}

// FormatPrice renders "AMOUNT CURRENCY / Spot" with two decimals, or "" when
// no positive price is resolvable.
func FormatPrice(amount float64, currency string) string {
	if amount <= 0 {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%.2f %s", amount, currency)) + " / Spot"
}

// EffectiveLocation picks the first non-empty label: session meeting address,
// session location label, experience meeting address, experience location.
func EffectiveLocation(session *models.Session, exp *models.Experience) string {
	candidates := []string{}
	if session != nil {
		candidates = append(candidates, session.MeetingAddress, session.LocationLabel)
	}
	if exp != nil {
		candidates = append(candidates, exp.MeetingAddress, exp.Location)
	}
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return ""
}

// ExperienceURL builds the public experience link, or "" when there is no slug.
func ExperienceURL(baseURL, slug string) string {
	if slug == "" || baseURL == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/experiences/" + slug
}

func (b *Builder) encodeBarcode(code string) string {
	if code == "" {
		return ""
	}
	data, err := encoding.RenderBarcode(code)
	if err != nil {
		if b.Logger != nil {
			b.Logger.Warn("RENDER", fmt.Sprintf("Barcode generation failed for %s: %v", code, err))
		}
		return ""
	}
	return assets.Asset{Bytes: data, MIME: "image/png"}.DataURI()
}

func (b *Builder) encodeQR(payload string) string {
	if payload == "" {
		return ""
	}
	data, err := encoding.RenderQR(payload)
	if err != nil {
		if b.Logger != nil {
			b.Logger.Warn("RENDER", fmt.Sprintf("QR generation failed: %v", err))
		}
		return ""
	}
	return assets.Asset{Bytes: data, MIME: "image/png"}.DataURI()
}
