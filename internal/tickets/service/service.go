package tickets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ticket-engine/internal/kafka"
	"ticket-engine/internal/logger"
	"ticket-engine/internal/models"
	"ticket-engine/internal/render/pdf"
	"ticket-engine/internal/render/template"
	"ticket-engine/internal/render/variables"
)

type TicketDBLayer interface {
	CreateTicket(ctx context.Context, ticket models.Ticket) error
	TicketsByBooking(ctx context.Context, bookingID string) ([]models.Ticket, error)
}

type BookingDBLayer interface {
	BookingGraph(ctx context.Context, bookingID string) (*models.Booking, error)
}

type TemplateDBLayer interface {
	ActiveTemplate(ctx context.Context) (*models.TicketTemplate, error)
}

type CodeGenerator interface {
	GenerateUniqueCode(ctx context.Context) (string, error)
}

// PrimaryRenderer is the external HTML-to-PDF strategy. It reports failure as
// pdf.ErrUnavailable; the service then composes the document programmatically.
type PrimaryRenderer interface {
	Render(ctx context.Context, pages []string) ([]byte, error)
}

// FallbackRenderer composes pages from the raw variable contexts. Its errors
// are the only rendering errors surfaced to callers.
type FallbackRenderer interface {
	Render(contexts []map[string]string) ([]byte, error)
}

// IssueLocker is the optional advisory lock around issuance for one booking.
type IssueLocker interface {
	Acquire(ctx context.Context, bookingID string) (token string, ok bool, err error)
	Release(ctx context.Context, bookingID, token string) error
}

type IssuedPublisher interface {
	PublishTicketsIssued(ctx context.Context, event kafka.TicketsIssuedEvent) error
}

// TicketService coordinates ticket issuance and document rendering for
// confirmed bookings.
type TicketService struct {
	TicketDB   TicketDBLayer
	BookingDB  BookingDBLayer
	TemplateDB TemplateDBLayer
	Codes      CodeGenerator
	Variables  *variables.Builder
	Primary    PrimaryRenderer
	Fallback   FallbackRenderer
	Locker     IssueLocker     // optional
	Publisher  IssuedPublisher // optional
	Logger     *logger.Logger
}

// EnsureTickets makes sure the booking holds exactly one ticket per reserved
// guest, seat numbers 1..guests. Existing tickets are never touched; calling
// this twice is a no-op the second time.
func (s *TicketService) EnsureTickets(ctx context.Context, bookingID string) ([]models.Ticket, error) {
	booking, err := s.BookingDB.BookingGraph(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if len(booking.Tickets) >= booking.Guests {
		return booking.Tickets, nil
	}

	if s.Locker != nil {
		// Advisory only: if the lock stays contended we proceed and let the
		// (booking_id, seat_number) constraint arbitrate.
		for attempt := 0; attempt < 3; attempt++ {
			token, ok, err := s.Locker.Acquire(ctx, bookingID)
			if err != nil {
				s.warn("ISSUANCE", fmt.Sprintf("Issue lock unavailable for booking %s: %v", bookingID, err))
				break
			}
			if ok {
				defer func() {
					if err := s.Locker.Release(ctx, bookingID, token); err != nil {
						s.warn("ISSUANCE", fmt.Sprintf("Failed to release issue lock for booking %s: %v", bookingID, err))
					}
				}()
				break
			}
			time.Sleep(100 * time.Millisecond)
		}
	}

	// Re-read under the lock; another caller may have issued seats meanwhile.
	existing, err := s.TicketDB.TicketsByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets for booking %s: %w", bookingID, err)
	}

	var createdCodes []string
	for seat := len(existing) + 1; seat <= booking.Guests; seat++ {
		code, err := s.Codes.GenerateUniqueCode(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to issue seat %d for booking %s: %w", seat, bookingID, err)
		}

		ticket := models.Ticket{
			ID:           uuid.New().String(),
			Code:         code,
			SeatNumber:   seat,
			BookingID:    booking.ID,
			ExperienceID: booking.ExperienceID,
			SessionID:    booking.SessionID,
			ExplorerID:   booking.ExplorerID,
			IssuedAt:     time.Now().UTC(),
		}

		if err := s.TicketDB.CreateTicket(ctx, ticket); err != nil {
			if errors.Is(err, models.ErrDuplicateTicket) {
				// Another caller won this seat; the reload below picks it up.
				s.info("ISSUANCE", fmt.Sprintf("Seat %d for booking %s already issued elsewhere", seat, bookingID))
				continue
			}
			return nil, fmt.Errorf("failed to persist seat %d for booking %s: %w", seat, bookingID, err)
		}
		createdCodes = append(createdCodes, code)
	}

	ticketsList, err := s.TicketDB.TicketsByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload tickets for booking %s: %w", bookingID, err)
	}

	if len(createdCodes) > 0 {
		if s.Logger != nil {
			s.Logger.LogIssuance("CREATE", bookingID, fmt.Sprintf("Issued %d ticket(s)", len(createdCodes)))
		}
		if s.Publisher != nil {
			event := kafka.TicketsIssuedEvent{BookingID: bookingID, Codes: createdCodes, IssuedAt: time.Now().UTC()}
			if err := s.Publisher.PublishTicketsIssued(ctx, event); err != nil {
				s.warn("KAFKA", fmt.Sprintf("Failed to publish tickets issued event for booking %s: %v", bookingID, err))
			}
		}
	}

	return ticketsList, nil
}

// RenderDocument produces the booking's ticket document: one PDF page per
// ticket, pages in ascending seat order. With an active template it tries the
// external renderer first and falls back to programmatic composition; without
// one it composes directly.
func (s *TicketService) RenderDocument(ctx context.Context, bookingID string) ([]byte, error) {
	if _, err := s.EnsureTickets(ctx, bookingID); err != nil {
		return nil, err
	}

	booking, err := s.BookingDB.BookingGraph(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	contexts := make([]map[string]string, 0, len(booking.Tickets))
	for _, ticket := range booking.Tickets {
		contexts = append(contexts, s.Variables.Build(ctx, ticket, booking))
	}

	activeTemplate, err := s.TemplateDB.ActiveTemplate(ctx)
	if err != nil {
		s.warn("RENDER", fmt.Sprintf("Template lookup failed, composing without template: %v", err))
		activeTemplate = nil
	}

	if activeTemplate != nil {
		pages := make([]string, len(contexts))
		for i, vars := range contexts {
			pages[i] = template.Render(activeTemplate.HTML, vars)
		}

		data, err := s.Primary.Render(ctx, pages)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, pdf.ErrUnavailable) {
			return nil, err
		}
		s.warn("RENDER", fmt.Sprintf("Primary renderer unavailable for booking %s, using fallback: %v", bookingID, err))
	}

	data, err := s.Fallback.Render(contexts)
	if err != nil {
		return nil, fmt.Errorf("failed to render document for booking %s: %w", bookingID, err)
	}
	return data, nil
}

// RenderPreview renders a single page from an arbitrary template and
// caller-supplied variables, without touching any booking. Used by template
// authoring.
func (s *TicketService) RenderPreview(ctx context.Context, templateHTML string, vars map[string]string) ([]byte, error) {
	page := template.Render(templateHTML, vars)

	data, err := s.Primary.Render(ctx, []string{page})
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, pdf.ErrUnavailable) {
		return nil, err
	}
	s.warn("RENDER", fmt.Sprintf("Primary renderer unavailable for preview, using fallback: %v", err))

	data, err = s.Fallback.Render([]map[string]string{vars})
	if err != nil {
		return nil, fmt.Errorf("failed to render preview: %w", err)
	}
	return data, nil
}

func (s *TicketService) warn(category, message string) {
	if s.Logger != nil {
		s.Logger.Warn(category, message)
	}
}

func (s *TicketService) info(category, message string) {
	if s.Logger != nil {
		s.Logger.Info(category, message)
	}
}
