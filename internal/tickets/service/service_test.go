package tickets

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ticket-engine/internal/models"
	"ticket-engine/internal/render/assets"
	"ticket-engine/internal/render/pdf"
	"ticket-engine/internal/render/variables"
	"ticket-engine/internal/tickets/codegen"
)

// MockTicketDB is a mock implementation of the TicketDBLayer interface
type MockTicketDB struct {
	mock.Mock
}

func (m *MockTicketDB) CreateTicket(ctx context.Context, ticket models.Ticket) error {
	args := m.Called(ticket)
	return args.Error(0)
}

func (m *MockTicketDB) TicketsByBooking(ctx context.Context, bookingID string) ([]models.Ticket, error) {
	args := m.Called(bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ticket), args.Error(1)
}

type MockBookingDB struct {
	mock.Mock
}

func (m *MockBookingDB) BookingGraph(ctx context.Context, bookingID string) (*models.Booking, error) {
	args := m.Called(bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

type MockTemplateDB struct {
	mock.Mock
}

func (m *MockTemplateDB) ActiveTemplate(ctx context.Context) (*models.TicketTemplate, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketTemplate), args.Error(1)
}

// fakeCodeGen hands out sequential codes without touching a store.
type fakeCodeGen struct {
	next int
	err  error
}

func (f *fakeCodeGen) GenerateUniqueCode(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.next++
	return fmt.Sprintf("T-TEST-%04d", f.next), nil
}

// fakePrimary records the pages it was asked to render.
type fakePrimary struct {
	pages  []string
	result []byte
	err    error
	calls  int
}

func (f *fakePrimary) Render(ctx context.Context, pages []string) ([]byte, error) {
	f.calls++
	f.pages = pages
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeFallback records the contexts it was asked to compose.
type fakeFallback struct {
	contexts []map[string]string
	result   []byte
	err      error
	calls    int
}

func (f *fakeFallback) Render(contexts []map[string]string) ([]byte, error) {
	f.calls++
	f.contexts = contexts
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func graphBooking(guests int, tickets ...models.Ticket) *models.Booking {
	return &models.Booking{
		ID:           "bk-1",
		Guests:       guests,
		ExperienceID: "exp-1",
		SessionID:    "ses-1",
		ExplorerID:   "xp-1",
		CreatedAt:    time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC),
		Experience: &models.Experience{
			ID:       "exp-1",
			Title:    "Sunset Kayaking",
			Slug:     "sunset-kayaking",
			Currency: "USD",
			Price:    45,
			Duration: "2 hours",
		},
		Session:  &models.Session{ID: "ses-1", StartAt: time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)},
		Explorer: &models.Explorer{ID: "xp-1", Name: "Ada River"},
		Tickets:  tickets,
	}
}

func seatTicket(seat int) models.Ticket {
	return models.Ticket{
		ID:         fmt.Sprintf("tk-%d", seat),
		Code:       fmt.Sprintf("T-EXIST-%04d", seat),
		SeatNumber: seat,
		BookingID:  "bk-1",
	}
}

func newTestService(t *testing.T, ticketDB *MockTicketDB, bookingDB *MockBookingDB, templateDB *MockTemplateDB, primary *fakePrimary, fallback *fakeFallback) *TicketService {
	t.Helper()
	resolver := assets.NewResolver(nil, t.TempDir(), nil)
	return &TicketService{
		TicketDB:   ticketDB,
		BookingDB:  bookingDB,
		TemplateDB: templateDB,
		Codes:      &fakeCodeGen{},
		Variables:  variables.NewBuilder(resolver, "https://ticketly.example.com", nil),
		Primary:    primary,
		Fallback:   fallback,
	}
}

func TestEnsureTicketsIsIdempotent(t *testing.T) {
	ticketDB := new(MockTicketDB)
	bookingDB := new(MockBookingDB)

	existing := []models.Ticket{seatTicket(1), seatTicket(2)}
	bookingDB.On("BookingGraph", "bk-1").Return(graphBooking(2, existing...), nil)

	svc := newTestService(t, ticketDB, bookingDB, new(MockTemplateDB), &fakePrimary{}, &fakeFallback{})

	tickets, err := svc.EnsureTickets(context.Background(), "bk-1")
	assert.NoError(t, err)
	assert.Equal(t, existing, tickets)

	// No inserts happen once the booking already holds guests tickets.
	ticketDB.AssertNotCalled(t, "CreateTicket", mock.Anything)
}

func TestEnsureTicketsFillsMissingSeats(t *testing.T) {
	ticketDB := new(MockTicketDB)
	bookingDB := new(MockBookingDB)

	bookingDB.On("BookingGraph", "bk-1").Return(graphBooking(3, seatTicket(1)), nil)

	ticketDB.On("TicketsByBooking", "bk-1").Return([]models.Ticket{seatTicket(1)}, nil).Once()

	var created []models.Ticket
	ticketDB.On("CreateTicket", mock.MatchedBy(func(tk models.Ticket) bool {
		created = append(created, tk)
		return tk.BookingID == "bk-1"
	})).Return(nil).Twice()

	full := []models.Ticket{seatTicket(1), seatTicket(2), seatTicket(3)}
	ticketDB.On("TicketsByBooking", "bk-1").Return(full, nil).Once()

	svc := newTestService(t, ticketDB, bookingDB, new(MockTemplateDB), &fakePrimary{}, &fakeFallback{})

	tickets, err := svc.EnsureTickets(context.Background(), "bk-1")
	assert.NoError(t, err)
	assert.Len(t, tickets, 3)

	// The missing seats are created in ascending, dense order.
	assert.Len(t, created, 2)
	assert.Equal(t, 2, created[0].SeatNumber)
	assert.Equal(t, 3, created[1].SeatNumber)
	assert.NotEqual(t, created[0].Code, created[1].Code)
	assert.Equal(t, "exp-1", created[0].ExperienceID)
	ticketDB.AssertExpectations(t)
}

func TestEnsureTicketsBookingNotFound(t *testing.T) {
	bookingDB := new(MockBookingDB)
	bookingDB.On("BookingGraph", "missing").Return(nil, fmt.Errorf("%w: missing", models.ErrBookingNotFound))

	svc := newTestService(t, new(MockTicketDB), bookingDB, new(MockTemplateDB), &fakePrimary{}, &fakeFallback{})

	_, err := svc.EnsureTickets(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrBookingNotFound)
}

func TestEnsureTicketsCodeExhaustionIsFatal(t *testing.T) {
	ticketDB := new(MockTicketDB)
	bookingDB := new(MockBookingDB)

	bookingDB.On("BookingGraph", "bk-1").Return(graphBooking(1), nil)
	ticketDB.On("TicketsByBooking", "bk-1").Return([]models.Ticket{}, nil).Once()

	svc := newTestService(t, ticketDB, bookingDB, new(MockTemplateDB), &fakePrimary{}, &fakeFallback{})
	svc.Codes = &fakeCodeGen{err: codegen.ErrCodeExhausted}

	_, err := svc.EnsureTickets(context.Background(), "bk-1")
	assert.ErrorIs(t, err, codegen.ErrCodeExhausted)
	ticketDB.AssertNotCalled(t, "CreateTicket", mock.Anything)
}

func TestEnsureTicketsSeatConflictMeansAlreadyIssued(t *testing.T) {
	ticketDB := new(MockTicketDB)
	bookingDB := new(MockBookingDB)

	bookingDB.On("BookingGraph", "bk-1").Return(graphBooking(2, seatTicket(1)), nil)
	ticketDB.On("TicketsByBooking", "bk-1").Return([]models.Ticket{seatTicket(1)}, nil).Once()

	// Another caller issued seat 2 between our count and our insert.
	ticketDB.On("CreateTicket", mock.Anything).
		Return(fmt.Errorf("%w: booking bk-1 seat 2", models.ErrDuplicateTicket)).Once()

	full := []models.Ticket{seatTicket(1), seatTicket(2)}
	ticketDB.On("TicketsByBooking", "bk-1").Return(full, nil).Once()

	svc := newTestService(t, ticketDB, bookingDB, new(MockTemplateDB), &fakePrimary{}, &fakeFallback{})

	tickets, err := svc.EnsureTickets(context.Background(), "bk-1")
	assert.NoError(t, err)
	assert.Equal(t, full, tickets)
	ticketDB.AssertExpectations(t)
}

func TestRenderDocumentWithoutTemplateUsesFallback(t *testing.T) {
	bookingDB := new(MockBookingDB)
	templateDB := new(MockTemplateDB)

	booking := graphBooking(2, seatTicket(1), seatTicket(2))
	bookingDB.On("BookingGraph", "bk-1").Return(booking, nil)
	templateDB.On("ActiveTemplate").Return(nil, nil)

	primary := &fakePrimary{result: []byte("%PDF-primary")}
	fallback := &fakeFallback{result: []byte("%PDF-fallback")}
	svc := newTestService(t, new(MockTicketDB), bookingDB, templateDB, primary, fallback)

	data, err := svc.RenderDocument(context.Background(), "bk-1")
	assert.NoError(t, err)
	assert.Equal(t, []byte("%PDF-fallback"), data)

	// The external renderer is never touched without an active template.
	assert.Equal(t, 0, primary.calls)
	assert.Equal(t, 1, fallback.calls)

	// One context per guest, in ascending seat order.
	assert.Len(t, fallback.contexts, 2)
	assert.Equal(t, "1", fallback.contexts[0]["seatNumber"])
	assert.Equal(t, "2", fallback.contexts[1]["seatNumber"])
	assert.Equal(t, "T-EXIST-0001", fallback.contexts[0]["ticketCode"])
}

func TestRenderDocumentWithTemplateUsesPrimary(t *testing.T) {
	bookingDB := new(MockBookingDB)
	templateDB := new(MockTemplateDB)

	booking := graphBooking(2, seatTicket(1), seatTicket(2))
	bookingDB.On("BookingGraph", "bk-1").Return(booking, nil)
	templateDB.On("ActiveTemplate").Return(&models.TicketTemplate{
		ID:       "tpl-1",
		HTML:     "<h1>{{experienceTitle}}</h1><p>{{ticketCode}}</p>",
		IsActive: true,
	}, nil)

	primary := &fakePrimary{result: []byte("%PDF-primary")}
	fallback := &fakeFallback{result: []byte("%PDF-fallback")}
	svc := newTestService(t, new(MockTicketDB), bookingDB, templateDB, primary, fallback)

	data, err := svc.RenderDocument(context.Background(), "bk-1")
	assert.NoError(t, err)
	assert.Equal(t, []byte("%PDF-primary"), data)
	assert.Equal(t, 0, fallback.calls)

	// Placeholders are substituted per ticket before the renderer sees them.
	assert.Len(t, primary.pages, 2)
	assert.Contains(t, primary.pages[0], "Sunset Kayaking")
	assert.Contains(t, primary.pages[0], "T-EXIST-0001")
	assert.Contains(t, primary.pages[1], "T-EXIST-0002")
}

func TestRenderDocumentFallsBackWhenPrimaryUnavailable(t *testing.T) {
	bookingDB := new(MockBookingDB)
	templateDB := new(MockTemplateDB)

	booking := graphBooking(1, seatTicket(1))
	bookingDB.On("BookingGraph", "bk-1").Return(booking, nil)
	templateDB.On("ActiveTemplate").Return(&models.TicketTemplate{ID: "tpl-1", HTML: "<p>{{ticketCode}}</p>", IsActive: true}, nil)

	primary := &fakePrimary{err: fmt.Errorf("%w: exec failed", pdf.ErrUnavailable)}
	fallback := &fakeFallback{result: []byte("%PDF-fallback")}
	svc := newTestService(t, new(MockTicketDB), bookingDB, templateDB, primary, fallback)

	data, err := svc.RenderDocument(context.Background(), "bk-1")
	assert.NoError(t, err)
	assert.Equal(t, []byte("%PDF-fallback"), data)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestRenderDocumentFallbackFailureIsFatal(t *testing.T) {
	bookingDB := new(MockBookingDB)
	templateDB := new(MockTemplateDB)

	bookingDB.On("BookingGraph", "bk-1").Return(graphBooking(1, seatTicket(1)), nil)
	templateDB.On("ActiveTemplate").Return(nil, nil)

	fallback := &fakeFallback{err: errors.New("font missing")}
	svc := newTestService(t, new(MockTicketDB), bookingDB, templateDB, &fakePrimary{}, fallback)

	_, err := svc.RenderDocument(context.Background(), "bk-1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "font missing")
}

func TestRenderPreviewBypassesBookingLookup(t *testing.T) {
	bookingDB := new(MockBookingDB)

	primary := &fakePrimary{err: fmt.Errorf("%w: not installed", pdf.ErrUnavailable)}
	fallback := &fakeFallback{result: []byte("%PDF-preview")}
	svc := newTestService(t, new(MockTicketDB), bookingDB, new(MockTemplateDB), primary, fallback)

	vars := map[string]string{"experienceTitle": "Synthetic"}
	data, err := svc.RenderPreview(context.Background(), "<h1>{{experienceTitle}}</h1>", vars)
	assert.NoError(t, err)
	assert.Equal(t, []byte("%PDF-preview"), data)

	assert.Contains(t, primary.pages[0], "Synthetic")
	bookingDB.AssertNotCalled(t, "BookingGraph", mock.Anything)
}
