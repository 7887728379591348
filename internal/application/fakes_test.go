package application

import (
	"context"
	"sync"
	"time"

	"github.com/PulseFit-Club/service-scheduling/internal/domain"
	bookingDomain "github.com/PulseFit-Club/service-scheduling/internal/domain/booking"
	sessionDomain "github.com/PulseFit-Club/service-scheduling/internal/domain/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// fakeTxManager serializes transactions with a mutex, giving the same
// atomicity the database row lock provides in production.
type fakeTxManager struct {
	mu sync.Mutex
}

func (m *fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

type fakeSessionRepo struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionDomain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*sessionDomain.Session)}
}

func (r *fakeSessionRepo) put(sess *sessionDomain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID()] = sess
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*sessionDomain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, domain.NewNotFoundError("Session", id.String())
	}
	return sess, nil
}

func (r *fakeSessionRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*sessionDomain.Session, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeSessionRepo) FindByTrainerID(_ context.Context, trainerID uuid.UUID, page, limit int) ([]*sessionDomain.Session, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*sessionDomain.Session
	for _, sess := range r.sessions {
		if sess.TrainerID() == trainerID {
			out = append(out, sess)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeSessionRepo) ListUpcoming(_ context.Context, after time.Time, page, limit int) ([]*sessionDomain.Session, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*sessionDomain.Session
	for _, sess := range r.sessions {
		if sess.Status() == sessionDomain.StatusScheduled && sess.StartsAt().After(after) {
			out = append(out, sess)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeSessionRepo) Save(_ context.Context, sess *sessionDomain.Session) error {
	r.put(sess)
	return nil
}

func (r *fakeSessionRepo) Update(_ context.Context, sess *sessionDomain.Session) error {
	r.put(sess)
	return nil
}

type fakeBookingRepo struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	sessions *fakeSessionRepo
}

func newFakeBookingRepo(sessions *fakeSessionRepo) *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings: make(map[uuid.UUID]*bookingDomain.Booking),
		sessions: sessions,
	}
}

func (r *fakeBookingRepo) put(bk *bookingDomain.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[bk.ID()] = bk
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return bk, nil
}

func (r *fakeBookingRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeBookingRepo) CountConfirmedBySession(_ context.Context, sessionID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, bk := range r.bookings {
		if bk.SessionID() == sessionID && bk.Status() == bookingDomain.StatusConfirmed {
			count++
		}
	}
	return count, nil
}

func (r *fakeBookingRepo) HasConfirmed(_ context.Context, sessionID, clientID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, bk := range r.bookings {
		if bk.SessionID() == sessionID && bk.ClientID() == clientID && bk.Status() == bookingDomain.StatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBookingRepo) FindByClientID(_ context.Context, clientID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.ClientID() == clientID {
			out = append(out, bk)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) FindBySessionID(_ context.Context, sessionID uuid.UUID) ([]*bookingDomain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.SessionID() == sessionID {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) FindConfirmedUpcomingByClient(ctx context.Context, clientID uuid.UUID, after time.Time) ([]*bookingDomain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.ClientID() != clientID || bk.Status() != bookingDomain.StatusConfirmed {
			continue
		}
		sess, err := r.sessions.FindByID(ctx, bk.SessionID())
		if err != nil {
			continue
		}
		if sess.StartsAt().After(after) {
			out = append(out, bk)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		out = append(out, bk)
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int64)
	for _, bk := range r.bookings {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (r *fakeBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.put(bk)
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.put(bk)
	return nil
}

// recordingAudit captures emitted audit events for assertions.
type recordingAudit struct {
	mu     sync.Mutex
	events []string
}

func (a *recordingAudit) Emit(_ context.Context, eventType string, _, _ uuid.UUID, _ map[string]interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, eventType)
}

func (a *recordingAudit) types() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.events))
	copy(out, a.events)
	return out
}

// testStack wires services over the fakes.
type testStack struct {
	sessions *fakeSessionRepo
	bookings *fakeBookingRepo
	audit    *recordingAudit
	booking  *BookingService
	session  *SessionService
}

func newTestStack() *testStack {
	sessions := newFakeSessionRepo()
	bookings := newFakeBookingRepo(sessions)
	audit := &recordingAudit{}
	tx := &fakeTxManager{}
	log := zap.NewNop()

	return &testStack{
		sessions: sessions,
		bookings: bookings,
		audit:    audit,
		booking:  NewBookingService(sessions, bookings, tx, audit, log),
		session:  NewSessionService(sessions, bookings, tx, audit, log),
	}
}

// scheduledSession builds a scheduled session with the given capacity and
// offsets from now, bypassing creation validation so past windows can be set
// up directly.
func scheduledSession(trainerID uuid.UUID, capacity int, startsIn, duration time.Duration) *sessionDomain.Session {
	now := time.Now().UTC()
	starts := now.Add(startsIn)
	return sessionDomain.ReconstructSession(
		uuid.New(), trainerID, "Strength basics", "", "Studio 2",
		starts, starts.Add(duration), capacity,
		sessionDomain.StatusScheduled, "", nil, nil,
		1, now, now,
	)
}
