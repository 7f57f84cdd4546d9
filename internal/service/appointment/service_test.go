package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mediqo/booking-api/pkg/errors"

	"github.com/mediqo/booking-api/internal/model"
	"github.com/mediqo/booking-api/internal/repository"
	"github.com/mediqo/booking-api/internal/schedule"
	"github.com/mediqo/booking-api/internal/service/notification"
)

// fakeAppointmentRepo is an in-memory repository that enforces the same
// slot invariant as the partial unique index in postgres: at most one
// non-cancelled appointment per (doctor, date, slot).
type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*model.Appointment
	slotsErr     error
	slotsCalls   int
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *fakeAppointmentRepo) slotHeld(doctorID uuid.UUID, date time.Time, slot string, exclude uuid.UUID) bool {
	for _, apt := range r.appointments {
		if apt.ID != exclude &&
			apt.DoctorID == doctorID &&
			apt.Date.Equal(date) &&
			apt.Slot == slot &&
			apt.Status != model.AppointmentStatusCancelled {
			return true
		}
	}
	return false
}

func (r *fakeAppointmentRepo) Create(_ context.Context, apt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slotHeld(apt.DoctorID, apt.Date, apt.Slot, uuid.Nil) {
		return repository.ErrSlotTaken
	}

	apt.ID = uuid.New()
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = apt.CreatedAt
	stored := *apt
	r.appointments[apt.ID] = &stored
	return nil
}

func (r *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	apt, ok := r.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *apt
	return &copied, nil
}

func (r *fakeAppointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to model.AppointmentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	apt, ok := r.appointments[id]
	if !ok || apt.Status != from {
		return repository.ErrStaleStatus
	}
	apt.Status = to
	apt.UpdatedAt = time.Now()
	return nil
}

func (r *fakeAppointmentRepo) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Appointment
	for _, apt := range r.appointments {
		if filters.UserID != uuid.Nil && apt.UserID != filters.UserID {
			continue
		}
		if filters.Status != "" && apt.Status != filters.Status {
			continue
		}
		copied := *apt
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeAppointmentRepo) BookedSlots(_ context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.slotsCalls++
	if r.slotsErr != nil {
		return nil, r.slotsErr
	}

	var slots []string
	for _, apt := range r.appointments {
		if apt.DoctorID == doctorID && apt.Date.Equal(date) && apt.Status != model.AppointmentStatusCancelled {
			slots = append(slots, apt.Slot)
		}
	}
	return slots, nil
}

func (r *fakeAppointmentRepo) Reschedule(_ context.Context, oldID uuid.UUID, replacement *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.appointments[oldID]
	if !ok || old.Status.IsTerminal() {
		return repository.ErrStaleStatus
	}
	if r.slotHeld(replacement.DoctorID, replacement.Date, replacement.Slot, oldID) {
		return repository.ErrSlotTaken
	}

	old.Status = model.AppointmentStatusCancelled
	old.UpdatedAt = time.Now()

	replacement.ID = uuid.New()
	replacement.CreatedAt = time.Now()
	replacement.UpdatedAt = replacement.CreatedAt
	stored := *replacement
	r.appointments[replacement.ID] = &stored
	return nil
}

type fakeDoctorDirectory struct {
	doctors map[uuid.UUID]*model.Doctor
}

func (d *fakeDoctorDirectory) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, ok := d.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return doctor, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *fakeUserRepo) Create(context.Context, *model.User) error { return nil }

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) Update(context.Context, *model.User) error { return nil }

func (r *fakeUserRepo) UpdatePassword(context.Context, uuid.UUID, string) error { return nil }

var (
	testNow    = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)
	testDate   = "2024-06-01"
	testUserID = uuid.New()
)

type fixture struct {
	svc      *Service
	repo     *fakeAppointmentRepo
	doctorID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	doctorID := uuid.New()
	doctors := &fakeDoctorDirectory{doctors: map[uuid.UUID]*model.Doctor{
		doctorID: {ID: doctorID, Name: "Dr. Adams", Specialty: "Cardiology", ConsultationFee: 5000},
	}}
	users := &fakeUserRepo{users: map[uuid.UUID]*model.User{
		testUserID: {ID: testUserID, Name: "Pat", Email: "pat@example.com"},
	}}

	repo := newFakeAppointmentRepo()
	svc := NewService(repo, doctors, users, notification.Noop{}, schedule.MustDefault(), time.UTC, zerolog.Nop())
	svc.now = func() time.Time { return testNow }

	return &fixture{svc: svc, repo: repo, doctorID: doctorID}
}

func (f *fixture) book(t *testing.T, slot string) *model.Appointment {
	t.Helper()
	apt, err := f.svc.Book(context.Background(), testUserID, &model.BookAppointmentRequest{
		DoctorID: f.doctorID.String(),
		Date:     testDate,
		Time:     slot,
	})
	require.NoError(t, err)
	return apt
}

func TestAvailabilityFullGrid(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Availability(context.Background(), f.doctorID, testDate)
	require.NoError(t, err)
	assert.Len(t, resp.Slots, 18)
	assert.Equal(t, "09:00 AM", resp.Slots[0])
	assert.Equal(t, "05:30 PM", resp.Slots[17])
}

func TestAvailabilityExcludesBookedSlot(t *testing.T) {
	f := newFixture(t)
	f.book(t, "09:00 AM")

	resp, err := f.svc.Availability(context.Background(), f.doctorID, testDate)
	require.NoError(t, err)
	assert.Len(t, resp.Slots, 17)
	assert.NotContains(t, resp.Slots, "09:00 AM")
}

func TestAvailabilityRejectsPastDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Availability(context.Background(), f.doctorID, "2024-05-14")
	assert.True(t, apperrors.IsValidation(err))
}

func TestAvailabilityUnknownDoctor(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Availability(context.Background(), uuid.New(), testDate)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAvailabilityStoreFailureIsTransient(t *testing.T) {
	f := newFixture(t)
	f.repo.slotsErr = assert.AnError

	_, err := f.svc.Availability(context.Background(), f.doctorID, testDate)
	assert.True(t, apperrors.IsTransient(err))
	assert.Equal(t, readRetries, f.repo.slotsCalls)
}

func TestBookCreatesPendingAppointment(t *testing.T) {
	f := newFixture(t)

	apt := f.book(t, "09:00 AM")
	assert.Equal(t, model.AppointmentStatusPending, apt.Status)
	assert.Equal(t, "09:00 AM", apt.Slot)
	assert.Equal(t, testUserID, apt.UserID)
	assert.NotEqual(t, uuid.Nil, apt.ID)
}

func TestBookRejectsUnknownSlotLabel(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), testUserID, &model.BookAppointmentRequest{
		DoctorID: f.doctorID.String(),
		Date:     testDate,
		Time:     "09:15 AM",
	})
	assert.True(t, apperrors.IsValidation(err))
}

func TestBookRejectsMalformedDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Book(context.Background(), testUserID, &model.BookAppointmentRequest{
		DoctorID: f.doctorID.String(),
		Date:     "06/01/2024",
		Time:     "09:00 AM",
	})
	assert.True(t, apperrors.IsValidation(err))
}

func TestBookSameSlotConflicts(t *testing.T) {
	f := newFixture(t)
	f.book(t, "09:00 AM")

	_, err := f.svc.Book(context.Background(), testUserID, &model.BookAppointmentRequest{
		DoctorID: f.doctorID.String(),
		Date:     testDate,
		Time:     "09:00 AM",
	})
	assert.True(t, apperrors.IsConflict(err))
}

func TestConcurrentBookingExactlyOneWins(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Book(context.Background(), testUserID, &model.BookAppointmentRequest{
				DoctorID: f.doctorID.String(),
				Date:     testDate,
				Time:     "10:00 AM",
			})
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case apperrors.IsConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}

func TestCancelFreesSlotAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "09:00 AM")

	cancelled, err := f.svc.Cancel(context.Background(), testUserID, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)

	// The slot is bookable again.
	resp, err := f.svc.Availability(context.Background(), f.doctorID, testDate)
	require.NoError(t, err)
	assert.Contains(t, resp.Slots, "09:00 AM")

	// Second cancel is a no-op, not an error.
	again, err := f.svc.Cancel(context.Background(), testUserID, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, again.Status)
}

func TestCancelCompletedConflicts(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "09:00 AM")

	_, err := f.svc.Confirm(context.Background(), testUserID, apt.ID)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC) }
	_, err = f.svc.Complete(context.Background(), testUserID, apt.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), testUserID, apt.ID)
	assert.True(t, apperrors.IsConflict(err))
}

func TestRescheduleMovesSlot(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "09:00 AM")

	moved, err := f.svc.Reschedule(context.Background(), testUserID, apt.ID, &model.RescheduleAppointmentRequest{
		Date: testDate,
		Time: "02:00 PM",
	})
	require.NoError(t, err)
	assert.Equal(t, "02:00 PM", moved.Slot)
	assert.Equal(t, model.AppointmentStatusPending, moved.Status)
	assert.NotEqual(t, apt.ID, moved.ID)

	// Old slot is released, new one is held.
	resp, err := f.svc.Availability(context.Background(), f.doctorID, testDate)
	require.NoError(t, err)
	assert.Contains(t, resp.Slots, "09:00 AM")
	assert.NotContains(t, resp.Slots, "02:00 PM")

	old, err := f.svc.Get(context.Background(), testUserID, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, old.Status)
}

func TestRescheduleConflictLeavesOriginalUntouched(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "09:00 AM")
	f.book(t, "02:00 PM")

	_, err := f.svc.Reschedule(context.Background(), testUserID, apt.ID, &model.RescheduleAppointmentRequest{
		Date: testDate,
		Time: "02:00 PM",
	})
	assert.True(t, apperrors.IsConflict(err))

	unchanged, err := f.svc.Get(context.Background(), testUserID, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, unchanged.Status)
	assert.Equal(t, "09:00 AM", unchanged.Slot)
}

func TestRescheduleTerminalConflicts(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "09:00 AM")

	_, err := f.svc.Cancel(context.Background(), testUserID, apt.ID)
	require.NoError(t, err)

	_, err = f.svc.Reschedule(context.Background(), testUserID, apt.ID, &model.RescheduleAppointmentRequest{
		Date: testDate,
		Time: "02:00 PM",
	})
	assert.True(t, apperrors.IsConflict(err))
}

func TestConfirmPendingAppointment(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "09:00 AM")

	confirmed, err := f.svc.Confirm(context.Background(), testUserID, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, confirmed.Status)
}

func TestConfirmCancelledConflicts(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "09:00 AM")

	_, err := f.svc.Cancel(context.Background(), testUserID, apt.ID)
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), testUserID, apt.ID)
	assert.True(t, apperrors.IsConflict(err))
}

func TestConfirmAfterSlotTimeConflicts(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "09:00 AM")

	f.svc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC) }
	_, err := f.svc.Confirm(context.Background(), testUserID, apt.ID)
	assert.True(t, apperrors.IsConflict(err))
}

func TestCompleteBeforeSlotTimeConflicts(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "05:30 PM")

	_, err := f.svc.Confirm(context.Background(), testUserID, apt.ID)
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), testUserID, apt.ID)
	assert.True(t, apperrors.IsConflict(err))
}

func TestCompletePendingConflicts(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "09:00 AM")

	f.svc.now = func() time.Time { return time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC) }
	_, err := f.svc.Complete(context.Background(), testUserID, apt.ID)
	assert.True(t, apperrors.IsConflict(err))
}

func TestAppointmentOwnership(t *testing.T) {
	f := newFixture(t)
	apt := f.book(t, "09:00 AM")

	stranger := uuid.New()
	_, err := f.svc.Cancel(context.Background(), stranger, apt.ID)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = f.svc.Get(context.Background(), stranger, apt.ID)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestGetUnknownAppointment(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), testUserID, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	first := f.book(t, "09:00 AM")
	f.book(t, "10:00 AM")

	_, err := f.svc.Cancel(context.Background(), testUserID, first.ID)
	require.NoError(t, err)

	pending, err := f.svc.List(context.Background(), testUserID, model.AppointmentStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "10:00 AM", pending[0].Slot)

	all, err := f.svc.List(context.Background(), testUserID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
