package payment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mediqo/booking-api/pkg/errors"
	"github.com/mediqo/booking-api/pkg/security"

	"github.com/mediqo/booking-api/internal/model"
	"github.com/mediqo/booking-api/internal/repository"
)

const testCardNumber = "4242 4242 4242 4242"

type fakePaymentRepo struct {
	byAppointment map[uuid.UUID]*model.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{byAppointment: make(map[uuid.UUID]*model.Payment)}
}

func (f *fakePaymentRepo) Create(_ context.Context, p *model.Payment) error {
	if existing, ok := f.byAppointment[p.AppointmentID]; ok && existing.Status == model.PaymentStatusCompleted {
		return repository.ErrDuplicatePayment
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	f.byAppointment[p.AppointmentID] = p
	return nil
}

func (f *fakePaymentRepo) GetByAppointment(_ context.Context, appointmentID uuid.UUID) (*model.Payment, error) {
	p, ok := f.byAppointment[appointmentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

type fakeAppointmentStore struct {
	byID map[uuid.UUID]*model.Appointment
}

func (f *fakeAppointmentStore) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return apt, nil
}

func (f *fakeAppointmentStore) Create(context.Context, *model.Appointment) error { return nil }
func (f *fakeAppointmentStore) UpdateStatus(context.Context, uuid.UUID, model.AppointmentStatus, model.AppointmentStatus) error {
	return nil
}
func (f *fakeAppointmentStore) List(context.Context, *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}
func (f *fakeAppointmentStore) BookedSlots(context.Context, uuid.UUID, time.Time) ([]string, error) {
	return nil, nil
}
func (f *fakeAppointmentStore) Reschedule(context.Context, uuid.UUID, *model.Appointment) error {
	return nil
}

type fakeDoctorDirectory struct {
	doctors map[uuid.UUID]*model.Doctor
}

func (f *fakeDoctorDirectory) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, ok := f.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d, nil
}

type fixture struct {
	svc      *Service
	payments *fakePaymentRepo
	userID   uuid.UUID
	aptID    uuid.UUID
	apt      *model.Appointment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	userID := uuid.New()
	doctorID := uuid.New()
	aptID := uuid.New()

	apt := &model.Appointment{
		ID:       aptID,
		UserID:   userID,
		DoctorID: doctorID,
		Status:   model.AppointmentStatusConfirmed,
	}

	payments := newFakePaymentRepo()
	svc := NewService(
		payments,
		&fakeAppointmentStore{byID: map[uuid.UUID]*model.Appointment{aptID: apt}},
		&fakeDoctorDirectory{doctors: map[uuid.UUID]*model.Doctor{
			doctorID: {ID: doctorID, Name: "Dr. Rao", ConsultationFee: 50000},
		}},
		security.NewCardTokenizer("test-secret"),
		zerolog.Nop(),
	)

	return &fixture{svc: svc, payments: payments, userID: userID, aptID: aptID, apt: apt}
}

func TestProcessRecordsTokenizedPayment(t *testing.T) {
	f := newFixture(t)

	p, err := f.svc.Process(context.Background(), f.userID, &model.ProcessPaymentRequest{
		AppointmentID: f.aptID.String(),
		CardNumber:    testCardNumber,
		CardHolder:    "A Patient",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(50000), p.Amount)
	assert.Equal(t, model.PaymentStatusCompleted, p.Status)
	assert.Equal(t, "4242", p.CardLast4)
	assert.NotEmpty(t, p.CardFingerprint)
	assert.NotContains(t, p.CardFingerprint, "4242424242424242")
}

func TestProcessRejectsForeignAppointment(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Process(context.Background(), uuid.New(), &model.ProcessPaymentRequest{
		AppointmentID: f.aptID.String(),
		CardNumber:    testCardNumber,
		CardHolder:    "A Patient",
	})
	assert.True(t, apperrors.IsForbidden(err))
}

func TestProcessRejectsCancelledAppointment(t *testing.T) {
	f := newFixture(t)
	f.apt.Status = model.AppointmentStatusCancelled

	_, err := f.svc.Process(context.Background(), f.userID, &model.ProcessPaymentRequest{
		AppointmentID: f.aptID.String(),
		CardNumber:    testCardNumber,
		CardHolder:    "A Patient",
	})
	assert.True(t, apperrors.IsConflict(err))
}

func TestProcessRejectsBadCard(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Process(context.Background(), f.userID, &model.ProcessPaymentRequest{
		AppointmentID: f.aptID.String(),
		CardNumber:    "1234",
		CardHolder:    "A Patient",
	})
	assert.True(t, apperrors.IsValidation(err))
}

func TestProcessTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	req := &model.ProcessPaymentRequest{
		AppointmentID: f.aptID.String(),
		CardNumber:    testCardNumber,
		CardHolder:    "A Patient",
	}

	_, err := f.svc.Process(context.Background(), f.userID, req)
	require.NoError(t, err)

	_, err = f.svc.Process(context.Background(), f.userID, req)
	assert.True(t, apperrors.IsConflict(err))
}

func TestGetForAppointment(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetForAppointment(context.Background(), f.userID, f.aptID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.svc.Process(context.Background(), f.userID, &model.ProcessPaymentRequest{
		AppointmentID: f.aptID.String(),
		CardNumber:    testCardNumber,
		CardHolder:    "A Patient",
	})
	require.NoError(t, err)

	p, err := f.svc.GetForAppointment(context.Background(), f.userID, f.aptID)
	require.NoError(t, err)
	assert.Equal(t, f.aptID, p.AppointmentID)

	_, err = f.svc.GetForAppointment(context.Background(), uuid.New(), f.aptID)
	assert.True(t, apperrors.IsForbidden(err))
}
