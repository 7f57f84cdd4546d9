package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "github.com/mediqo/booking-api/pkg/errors"

	"github.com/mediqo/booking-api/internal/model"
	"github.com/mediqo/booking-api/internal/repository"
	"github.com/mediqo/booking-api/internal/schedule"
	"github.com/mediqo/booking-api/internal/service/notification"
)

const (
	// Bounds for read-path retries on transient store failures.
	readRetries    = 3
	readRetryDelay = 100 * time.Millisecond
)

// DoctorDirectory is the read-only doctor lookup the booking workflow
// consumes. Satisfied by cache.DoctorCache.
type DoctorDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
}

type Service struct {
	repo     repository.AppointmentRepository
	doctors  DoctorDirectory
	users    repository.UserRepository
	notifSvc notification.Service
	grid     *schedule.Grid
	loc      *time.Location
	logger   zerolog.Logger

	// now is swapped in tests.
	now func() time.Time
}

func NewService(
	repo repository.AppointmentRepository,
	doctors DoctorDirectory,
	users repository.UserRepository,
	notifSvc notification.Service,
	grid *schedule.Grid,
	loc *time.Location,
	logger zerolog.Logger,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		doctors:  doctors,
		users:    users,
		notifSvc: notifSvc,
		grid:     grid,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Availability returns the canonical grid minus the slots of all
// non-cancelled appointments for the doctor on the given day. A failed
// lookup surfaces as a transient error; the service never guesses that
// slots are free.
func (s *Service) Availability(ctx context.Context, doctorID uuid.UUID, date string) (*model.AvailabilityResponse, error) {
	day, err := s.validateDate(date)
	if err != nil {
		return nil, err
	}

	if _, err := s.doctors.Get(ctx, doctorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("doctor", err)
		}
		return nil, apperrors.NewTransient("failed to look up doctor", err)
	}

	booked, err := s.bookedSlotsWithRetry(ctx, doctorID, day)
	if err != nil {
		return nil, apperrors.NewTransient("failed to load booked slots", err)
	}

	return &model.AvailabilityResponse{
		DoctorID: doctorID,
		Date:     date,
		Slots:    s.grid.Subtract(booked),
	}, nil
}

// Book claims a slot for the caller. The claim is revalidated at write
// time by the data layer, so of two concurrent requests for the same
// slot exactly one succeeds and the other gets a conflict error.
func (s *Service) Book(ctx context.Context, userID uuid.UUID, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, apperrors.NewValidation("invalid doctor ID", err)
	}

	day, err := s.validateSlot(req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("doctor", err)
		}
		return nil, apperrors.NewTransient("failed to look up doctor", err)
	}

	apt := &model.Appointment{
		UserID:   userID,
		DoctorID: doctorID,
		Date:     day,
		Slot:     req.Time,
		Notes:    req.Notes,
		Status:   model.AppointmentStatusPending,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, apperrors.NewConflict("time slot is no longer available", err)
		}
		return nil, apperrors.NewTransient("failed to book appointment", err)
	}

	s.notifyBooked(ctx, apt, doctor)

	s.logger.Info().
		Str("appointment_id", apt.ID.String()).
		Str("doctor_id", doctorID.String()).
		Str("date", req.Date).
		Str("slot", req.Time).
		Msg("appointment booked")

	return apt, nil
}

// Get returns the caller's appointment.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*model.Appointment, error) {
	return s.getOwned(ctx, userID, id)
}

// List returns the caller's appointments, optionally filtered by status.
func (s *Service) List(ctx context.Context, userID uuid.UUID, status model.AppointmentStatus) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, &model.AppointmentFilters{
		UserID: userID,
		Status: status,
	})
	if err != nil {
		return nil, apperrors.NewTransient("failed to list appointments", err)
	}
	return appointments, nil
}

// Reschedule atomically moves the caller's appointment to a new slot:
// the old row is cancelled and a replacement inserted in one
// transaction. If the new slot is taken the original stays untouched.
func (s *Service) Reschedule(ctx context.Context, userID, id uuid.UUID, req *model.RescheduleAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if apt.Status.IsTerminal() {
		return nil, apperrors.NewConflict("appointment can no longer be rescheduled", nil)
	}

	day, err := s.validateSlot(req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	replacement := &model.Appointment{
		UserID:   apt.UserID,
		DoctorID: apt.DoctorID,
		Date:     day,
		Slot:     req.Time,
		Notes:    apt.Notes,
		Status:   model.AppointmentStatusPending,
	}

	if err := s.repo.Reschedule(ctx, apt.ID, replacement); err != nil {
		switch {
		case errors.Is(err, repository.ErrSlotTaken):
			return nil, apperrors.NewConflict("time slot is no longer available", err)
		case errors.Is(err, repository.ErrStaleStatus):
			return nil, apperrors.NewConflict("appointment changed concurrently", err)
		default:
			return nil, apperrors.NewTransient("failed to reschedule appointment", err)
		}
	}

	s.logger.Info().
		Str("appointment_id", apt.ID.String()).
		Str("replacement_id", replacement.ID.String()).
		Str("date", req.Date).
		Str("slot", req.Time).
		Msg("appointment rescheduled")

	return replacement, nil
}

// Cancel marks the caller's appointment cancelled and frees its slot.
// Cancelling an already cancelled appointment is a no-op returning the
// cancelled appointment.
func (s *Service) Cancel(ctx context.Context, userID, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if apt.Status == model.AppointmentStatusCancelled {
		return apt, nil
	}
	if apt.Status == model.AppointmentStatusCompleted {
		return nil, apperrors.NewConflict("completed appointment cannot be cancelled", nil)
	}

	if err := s.transition(ctx, apt, apt.Status, model.AppointmentStatusCancelled); err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, apt, model.AppointmentStatusCancelled)
	return apt, nil
}

// Confirm moves a pending appointment to confirmed. Allowed only before
// the scheduled slot time.
func (s *Service) Confirm(ctx context.Context, userID, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if apt.Status != model.AppointmentStatusPending {
		return nil, apperrors.NewConflict("only pending appointments can be confirmed", nil)
	}

	slotAt, err := s.slotInstant(apt)
	if err != nil {
		return nil, err
	}
	if !s.now().Before(slotAt) {
		return nil, apperrors.NewConflict("appointment time has already passed", nil)
	}

	if err := s.transition(ctx, apt, model.AppointmentStatusPending, model.AppointmentStatusConfirmed); err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, apt, model.AppointmentStatusConfirmed)
	return apt, nil
}

// Complete moves a confirmed appointment to completed, allowed only at
// or after the scheduled slot time.
func (s *Service) Complete(ctx context.Context, userID, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if apt.Status != model.AppointmentStatusConfirmed {
		return nil, apperrors.NewConflict("only confirmed appointments can be completed", nil)
	}

	slotAt, err := s.slotInstant(apt)
	if err != nil {
		return nil, err
	}
	if s.now().Before(slotAt) {
		return nil, apperrors.NewConflict("appointment time has not passed yet", nil)
	}

	if err := s.transition(ctx, apt, model.AppointmentStatusConfirmed, model.AppointmentStatusCompleted); err != nil {
		return nil, err
	}
	return apt, nil
}

func (s *Service) getOwned(ctx context.Context, userID, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("appointment", err)
		}
		return nil, apperrors.NewTransient("failed to load appointment", err)
	}
	if apt.UserID != userID {
		return nil, apperrors.NewForbidden("appointment belongs to another user", nil)
	}
	return apt, nil
}

// transition performs a compare-and-set status update and mutates apt on
// success.
func (s *Service) transition(ctx context.Context, apt *model.Appointment, from, to model.AppointmentStatus) error {
	if err := s.repo.UpdateStatus(ctx, apt.ID, from, to); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return apperrors.NewConflict("appointment changed concurrently", err)
		}
		return apperrors.NewTransient("failed to update appointment", err)
	}
	apt.Status = to
	apt.UpdatedAt = s.now()
	return nil
}

func (s *Service) validateDate(date string) (time.Time, error) {
	day, err := schedule.ParseDate(date)
	if err != nil {
		return time.Time{}, apperrors.NewValidation("invalid date, expected YYYY-MM-DD", err)
	}
	past, err := schedule.IsPastDate(date, s.now(), s.loc)
	if err != nil {
		return time.Time{}, apperrors.NewValidation("invalid date, expected YYYY-MM-DD", err)
	}
	if past {
		return time.Time{}, apperrors.NewValidation("date is in the past", nil)
	}
	return day, nil
}

func (s *Service) validateSlot(date, slot string) (time.Time, error) {
	day, err := s.validateDate(date)
	if err != nil {
		return time.Time{}, err
	}
	if !s.grid.Contains(slot) {
		return time.Time{}, apperrors.NewValidation("time is not a valid slot", nil)
	}
	return day, nil
}

func (s *Service) slotInstant(apt *model.Appointment) (time.Time, error) {
	at, err := s.grid.SlotTime(apt.Date.Format(schedule.DateLayout), apt.Slot, s.loc)
	if err != nil {
		return time.Time{}, apperrors.NewInternal(err)
	}
	return at, nil
}

func (s *Service) bookedSlotsWithRetry(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]string, error) {
	var lastErr error
	for attempt := 0; attempt < readRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * readRetryDelay):
			}
		}
		slots, err := s.repo.BookedSlots(ctx, doctorID, day)
		if err == nil {
			return slots, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (s *Service) notifyBooked(ctx context.Context, apt *model.Appointment, doctor *model.Doctor) {
	user, err := s.users.Get(ctx, apt.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("skipping booking notification")
		return
	}
	if err := s.notifSvc.AppointmentBooked(user, doctor, apt); err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("failed to send booking notification")
	}
}

func (s *Service) notifyStatus(ctx context.Context, apt *model.Appointment, status model.AppointmentStatus) {
	user, err := s.users.Get(ctx, apt.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("skipping status notification")
		return
	}

	switch status {
	case model.AppointmentStatusConfirmed:
		err = s.notifSvc.AppointmentConfirmed(user, apt)
	case model.AppointmentStatusCancelled:
		err = s.notifSvc.AppointmentCancelled(user, apt)
	default:
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", apt.ID.String()).Msg("failed to send status notification")
	}
}
