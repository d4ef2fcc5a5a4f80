package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"communityevents/internal/domain"
)

// ReminderService periodically sweeps upcoming events and sends the creator a
// reminder email once per event, a lead window before the event date.
type ReminderService struct {
	eventRepo    domain.EventRepository
	reminderRepo domain.ReminderRepository
	userRepo     domain.UserRepository
	emailService domain.EmailService
	lead         time.Duration
	logger       *slog.Logger
	cron         *cron.Cron
}

func NewReminderService(eventRepo domain.EventRepository,
	reminderRepo domain.ReminderRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	lead time.Duration,
	logger *slog.Logger,
) *ReminderService {
	return &ReminderService{
		eventRepo:    eventRepo,
		reminderRepo: reminderRepo,
		userRepo:     userRepo,
		emailService: emailService,
		lead:         lead,
		logger:       logger,
	}
}

// Start schedules the sweep with the given cron spec (e.g. "@hourly") and runs
// one sweep immediately so reminders are not delayed by the first interval.
func (s *ReminderService) Start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.Sweep(context.Background()) }); err != nil {
		return err
	}
	s.cron = c
	c.Start()
	go s.Sweep(context.Background())
	return nil
}

// Stop halts the sweep schedule. A sweep already in flight finishes.
func (s *ReminderService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Sweep sends a reminder for each event whose date falls within the lead
// window and has no reminder mark yet.
func (s *ReminderService) Sweep(ctx context.Context) {
	events, err := s.eventRepo.List(ctx)
	if err != nil {
		s.logger.Error("reminder sweep: list events", "err", err)
		return
	}

	now := time.Now()
	for _, e := range events {
		if !e.Date.Valid {
			continue
		}
		until := e.Date.Time.Sub(now)
		if until <= 0 || until > s.lead {
			continue
		}
		// Mark first so a crash between mark and send cannot double-remind.
		fresh, err := s.reminderRepo.MarkSent(ctx, e.ID)
		if err != nil {
			s.logger.Error("reminder sweep: mark sent", "event_id", e.ID, "err", err)
			continue
		}
		if !fresh {
			continue
		}
		creator, err := s.userRepo.GetByID(ctx, e.CreatedBy)
		if err != nil {
			s.logger.Error("reminder sweep: get creator", "event_id", e.ID, "user_id", e.CreatedBy, "err", err)
			continue
		}
		data := &domain.EventReminderEmailData{
			Email:      creator.Email,
			EventTitle: e.Title,
			EventDate:  e.Date.Display(),
			Location:   e.Location,
		}
		if err := s.emailService.SendEventReminder(ctx, data); err != nil {
			s.logger.Error("reminder sweep: send reminder", "event_id", e.ID, "err", err)
			continue
		}
		s.logger.Info("event reminder sent", "event_id", e.ID, "to", creator.Email)
	}
}
