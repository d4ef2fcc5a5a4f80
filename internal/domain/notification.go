package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// WelcomeMessageEmailData holds data for the welcome email.
type WelcomeMessageEmailData struct {
	Email       string
	DisplayName string
}

// EventReminderEmailData holds data for the upcoming-event reminder email.
type EventReminderEmailData struct {
	Email      string
	EventTitle string
	EventDate  string
	Location   string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendWelcomeMessage(ctx context.Context, data *WelcomeMessageEmailData) error
	SendEventReminder(ctx context.Context, data *EventReminderEmailData) error
}

// ReminderRepository tracks which events already had their reminder sent.
type ReminderRepository interface {
	// MarkSent records the reminder for eventID. Returns false when a mark
	// already existed, so each event reminds at most once.
	MarkSent(ctx context.Context, eventID string) (bool, error)
}
