package email

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventticketing/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

type sentMail struct {
	to, subject, html, text string
}

type fakeMailer struct {
	err  error
	sent []sentMail
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, html, text string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, html: html, text: text})
	return nil
}

type fakeContacts map[string]string

func (c fakeContacts) EmailFor(ctx context.Context, userID string) (string, error) {
	if email, ok := c[userID]; ok {
		return email, nil
	}
	return "", domain.ErrNotFound
}

func TestTemplateRenderer_Reminder(t *testing.T) {
	r := NewTemplateRenderer()
	subject, html, text, err := r.Render("reminder", domain.ReminderEmailData{
		Email:         "ada@example.com",
		Title:         "Rock & Roll Night",
		Location:      "Hall B",
		StartsAt:      "Fri, 20 Nov 2026 18:00 UTC",
		MinutesBefore: 120,
		Message:       "Rock & Roll Night starts in 2 hours",
	})
	require.NoError(t, err)
	assert.Equal(t, "Reminder: Rock & Roll Night starts Fri, 20 Nov 2026 18:00 UTC", subject)
	assert.Contains(t, html, "Rock &amp; Roll Night")
	assert.Contains(t, html, "Hall B")
	assert.Contains(t, text, "Where:    Hall B")
	assert.Contains(t, text, "120 minutes")
}

func TestTemplateRenderer_UnknownTemplate(t *testing.T) {
	_, _, _, err := NewTemplateRenderer().Render("missing", nil)
	require.Error(t, err)
}

func TestReminderNotifier_Notify(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 11, 20, 19, 0, 0, 0, time.FixedZone("CET", 3600))
	entry := &domain.CalendarEntry{OwnerID: "U1", EventID: "ev-1", Title: "Conf", Location: "Hall", StartsAt: start}
	rem := &domain.Reminder{ID: "rm-1", OwnerID: "U1", MinutesBefore: 1440, Message: "Conf starts in 1 day"}

	t.Run("sends email", func(t *testing.T) {
		mailer := &fakeMailer{}
		n := NewReminderNotifier(mailer, NewTemplateRenderer(), fakeContacts{"U1": "ada@example.com"}, testLogger)
		require.NoError(t, n.Notify(ctx, rem, entry))
		require.Len(t, mailer.sent, 1)
		assert.Equal(t, "ada@example.com", mailer.sent[0].to)
		assert.Equal(t, "Reminder: Conf starts Fri, 20 Nov 2026 18:00 UTC", mailer.sent[0].subject)
		assert.Contains(t, mailer.sent[0].text, "Conf starts in 1 day")
	})

	t.Run("unknown address is skipped", func(t *testing.T) {
		mailer := &fakeMailer{}
		n := NewReminderNotifier(mailer, NewTemplateRenderer(), fakeContacts{}, testLogger)
		require.NoError(t, n.Notify(ctx, rem, entry))
		assert.Empty(t, mailer.sent)
	})

	t.Run("send failure is returned", func(t *testing.T) {
		mailer := &fakeMailer{err: errors.New("throttled")}
		n := NewReminderNotifier(mailer, NewTemplateRenderer(), fakeContacts{"U1": "ada@example.com"}, testLogger)
		require.Error(t, n.Notify(ctx, rem, entry))
	})
}

func TestNewMailer(t *testing.T) {
	tests := []struct {
		name    string
		config  MailerConfig
		wantSES bool
		wantErr bool
	}{
		{name: "noop", config: MailerConfig{Provider: "noop"}},
		{name: "empty provider", config: MailerConfig{}},
		{name: "unknown provider", config: MailerConfig{Provider: "carrier-pigeon"}},
		{
			name:    "ses",
			config:  MailerConfig{Provider: "ses", FromAddress: "no-reply@example.com", FromName: "Tickets", SES: SESConfig{Region: "eu-west-1"}},
			wantSES: true,
		},
		{name: "ses without region", config: MailerConfig{Provider: "ses", FromAddress: "no-reply@example.com"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Logger = testLogger
			m, err := NewMailer(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, isSES := m.(*sesMailer)
			assert.Equal(t, tt.wantSES, isSES)
			if !isSES {
				assert.NoError(t, m.Send(context.Background(), "a@example.com", "s", "<p>h</p>", "t"))
			}
		})
	}
}

func TestSESMailer_Source(t *testing.T) {
	assert.Equal(t, "Tickets <no-reply@example.com>", (&sesMailer{fromAddress: "no-reply@example.com", fromName: "Tickets"}).source())
	assert.Equal(t, "no-reply@example.com", (&sesMailer{fromAddress: "no-reply@example.com"}).source())
}

func TestBuildSendEmailInput(t *testing.T) {
	input := buildSendEmailInput("src@example.com", "to@example.com", "Hello", "", "plain")
	assert.Equal(t, "src@example.com", aws.ToString(input.Source))
	assert.Equal(t, []string{"to@example.com"}, input.Destination.ToAddresses)
	assert.Nil(t, input.Message.Body.Html)
	require.NotNil(t, input.Message.Body.Text)
	assert.Equal(t, "plain", aws.ToString(input.Message.Body.Text.Data))
}
