package alert

import (
	"context"
	"fmt"
	"time"

	mailgun "github.com/mailgun/mailgun-go/v3"
)

// MailgunConfig is the settings needed to use Mailgun for emails.
type MailgunConfig struct {
	APIKey     string   `yaml:"apikey"`
	Domain     string   `yaml:"domain"`
	Sender     string   `yaml:"sender"`
	Recipients []string `yaml:"recipients"`
}

// Enabled reports whether enough is configured to send anything.
func (mc MailgunConfig) Enabled() bool {
	return mc.APIKey != "" && mc.Domain != "" && mc.Sender != "" && len(mc.Recipients) > 0
}

// Mailgun sends alerts through the Mailgun API.
type Mailgun struct {
	cfg     MailgunConfig
	mg      mailgun.Mailgun
	Timeout time.Duration
}

func NewMailgun(mc MailgunConfig) *Mailgun {
	return &Mailgun{
		cfg:     mc,
		mg:      mailgun.NewMailgun(mc.Domain, mc.APIKey),
		Timeout: time.Second * 10,
	}
}

func (m *Mailgun) Send(subj, msg string) error {
	// The message object allows you to add attachments and Bcc recipients
	message := m.mg.NewMessage(m.cfg.Sender, subj, msg, m.cfg.Recipients...)

	ctx, cancel := context.WithTimeout(context.Background(), m.Timeout)
	defer cancel()

	resp, id, err := m.mg.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("sending alert: %w", err)
	}
	if id == "" {
		return fmt.Errorf("sending alert, invalid ID: %s", resp)
	}
	return nil
}
