// Package mail sends notification e-mails for the worker. Templates are
// plain HTML strings rendered with html/template.
package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"pennywise/internal/amqp"
	"pennywise/internal/config"
	"pennywise/internal/log"
)

var invitationTemplate = template.Must(template.New("invitation").Parse(`
<p>Hi,</p>
<p>{{.Actor}} invited you to join the savings group <strong>{{.GroupName}}</strong>.</p>
<p>Sign in to accept or decline the invitation.</p>
`))

var reviewTemplate = template.Must(template.New("review").Parse(`
<p>Hi,</p>
<p>Your expense <strong>{{.ExpenseTitle}}</strong> ({{.Amount}}) in <strong>{{.GroupName}}</strong> was <strong>{{.Status}}</strong> by {{.Actor}}.</p>
`))

type Mailer struct {
	dialer *gomail.Dialer
	from   string
	logger *log.Logger
}

func NewMailer(cfg *config.Config, logger *log.Logger) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
		logger: logger.WithComponent(log.ComponentMail),
	}
}

// SendNotification renders and sends the e-mail for a queued notification.
func (m *Mailer) SendNotification(msg *amqp.NotificationMessage) error {
	subject, body, err := render(msg)
	if err != nil {
		return err
	}

	message := gomail.NewMessage()
	message.SetHeader("From", m.from)
	message.SetHeader("To", msg.Recipient)
	message.SetHeader("Subject", subject)
	message.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(message); err != nil {
		return fmt.Errorf("send email to %s: %w", msg.Recipient, err)
	}

	m.logger.Info("Notification email sent",
		log.FieldEvent, msg.Event,
		log.FieldRecipient, msg.Recipient)
	return nil
}

func render(msg *amqp.NotificationMessage) (subject, body string, err error) {
	var tmpl *template.Template
	switch msg.Event {
	case amqp.EventInvitationCreated:
		subject = fmt.Sprintf("You're invited to join %s", msg.GroupName)
		tmpl = invitationTemplate
	case amqp.EventExpenseReviewed:
		subject = fmt.Sprintf("Your expense in %s was %s", msg.GroupName, msg.Status)
		tmpl = reviewTemplate
	default:
		return "", "", fmt.Errorf("unknown notification event %q", msg.Event)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, msg); err != nil {
		return "", "", fmt.Errorf("render %s template: %w", msg.Event, err)
	}
	return subject, buf.String(), nil
}
