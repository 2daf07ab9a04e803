package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"
)

// Dialer is the part of *gomail.Dialer used here.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Email struct {
	dialer Dialer
	from   string
	to     []string
}

func NewEmail(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string, to []string) *Email {
	return NewEmailWithDialer(gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword), fromEmail, to)
}

func NewEmailWithDialer(d Dialer, fromEmail string, to []string) *Email {
	return &Email{dialer: d, from: fromEmail, to: to}
}

func (e *Email) Notify(_ context.Context, ev Event) error {
	if len(e.to) == 0 || len(ev.Activities) == 0 {
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", e.to...)
	m.SetHeader("Subject", "Task update: "+Subject(ev.Task))
	m.SetBody("text/html", emailBody(ev))

	if err := e.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send task update email: %w", err)
	}
	return nil
}

func emailBody(ev Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h3>%s</h3>\n<ul>\n", html.EscapeString(Subject(ev.Task)))
	for _, a := range ev.Activities {
		fmt.Fprintf(&b, "<li>%s <small>%s</small></li>\n",
			html.EscapeString(Line(a)), a.CreatedAt.UTC().Format("2006-01-02 15:04"))
	}
	b.WriteString("</ul>\n")
	return b.String()
}
