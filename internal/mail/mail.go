package mail

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Message is a contact form submission.
type Message struct {
	Name    string
	Email   string
	Subject string
	Body    string
}

// SMTPMailer sends messages to the operator mailbox through an authenticated relay.
type SMTPMailer struct {
	dialer   *gomail.Dialer
	operator string
}

// NewSMTPMailer returns a mailer relaying through host:port. The operator mailbox
// is both the authenticated sender and the recipient.
func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	return &SMTPMailer{
		dialer:   gomail.NewDialer(host, port, username, password),
		operator: username,
	}
}

// Send delivers msg with the submitter as Reply-To. The relay has no context support,
// so ctx is only checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(newMessage(m.operator, msg)); err != nil {
		return fmt.Errorf("smtp relay %s: %w", m.dialer.Host, err)
	}
	return nil
}

func newMessage(operator string, msg Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", operator)
	gm.SetHeader("To", operator)
	gm.SetAddressHeader("Reply-To", msg.Email, msg.Name)
	gm.SetHeader("Subject", "Contact: "+msg.Subject)
	gm.SetBody("text/plain", fmt.Sprintf("User: %s\nEmail: %s\n\n%s", msg.Name, msg.Email, msg.Body))
	return gm
}
