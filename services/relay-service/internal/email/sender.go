package email

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
)

type Sender interface {
	SendConfirmation(c Confirmation) error
}

type Confirmation struct {
	To           string
	CustomerName string
	ServiceName  string
	StartTime    time.Time
	Price        float64
	OrgName      string
}

// GomailSender sends booking confirmations over SMTP.
type GomailSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewGomailSender(host string, port int, username, password, from string) *GomailSender {
	from = strings.TrimSpace(from)
	if from == "" {
		from = "no-reply@agendou.local"
	}
	return &GomailSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *GomailSender) SendConfirmation(c Confirmation) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", c.To)
	m.SetHeader("Subject", fmt.Sprintf("Agendamento confirmado - %s", c.ServiceName))
	m.SetBody("text/plain", confirmationBody(c))
	return s.dialer.DialAndSend(m)
}

func confirmationBody(c Confirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Olá %s,\n\n", c.CustomerName)
	fmt.Fprintf(&b, "Seu agendamento foi confirmado.\n\n")
	fmt.Fprintf(&b, "Serviço: %s\n", c.ServiceName)
	fmt.Fprintf(&b, "Data: %s\n", c.StartTime.Format("02/01/2006 15:04"))
	if c.Price > 0 {
		fmt.Fprintf(&b, "Valor: R$ %.2f\n", c.Price)
	}
	if c.OrgName != "" {
		fmt.Fprintf(&b, "\n%s\n", c.OrgName)
	}
	return b.String()
}

// NoopSender drops confirmations, for deployments without SMTP.
type NoopSender struct{}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (s *NoopSender) SendConfirmation(_ Confirmation) error {
	return nil
}
