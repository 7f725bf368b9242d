package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"

	"github.com/stocklive/stocklive/internal/core/domain"
)

// EmailNotifier sends plain-text low-stock summaries over SMTP.
type EmailNotifier struct {
	host     string
	port     int
	user     string
	password string
	from     string
	to       string
	log      *logrus.Logger
}

func NewEmailNotifier(host string, port int, user, password, from, to string, log *logrus.Logger) *EmailNotifier {
	return &EmailNotifier{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		from:     from,
		to:       to,
		log:      log,
	}
}

func (n *EmailNotifier) NotifyLowStock(_ context.Context, items []domain.Item) error {
	if len(items) == 0 {
		return nil
	}
	if n.to == "" {
		n.log.Warn("no alert recipient configured, skipping low stock notification")
		return nil
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s (SKU: %s) x%d", item.Name, item.SKU, item.Quantity))
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", n.to)
	m.SetHeader("Subject", "Low Stock Alert")
	m.SetBody("text/plain",
		"The following items are below minimum stock:\n"+strings.Join(lines, "\n"))

	d := gomail.NewDialer(n.host, n.port, n.user, n.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send low stock notification: %w", err)
	}

	n.log.WithField("items", len(items)).Info("low stock notification sent")
	return nil
}
