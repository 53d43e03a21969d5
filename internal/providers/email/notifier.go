package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	intakedomain "github.com/crowngraphics/portal/internal/intake/domain"
	"go.uber.org/zap"
)

type sendFunc func(ctx context.Context, cfg Config, from string, to []string, msg []byte) error

// OrderNotifier sends the shop notification and the customer confirmation
// for a stored website order.
type OrderNotifier struct {
	cfg  Config
	log  *zap.Logger
	send sendFunc
}

func NewOrderNotifier(cfg Config, log *zap.Logger) *OrderNotifier {
	return &OrderNotifier{
		cfg:  cfg,
		log:  log.Named("providers.email"),
		send: sendSMTP,
	}
}

// Notify sends the internal message first; its failure is returned before
// the customer is contacted.
func (n *OrderNotifier) Notify(ctx context.Context, note intakedomain.Notification) error {
	if err := n.cfg.Validate(); err != nil {
		return &intakedomain.DeliveryError{Email: intakedomain.EmailInternal, Err: err}
	}

	attachment := Attachment{
		Filename:    fmt.Sprintf("order_%s.pdf", note.Order.OrderID),
		ContentType: "application/pdf",
		Data:        note.PDF,
	}

	internal := Message{
		From:        n.cfg.From,
		To:          []string{n.cfg.InternalNotify},
		Bcc:         n.bcc(),
		Subject:     InternalSubject(note.Order),
		Body:        InternalBody(note.Order, note.Items, note.UploadedPaths),
		Attachments: []Attachment{attachment},
	}
	if err := n.deliver(ctx, internal); err != nil {
		return &intakedomain.DeliveryError{Email: intakedomain.EmailInternal, Err: err}
	}

	customerEmail := strings.TrimSpace(note.Order.Email)
	if customerEmail == "" {
		return nil
	}
	customer := Message{
		From:        n.cfg.From,
		To:          []string{customerEmail},
		Bcc:         n.bcc(),
		Subject:     CustomerSubject(note.Order),
		Body:        CustomerBody(note.Order),
		Attachments: []Attachment{attachment},
	}
	if err := n.deliver(ctx, customer); err != nil {
		return &intakedomain.DeliveryError{Email: intakedomain.EmailCustomer, Err: err}
	}
	return nil
}

func (n *OrderNotifier) bcc() []string {
	if n.cfg.BCC == "" {
		return nil
	}
	return []string{n.cfg.BCC}
}

func (n *OrderNotifier) deliver(ctx context.Context, msg Message) error {
	raw, err := msg.Bytes()
	if err != nil {
		return err
	}
	if err := n.send(ctx, n.cfg, msg.From, msg.Recipients(), raw); err != nil {
		n.log.Warn("email send failed", zap.Strings("to", msg.To), zap.Error(err))
		return err
	}
	n.log.Info("email sent", zap.Strings("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

func sendSMTP(ctx context.Context, cfg Config, from string, to []string, msg []byte) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dialer := &net.Dialer{Timeout: 30 * time.Second}
	tlsConfig := &tls.Config{ServerName: cfg.Host}

	var conn net.Conn
	var err error
	if cfg.UseSSL {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if !cfg.UseSSL && cfg.UseTLS {
		if err := client.StartTLS(tlsConfig); err != nil {
			return err
		}
	}
	if cfg.Username != "" && cfg.Password != "" {
		if err := client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
