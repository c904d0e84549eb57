package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// IMAPConfig configuration for the archive mailbox
type IMAPConfig struct {
	Server      string // host:port
	Username    string
	Password    string
	Mailbox     string
	DialTimeout time.Duration
}

// IMAPArchive appends sent notifications to an IMAP mailbox
type IMAPArchive struct {
	config IMAPConfig
	logger *slog.Logger
}

// NewIMAPArchive creates a new archive
func NewIMAPArchive(cfg IMAPConfig, logger *slog.Logger) *IMAPArchive {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "Sent"
	}
	return &IMAPArchive{
		config: cfg,
		logger: logger.With("component", "imap-archive", "mailbox", cfg.Mailbox),
	}
}

// connect opens a TLS session and logs in
func (a *IMAPArchive) connect() (*client.Client, error) {
	timeout := a.config.DialTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", a.config.Server, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c, err := client.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create IMAP client: %w", err)
	}

	if err := c.Login(a.config.Username, a.config.Password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	return c, nil
}

// Append stores raw as a seen message
func (a *IMAPArchive) Append(ctx context.Context, raw []byte, date time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := a.connect()
	if err != nil {
		return err
	}
	defer c.Logout()

	if err := c.Append(a.config.Mailbox, []string{imap.SeenFlag}, date, bytes.NewBuffer(raw)); err != nil {
		return fmt.Errorf("failed to append to %s: %w", a.config.Mailbox, err)
	}

	a.logger.Debug("Notification archived", "bytes", len(raw))
	return nil
}
