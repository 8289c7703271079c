package utils

import (
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"internhub/config"
)

// SendMail sends a plain text email using SMTP settings from config.
func SendMail(to, subject, body string) error {
	cfg := config.Get()
	if cfg.SMTPHost == "" || cfg.SMTPFrom == "" {
		return fmt.Errorf("smtp not configured")
	}
	addr := net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort))
	auth := smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)

	fromHeader := fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", cfg.SMTPFromName), cfg.SMTPFrom)
	headers := map[string]string{
		"From":         fromHeader,
		"To":           to,
		"Subject":      mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version": "1.0",
		"Content-Type": "text/plain; charset=UTF-8",
	}
	var msg strings.Builder
	for k, v := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if cfg.SMTPTLS {
		return sendWithStartTLS(addr, cfg.SMTPHost, auth, cfg.SMTPFrom, to, []byte(msg.String()))
	}
	return smtp.SendMail(addr, auth, cfg.SMTPFrom, []string{to}, []byte(msg.String()))
}

// NotifyApplicationDecision emails the applicant about an admin decision.
// Best effort: runs in its own goroutine and only logs failures.
func NotifyApplicationDecision(to, fullName, status, note string) {
	if to == "" {
		return
	}
	go func() {
		subject := fmt.Sprintf("Internship application %s", strings.ToLower(status))
		body := fmt.Sprintf("Hello %s,\n\nYour internship application has been %s.", fullName, strings.ToLower(status))
		if note != "" {
			body += "\n\nReviewer note: " + note
		}
		body += "\n\nInternHub"
		if err := SendMail(to, subject, body); err != nil && Sugar != nil {
			Sugar.Warnf("application decision mail to %s failed: %v", to, err)
		}
	}()
}

func sendWithStartTLS(addr, host string, auth smtp.Auth, from, to string, msg []byte) error {
	d := net.Dialer{Timeout: 5 * time.Second}
	conn, err := d.Dial("tcp", addr)
	if err != nil {
		return err
	}
	_ = conn.SetDeadline(time.Now().Add(15 * time.Second))

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if ok, _ := c.Extension("AUTH"); ok {
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
