package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"photogroup/config"
)

// ReportMailer sends a heads-up email to the configured admin address when a
// user files a content report. It is entirely optional: with SMTP or the
// admin address unconfigured, Notify becomes a no-op.
type ReportMailer struct {
	cfg *config.Config
}

func NewReportMailer(cfg *config.Config) *ReportMailer {
	return &ReportMailer{cfg: cfg}
}

// Enabled reports whether notification emails can actually be sent.
func (rm *ReportMailer) Enabled() bool {
	return rm.cfg.SMTPHost != "" && rm.cfg.AdminEmail != "" && rm.cfg.FromEmail != ""
}

var reportEmailTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New content report</title>
</head>
<body>
    <h2>New content report</h2>
    <p>Reporter: {{.Reporter}}</p>
    <p>File: {{.FileName}}</p>
    <p>Reason: {{.Reason}}</p>
    <p>Filed at: {{.FiledAt}}</p>
    <p>Open the moderation queue to act on it.</p>
</body>
</html>`))

// Notify sends the report notification. Failures are returned so the caller
// can log them, but a report must never fail because email did.
func (rm *ReportMailer) Notify(reporter, fileName, reason string) error {
	if !rm.Enabled() {
		return nil
	}

	var body bytes.Buffer
	err := reportEmailTemplate.Execute(&body, map[string]string{
		"Reporter": reporter,
		"FileName": fileName,
		"Reason":   reason,
		"FiledAt":  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to render report email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", rm.cfg.FromEmail)
	m.SetHeader("To", rm.cfg.AdminEmail)
	m.SetHeader("Subject", "New content report")
	m.SetBody("text/html", body.String())

	dialer := gomail.NewDialer(
		rm.cfg.SMTPHost,
		rm.cfg.SMTPPort,
		rm.cfg.SMTPUsername,
		rm.cfg.SMTPPassword,
	)
	return dialer.DialAndSend(m)
}
