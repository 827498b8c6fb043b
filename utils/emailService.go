package utils

import (
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends transactional e-mails through SendGrid. With an empty API key
// every send is a logged no-op.
type Mailer struct {
	apiKey string
	from   *mail.Email
	client *sendgrid.Client
}

func NewMailer(apiKey, sender string) *Mailer {
	m := &Mailer{
		apiKey: strings.TrimSpace(apiKey),
		from:   mail.NewEmail("FinQuest", sender),
	}
	if m.apiKey != "" {
		m.client = sendgrid.NewSendClient(m.apiKey)
	}
	return m
}

// Enabled reports whether a SendGrid key is configured.
func (m *Mailer) Enabled() bool {
	return m != nil && m.client != nil
}

// SendEmail sends one HTML e-mail.
func (m *Mailer) SendEmail(to, subject, htmlBody string) error {
	if !m.Enabled() {
		Log.Debugw("email skipped, sendgrid not configured", "to", to, "subject", subject)
		return nil
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("missing recipient")
	}

	message := mail.NewSingleEmail(m.from, subject, mail.NewEmail("", to), "", htmlBody)
	resp, err := m.client.Send(message)
	if err != nil {
		Log.Errorw("sendgrid send failed", "to", to, "error", err)
		return err
	}
	if resp.StatusCode >= 300 {
		Log.Errorw("sendgrid rejected email", "to", to, "status", resp.StatusCode, "body", resp.Body)
		return fmt.Errorf("sendgrid status %d", resp.StatusCode)
	}
	Log.Infow("email sent", "to", to, "subject", subject)
	return nil
}

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F4F6FB; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #0B3D91; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #0B3D91; line-height: 1.6; }
			.badge { display: inline-block; padding: 10px 18px; background: #FFD166; color: #0B3D91; border-radius: 20px; font-weight: bold; }
			.footer { background-color: #F4F6FB; padding: 20px; text-align: center; font-size: 12px; color: #666666; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>FINQUEST</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				Continuez votre parcours sur FinQuest.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}

// BadgeUnlockedEmail renders the subject and body announcing a new badge.
func BadgeUnlockedEmail(badgeName, badgeDescription string) (string, string) {
	subject := "Nouveau badge débloqué : " + badgeName
	body := fmt.Sprintf(`
		<p>Bravo !</p>
		<p>Vous venez de débloquer le badge <span class="badge">%s</span></p>
		<p>%s</p>
	`, html.EscapeString(badgeName), html.EscapeString(badgeDescription))
	return subject, getEmailTemplate("Badge débloqué", body)
}

// NotifyBadgeUnlocked sends the badge e-mail in the background.
func (m *Mailer) NotifyBadgeUnlocked(email, badgeName, badgeDescription string) {
	if !m.Enabled() || email == "" {
		return
	}
	subject, body := BadgeUnlockedEmail(badgeName, badgeDescription)
	go func() {
		_ = m.SendEmail(email, subject, body)
	}()
}
