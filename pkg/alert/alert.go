// Package alert sends email notifications when a risk assessment
// crosses the alerting threshold.
package alert

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/soundprediction/cliodyn/pkg/config"
	"github.com/soundprediction/cliodyn/pkg/types"
)

// Alerter defines an interface for sending alerts
type Alerter interface {
	Alert(subject, message string) error
}

// EmailAlerter implements Alerter using SMTP
type EmailAlerter struct {
	cfg config.AlertConfig
}

// NewEmailAlerter creates a new email alerter
func NewEmailAlerter(cfg config.AlertConfig) *EmailAlerter {
	return &EmailAlerter{
		cfg: cfg,
	}
}

// Alert sends an email with the given subject and message
func (a *EmailAlerter) Alert(subject, message string) error {
	if !a.cfg.Enabled {
		return nil
	}

	auth := smtp.PlainAuth("", a.cfg.Username, a.cfg.Password, a.cfg.SMTPHost)

	to := a.cfg.To
	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", strings.Join(to, ","), subject, message))

	addr := fmt.Sprintf("%s:%d", a.cfg.SMTPHost, a.cfg.SMTPPort)

	err := smtp.SendMail(addr, auth, a.cfg.From, to, msg)
	if err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	return nil
}

// NoOpAlerter is a dummy alerter for when alerting is disabled
type NoOpAlerter struct{}

func (n *NoOpAlerter) Alert(subject, message string) error {
	return nil
}

// RiskMessage formats an assessment into an alert body. Returns false
// when the assessment does not warrant an alert.
func RiskMessage(assessment *types.RiskAssessment) (subject, body string, ok bool) {
	if assessment.RiskLevel != types.RiskHigh && assessment.RiskLevel != types.RiskCritical {
		return "", "", false
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Overall risk score %.2f (%s): %d of %d patterns matched current indicators.\n\n",
		assessment.OverallRiskScore, assessment.RiskLevel,
		assessment.PatternsWithMatches, assessment.TotalPatternsChecked)
	for _, risk := range assessment.TopRisks {
		fmt.Fprintf(&sb, "- %s [%s]: weighted risk %.2f, matched %s\n",
			risk.PatternName, risk.Category, risk.WeightedRisk,
			strings.Join(risk.MatchedPreconditions, ", "))
	}
	subject = fmt.Sprintf("cliodyn risk alert: %s", assessment.RiskLevel)
	return subject, sb.String(), true
}
