package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/wolfman30/baja-build-leads/internal/leads"
)

// EmailAlertNotifier mails the sales inbox about each new lead.
type EmailAlertNotifier struct {
	sender    EmailSender
	recipient string
}

// NewEmailAlertNotifier returns nil when there is no sender or recipient.
func NewEmailAlertNotifier(sender EmailSender, recipient string) *EmailAlertNotifier {
	recipient = strings.TrimSpace(recipient)
	if sender == nil || recipient == "" {
		return nil
	}
	return &EmailAlertNotifier{sender: sender, recipient: recipient}
}

func (n *EmailAlertNotifier) Name() string { return "email" }

func (n *EmailAlertNotifier) LeadCreated(ctx context.Context, lead *leads.Lead) error {
	return n.sender.Send(ctx, EmailMessage{
		To:      n.recipient,
		Subject: fmt.Sprintf("New lead: %s (%s)", lead.Name, lead.Source),
		Body:    alertBody(lead),
	})
}

func alertBody(lead *leads.Lead) string {
	var b strings.Builder
	b.WriteString("A new lead has come in.\n\n")
	fmt.Fprintf(&b, "Name: %s\n", lead.Name)
	fmt.Fprintf(&b, "Email: %s\n", lead.Email)
	fmt.Fprintf(&b, "Phone: %s\n", deref(lead.Phone, "not provided"))
	fmt.Fprintf(&b, "Source: %s\n", lead.Source)
	if lead.ReadinessScore != nil {
		fmt.Fprintf(&b, "Readiness score: %.0f\n", *lead.ReadinessScore)
	}

	keys := make([]string, 0, len(lead.CustomFields))
	for k, v := range lead.CustomFields {
		if v == nil || k == "readiness_score" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) > 0 {
		sort.Strings(keys)
		b.WriteString("\nAnswers:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %v\n", k, lead.CustomFields[k])
		}
	}

	fmt.Fprintf(&b, "\nLead ID: %s\n", lead.ID)
	return b.String()
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
