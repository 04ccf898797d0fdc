package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v2"
	"github.com/saeid-a/GymDashBack/internal/logger"
	"go.uber.org/zap"
)

type PlanAssignedEmail struct {
	To          string
	StudentName string
	StaffName   string
	PlanTitle   string
	PlanID      int64
}

type PlanNotifier interface {
	PlanAssigned(ctx context.Context, email PlanAssignedEmail) error
}

var planAssignedTemplate = template.Must(template.New("plan_assigned").Parse(
	`<p>Hi {{.StudentName}},</p>
<p>{{.StaffName}} assigned you a new workout plan: <strong>{{.PlanTitle}}</strong>.</p>
<p>Open your dashboard to start training.</p>`,
))

// ResendNotifier delivers plan emails through the Resend API.
type ResendNotifier struct {
	client *resend.Client
	from   string
}

func NewResendNotifier(apiKey, from string) *ResendNotifier {
	return &ResendNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (n *ResendNotifier) PlanAssigned(ctx context.Context, email PlanAssignedEmail) error {
	body, err := renderPlanAssigned(email)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{email.To},
		Subject: fmt.Sprintf("New workout plan: %s", email.PlanTitle),
		Html:    body,
	}

	sent, err := n.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send plan email: %w", err)
	}

	logger.L().Info("plan email sent",
		zap.String("message_id", sent.Id),
		zap.Int64("plan_id", email.PlanID),
	)
	return nil
}

func renderPlanAssigned(email PlanAssignedEmail) (string, error) {
	var buf bytes.Buffer
	if err := planAssignedTemplate.Execute(&buf, email); err != nil {
		return "", fmt.Errorf("render plan email: %w", err)
	}
	return buf.String(), nil
}
