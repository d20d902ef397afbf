package app

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"

	"system_rent_tracker/internal/domain/billing"
	"system_rent_tracker/internal/domain/notify"
	"system_rent_tracker/internal/domain/resource"
)

// MessageData is the view rendered into the configured message template.
type MessageData struct {
	Resource    string
	Period      string
	DueDate     string
	Amount      string
	AmountShort string
	// DaysUntilDue is negative once the due date has passed.
	DaysUntilDue int
	// DueIn is a ready-made phrase: "in 3 days", "today", "5 days overdue".
	DueIn   string
	Mention string
}

// Renderer produces delivery-ready messages from a cycle and a fired offset.
// Rendering has no side effects and performs no I/O.
type Renderer struct {
	tmpl        *template.Template
	mentionTmpl string
}

// NewRenderer parses the message template and validates it against a sample
// data set, so template problems fail at startup rather than mid-tick.
// mentionTmpl resolves a role mention from a channel name, e.g. "@{channel}".
func NewRenderer(messageTemplate, mentionTmpl string) (*Renderer, error) {
	tmpl, err := template.New("message").Parse(messageTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid message template: %w", err)
	}
	if err := tmpl.Execute(&bytes.Buffer{}, MessageData{}); err != nil {
		return nil, fmt.Errorf("message template does not render: %w", err)
	}
	return &Renderer{tmpl: tmpl, mentionTmpl: mentionTmpl}, nil
}

// Render builds the message for one (cycle, offset) pair as of "now".
func (r *Renderer) Render(res *resource.Resource, cycle *billing.Cycle, offset notify.Offset, now time.Time) (notify.Message, error) {
	days := daysUntil(now, cycle.DueDate)
	data := MessageData{
		Resource:     res.Name,
		Period:       cycle.Period.Label(),
		DueDate:      cycle.DueDate.Format("2006-01-02"),
		Amount:       cycle.Charge.StringFixed(2),
		AmountShort:  FormatAmountShort(cycle.Charge),
		DaysUntilDue: days,
		DueIn:        dueInPhrase(days),
		Mention:      r.Mention(res),
	}

	var body bytes.Buffer
	if err := r.tmpl.Execute(&body, data); err != nil {
		return notify.Message{}, fmt.Errorf("rendering message for cycle %d: %w", cycle.ID, err)
	}

	kind := offset.Kind()
	return notify.Message{
		Kind:    kind,
		Title:   title(kind, res.Name),
		Body:    body.String(),
		Mention: data.Mention,
		Fields: []notify.Field{
			{Name: "System", Value: res.Name, Inline: true},
			{Name: "Period", Value: data.Period, Inline: true},
			{Name: "Due Date", Value: data.DueDate, Inline: true},
			{Name: "Amount Due", Value: data.AmountShort + " ISK", Inline: true},
			{Name: "Status", Value: string(cycle.Status), Inline: true},
		},
	}, nil
}

// Mention resolves the role mention for a resource's channel, or "" when the
// resource has no channel configured.
func (r *Renderer) Mention(res *resource.Resource) string {
	if !res.DiscordChannel.Valid || res.DiscordChannel.String == "" {
		return ""
	}
	return strings.ReplaceAll(r.mentionTmpl, "{channel}", res.DiscordChannel.String)
}

func title(kind notify.Kind, name string) string {
	switch kind {
	case notify.KindAdvance:
		return "Rent Due Soon: " + name
	case notify.KindDue:
		return "Rent Due Today: " + name
	default:
		return "Overdue Rent: " + name
	}
}

func daysUntil(now, due time.Time) int {
	return int(due.Sub(now).Hours() / 24)
}

func dueInPhrase(days int) string {
	switch {
	case days > 1:
		return fmt.Sprintf("in %d days", days)
	case days == 1:
		return "in 1 day"
	case days == 0:
		return "today"
	case days == -1:
		return "1 day overdue"
	default:
		return fmt.Sprintf("%d days overdue", -days)
	}
}

// FormatAmountShort renders an ISK amount with compact suffixes:
// 1500000000 -> "1.5 bil", 500000000 -> "500 mil".
func FormatAmountShort(amount decimal.Decimal) string {
	abs := amount.Abs()
	billion := decimal.New(1, 9)
	million := decimal.New(1, 6)
	switch {
	case abs.GreaterThanOrEqual(billion):
		return trimZeros(amount.Div(billion).StringFixed(1)) + " bil"
	case abs.GreaterThanOrEqual(million):
		return trimZeros(amount.Div(million).StringFixed(1)) + " mil"
	default:
		return amount.StringFixed(2)
	}
}

func trimZeros(s string) string {
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
