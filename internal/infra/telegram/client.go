package telegram

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/telebot.v3"

	"system_rent_tracker/internal/domain/notify"
)

// TelebotNotifier delivers rendered reminders to a Telegram chat via
// gopkg.in/telebot.v3. An alternative to the Discord webhook notifier for
// deployments that coordinate rent in a Telegram group.
type TelebotNotifier struct {
	bot *telebot.Bot
}

func NewTelebotNotifier(b *telebot.Bot) *TelebotNotifier {
	return &TelebotNotifier{bot: b}
}

func (n *TelebotNotifier) Deliver(ctx context.Context, target notify.Target, msg notify.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString("*" + msg.Title + "*\n")
	if msg.Mention != "" {
		sb.WriteString(msg.Mention + "\n")
	}
	sb.WriteString(msg.Body)
	for _, f := range msg.Fields {
		sb.WriteString(fmt.Sprintf("\n%s: %s", f.Name, f.Value))
	}

	recipient := &telebot.Chat{ID: target.ChatID}
	_, err := n.bot.Send(recipient, sb.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	return err
}
