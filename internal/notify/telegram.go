package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of *tgbotapi.BotAPI used here.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	bot    Sender
	chatID int64
}

// NewTelegram connects to the Bot API with the given token.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	log.Printf("[tg] authorized as @%s", bot.Self.UserName)
	return NewTelegramWithSender(bot, chatID), nil
}

func NewTelegramWithSender(bot Sender, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

func (t *Telegram) Notify(_ context.Context, ev Event) error {
	if t.chatID == 0 || len(ev.Activities) == 0 {
		return nil
	}
	msg := tgbotapi.NewMessage(t.chatID, telegramText(ev))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func telegramText(ev Event) string {
	var b strings.Builder
	b.WriteString("<b>")
	b.WriteString(tgbotapi.EscapeText(tgbotapi.ModeHTML, Subject(ev.Task)))
	b.WriteString("</b>")
	for _, a := range ev.Activities {
		b.WriteString("\n")
		b.WriteString(tgbotapi.EscapeText(tgbotapi.ModeHTML, Line(a)))
	}
	return b.String()
}
