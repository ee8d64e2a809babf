package reminder

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// ErrNoChat is returned by notifiers that cannot reach the learner.
var ErrNoChat = errors.New("learner has no linked chat")

// Notice tells one learner that reviews are waiting.
type Notice struct {
	LearnerID   string
	DisplayName string
	ChatID      int64
	DueCount    int
}

// Text renders the reminder message.
func (n Notice) Text() string {
	name := n.DisplayName
	if name == "" {
		name = n.LearnerID
	}
	word := "words are"
	if n.DueCount == 1 {
		word = "word is"
	}
	return fmt.Sprintf("Hallo %s! %d %s due for review. Run `sprachiz flashcards` to practice.", name, n.DueCount, word)
}

// Notifier delivers a notice.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// LogNotifier writes notices to the log.
type LogNotifier struct {
	log logrus.FieldLogger
}

// NewLogNotifier creates a notifier that only logs.
func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, n Notice) error {
	l.log.WithFields(logrus.Fields{
		"learner": n.LearnerID,
		"due":     n.DueCount,
	}).Info(n.Text())
	return nil
}

// TelegramSender is the part of the bot API the notifier uses.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends notices as Telegram messages.
type TelegramNotifier struct {
	bot TelegramSender
}

// NewTelegramNotifier connects to the bot API with token.
func NewTelegramNotifier(token string) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	return NewTelegramNotifierWithSender(bot), nil
}

// NewTelegramNotifierWithSender creates a notifier over an existing sender.
func NewTelegramNotifierWithSender(bot TelegramSender) *TelegramNotifier {
	return &TelegramNotifier{bot: bot}
}

func (t *TelegramNotifier) Notify(_ context.Context, n Notice) error {
	if n.ChatID == 0 {
		return ErrNoChat
	}
	msg := tgbotapi.NewMessage(n.ChatID, n.Text())
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram reminder: %w", err)
	}
	return nil
}

// Fallback tries Primary and uses Secondary for learners Primary cannot
// reach.
type Fallback struct {
	Primary   Notifier
	Secondary Notifier
}

func (f Fallback) Notify(ctx context.Context, n Notice) error {
	err := f.Primary.Notify(ctx, n)
	if errors.Is(err, ErrNoChat) {
		return f.Secondary.Notify(ctx, n)
	}
	return err
}
