package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/turbekoff/calcpad/pkg/calc"
)

var ErrSessionExpired = errors.New("session has expired")

type keypadKey struct {
	label string
	data  string
}

var keypad = [][]keypadKey{
	{{"AC", calc.KeyClear}, {"C", calc.KeyClearEntry}, {"%", calc.KeyPercent}, {"÷", "/"}},
	{{"7", "7"}, {"8", "8"}, {"9", "9"}, {"×", "*"}},
	{{"4", "4"}, {"5", "5"}, {"6", "6"}, {"-", "-"}},
	{{"1", "1"}, {"2", "2"}, {"3", "3"}, {"+", "+"}},
	{{"±", calc.KeyToggleSign}, {"0", "0"}, {".", "."}, {"=", "="}},
}

// botKeyboard renders the keypad with the active operator marked.
func botKeyboard(active calc.Operator) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keypad))
	for _, line := range keypad {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(line))
		for _, k := range line {
			label := k.label
			if active != calc.None && k.data == active.String() {
				label = "•" + label + "•"
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, k.data))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func sessionKey(chatID, userID int64) string {
	return fmt.Sprintf("%d_%d", chatID, userID)
}

type Bot struct {
	mc         *Memcached[string, *calc.Calculator]
	api        *tgbotapi.BotAPI
	config     *Config
	welcome    string
	help       string
	isStarted  atomic.Bool
	inShutdown atomic.Bool
	isDone     chan struct{}
	logger     *slog.Logger
}

func LoadBot(config *Config, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(config.BotToken)
	if err != nil {
		return nil, fmt.Errorf("connect telegram: %w", err)
	}

	return &Bot{
		api:    api,
		config: config,
		logger: logger.With("adapter", "telegram", "bot", api.Self.UserName),
		isDone: make(chan struct{}),
		mc: NewMemcached[string, *calc.Calculator](
			config.MemcachedTTLTimeout,
			config.MemcachedCleanupTimeout,
		),
		welcome: fmt.Sprintf(
			"%s%s %s of inactivity.",
			"Welcome! Type /open to get started.\n",
			"Note: the session expires after",
			config.MemcachedTTLTimeout,
		),
		help: strings.Join([]string{
			"Help:",
			"/start - welcome message.",
			"/open - open new session.",
			"/help - send this message.",
		}, "\n"),
	}, nil
}

func (b *Bot) Run() error {
	if !b.isStarted.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer close(b.isDone)

	updateConfig := tgbotapi.NewUpdate(b.config.BotOffset)
	updateConfig.Timeout = b.config.BotTimeout
	updates := b.api.GetUpdatesChan(updateConfig)

	for update := range updates {
		if b.inShutdown.Load() && b.mc.IsEmpty() {
			continue
		}

		if update.CallbackQuery != nil {
			if err := b.handleCallback(update.CallbackQuery); err != nil {
				b.logger.Warn("failed to handle callback",
					"callback_id", update.CallbackQuery.ID,
					"data", update.CallbackQuery.Data,
					"error", err,
				)
			}
			continue
		}

		if update.Message == nil {
			continue
		}

		if err := b.handleCommand(update.Message); err != nil {
			b.logger.Warn("failed to handle command",
				"chat_id", update.Message.Chat.ID,
				"command", update.Message.Text,
				"error", err,
			)
		}
	}

	return ErrClosed
}

func (b *Bot) createMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) createKeyboard(chatID int64, calculator *calc.Calculator) error {
	msg := tgbotapi.NewMessage(chatID, calculator.Display())
	msg.ReplyMarkup = botKeyboard(calculator.Active())

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send keypad: %w", err)
	}
	return nil
}

func (b *Bot) updateKeyboard(callback *tgbotapi.CallbackQuery, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	if text == callback.Message.Text && reflect.DeepEqual(markup, callback.Message.ReplyMarkup) {
		return nil
	}

	edit := tgbotapi.NewEditMessageText(
		callback.Message.Chat.ID,
		callback.Message.MessageID,
		text,
	)
	edit.ReplyMarkup = markup

	if _, err := b.api.Send(edit); err != nil {
		return fmt.Errorf("edit keypad: %w", err)
	}
	return nil
}

func (b *Bot) handleCommand(command *tgbotapi.Message) error {
	switch command.Text {
	case "/start":
		return b.createMessage(command.Chat.ID, b.welcome)
	case "/help":
		return b.createMessage(command.Chat.ID, b.help)
	case "/open":
		if command.From == nil {
			return calc.ErrUnsupported
		}
		key := sessionKey(command.Chat.ID, command.From.ID)

		if _, ok := b.mc.Get(key); ok {
			return b.createMessage(
				command.Chat.ID,
				"Your session is not expired!",
			)
		}

		calculator := calc.NewCalculator()
		err := b.createKeyboard(command.Chat.ID, calculator)
		if err == nil {
			b.mc.Set(key, calculator)
			b.logger.Debug("session opened", "session", key)
		}
		return err
	default:
		return b.createMessage(command.Chat.ID, "Unknown command. Try /help")
	}
}

func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) error {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	if callback.Message == nil {
		return calc.ErrUnsupported
	}

	key := sessionKey(callback.Message.Chat.ID, callback.From.ID)
	calculator, ok := b.mc.Get(key)
	if !ok {
		err := b.updateKeyboard(
			callback,
			"Your session has expired, please /open a new one.",
			nil,
		)
		if err != nil {
			return err
		}
		return ErrSessionExpired
	}

	if err := calculator.Press(callback.Data); err != nil {
		return err
	}

	markup := botKeyboard(calculator.Active())
	err := b.updateKeyboard(callback, calculator.Display(), &markup)
	if err == nil {
		b.mc.Set(key, calculator)
	}
	return err
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.inShutdown.Store(true)
	err := b.mc.Shutdown(ctx)
	b.api.StopReceivingUpdates()

	select {
	case <-b.isDone:
		if errors.Is(err, ErrMemcachedClosed) {
			return ErrClosed
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) Close() error {
	b.inShutdown.Store(true)
	err := b.mc.Close()
	b.api.StopReceivingUpdates()
	<-b.isDone

	if errors.Is(err, ErrMemcachedClosed) {
		return ErrClosed
	}
	return err
}
