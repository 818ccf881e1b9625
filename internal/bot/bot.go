// Package bot реализует Telegram-бота для поиска туристических мест.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"travelplanner/internal/model"
	"travelplanner/internal/service"
)

const (
	placePrefix  = "PLACE_"
	maxButtonLen = 30
)

// Sender часть tgbotapi.BotAPI, которой пользуется бот.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Searcher поиск мест и их описания.
type Searcher interface {
	Search(ctx context.Context, query string, describe bool) (model.Recommendations, error)
	Describe(ctx context.Context, place model.Place, interests string) model.Blurb
}

// Bot обрабатывает обновления Telegram.
type Bot struct {
	api      Sender
	search   Searcher
	sessions *sessions
	logger   *log.Logger
}

func New(api Sender, search Searcher, logger *log.Logger) *Bot {
	return &Bot{api: api, search: search, sessions: newSessions(), logger: logger}
}

// Run обрабатывает обновления, пока не закроется канал или не отменится контекст.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate обрабатывает одно обновление: команду, текст или нажатие кнопки.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if cq := update.CallbackQuery; cq != nil {
		b.handleCallback(ctx, cq)
		return
	}
	msg := update.Message
	if msg == nil {
		return
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			name := ""
			if msg.From != nil {
				name = msg.From.FirstName
			}
			b.reply(chatID, fmt.Sprintf("Здравствуйте, %s! Опишите, какое место ищете, например: beach sunset.\n/search <запрос> - поиск\n/reset - забыть последнюю выдачу", name))
		case "search":
			b.handleSearch(ctx, chatID, msg.CommandArguments())
		case "reset":
			b.sessions.Reset(chatID)
			b.reply(chatID, "Выдача очищена.")
		default:
			b.reply(chatID, "Неизвестная команда. Введите /help.")
		}
		return
	}

	b.handleSearch(ctx, chatID, msg.Text)
}

func (b *Bot) handleSearch(ctx context.Context, chatID int64, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		b.reply(chatID, "Введите запрос, например: /search tea hills")
		return
	}
	results, err := b.search.Search(ctx, query, false)
	if err != nil {
		if errors.Is(err, service.ErrIndexUnavailable) {
			b.reply(chatID, "Поиск временно недоступен.")
			return
		}
		b.logger.Error("ошибка поиска", "chat_id", chatID, "err", err)
		b.reply(chatID, "Ошибка поиска.")
		return
	}
	if len(results) == 0 {
		b.reply(chatID, "Ничего не найдено.")
		return
	}
	b.sessions.Save(chatID, query, results)

	rows := make([][]tgbotapi.InlineKeyboardButton, len(results))
	for i, r := range results {
		name := r.Place.City
		if len([]rune(name)) > maxButtonLen {
			name = string([]rune(name)[:maxButtonLen]) + "..."
		}
		rows[i] = tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(name, placePrefix+strconv.Itoa(i)),
		)
	}
	reply := tgbotapi.NewMessage(chatID, fmt.Sprintf("Найдено: %d", len(results)))
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(reply)
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.Debug("не удалось ответить на callback", "err", err)
	}
	chatID := cq.From.ID
	if cq.Message != nil && cq.Message.Chat != nil {
		chatID = cq.Message.Chat.ID
	}

	raw, ok := strings.CutPrefix(cq.Data, placePrefix)
	if !ok {
		return
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return
	}
	rec, query, ok := b.sessions.Result(chatID, i)
	if !ok {
		b.reply(chatID, "Выдача устарела. Повторите поиск.")
		return
	}

	blurb := b.search.Describe(ctx, rec.Place, query)
	msg := tgbotapi.NewMessage(chatID, placeText(rec, blurb))
	msg.ParseMode = tgbotapi.ModeMarkdown
	b.send(msg)
}

func placeText(rec model.Recommendation, blurb model.Blurb) string {
	esc := func(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s) }
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s*\nЛучшее время: %s\n\n%s", esc(rec.Place.City), esc(rec.Place.BestTime), esc(rec.Place.Description))
	if blurb.Text != "" {
		fmt.Fprintf(&sb, "\n\n_%s_", esc(blurb.Text))
	}
	if rec.MapLink != "" {
		fmt.Fprintf(&sb, "\n\n[Открыть в картах](%s)", rec.MapLink)
	}
	return sb.String()
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Warn("не удалось отправить сообщение", "err", err)
	}
}
