package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"github.com/competiscan/competiscan-go/internal/models"
)

// SubscriberSource lists the Telegram chats subscribed to breakout alerts.
type SubscriberSource interface {
	ListAlertSubscribers(ctx context.Context) ([]int64, error)
}

// AlertService pushes breakout alerts to Telegram subscribers. With no bot
// token configured the service is a no-op.
type AlertService struct {
	subscribers SubscriberSource
	bot         *bot.Bot
	logger      *logrus.Logger
}

// NewAlertService creates an alert service. An empty token disables delivery.
func NewAlertService(subscribers SubscriberSource, telegramBotToken string, logger *logrus.Logger) *AlertService {
	var telegramBot *bot.Bot
	if telegramBotToken != "" {
		var err error
		telegramBot, err = bot.New(telegramBotToken)
		if err != nil {
			logger.WithError(err).Warn("Telegram bot unavailable; breakout alerts disabled")
		}
	}

	return &AlertService{
		subscribers: subscribers,
		bot:         telegramBot,
		logger:      logger,
	}
}

// NotifyBreakouts formats the breakouts into one digest message and sends it
// to every subscriber. Individual delivery failures are logged, not fatal.
func (a *AlertService) NotifyBreakouts(ctx context.Context, breakouts []models.TrendAnalysis) error {
	if a.bot == nil || len(breakouts) == 0 {
		return nil
	}

	chatIDs, err := a.subscribers.ListAlertSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("list alert subscribers: %w", err)
	}
	if len(chatIDs) == 0 {
		a.logger.Debug("No breakout alert subscribers")
		return nil
	}

	message := formatBreakoutDigest(breakouts)
	for _, chatID := range chatIDs {
		_, err := a.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      message,
			ParseMode: tgmodels.ParseModeMarkdown,
		})
		if err != nil {
			a.logger.WithError(err).WithFields(logrus.Fields{"chat_id": chatID}).
				Warn("Failed to deliver breakout alert")
			continue
		}
		a.logger.WithFields(logrus.Fields{"chat_id": chatID, "breakouts": len(breakouts)}).
			Info("Sent breakout alert")
	}

	return nil
}

func formatBreakoutDigest(breakouts []models.TrendAnalysis) string {
	var sb strings.Builder
	sb.WriteString("*Trend Breakout Alert*\n\n")
	for _, b := range breakouts {
		sb.WriteString(fmt.Sprintf("• *%s* (%s): %s, accel %.3f/day², strength %.2f\n",
			b.Label, b.Type, b.Direction, b.Acceleration, b.Strength))
	}
	sb.WriteString(fmt.Sprintf("\n%d trend(s) accelerating sharply", len(breakouts)))
	return sb.String()
}
