package messenger

import (
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram sends notifications over the Telegram Bot API. An empty token
// degrades it to logging-only mode, the same way the bot handled it.
type Telegram struct {
	api      *tgbotapi.BotAPI
	chatID   int64
	disabled bool
}

// NewTelegram creates a Telegram messenger. If token is empty, returns a
// disabled instance that logs instead of sending.
func NewTelegram(token, chatID string) (*Telegram, error) {
	if token == "" {
		log.Println("[messenger] no Telegram token provided, running in disabled mode (logging only)")
		return &Telegram{disabled: true}, nil
	}

	parsedChatID, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("messenger: invalid chat ID %q: %w", chatID, err)
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("messenger: create Telegram bot: %w", err)
	}

	log.Printf("[messenger] authorized as @%s", api.Self.UserName)

	return &Telegram{api: api, chatID: parsedChatID}, nil
}

// NotifyScanComplete reports the bucket counts from a finished scan run.
func (t *Telegram) NotifyScanComplete(targetDateLocal string, primaryCount, tightCount, nearMissCount int) error {
	return t.sendAlert("Scan Complete", fmt.Sprintf(
		"Target date: `%s`\nPRIMARY: `%d`\nTIGHT: `%d`\nNEAR-MISS: `%d`",
		targetDateLocal, primaryCount, tightCount, nearMissCount,
	))
}

// NotifySpikeBurst reports one enriched burst-iteration alert: ordinal,
// market movement, the edge analyzer's read, time risk, and the conviction
// trend built up across the burst so far.
func (t *Telegram) NotifySpikeBurst(alert SpikeBurstAlert) error {
	title := fmt.Sprintf("Spike Burst %d/%d", alert.Ordinal, alert.Total)

	body := fmt.Sprintf(
		"City: `%s` Bracket: `%s`\nMarket: `%s`\nTime: `%s`\n\n"+
			"*Market*: %d¢ -> %d¢, now %d¢ \\(%+d¢\\)\n",
		escapeMarkdown(alert.City), escapeMarkdown(alert.Bracket), escapeMarkdown(alert.MarketTicker), escapeMarkdown(alert.TimeLabel),
		alert.FromCents, alert.ToCents, alert.CurrentCents, alert.DeltaCents,
	)

	if alert.MetarF != nil {
		body += fmt.Sprintf("METAR: `%d`F\n", *alert.MetarF)
	}
	if alert.PreciseF != nil {
		body += fmt.Sprintf("Precise: `%.2f`F \\(%s\\)\n", *alert.PreciseF, escapeMarkdown(alert.PreciseSource))
	}
	if alert.RunningMaxF != nil {
		body += fmt.Sprintf("Running max: `%d`F, margin `%s`\n", *alert.RunningMaxF, escapeMarkdown(alert.MarginStatus))
	}

	body += fmt.Sprintf("\n*Signal*: `%s` \\(%s\\)\n%s\n", escapeMarkdown(alert.Signal), escapeMarkdown(alert.TimeRisk), escapeMarkdown(alert.SignalReason))

	body += "\n*Conviction trend*\n"
	for _, row := range alert.Conviction {
		marker := ""
		if row.IsCurrent {
			marker = " <- you are here"
		}
		if row.Signal == "" {
			body += fmt.Sprintf("%d/%d `%s` \\(pending\\)\n", row.Ordinal, row.Total, escapeMarkdown(row.TimeLabel))
			continue
		}
		body += fmt.Sprintf("%d/%d `%s` signal=`%s`%s\n", row.Ordinal, row.Total, escapeMarkdown(row.TimeLabel), escapeMarkdown(row.Signal), marker)
	}

	return t.sendAlert(title, body)
}

// NotifyError reports a run-time error with its originating context.
func (t *Telegram) NotifyError(context string, err error) error {
	return t.sendAlert("Error", fmt.Sprintf("Context: `%s`\n`%s`", escapeMarkdown(context), escapeMarkdown(err.Error())))
}

func (t *Telegram) sendAlert(title, body string) error {
	formatted := fmt.Sprintf("*%s*\n\n%s", escapeMarkdown(title), body)
	return t.send(formatted)
}

func (t *Telegram) send(text string) error {
	if t.disabled {
		log.Printf("[messenger] (disabled) %s", text)
		return nil
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := t.api.Send(msg); err != nil {
		log.Printf("[messenger] failed to send Telegram message: %v", err)
		return fmt.Errorf("messenger: telegram send failed: %w", err)
	}
	return nil
}

var markdownEscapes = []string{
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
	"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
}

// escapeMarkdown escapes Telegram MarkdownV2-sensitive characters.
func escapeMarkdown(text string) string {
	result := text
	for i := 0; i < len(markdownEscapes); i += 2 {
		result = replaceAll(result, markdownEscapes[i], markdownEscapes[i+1])
	}
	return result
}

func replaceAll(s, old, new string) string {
	var result []byte
	for i := 0; i < len(s); i++ {
		if i+len(old) <= len(s) && s[i:i+len(old)] == old {
			result = append(result, new...)
			i += len(old) - 1
		} else {
			result = append(result, s[i])
		}
	}
	return string(result)
}

var _ Messenger = (*Telegram)(nil)
