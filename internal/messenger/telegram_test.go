package messenger

import (
	"errors"
	"testing"
)

func TestNewTelegramEmptyTokenIsDisabled(t *testing.T) {
	tg, err := NewTelegram("", "123456")
	if err != nil {
		t.Fatalf("expected no error for empty token, got: %v", err)
	}
	if !tg.disabled {
		t.Error("expected a disabled Telegram messenger")
	}
}

func TestNewTelegramInvalidChatID(t *testing.T) {
	_, err := NewTelegram("fake-token", "not-a-number")
	if err == nil {
		t.Fatal("expected an error for a non-numeric chat ID")
	}
}

func TestTelegramDisabledModeNeverErrors(t *testing.T) {
	tg := &Telegram{disabled: true}

	if err := tg.NotifyScanComplete("2026-07-30", 3, 1, 2); err != nil {
		t.Errorf("NotifyScanComplete: %v", err)
	}
	alert := SpikeBurstAlert{
		MarketTicker: "KXHIGHNY-26JUL30-T90", City: "New York", Bracket: "90-91F",
		Ordinal: 1, Total: 3, TimeLabel: "14:05 ET",
		FromCents: 70, ToCents: 90, CurrentCents: 90, DeltaCents: 20,
		Signal: "BUY", SignalReason: "edge detected", TimeRisk: "STILL_RISING",
		Conviction: []ConvictionRow{
			{Ordinal: 1, Total: 3, TimeLabel: "14:05 ET", Signal: "BUY", IsCurrent: true},
			{Ordinal: 2, Total: 3, TimeLabel: "14:06 ET"},
		},
	}
	if err := tg.NotifySpikeBurst(alert); err != nil {
		t.Errorf("NotifySpikeBurst: %v", err)
	}
	if err := tg.NotifyError("scan", errors.New("boom")); err != nil {
		t.Errorf("NotifyError: %v", err)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain text", "plain text"},
		{"*bold*", "\\*bold\\*"},
		{"KXHIGHNY-26JUL30-T90", "KXHIGHNY\\-26JUL30\\-T90"},
	}
	for _, c := range cases {
		if got := escapeMarkdown(c.in); got != c.want {
			t.Errorf("escapeMarkdown(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNoopMessengerNeverErrors(t *testing.T) {
	n := NewNoop()
	if err := n.NotifyScanComplete("2026-07-30", 1, 0, 0); err != nil {
		t.Errorf("NotifyScanComplete: %v", err)
	}
	if err := n.NotifySpikeBurst(SpikeBurstAlert{MarketTicker: "T", Ordinal: 1, Total: 1, FromCents: 10, ToCents: 20, CurrentCents: 20, DeltaCents: 10}); err != nil {
		t.Errorf("NotifySpikeBurst: %v", err)
	}
	if err := n.NotifyError("ctx", errors.New("boom")); err != nil {
		t.Errorf("NotifyError: %v", err)
	}
}
