package sink

import (
	"testing"

	"streamgate/internal/model"
)

func TestSubject(t *testing.T) {
	p := &NATSPublisher{prefix: "events"}

	cases := []struct {
		name  string
		event model.Event
		want  string
	}{
		{
			"equity quote",
			model.Event{Source: "iex", Symbol: "AAPL"},
			"events.iex.AAPL",
		},
		{
			"crypto pair",
			model.Event{Source: "crypto", Symbol: "BTC/USD"},
			"events.crypto.BTC-USD",
		},
		{
			"symbolless account event",
			model.Event{Source: "trade_updates"},
			"events.trade_updates._",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.subject(tc.event); got != tc.want {
				t.Errorf("subject = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSanitizeToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"AAPL", "AAPL"},
		{"BTC/USD", "BTC-USD"},
		{"a.b c", "a-b-c"},
		{"x*>y", "x--y"},
	}

	for _, tc := range cases {
		if got := sanitizeToken(tc.in); got != tc.want {
			t.Errorf("sanitizeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
