package classify

import (
	"encoding/json"
	"time"
)

// Frame type discriminators observed on market-data endpoints.
const (
	TypeSuccess = "success"
	TypeError   = "error"
	TypeQuote   = "q"
	TypeTrade   = "t"
	TypeBar     = "b"
)

// Stream envelope names observed on the account endpoint.
const (
	StreamTradeUpdates  = "trade_updates"
	StreamAuthorization = "authorization"
	StreamListening     = "listening"
)

// Frame is one decoded wire frame. It is the superset of the fields emitted
// by the market-data endpoints (T-discriminated) and the account endpoint
// (stream-enveloped); unused fields hold zero values.
type Frame struct {
	// Market-data discriminator and control fields.
	T    string `json:"T" msgpack:"T"`
	Msg  string `json:"msg" msgpack:"msg"`
	Code int    `json:"code" msgpack:"code"`

	Symbol    string    `json:"S" msgpack:"S"`
	Timestamp time.Time `json:"t" msgpack:"t"`

	// Quote fields.
	BidPrice float64 `json:"bp" msgpack:"bp"`
	AskPrice float64 `json:"ap" msgpack:"ap"`
	BidSize  float64 `json:"bs" msgpack:"bs"`
	AskSize  float64 `json:"as" msgpack:"as"`

	// Trade fields.
	Price float64 `json:"p" msgpack:"p"`
	Size  float64 `json:"s" msgpack:"s"`

	// Bar fields.
	Open   float64 `json:"o" msgpack:"o"`
	High   float64 `json:"h" msgpack:"h"`
	Low    float64 `json:"l" msgpack:"l"`
	Close  float64 `json:"c" msgpack:"c"`
	Volume float64 `json:"v" msgpack:"v"`

	// Account stream envelope. Data stays raw until the envelope name says
	// how to parse it.
	Stream string          `json:"stream" msgpack:"-"`
	Data   json.RawMessage `json:"data" msgpack:"-"`
}

// IsControl reports whether the frame is a handshake/subscription control
// frame rather than a data frame.
func (f Frame) IsControl() bool {
	switch f.T {
	case TypeSuccess, TypeError:
		return true
	}
	switch f.Stream {
	case StreamAuthorization, StreamListening:
		return true
	}
	return false
}

// tradeUpdateData is the payload of a trade_updates envelope.
type tradeUpdateData struct {
	Event     string          `json:"event"`
	Timestamp time.Time       `json:"timestamp"`
	Order     tradeUpdateWire `json:"order"`
}

type tradeUpdateWire struct {
	Symbol string `json:"symbol"`
	Side   string `json:"side"`
	Qty    string `json:"qty"`
	Status string `json:"status"`
}
