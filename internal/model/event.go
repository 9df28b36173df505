package model

import (
	"encoding/json"
	"time"
)

// EventKind discriminates the variant carried by an Event.
type EventKind string

const (
	KindQuote       EventKind = "quote"
	KindTrade       EventKind = "trade"
	KindBar         EventKind = "bar"
	KindTradeUpdate EventKind = "trade_update"
)

// Quote holds top-of-book data for a quote event.
type Quote struct {
	BidPrice float64
	AskPrice float64
	BidSize  float64
	AskSize  float64
}

// Trade holds data for an executed-trade event.
type Trade struct {
	Price float64
	Size  float64
}

// Bar holds OHLCV data for an aggregate-bar event.
type Bar struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// TradeUpdate holds data for an order-lifecycle event from the
// account stream.
type TradeUpdate struct {
	Event       string  // "fill", "partial_fill", "new", "canceled", ...
	Side        string  // "buy" or "sell"
	Qty         float64 // Order quantity
	OrderStatus string  // Order status after this update
}

// Event is the canonical representation of one upstream update. Exactly one
// variant field is meaningful, selected by Kind; the others hold zero values.
type Event struct {
	Kind      EventKind
	Source    string // Endpoint name the event was received from
	Symbol    string
	Timestamp time.Time

	Quote       Quote
	Trade       Trade
	Bar         Bar
	TradeUpdate TradeUpdate
}

// MarshalJSON flattens the active variant into the downstream wire format:
//
//	{"type":"quote","source":"iex","symbol":"AAPL",...,"timestamp":"..."}
func (e Event) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"type":      string(e.Kind),
		"source":    e.Source,
		"symbol":    e.Symbol,
		"timestamp": e.Timestamp.UTC().Format(time.RFC3339Nano),
	}

	switch e.Kind {
	case KindQuote:
		m["bid_price"] = e.Quote.BidPrice
		m["ask_price"] = e.Quote.AskPrice
		m["bid_size"] = e.Quote.BidSize
		m["ask_size"] = e.Quote.AskSize
	case KindTrade:
		m["price"] = e.Trade.Price
		m["size"] = e.Trade.Size
	case KindBar:
		m["open"] = e.Bar.Open
		m["high"] = e.Bar.High
		m["low"] = e.Bar.Low
		m["close"] = e.Bar.Close
		m["volume"] = e.Bar.Volume
	case KindTradeUpdate:
		m["event"] = e.TradeUpdate.Event
		m["side"] = e.TradeUpdate.Side
		m["qty"] = e.TradeUpdate.Qty
		m["order_status"] = e.TradeUpdate.OrderStatus
	}

	return json.Marshal(m)
}
