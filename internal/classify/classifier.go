package classify

import (
	"encoding/json"
	"strconv"

	"streamgate/internal/model"
)

// Classifier maps raw wire payloads to canonical events. It is stateless and
// safe for concurrent use; the same payload always yields the same events.
type Classifier struct {
	decoders []Decoder
}

// NewClassifier creates a classifier with the default decoder list.
func NewClassifier() *Classifier {
	return &Classifier{decoders: DefaultDecoders()}
}

// NewClassifierWithDecoders creates a classifier with an explicit decoder
// list, tried in order.
func NewClassifierWithDecoders(decoders []Decoder) *Classifier {
	return &Classifier{decoders: decoders}
}

// Decode parses a raw payload into frames without classifying them. The
// connection layer uses this for handshake control frames.
func (c *Classifier) Decode(data []byte) ([]Frame, error) {
	return decodeFrames(c.decoders, data)
}

// Classify decodes a raw payload and maps each frame to a canonical event.
// Control frames and frames with unknown discriminators are skipped, so the
// result may be empty. The only error condition is a payload no decoder
// accepts.
func (c *Classifier) Classify(source string, data []byte) ([]model.Event, error) {
	frames, err := c.Decode(data)
	if err != nil {
		return nil, err
	}

	var events []model.Event
	for _, f := range frames {
		if ev, ok := ClassifyFrame(source, f); ok {
			events = append(events, ev)
		}
	}
	return events, nil
}

// ClassifyFrame maps one decoded frame to a canonical event. Returns false
// for control frames and unrecognized discriminators.
func ClassifyFrame(source string, f Frame) (model.Event, bool) {
	switch f.T {
	case TypeQuote:
		return model.Event{
			Kind:      model.KindQuote,
			Source:    source,
			Symbol:    f.Symbol,
			Timestamp: f.Timestamp,
			Quote: model.Quote{
				BidPrice: f.BidPrice,
				AskPrice: f.AskPrice,
				BidSize:  f.BidSize,
				AskSize:  f.AskSize,
			},
		}, true

	case TypeTrade:
		return model.Event{
			Kind:      model.KindTrade,
			Source:    source,
			Symbol:    f.Symbol,
			Timestamp: f.Timestamp,
			Trade: model.Trade{
				Price: f.Price,
				Size:  f.Size,
			},
		}, true

	case TypeBar:
		return model.Event{
			Kind:      model.KindBar,
			Source:    source,
			Symbol:    f.Symbol,
			Timestamp: f.Timestamp,
			Bar: model.Bar{
				Open:   f.Open,
				High:   f.High,
				Low:    f.Low,
				Close:  f.Close,
				Volume: f.Volume,
			},
		}, true
	}

	if f.Stream == StreamTradeUpdates {
		return classifyTradeUpdate(source, f)
	}

	// Control frames and unknown discriminators produce no events.
	return model.Event{}, false
}

// classifyTradeUpdate maps a trade_updates envelope to a canonical event.
func classifyTradeUpdate(source string, f Frame) (model.Event, bool) {
	var data tradeUpdateData
	if err := json.Unmarshal(f.Data, &data); err != nil {
		return model.Event{}, false
	}

	qty, _ := strconv.ParseFloat(data.Order.Qty, 64)

	return model.Event{
		Kind:      model.KindTradeUpdate,
		Source:    source,
		Symbol:    data.Order.Symbol,
		Timestamp: data.Timestamp,
		TradeUpdate: model.TradeUpdate{
			Event:       data.Event,
			Side:        data.Order.Side,
			Qty:         qty,
			OrderStatus: data.Order.Status,
		},
	}, true
}
