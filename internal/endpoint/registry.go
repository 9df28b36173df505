package endpoint

// Kind identifies the protocol family an endpoint speaks.
type Kind string

const (
	// KindMarketData endpoints emit T-discriminated frames (quotes, trades,
	// bars) and take symbol-based subscriptions.
	KindMarketData Kind = "market_data"

	// KindAccount endpoints emit stream-enveloped frames (trade updates) and
	// take a stream-listen request instead of a symbol subscription.
	KindAccount Kind = "account"
)

// Descriptor describes one candidate upstream endpoint. Descriptors are
// created at process start and never mutated.
type Descriptor struct {
	Name           string
	URL            string
	RequiresAuth   bool
	DefaultSymbols []string
	Description    string
	Kind           Kind
}

// SymbolAgnostic reports whether the endpoint streams without a symbol
// subscription (account/order-event streams).
func (d Descriptor) SymbolAgnostic() bool {
	return d.Kind == KindAccount
}

// Registry is an immutable catalog of endpoint descriptors.
type Registry struct {
	endpoints []Descriptor
}

// NewRegistry creates a registry from an explicit descriptor list.
func NewRegistry(endpoints []Descriptor) *Registry {
	eps := make([]Descriptor, len(endpoints))
	copy(eps, endpoints)
	return &Registry{endpoints: eps}
}

// DefaultRegistry returns the built-in endpoint catalog.
func DefaultRegistry() *Registry {
	return NewRegistry([]Descriptor{
		{
			Name:           "iex",
			URL:            "wss://stream.data.alpaca.markets/v2/iex",
			RequiresAuth:   true,
			DefaultSymbols: []string{"AAPL", "MSFT", "SPY"},
			Description:    "IEX equities feed (free tier)",
			Kind:           KindMarketData,
		},
		{
			Name:           "sip",
			URL:            "wss://stream.data.alpaca.markets/v2/sip",
			RequiresAuth:   true,
			DefaultSymbols: []string{"AAPL", "MSFT", "SPY"},
			Description:    "Consolidated SIP equities feed (paid tier)",
			Kind:           KindMarketData,
		},
		{
			Name:           "crypto",
			URL:            "wss://stream.data.alpaca.markets/v1beta3/crypto/us",
			RequiresAuth:   true,
			DefaultSymbols: []string{"BTC/USD", "ETH/USD"},
			Description:    "US crypto feed",
			Kind:           KindMarketData,
		},
		{
			Name:         "trade_updates",
			URL:          "wss://paper-api.alpaca.markets/stream",
			RequiresAuth: true,
			Description:  "Order and account event stream",
			Kind:         KindAccount,
		},
	})
}

// All returns a copy of the descriptor list.
func (r *Registry) All() []Descriptor {
	eps := make([]Descriptor, len(r.endpoints))
	copy(eps, r.endpoints)
	return eps
}

// Get looks up a descriptor by name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	for _, ep := range r.endpoints {
		if ep.Name == name {
			return ep, true
		}
	}
	return Descriptor{}, false
}

// Len returns the number of endpoints in the catalog.
func (r *Registry) Len() int {
	return len(r.endpoints)
}

// Override describes a per-endpoint configuration override.
type Override struct {
	URL      string
	Symbols  []string
	Disabled bool
}

// WithOverrides returns a new registry with per-endpoint overrides applied.
// Overrides for unknown endpoint names are ignored. Disabled endpoints are
// dropped from the catalog.
func (r *Registry) WithOverrides(overrides map[string]Override) *Registry {
	eps := make([]Descriptor, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		ov, ok := overrides[ep.Name]
		if !ok {
			eps = append(eps, ep)
			continue
		}
		if ov.Disabled {
			continue
		}
		if ov.URL != "" {
			ep.URL = ov.URL
		}
		if len(ov.Symbols) > 0 {
			ep.DefaultSymbols = append([]string(nil), ov.Symbols...)
		}
		eps = append(eps, ep)
	}
	return &Registry{endpoints: eps}
}
