package venue

// Series is a top-level product grouping (e.g. "daily high temperature in
// New York").
type Series struct {
	Ticker   string   `json:"ticker"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// Event groups the markets that settle on the same underlying occurrence
// (e.g. one calendar day's temperature brackets for one city).
type Event struct {
	EventTicker  string   `json:"event_ticker"`
	SeriesTicker string   `json:"series_ticker"`
	Title        string   `json:"title"`
	SubTitle     string   `json:"sub_title"`
	Markets      []Market `json:"markets,omitempty"`
}

// Market is a single tradeable bracket.
type Market struct {
	Ticker       string `json:"ticker"`
	EventTicker  string `json:"event_ticker"`
	Title        string `json:"title"`
	Subtitle     string `json:"yes_sub_title"`
	Status       string `json:"status"`
	CloseTime    string `json:"close_time"`
	RulesPrimary string `json:"rules_primary"`
}

// PriceLevel is one rung of an orderbook side: price in cents, quantity of
// contracts.
type PriceLevel struct {
	PriceCents int
	Quantity   int
}

// Orderbook is the raw top-of-book response for one market.
type Orderbook struct {
	Ticker string
	Yes    []PriceLevel
	No     []PriceLevel
}

// BestYesBid returns the highest YES bid in cents, or false if the book side
// is empty.
func (o Orderbook) BestYesBid() (int, bool) {
	if len(o.Yes) == 0 {
		return 0, false
	}
	return o.Yes[0].PriceCents, true
}

// BestNoBid returns the highest NO bid in cents, or false if the book side
// is empty.
func (o Orderbook) BestNoBid() (int, bool) {
	if len(o.No) == 0 {
		return 0, false
	}
	return o.No[0].PriceCents, true
}

// ImpliedBestNoAskCents derives the best NO ask from the best YES bid: in a
// binary complementary market, buying NO at the ask is equivalent to
// selling YES at the bid, so impliedNoAsk = 100 - bestYesBid.
func (o Orderbook) ImpliedBestNoAskCents() (int, bool) {
	yesBid, ok := o.BestYesBid()
	if !ok {
		return 0, false
	}
	return 100 - yesBid, true
}

// BidRoomCents is the gap between the implied NO ask and the best resting
// NO bid — how far a new NO limit order could improve before crossing.
func (o Orderbook) BidRoomCents() (int, bool) {
	ask, ok := o.ImpliedBestNoAskCents()
	if !ok {
		return 0, false
	}
	bid, ok := o.BestNoBid()
	if !ok {
		return 0, false
	}
	return ask - bid, true
}

// Top3Depth sums the quantity across the top 3 levels of one book side.
func Top3Depth(levels []PriceLevel) int {
	total := 0
	for i, l := range levels {
		if i >= 3 {
			break
		}
		total += l.Quantity
	}
	return total
}

// eventsPage is the raw cursor-paginated events response.
type eventsPage struct {
	Events []Event `json:"events"`
	Cursor string  `json:"cursor"`
}

// seriesPage is the raw series list response.
type seriesPage struct {
	Series []Series `json:"series"`
}

// orderbookResponse is the raw orderbook envelope. Each side is a list of
// [price_cents, quantity] pairs, ordered best-first.
type orderbookResponse struct {
	Orderbook struct {
		Yes [][2]int `json:"yes"`
		No  [][2]int `json:"no"`
	} `json:"orderbook"`
}
