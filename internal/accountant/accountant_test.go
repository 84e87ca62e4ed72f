package accountant

import "testing"

var testRates = FeeRates{TakerRate: 0.07, MakerRate: 0.0175}

func TestTakerFeeCentsAtFiftyFifty(t *testing.T) {
	fee := TakerFeeCents(50, 1, testRates)
	// 0.07 * 1 * 0.5 * 0.5 * 100 = 1.75 -> ceil -> 2
	if fee != 2 {
		t.Errorf("fee = %d, want 2", fee)
	}
}

func TestMakerFeeCentsLowerThanTaker(t *testing.T) {
	taker := TakerFeeCents(50, 1, testRates)
	maker := MakerFeeCents(50, 1, testRates)
	if maker >= taker {
		t.Errorf("maker fee %d should be less than taker fee %d at the same price", maker, taker)
	}
}

func TestEVNoCentsFavorableWhenPNoHigh(t *testing.T) {
	ev := EVNoCents(80, 0.95, 1, testRates)
	if ev <= 0 {
		t.Errorf("EV = %v, want positive when model strongly favors NO at a cheap price", ev)
	}
}

func TestEVNoCentsUnfavorableWhenPNoLow(t *testing.T) {
	ev := EVNoCents(80, 0.2, 1, testRates)
	if ev >= 0 {
		t.Errorf("EV = %v, want negative when model disfavors NO but price is expensive", ev)
	}
}

func TestMaxBuyPriceNoCentsMonotonic(t *testing.T) {
	lowConf := MaxBuyPriceNoCents(0.5, testRates)
	highConf := MaxBuyPriceNoCents(0.95, testRates)
	if highConf <= lowConf {
		t.Errorf("max buy price should increase with P(NO): got low=%d high=%d", lowConf, highConf)
	}
}

func TestEdgeVsImpliedPct(t *testing.T) {
	edge := EdgeVsImpliedPct(0.60, 0.50)
	if edge <= 0 {
		t.Errorf("edge = %v, want positive when model p(NO) exceeds implied", edge)
	}
	if got := EdgeVsImpliedPct(0.6, 0); got != 0 {
		t.Errorf("edge with zero implied = %v, want 0", got)
	}
}

func TestComputeFlagsNegativeEV(t *testing.T) {
	ask := 40
	acc := Compute("TICKER", &ask, 0.3, 90, testRates)
	if acc.NoTradeReason == "" {
		t.Error("expected a no-trade reason for a clearly negative-EV limit")
	}
}

func TestComputeNoImpliedAsk(t *testing.T) {
	acc := Compute("TICKER", nil, 0.9, 50, testRates)
	if acc.ImpliedPNoFromImpliedAsk != 0 {
		t.Errorf("ImpliedPNoFromImpliedAsk = %v, want 0 with no ask data", acc.ImpliedPNoFromImpliedAsk)
	}
}
