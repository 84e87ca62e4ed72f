package modeler

import "testing"

func TestParseBracketThresholdAboveBelow(t *testing.T) {
	v, ok := ParseBracketThreshold("75°F or above")
	if !ok || v != 75 {
		t.Fatalf("got %v, %v, want 75, true", v, ok)
	}
	v, ok = ParseBracketThreshold("60F or below")
	if !ok || v != 60 {
		t.Fatalf("got %v, %v, want 60, true", v, ok)
	}
}

func TestParseBracketThresholdBetween(t *testing.T) {
	v, ok := ParseBracketThreshold("Between 70 and 74")
	if !ok || v != 72 {
		t.Fatalf("got %v, %v, want 72, true", v, ok)
	}
	v, ok = ParseBracketThreshold("70 to 74")
	if !ok || v != 72 {
		t.Fatalf("got %v, %v, want 72, true", v, ok)
	}
}

func TestParseBracketThresholdFallback(t *testing.T) {
	v, ok := ParseBracketThreshold("something with 81 in it")
	if !ok || v != 81 {
		t.Fatalf("got %v, %v, want 81, true", v, ok)
	}
	if _, ok := ParseBracketThreshold("no numbers here"); ok {
		t.Error("expected ok=false for no numeric bracket")
	}
}

func TestEstimateBracketProbabilityAbove(t *testing.T) {
	pYes, pNo := EstimateBracketProbability("75°F or above", 75, 3.0)
	// At-or-above integrates from 74.5 (half-degree continuity correction),
	// so with the forecast at 75 the result is 1 - Phi(-0.5/3) ~= 0.566.
	if pYes < 0.56 || pYes > 0.575 {
		t.Fatalf("pYes = %v, want ~0.566 at the threshold", pYes)
	}
	if pYes+pNo != 1 {
		t.Fatalf("pYes+pNo = %v, want 1", pYes+pNo)
	}
}

func TestEstimateBracketProbabilityFarAboveThreshold(t *testing.T) {
	pYes, _ := EstimateBracketProbability("75°F or above", 90, 3.0)
	if pYes < 0.99 {
		t.Fatalf("pYes = %v, want near 1 when forecast is far above threshold", pYes)
	}
}

func TestEstimateBracketProbabilityBetween(t *testing.T) {
	pYes, pNo := EstimateBracketProbability("Between 70 and 74", 72, 3.0)
	if pYes <= 0 || pYes >= 1 {
		t.Fatalf("pYes = %v, want in (0,1)", pYes)
	}
	if pYes+pNo != 1 {
		t.Fatalf("pYes+pNo = %v, want 1", pYes+pNo)
	}
}

func TestComputeKnifeEdge(t *testing.T) {
	if got := ComputeKnifeEdge("75°F or above", 75.2, 3.0); got != KnifeEdgeHigh {
		t.Errorf("got %v, want HIGH for forecast within 1F of threshold", got)
	}
	if got := ComputeKnifeEdge("75°F or above", 90, 3.0); got != KnifeEdgeLow {
		t.Errorf("got %v, want LOW for forecast far from threshold", got)
	}
}

func TestEstimateNewExtremeProbabilityNoRoom(t *testing.T) {
	p := EstimateNewExtremeProbability(40, 40, 6, true)
	if p < 0.1 || p > 0.2 {
		t.Fatalf("p = %v, want base ~0.15 when there is no room left", p)
	}
}

func TestEstimateNewExtremeProbabilityNoTimeRemaining(t *testing.T) {
	p := EstimateNewExtremeProbability(30, 40, 0, true)
	if p != 0 {
		t.Fatalf("p = %v, want 0 when no hours remain", p)
	}
}

func TestClassifyUncertainty(t *testing.T) {
	if got := ClassifyUncertainty(5, false, KnifeEdgeLow); got != UncertaintyHigh {
		t.Errorf("got %v, want HIGH with no forecast", got)
	}
	if got := ClassifyUncertainty(5, true, KnifeEdgeHigh); got != UncertaintyHigh {
		t.Errorf("got %v, want HIGH on knife-edge", got)
	}
	if got := ClassifyUncertainty(1, true, KnifeEdgeLow); got != UncertaintyLow {
		t.Errorf("got %v, want LOW with short window and clear forecast", got)
	}
}
