package weather

import "testing"

func TestParseCurrentConditions(t *testing.T) {
	html := "Temperature: 39.9 F (4.4 C)<br>6 Hour Max: 42.1 F<br>6 Hour Min: 35.0 F<br>24 Hour Max: 45.0 F"
	cc := parseCurrentConditions(html, "KORD")
	if cc.TempF == nil || *cc.TempF != 39.9 {
		t.Fatalf("TempF = %v, want 39.9", cc.TempF)
	}
	if cc.TempC == nil || *cc.TempC != 4.4 {
		t.Fatalf("TempC = %v, want 4.4", cc.TempC)
	}
	if cc.SixHrMaxF == nil || *cc.SixHrMaxF != 42.1 {
		t.Fatalf("SixHrMaxF = %v, want 42.1", cc.SixHrMaxF)
	}
	if cc.TwentyFourHrMaxF == nil || *cc.TwentyFourHrMaxF != 45.0 {
		t.Fatalf("TwentyFourHrMaxF = %v, want 45.0", cc.TwentyFourHrMaxF)
	}
}

func TestParseObservationHistory(t *testing.T) {
	html := `<table><tr><td>02/24</td><td>19:53</td><td>270</td><td>8</td>
	<td>39.9</td><td>22.1</td></tr>
	<tr><td>02/24</td><td>18:53</td><td>260</td><td>7</td>
	<td>41.0</td><td>23.0</td></tr></table>`
	hist := parseObservationHistory(html, "KORD")
	if len(hist.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(hist.Entries))
	}
	if hist.MaxTempF == nil || *hist.MaxTempF != 41.0 {
		t.Fatalf("MaxTempF = %v, want 41.0", hist.MaxTempF)
	}
}

func TestParseCliProduct(t *testing.T) {
	text := "PRELIMINARY LOCAL CLIMATOLOGICAL DATA\n" +
		"MAXIMUM TEMPERATURE\nTODAY 42 2:15 PM\n" +
		"MINIMUM TEMPERATURE\nTODAY 28 6:02 AM\n" +
		"VALID AS OF: 2026/02/24 2359 LST\n"
	report := parseCliProduct(text, "CLIORD")
	if report.MaxTempF == nil || *report.MaxTempF != 42 {
		t.Fatalf("MaxTempF = %v, want 42", report.MaxTempF)
	}
	if report.MinTempF == nil || *report.MinTempF != 28 {
		t.Fatalf("MinTempF = %v, want 28", report.MinTempF)
	}
	if !report.IsPreliminary {
		t.Error("expected IsPreliminary true")
	}
}

func TestParseCliProductFinalReport(t *testing.T) {
	text := "MAXIMUM TEMPERATURE\nTODAY 42 2:15 PM\nMINIMUM TEMPERATURE\nTODAY 28 6:02 AM\n"
	report := parseCliProduct(text, "CLIORD")
	if report.IsPreliminary {
		t.Error("expected IsPreliminary false when no PRELIMINARY marker present")
	}
}
