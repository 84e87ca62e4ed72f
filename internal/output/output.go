// Package output assembles the daily slate from the pipeline's bucketed
// candidates, computes run-over-run deltas under the stability rule, and
// renders both REPORT.md and DAILY_SLATE.json.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"

	"github.com/tylergwlk/weatherslate/internal/teamlead"
)

// ScanStats summarizes how much of the venue's order book this run covered.
type ScanStats struct {
	EventsScanned            int
	BracketMarketsScanned    int
	CandidatesInScanWindow   int
	PrimaryCount             int
	TightCount               int
	NearMissCount            int
	RejectedCount            int
}

// Slate is the full output of one scan run: every bucketed candidate plus
// coverage stats, ready to be rendered or diffed against a prior run.
type Slate struct {
	RunTimeET       string
	TargetDateLocal string
	BankrollUSD     float64
	Stats           ScanStats
	PicksPrimary    []teamlead.Candidate
	PicksTight      []teamlead.Candidate
	PicksNearMiss   []teamlead.Candidate
	Rejected        []teamlead.Candidate
	Notes           []string
}

// BuildSlate assembles a Slate from the team lead's bucket pipeline output.
func BuildSlate(runTimeET, targetDateLocal string, bankrollUSD float64, primary, tight, nearMiss, rejected []teamlead.Candidate, eventsScanned, bracketsScanned, candidatesInWindow int, notes []string) Slate {
	return Slate{
		RunTimeET:       runTimeET,
		TargetDateLocal: targetDateLocal,
		BankrollUSD:     bankrollUSD,
		Stats: ScanStats{
			EventsScanned:          eventsScanned,
			BracketMarketsScanned:  bracketsScanned,
			CandidatesInScanWindow: candidatesInWindow,
			PrimaryCount:           len(primary),
			TightCount:             len(tight),
			NearMissCount:          len(nearMiss),
			RejectedCount:          len(rejected),
		},
		PicksPrimary:  primary,
		PicksTight:    tight,
		PicksNearMiss: nearMiss,
		Rejected:      rejected,
		Notes:         notes,
	}
}

func candidateKey(c teamlead.Candidate) string { return c.MarketTicker }

func (s Slate) allCandidates() map[string]teamlead.Candidate {
	m := make(map[string]teamlead.Candidate)
	for _, list := range [][]teamlead.Candidate{s.PicksPrimary, s.PicksTight, s.PicksNearMiss, s.Rejected} {
		for _, c := range list {
			m[candidateKey(c)] = c
		}
	}
	return m
}

// ComputeDelta compares the current slate to a prior run and produces
// human-readable change notes: new/removed candidates, bucket moves,
// ask-price moves, EV sign flips, rank changes, and count deltas.
func ComputeDelta(current, prior Slate, minPriceMoveCents int) []string {
	var notes []string

	priorMap := prior.allCandidates()
	currentMap := current.allCandidates()

	for ticker, curr := range currentMap {
		prev, ok := priorMap[ticker]
		if !ok {
			notes = append(notes, fmt.Sprintf("NEW: %s appeared (bucket: %s)", ticker, curr.Bucket))
			continue
		}
		for _, change := range compareCandidates(curr, prev, minPriceMoveCents) {
			notes = append(notes, fmt.Sprintf("%s: %s", ticker, change))
		}
	}

	for ticker, prev := range priorMap {
		if _, ok := currentMap[ticker]; !ok {
			notes = append(notes, fmt.Sprintf("REMOVED: %s (was %s)", ticker, prev.Bucket))
		}
	}

	if current.Stats.PrimaryCount != prior.Stats.PrimaryCount {
		notes = append(notes, fmt.Sprintf("PRIMARY count: %d -> %d", prior.Stats.PrimaryCount, current.Stats.PrimaryCount))
	}
	if current.Stats.TightCount != prior.Stats.TightCount {
		notes = append(notes, fmt.Sprintf("TIGHT count: %d -> %d", prior.Stats.TightCount, current.Stats.TightCount))
	}

	if len(notes) == 0 {
		notes = append(notes, "No material changes from prior run.")
	}
	return notes
}

func compareCandidates(curr, prev teamlead.Candidate, minMove int) []string {
	var changes []string

	if curr.Bucket != prev.Bucket {
		changes = append(changes, fmt.Sprintf("bucket %s -> %s", prev.Bucket, curr.Bucket))
	}

	currAsk, currOK := curr.Orderbook.ImpliedBestNoAskCents()
	prevAsk, prevOK := prev.Orderbook.ImpliedBestNoAskCents()
	if currOK && prevOK {
		move := currAsk - prevAsk
		if absInt(move) >= minMove {
			changes = append(changes, fmt.Sprintf("ask moved %dc -> %dc (%+dc)", prevAsk, currAsk, move))
		}
	}

	if curr.FeesEV != nil && prev.FeesEV != nil {
		currPos := curr.FeesEV.EVNetEstCentsAtLimit > 0
		prevPos := prev.FeesEV.EVNetEstCentsAtLimit > 0
		if currPos != prevPos {
			changes = append(changes, fmt.Sprintf("EV flipped: %.1fc -> %.1fc", prev.FeesEV.EVNetEstCentsAtLimit, curr.FeesEV.EVNetEstCentsAtLimit))
		}
	}

	if curr.Rank != 0 && prev.Rank != 0 && curr.Rank != prev.Rank {
		changes = append(changes, fmt.Sprintf("rank %d -> %d", prev.Rank, curr.Rank))
	}

	return changes
}

// ShouldSuppressChange reports whether a bucket change between runs is too
// small to be worth surfacing: the ask hasn't moved enough, EV hasn't
// flipped sign, and mapping confidence is unchanged.
func ShouldSuppressChange(curr, prev teamlead.Candidate, minMoveCents int) bool {
	currAsk, currOK := curr.Orderbook.ImpliedBestNoAskCents()
	prevAsk, prevOK := prev.Orderbook.ImpliedBestNoAskCents()
	if currOK && prevOK && absInt(currAsk-prevAsk) >= minMoveCents {
		return false
	}

	if curr.FeesEV != nil && prev.FeesEV != nil {
		if (curr.FeesEV.EVNetEstCentsAtLimit > 0) != (prev.FeesEV.EVNetEstCentsAtLimit > 0) {
			return false
		}
	}

	if curr.StationConfidence != prev.StationConfidence {
		return false
	}

	return true
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// RunTag derives the filesystem-safe run tag from a run-time label by
// stripping colons and spaces (e.g. "2026-07-30 15:04 MST" ->
// "2026-07-301504MST"). Because the date/time portion is fixed-width, tags
// from the same time zone still sort lexicographically in run order.
func RunTag(runTimeET string) string {
	r := strings.NewReplacer(":", "", " ", "")
	return r.Replace(runTimeET)
}

const dailySlatePrefix = "DAILY_SLATE_"

// FindPriorSlatePath scans dir for DAILY_SLATE_<tag>.json artifacts and
// returns the path of the one with the largest tag that still sorts
// strictly before currentTag. Returns ("", nil) if dir doesn't exist yet or
// no qualifying prior run is found.
func FindPriorSlatePath(dir, currentTag string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("output: read artifact dir: %w", err)
	}

	var tags []string
	byTag := make(map[string]string, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, dailySlatePrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		tag := strings.TrimSuffix(strings.TrimPrefix(name, dailySlatePrefix), ".json")
		if tag >= currentTag {
			continue
		}
		tags = append(tags, tag)
		byTag[tag] = name
	}
	if len(tags) == 0 {
		return "", nil
	}
	sort.Strings(tags)
	return filepath.Join(dir, byTag[tags[len(tags)-1]]), nil
}

// LoadPriorSlate loads a prior run's JSON slate for delta comparison. A
// missing file is not an error — it just means there's no prior run yet.
func LoadPriorSlate(path string) (*Slate, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("output: read prior slate: %w", err)
	}
	var slate Slate
	if err := json.Unmarshal(data, &slate); err != nil {
		return nil, fmt.Errorf("output: parse prior slate: %w", err)
	}
	return &slate, nil
}

// WriteJSON serializes the slate to indented JSON at path.
func WriteJSON(slate Slate, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("output: mkdir: %w", err)
	}
	data, err := json.MarshalIndent(slate, "", "  ")
	if err != nil {
		return fmt.Errorf("output: marshal slate: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"money": func(v float64) string { return "$" + humanize.FormatFloat("#,###.##", v) },
	"pNo":   modelPYesPct,
}).Parse(reportTemplateSrc))

const reportTemplateSrc = `# Kalshi Temperature "Unlikely NO" Slate — {{ .Slate.TargetDateLocal }}

## Run Metadata
- **run_time_et:** {{ .Slate.RunTimeET }}
- **target_date_local:** {{ .Slate.TargetDateLocal }}
- **bankroll_usd:** {{ money .Slate.BankrollUSD }}

## Scan Coverage
- **events_scanned:** {{ .Slate.Stats.EventsScanned }}
- **bracket_markets_scanned:** {{ .Slate.Stats.BracketMarketsScanned }}
- **candidates_in_scan_window:** {{ .Slate.Stats.CandidatesInScanWindow }}
- **primary_count:** {{ .Slate.Stats.PrimaryCount }}
- **tight_count:** {{ .Slate.Stats.TightCount }}
- **near_miss_count:** {{ .Slate.Stats.NearMissCount }}
- **rejected_count:** {{ .Slate.Stats.RejectedCount }}

## PRIMARY Picks (Recommended)
{{ if .Slate.PicksPrimary }}
| Rank | City | Bracket | p(NO) | Notes |
|------|------|---------|-------|-------|
{{ range .Slate.PicksPrimary }}| {{ .Rank }} | {{ .City }} | {{ .BracketDef }} | {{ pNo . }} | {{ .BucketReason }} |
{{ end }}{{ else }}
_No PRIMARY picks this run._
{{ end }}

## TIGHT Picks
{{ if .Slate.PicksTight }}
| Rank | City | Bracket | p(NO) | Notes |
|------|------|---------|-------|-------|
{{ range .Slate.PicksTight }}| {{ .Rank }} | {{ .City }} | {{ .BracketDef }} | {{ pNo . }} | {{ .BucketReason }} |
{{ end }}{{ else }}
_No TIGHT picks this run._
{{ end }}

## NEAR-MISS Watchlist
{{ if .Slate.PicksNearMiss }}
| Rank | City | Bracket | p(NO) | Notes |
|------|------|---------|-------|-------|
{{ range .Slate.PicksNearMiss }}| {{ .Rank }} | {{ .City }} | {{ .BracketDef }} | {{ pNo . }} | {{ .BucketReason }} |
{{ end }}{{ else }}
_No near-miss candidates this run._
{{ end }}

## REJECTED Summary
- **Total rejected:** {{ .Slate.Stats.RejectedCount }}
{{ range .Slate.Rejected }}- ` + "`{{ .MarketTicker }}`" + ` — {{ .BucketReason }}
{{ end }}

## Manual Placement Checklist
1. Log in to the venue's web UI (never use the API for order placement).
2. Navigate to each recommended market.
3. Select the NO side.
4. Set limit price per the trade plan.
5. Set quantity from the suggested stake.
6. Review and submit.
7. Check fills after 5-10 minutes.
8. Adjust 1c toward the ask if unfilled after 10 minutes.
9. Never chase — cancel if the edge evaporates.

## Delta vs Previous Run
{{ if .DeltaNotes }}{{ range .DeltaNotes }}- {{ . }}
{{ end }}{{ else }}_No prior run available for comparison._
{{ end }}
`

// WriteReportMarkdown renders REPORT.md for the slate and writes it to path.
func WriteReportMarkdown(slate Slate, deltaNotes []string, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("output: mkdir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create report: %w", err)
	}
	defer f.Close()

	data := struct {
		Slate      Slate
		DeltaNotes []string
	}{Slate: slate, DeltaNotes: deltaNotes}

	return reportTemplate.Execute(f, data)
}

// modelPYesPct formats a model's P(NO) as a percentage string, or "-" if
// no model output is present.
func modelPYesPct(c teamlead.Candidate) string {
	if c.Model == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", c.Model.PNo*100)
}
