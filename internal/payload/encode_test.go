package payload

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func twoBars() []Bar {
	return []Bar{
		{Time: 1000, Open: 1.1, High: 1.2, Low: 1.0, Close: 1.15, Volume: 100},
		{Time: 2000, Open: 1.15, High: 1.25, Low: 1.05, Close: 1.2, Volume: 150},
	}
}

func TestEncodeBarsFixture(t *testing.T) {
	const want = `{"symbol":"EURUSD","timeframe":"1h","data":[` +
		`{"time":1000,"open":1.10000,"high":1.20000,"low":1.00000,"close":1.15000,"volume":100},` +
		`{"time":2000,"open":1.15000,"high":1.25000,"low":1.05000,"close":1.20000,"volume":150}]}`
	got := NewBarsRequest("EURUSD", "1h", twoBars()).Encode()
	if string(got) != want {
		t.Fatalf("payload mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	req := NewDualRequest("GBPUSD", "15m", twoBars(), "4h", twoBars()[:1])
	req.Strategy = StrategyParams{
		MinConfidence: fptr(0.65),
		SpreadPips:    fptr(1.2),
		LotSize:       fptr(0.1),
	}
	first := req.Encode()
	second := req.Encode()
	if !bytes.Equal(first, second) {
		t.Fatalf("repeated encode differs\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestContextGating(t *testing.T) {
	bars := twoBars()
	cases := map[string]Request{
		"label without bars": NewDualRequest("EURUSD", "15m", bars, "4h", nil),
		"bars without label": NewDualRequest("EURUSD", "15m", bars, "", bars),
	}
	for name, req := range cases {
		out := string(req.Encode())
		if strings.Contains(out, "context_timeframe") || strings.Contains(out, "context_data") {
			t.Fatalf("%s: context keys leaked into %s", name, out)
		}
	}

	out := string(NewDualRequest("EURUSD", "15m", bars, "4h", bars[:1]).Encode())
	if !strings.Contains(out, `"context_timeframe":"4h"`) {
		t.Fatalf("context timeframe missing from %s", out)
	}
	if !strings.Contains(out, `"context_data":[{"time":1000`) {
		t.Fatalf("context data missing from %s", out)
	}
}

func TestPricePrecision(t *testing.T) {
	out := NewBarsRequest("EURUSD", "1h", twoBars()).Encode()
	priceRe := regexp.MustCompile(`"(open|high|low|close)":(-?\d+\.\d+)`)
	matches := priceRe.FindAllSubmatch(out, -1)
	if len(matches) != 8 {
		t.Fatalf("expected 8 price fields, found %d in %s", len(matches), out)
	}
	for _, m := range matches {
		digits := string(m[2])
		dot := strings.IndexByte(digits, '.')
		if len(digits)-dot-1 != 5 {
			t.Fatalf("price %s does not carry 5 decimals", digits)
		}
	}
}

func TestStrategyParamPrecision(t *testing.T) {
	req := NewSnapshotRequest("EURUSD", "1h", 1700000000, 200)
	req.Strategy = StrategyParams{
		MinConfidence:            fptr(0.65),
		BrokenLevelCooldownHours: fptr(24),
		BrokenLevelBreakPips:     fptr(5),
		MinEdgePips:              fptr(2),
		SpreadPips:               fptr(1.2),
		SlippagePips:             fptr(0.5),
		CommissionPerSideLot:     fptr(3.5),
		USDPerPipLot:             fptr(10),
		LotSize:                  fptr(0.1),
	}
	out := string(req.Encode())
	for _, want := range []string{
		`"min_confidence":0.65`,
		`"broken_level_cooldown_hours":24.0`,
		`"broken_level_break_pips":5.0`,
		`"min_edge_pips":2.0`,
		`"spread_pips":1.2`,
		`"slippage_pips":0.5`,
		`"commission_per_side_per_lot":3.50`,
		`"usd_per_pip_per_lot":10.00`,
		`"lot_size":0.10`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in %s", want, out)
		}
	}
}

func TestOmittedParamsStayOut(t *testing.T) {
	out := string(NewSnapshotRequest("EURUSD", "1h", 1700000000, 200).Encode())
	if strings.Contains(out, "min_confidence") || strings.Contains(out, "lot_size") {
		t.Fatalf("unset strategy params leaked into %s", out)
	}
}

func TestDataFieldCount(t *testing.T) {
	out := NewBarsRequest("EURUSD", "1h", twoBars()).Encode()
	var doc struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("encoded payload is not valid JSON: %v", err)
	}
	if len(doc.Data) != 2 {
		t.Fatalf("expected 2 data elements, got %d", len(doc.Data))
	}
	for i, bar := range doc.Data {
		if len(bar) != 6 {
			t.Fatalf("bar %d has %d keys, want 6: %v", i, len(bar), bar)
		}
	}
}

func TestSnapshotShape(t *testing.T) {
	out := string(NewSnapshotRequest("EURUSD", "1h", 1700000000, 200).Encode())
	if !strings.Contains(out, `"bar_time":1700000000`) {
		t.Fatalf("bar_time missing from %s", out)
	}
	if !strings.Contains(out, `"lookback_bars":200`) {
		t.Fatalf("lookback_bars missing from %s", out)
	}
	if strings.Contains(out, `"data"`) {
		t.Fatalf("snapshot request must not carry a data array: %s", out)
	}
}

func TestRangeSynthesis(t *testing.T) {
	req := NewRangeRequest("EURUSD", "2024-01-01", "2024-02-01")
	out := req.Encode()
	if !bytes.Equal(out, NewRangeRequest("EURUSD", "2024-01-01", "2024-02-01").Encode()) {
		t.Fatalf("synthesized series is not deterministic")
	}
	var doc struct {
		Timeframe string           `json:"timeframe"`
		StartTime string           `json:"start_time"`
		EndTime   string           `json:"end_time"`
		Data      []map[string]any `json:"data"`
		ModelType string           `json:"model_type"`
	}
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("range payload is not valid JSON: %v", err)
	}
	if doc.Timeframe != "1h" {
		t.Fatalf("expected fixed 1h timeframe, got %q", doc.Timeframe)
	}
	if doc.StartTime != "2024-01-01" || doc.EndTime != "2024-02-01" {
		t.Fatalf("window bounds not carried: %q..%q", doc.StartTime, doc.EndTime)
	}
	if len(doc.Data) != 50 {
		t.Fatalf("expected 50 synthesized bars, got %d", len(doc.Data))
	}
	if doc.ModelType != "transformer" {
		t.Fatalf("unexpected model type %q", doc.ModelType)
	}
}

func TestDualVolumeDecimals(t *testing.T) {
	out := string(NewDualRequest("EURUSD", "15m", twoBars()[:1], "", nil).Encode())
	if !strings.Contains(out, `"volume":100.00`) {
		t.Fatalf("expected two-decimal volume in %s", out)
	}
	if !strings.Contains(out, `"execution_timeframe":"15m"`) {
		t.Fatalf("execution timeframe missing from %s", out)
	}
}

func TestCallerTextIsEscaped(t *testing.T) {
	req := NewBarsRequest(`EUR"USD\`, "1h", nil)
	out := req.Encode()
	if !json.Valid(out) {
		t.Fatalf("quote in symbol broke JSON syntax: %s", out)
	}
	var doc struct {
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Symbol != `EUR"USD\` {
		t.Fatalf("symbol did not round-trip, got %q", doc.Symbol)
	}
}

func TestEmptyBarsEncodeAsEmptyArray(t *testing.T) {
	out := string(NewBarsRequest("EURUSD", "1h", nil).Encode())
	if !strings.Contains(out, `"data":[]`) {
		t.Fatalf("expected empty data array in %s", out)
	}
}
