// Package payload builds the canonical JSON body sent to the signal service.
// Key order and numeric rendering are fixed, so identical inputs always
// produce byte-identical output.
package payload

// Kind tags the request shape. All shapes funnel into the same encoder;
// resolution happens once, in the New*Request constructors.
type Kind int

const (
	// KindRange probes a historical window with a synthesized bar series.
	KindRange Kind = iota
	// KindBars carries caller-supplied bars for a single timeframe.
	KindBars
	// KindSnapshot identifies the target bar by timestamp and lets the
	// service load its own history.
	KindSnapshot
	// KindDual carries execution-timeframe bars plus optional context bars
	// from a higher timeframe.
	KindDual
)

// Bar is one OHLCV sample. Volume is held as float64 and rendered per the
// request's VolumeDecimals setting (0 means integer volume).
type Bar struct {
	Time   int64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// StrategyParams are optional tuning scalars forwarded to the service.
// Nil fields are omitted from the payload entirely.
type StrategyParams struct {
	MinConfidence            *float64
	BrokenLevelCooldownHours *float64
	BrokenLevelBreakPips     *float64
	MinEdgePips              *float64
	SpreadPips               *float64
	SlippagePips             *float64
	CommissionPerSideLot     *float64
	USDPerPipLot             *float64
	LotSize                  *float64
}

// Request is the flattened union of all entry shapes.
type Request struct {
	Kind               Kind
	Symbol             string
	Timeframe          string
	StartTime          string
	EndTime            string
	Bars               []Bar
	BarTime            int64
	LookbackBars       int
	ExecutionTimeframe string
	ContextTimeframe   string
	ContextBars        []Bar
	ModelType          string
	VolumeDecimals     int32
	Strategy           StrategyParams
}

const (
	rangeBarCount  = 50
	rangeTimeframe = "1h"
	rangeBarStep   = 3600
)

// NewRangeRequest builds the historical-window probe. The service keys off
// the window bounds, but the contract still expects a data array, so a
// deterministic synthetic series rides along.
func NewRangeRequest(symbol, startTime, endTime string) Request {
	bars := make([]Bar, rangeBarCount)
	for i := range bars {
		base := 100.0 + float64(i)*0.1
		bars[i] = Bar{
			Time:   int64(i+1) * rangeBarStep,
			Open:   base,
			High:   base + 0.5,
			Low:    base - 0.3,
			Close:  base + 0.2,
			Volume: float64(10000 + i*100),
		}
	}
	return Request{
		Kind:      KindRange,
		Symbol:    symbol,
		Timeframe: rangeTimeframe,
		StartTime: startTime,
		EndTime:   endTime,
		Bars:      bars,
		ModelType: "transformer",
	}
}

// NewBarsRequest wraps caller-supplied bars for a single timeframe.
func NewBarsRequest(symbol, timeframe string, bars []Bar) Request {
	return Request{
		Kind:      KindBars,
		Symbol:    symbol,
		Timeframe: timeframe,
		Bars:      bars,
	}
}

// NewSnapshotRequest identifies the target bar by timestamp. No bars travel
// with it; the service loads its own lookback history.
func NewSnapshotRequest(symbol, timeframe string, barTime int64, lookbackBars int) Request {
	return Request{
		Kind:         KindSnapshot,
		Symbol:       symbol,
		Timeframe:    timeframe,
		BarTime:      barTime,
		LookbackBars: lookbackBars,
	}
}

// NewDualRequest carries execution bars plus context bars from a second
// timeframe. Context travels only when both a non-empty context label and at
// least one context bar are supplied; otherwise the request degrades to a
// single-timeframe shape with no context keys at all.
func NewDualRequest(symbol, execTimeframe string, bars []Bar, ctxTimeframe string, ctxBars []Bar) Request {
	req := Request{
		Kind:               KindDual,
		Symbol:             symbol,
		Timeframe:          execTimeframe,
		Bars:               bars,
		ExecutionTimeframe: execTimeframe,
		ModelType:          "statistical",
		VolumeDecimals:     2,
	}
	if ctxTimeframe != "" && len(ctxBars) > 0 {
		req.ContextTimeframe = ctxTimeframe
		req.ContextBars = ctxBars
	}
	return req
}
