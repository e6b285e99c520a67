package payload

import (
	"github.com/mailru/easyjson/jwriter"
	"github.com/shopspring/decimal"
)

// Fixed rendering widths. Prices always carry five decimals; strategy
// parameters carry one or two depending on the parameter.
const pricePlaces = 5

// Encode renders the request as canonical JSON. Encoding is total: any
// Request value yields valid JSON, and identical values yield identical
// bytes. Caller-supplied text fields pass through standard JSON escaping.
func (r Request) Encode() []byte {
	w := jwriter.Writer{}
	w.RawByte('{')
	w.RawString(`"symbol":`)
	w.String(r.Symbol)
	w.RawString(`,"timeframe":`)
	w.String(r.Timeframe)
	if r.Kind == KindRange || (r.StartTime != "" && r.EndTime != "") {
		w.RawString(`,"start_time":`)
		w.String(r.StartTime)
		w.RawString(`,"end_time":`)
		w.String(r.EndTime)
	}
	if r.Kind == KindSnapshot {
		w.RawString(`,"bar_time":`)
		w.Int64(r.BarTime)
		w.RawString(`,"lookback_bars":`)
		w.Int(r.LookbackBars)
	} else {
		w.RawString(`,"data":`)
		writeBars(&w, r.Bars, r.VolumeDecimals)
	}
	if r.ExecutionTimeframe != "" {
		w.RawString(`,"execution_timeframe":`)
		w.String(r.ExecutionTimeframe)
	}
	if r.ContextTimeframe != "" && len(r.ContextBars) > 0 {
		w.RawString(`,"context_timeframe":`)
		w.String(r.ContextTimeframe)
		w.RawString(`,"context_data":`)
		writeBars(&w, r.ContextBars, r.VolumeDecimals)
	}
	if r.ModelType != "" {
		w.RawString(`,"model_type":`)
		w.String(r.ModelType)
	}
	writeStrategy(&w, r.Strategy)
	w.RawByte('}')
	return w.Buffer.BuildBytes()
}

func writeBars(w *jwriter.Writer, bars []Bar, volumeDecimals int32) {
	w.RawByte('[')
	for i, b := range bars {
		if i > 0 {
			w.RawByte(',')
		}
		w.RawString(`{"time":`)
		w.Int64(b.Time)
		w.RawString(`,"open":`)
		w.RawString(fixed(b.Open, pricePlaces))
		w.RawString(`,"high":`)
		w.RawString(fixed(b.High, pricePlaces))
		w.RawString(`,"low":`)
		w.RawString(fixed(b.Low, pricePlaces))
		w.RawString(`,"close":`)
		w.RawString(fixed(b.Close, pricePlaces))
		w.RawString(`,"volume":`)
		if volumeDecimals > 0 {
			w.RawString(fixed(b.Volume, volumeDecimals))
		} else {
			w.Int64(int64(b.Volume))
		}
		w.RawByte('}')
	}
	w.RawByte(']')
}

// Parameter keys and widths match what the service expects; nil params are
// skipped so the service falls back to its own defaults.
func writeStrategy(w *jwriter.Writer, p StrategyParams) {
	writeParam(w, `,"min_confidence":`, p.MinConfidence, 2)
	writeParam(w, `,"broken_level_cooldown_hours":`, p.BrokenLevelCooldownHours, 1)
	writeParam(w, `,"broken_level_break_pips":`, p.BrokenLevelBreakPips, 1)
	writeParam(w, `,"min_edge_pips":`, p.MinEdgePips, 1)
	writeParam(w, `,"spread_pips":`, p.SpreadPips, 1)
	writeParam(w, `,"slippage_pips":`, p.SlippagePips, 1)
	writeParam(w, `,"commission_per_side_per_lot":`, p.CommissionPerSideLot, 2)
	writeParam(w, `,"usd_per_pip_per_lot":`, p.USDPerPipLot, 2)
	writeParam(w, `,"lot_size":`, p.LotSize, 2)
}

func writeParam(w *jwriter.Writer, prefix string, v *float64, places int32) {
	if v == nil {
		return
	}
	w.RawString(prefix)
	w.RawString(fixed(*v, places))
}

func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}
