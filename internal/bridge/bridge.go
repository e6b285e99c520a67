// Package bridge exposes the terminal-facing entry points. Each entry
// resolves its input shape once at the boundary, then funnels into a single
// encode+send core; failures come back as error envelopes, never as faults.
package bridge

import (
	"github.com/rs/zerolog"

	"barbridge/internal/abi"
	"barbridge/internal/diag"
	"barbridge/internal/metrics"
	"barbridge/internal/payload"
	"barbridge/internal/transport"
)

// Bridge carries the service endpoint, diagnostics, and logging shared by
// all entry points. Construct with New; safe for concurrent calls.
type Bridge struct {
	endpoint  transport.Endpoint
	userAgent string
	diag      *diag.Log
	log       zerolog.Logger
}

// Option configures Bridge construction parameters.
type Option func(*Bridge)

// WithEndpoint points the bridge at a non-default service location.
func WithEndpoint(ep transport.Endpoint) Option {
	return func(b *Bridge) { b.endpoint = ep }
}

// WithDiagnostics attaches the shared diagnostic log.
func WithDiagnostics(l *diag.Log) Option {
	return func(b *Bridge) {
		if l != nil {
			b.diag = l
		}
	}
}

// WithLogger sets the process logger used for operational events.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Bridge) { b.log = log }
}

// WithUserAgent overrides the User-Agent presented to the service.
func WithUserAgent(ua string) Option {
	return func(b *Bridge) {
		if ua != "" {
			b.userAgent = ua
		}
	}
}

// New builds a bridge targeting the default service location unless
// overridden.
func New(opts ...Option) *Bridge {
	b := &Bridge{
		endpoint: transport.DefaultEndpoint(),
		diag:     diag.Nop(),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CallParams carries the optional extras every entry point accepts.
type CallParams struct {
	// RemoteURL overrides the bridge's service location for this call only.
	RemoteURL string
	// ModelType overrides the variant's default model selector.
	ModelType string
	// Strategy scalars are forwarded to the service when set.
	Strategy payload.StrategyParams
}

// SignalForRange probes a historical window with a synthesized bar series.
func (b *Bridge) SignalForRange(symbol, startTime, endTime string, p CallParams) []uint16 {
	return wide(b.Exchange(payload.NewRangeRequest(symbol, startTime, endTime), p))
}

// SignalFromBars sends caller-supplied packed bars for one timeframe. The
// buffer must hold exactly barCount integer-volume records.
func (b *Bridge) SignalFromBars(symbol, timeframe string, packed []byte, barCount int, p CallParams) []uint16 {
	bars, err := abi.DecodeBars(packed, barCount)
	if err != nil {
		return wide(b.rejectInput("bars", err))
	}
	return wide(b.Exchange(payload.NewBarsRequest(symbol, timeframe, bars), p))
}

// SignalAtTime identifies the target bar by timestamp and lookback depth;
// the service loads its own history.
func (b *Bridge) SignalAtTime(symbol, timeframe string, barTime int64, lookbackBars int, p CallParams) []uint16 {
	return wide(b.Exchange(payload.NewSnapshotRequest(symbol, timeframe, barTime, lookbackBars), p))
}

// SignalFromBarsDual sends execution-timeframe bars plus, when both a
// context label and a positive context count are supplied, a second context
// series. Both buffers hold float-volume records. Context input is not
// touched at all when the pairing is incomplete.
func (b *Bridge) SignalFromBarsDual(symbol, execTimeframe string, packed []byte, barCount int, startTime, endTime, ctxTimeframe string, ctxPacked []byte, ctxBarCount int, p CallParams) []uint16 {
	bars, err := abi.DecodeBarsF(packed, barCount)
	if err != nil {
		return wide(b.rejectInput("dual", err))
	}
	var ctxBars []payload.Bar
	if ctxTimeframe != "" && ctxBarCount > 0 {
		ctxBars, err = abi.DecodeBarsF(ctxPacked, ctxBarCount)
		if err != nil {
			return wide(b.rejectInput("dual", err))
		}
	}
	req := payload.NewDualRequest(symbol, execTimeframe, bars, ctxTimeframe, ctxBars)
	req.StartTime = startTime
	req.EndTime = endTime
	return wide(b.Exchange(req, p))
}

// Exchange is the single core every entry funnels through: apply call
// extras, encode, post, and hand back the response body or a synthesized
// error envelope. It never returns an error and never panics.
func (b *Bridge) Exchange(req payload.Request, p CallParams) []byte {
	variant := variantName(req.Kind)
	metrics.RequestsTotal.WithLabelValues(variant).Inc()

	if p.ModelType != "" {
		req.ModelType = p.ModelType
	}
	req.Strategy = p.Strategy

	b.diag.Call(variant, req.Symbol, req.Timeframe, len(req.Bars), len(req.ContextBars))

	endpoint := b.endpoint
	if p.RemoteURL != "" {
		ep, err := transport.ParseServiceURL(p.RemoteURL)
		if err != nil {
			b.log.Error().Err(err).Str("url", p.RemoteURL).Msg("bad service url override")
			return b.fail(variant, transport.ResolveFailed())
		}
		endpoint = ep
	}

	body := req.Encode()
	b.diag.Payload(body)

	client := transport.NewClient(endpoint, b.log, transport.WithUserAgent(b.userAgent))
	res := client.Post(body)
	if !res.OK {
		return b.fail(variant, res)
	}

	metrics.ResponseBytesTotal.Add(float64(len(res.Body)))
	b.diag.Response(res.Body)
	b.log.Debug().
		Str("variant", variant).
		Int("status", res.Status).
		Int("bytes", len(res.Body)).
		Msg("exchange complete")
	return res.Body
}

func (b *Bridge) fail(variant string, res transport.Result) []byte {
	metrics.TransportFailuresTotal.WithLabelValues(string(res.Stage)).Inc()
	b.log.Warn().
		Str("variant", variant).
		Str("stage", string(res.Stage)).
		Msg("exchange failed")
	body := transport.ErrorEnvelope(res.Reason)
	b.diag.Response(body)
	return body
}

func (b *Bridge) rejectInput(variant string, err error) []byte {
	b.log.Error().Err(err).Str("variant", variant).Msg("rejecting packed bar buffer")
	body := transport.ErrorEnvelope("invalid bar buffer")
	b.diag.Response(body)
	return body
}

func variantName(k payload.Kind) string {
	switch k {
	case payload.KindRange:
		return "range"
	case payload.KindBars:
		return "bars"
	case payload.KindSnapshot:
		return "snapshot"
	case payload.KindDual:
		return "dual"
	default:
		return "unknown"
	}
}

func wide(body []byte) []uint16 {
	return abi.WideString(string(body))
}
