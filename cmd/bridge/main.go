package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"barbridge/internal/abi"
	"barbridge/internal/bridge"
	"barbridge/internal/config"
	"barbridge/internal/diag"
	"barbridge/internal/metrics"
	"barbridge/internal/payload"
	"barbridge/internal/transport"
	"barbridge/internal/util"
)

var (
	configPath = flag.String("config", "", "optional YAML config path")
	mode       = flag.String("mode", "snapshot", "entry shape: range|bars|snapshot|dual")
	symbol     = flag.String("symbol", "EURUSD", "instrument symbol")
	timeframe  = flag.String("timeframe", "1h", "bar timeframe label")
	barsPath   = flag.String("bars", "", "packed bar file (bars/dual modes)")
	ctxPath    = flag.String("context-bars", "", "packed context bar file (dual mode)")
	ctxTF      = flag.String("context-timeframe", "", "context timeframe label (dual mode)")
	startTime  = flag.String("start", "", "window start (range/dual modes)")
	endTime    = flag.String("end", "", "window end (range/dual modes)")
	barTime    = flag.Int64("at", 0, "target bar timestamp (snapshot mode)")
	lookback   = flag.Int("lookback", 200, "lookback depth (snapshot mode)")
	serviceURL = flag.String("url", "", "service URL override for this call")
	modelType  = flag.String("model", "", "model type override")

	minConfidence = flag.Float64("min-confidence", math.NaN(), "minimum signal confidence")
	cooldownHours = flag.Float64("cooldown-hours", math.NaN(), "broken level cooldown hours")
	breakPips     = flag.Float64("break-pips", math.NaN(), "broken level break distance in pips")
	minEdgePips   = flag.Float64("min-edge-pips", math.NaN(), "minimum edge in pips")
	spreadPips    = flag.Float64("spread-pips", math.NaN(), "assumed spread in pips")
	slippagePips  = flag.Float64("slippage-pips", math.NaN(), "assumed slippage in pips")
	commission    = flag.Float64("commission", math.NaN(), "commission per side per lot")
	usdPerPip     = flag.Float64("usd-per-pip", math.NaN(), "usd per pip per lot")
	lotSize       = flag.Float64("lot-size", math.NaN(), "lot size")
)

func main() {
	flag.Parse()
	_ = godotenv.Load() // best-effort

	cfg := &config.Config{}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	log := util.NewLogger(firstNonEmpty(cfg.App.LogLevel, "info"))

	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	dlog := diag.Nop()
	if cfg.Diag.Path != "" && !cfg.Diag.Disabled {
		opened, err := diag.Open(cfg.Diag.Path)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Diag.Path).Msg("diagnostic log unavailable")
		} else {
			dlog = opened
			defer dlog.Close()
		}
	}

	endpoint := transport.DefaultEndpoint()
	if raw := getEnv("BRIDGE_SERVICE_URL", cfg.Service.URL); raw != "" {
		parsed, err := transport.ParseServiceURL(raw)
		if err != nil {
			log.Fatal().Err(err).Str("url", raw).Msg("bad service url")
		}
		endpoint = parsed
	}

	b := bridge.New(
		bridge.WithEndpoint(endpoint),
		bridge.WithDiagnostics(dlog),
		bridge.WithLogger(log),
		bridge.WithUserAgent(cfg.Service.UserAgent),
	)

	p := bridge.CallParams{
		RemoteURL: *serviceURL,
		ModelType: firstNonEmpty(*modelType, cfg.Service.ModelType),
		Strategy:  strategyFromFlags(),
	}

	var out []uint16
	switch *mode {
	case "range":
		out = b.SignalForRange(*symbol, *startTime, *endTime, p)
	case "bars":
		data := readPacked(log, *barsPath)
		out = b.SignalFromBars(*symbol, *timeframe, data, len(data)/abi.RecordSize, p)
	case "snapshot":
		out = b.SignalAtTime(*symbol, *timeframe, *barTime, *lookback, p)
	case "dual":
		data := readPacked(log, *barsPath)
		ctx := readPacked(log, *ctxPath)
		out = b.SignalFromBarsDual(*symbol, *timeframe, data, len(data)/abi.RecordFSize,
			*startTime, *endTime, *ctxTF, ctx, len(ctx)/abi.RecordFSize, p)
	default:
		log.Fatal().Str("mode", *mode).Msg("unknown mode")
	}
	fmt.Println(abi.GoString(out))
}

func readPacked(log zerolog.Logger, path string) []byte {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("read packed bars")
	}
	return data
}

func strategyFromFlags() payload.StrategyParams {
	return payload.StrategyParams{
		MinConfidence:            optional(*minConfidence),
		BrokenLevelCooldownHours: optional(*cooldownHours),
		BrokenLevelBreakPips:     optional(*breakPips),
		MinEdgePips:              optional(*minEdgePips),
		SpreadPips:               optional(*spreadPips),
		SlippagePips:             optional(*slippagePips),
		CommissionPerSideLot:     optional(*commission),
		USDPerPipLot:             optional(*usdPerPip),
		LotSize:                  optional(*lotSize),
	}
}

func optional(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
