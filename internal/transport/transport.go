// Package transport performs the one-shot blocking exchange with the signal
// service. Every failure maps to a stage-specific reason so callers can
// always hand back a parseable error envelope instead of a fault.
package transport

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"net/http"
	"net/url"
	"syscall"

	"github.com/mailru/easyjson/jwriter"
	"github.com/rs/zerolog"
)

// Stage identifies where in the exchange a failure happened.
type Stage string

const (
	StageResolve Stage = "resolve"
	StageConnect Stage = "connect"
	StageRequest Stage = "request"
	StageSend    Stage = "send"
)

// Static reason strings, one per failure stage. The envelope never carries
// dynamic detail; error codes go to the logs.
const (
	reasonResolve = "resolve endpoint failed"
	reasonConnect = "connect failed"
	reasonRequest = "build request failed"
	reasonSend    = "send request failed"
)

const (
	readChunkSize    = 4096
	defaultUserAgent = "barbridge/1.0"
)

// Result is the outcome of one exchange. On success Body holds the verbatim
// response body (possibly empty); on failure Stage and Reason identify the
// failed step.
type Result struct {
	OK     bool
	Body   []byte
	Status int
	Stage  Stage
	Reason string
}

// Client issues blocking POST exchanges against one endpoint. Each call
// owns its own connection, so a Client is safe for concurrent use.
type Client struct {
	endpoint  Endpoint
	userAgent string
	log       zerolog.Logger
}

// Option configures Client construction parameters.
type Option func(*Client)

// WithUserAgent overrides the User-Agent header sent with each request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a client for the given endpoint.
func NewClient(endpoint Endpoint, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		endpoint:  endpoint,
		userAgent: defaultUserAgent,
		log:       log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint reports the service location this client targets.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// Post sends body to the service's signal path and blocks until the full
// response arrives. No timeout is set anywhere on the path: liveness is the
// caller's responsibility. The connection and response body are released in
// reverse acquisition order on every exit path.
func (c *Client) Post(body []byte) Result {
	addr := c.endpoint.addr()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		c.log.Error().Err(err).Str("addr", addr).Msg("connect failed")
		return Result{Stage: StageConnect, Reason: reasonConnect}
	}
	defer conn.Close()

	u := url.URL{Scheme: "http", Host: addr, Path: SignalPath}
	req, err := http.NewRequest(http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		c.log.Error().Err(err).Msg("build request failed")
		return Result{Stage: StageRequest, Reason: reasonRequest}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Close = true

	if err := req.Write(conn); err != nil {
		c.log.Error().Err(err).Int("code", errnoCode(err)).Msg("send failed")
		return Result{Stage: StageSend, Reason: reasonSend}
	}

	resp, err := http.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		c.log.Error().Err(err).Int("code", errnoCode(err)).Msg("no response after send")
		return Result{Stage: StageSend, Reason: reasonSend}
	}
	defer resp.Body.Close()

	// Bounded chunks until the remote signals end-of-data. A mid-stream read
	// error ends the body the same way the remote closing it would.
	var out bytes.Buffer
	chunk := make([]byte, readChunkSize)
	for {
		n, rerr := resp.Body.Read(chunk)
		out.Write(chunk[:n])
		if rerr != nil {
			break
		}
	}
	return Result{OK: true, Body: out.Bytes(), Status: resp.StatusCode}
}

// ResolveFailed is the result used when the service endpoint cannot be
// determined before any network work starts.
func ResolveFailed() Result {
	return Result{Stage: StageResolve, Reason: reasonResolve}
}

// ErrorEnvelope builds the single-key error object every failure path hands
// back to the caller. The reason passes through standard JSON escaping.
func ErrorEnvelope(reason string) []byte {
	w := jwriter.Writer{}
	w.RawString(`{"error":`)
	w.String(reason)
	w.RawByte('}')
	return w.Buffer.BuildBytes()
}

func errnoCode(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return 0
}
