package transport

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Default service location when the caller supplies no override.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 8000
)

// SignalPath is the only path the service exposes for signal computation.
const SignalPath = "/signal"

// Endpoint locates the signal service.
type Endpoint struct {
	Host string
	Port int
}

// DefaultEndpoint returns the built-in service location.
func DefaultEndpoint() Endpoint {
	return Endpoint{Host: DefaultHost, Port: DefaultPort}
}

func (e Endpoint) addr() string {
	return e.Host + ":" + strconv.Itoa(e.Port)
}

// ParseServiceURL resolves an override of the form scheme://host[:port].
// An empty override yields the default endpoint; a missing port yields the
// default port. The scheme is accepted but ignored: the exchange always
// speaks plain HTTP, matching the service's deployment.
func ParseServiceURL(raw string) (Endpoint, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultEndpoint(), nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse service url: %w", err)
	}
	if u.Host == "" {
		return Endpoint{}, fmt.Errorf("service url %q has no host", raw)
	}
	ep := Endpoint{Host: u.Hostname(), Port: DefaultPort}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return Endpoint{}, fmt.Errorf("service url %q has invalid port %q", raw, p)
		}
		ep.Port = port
	}
	return ep, nil
}
