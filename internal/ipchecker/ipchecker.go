// Package ipchecker resolves the client IP address of an HTTP request and
// matches it against a trusted subnet. The internal stats endpoint uses it to
// stay reachable from inside the deployment network only.
package ipchecker

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// IPChecker matches client IP addresses against a single trusted subnet.
// A zero subnet means the check is disabled and nothing is trusted.
type IPChecker struct {
	trustedSubnet *net.IPNet
}

// New parses trustedSubnet as CIDR notation (e.g., "192.168.1.0/24") and
// returns a checker bound to it. An empty string yields a disabled checker:
// IsTrustedSubnetEmpty reports true and Check rejects every address.
func New(trustedSubnet string) (*IPChecker, error) {
	if trustedSubnet == "" {
		return &IPChecker{}, nil
	}

	_, allowedNet, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/New(): error while `net.ParseCIDR()` calling: %w", err)
	}

	return &IPChecker{trustedSubnet: allowedNet}, nil
}

// Check reports whether clientIP falls inside the trusted subnet.
// A disabled checker reports false for every address.
func (checker *IPChecker) Check(clientIP net.IP) bool {
	if checker.trustedSubnet == nil {
		return false
	}

	return checker.trustedSubnet.Contains(clientIP)
}

// GetClientIP resolves the client address of the request. The X-Real-IP
// header wins, then the first hop of X-Forwarded-For, then the connection's
// RemoteAddr.
func (checker *IPChecker) GetClientIP(request *http.Request) (net.IP, error) {
	if realIP := net.ParseIP(request.Header.Get("X-Real-IP")); realIP != nil {
		return realIP, nil
	}

	if forwardedFor := request.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		firstHop := strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
		return net.ParseIP(firstHop), nil
	}

	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/GetClientIP(): error while `net.SplitHostPort()` calling: %w", err)
	}

	return net.ParseIP(host), nil
}

// IsTrustedSubnetEmpty reports whether the checker was built without a
// trusted subnet.
func (checker *IPChecker) IsTrustedSubnetEmpty() bool {
	return checker.trustedSubnet == nil
}
