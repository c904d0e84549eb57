package intake

import (
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
)

// UnknownIP is recorded when no valid address can be determined
const UnknownIP = "0.0.0.0"

// ClientIP resolves the submitter address. Proxy headers are consulted only
// when trustProxy is set; the first non-empty source wins and must be a valid IP.
func ClientIP(h http.Header, remoteAddr string, trustProxy bool) string {
	var candidate string

	if trustProxy {
		if v := strings.TrimSpace(h.Get("Client-IP")); v != "" {
			candidate = v
		} else if xff := h.Get("X-Forwarded-For"); strings.TrimSpace(xff) != "" {
			candidate = strings.TrimSpace(strings.Split(xff, ",")[0])
		}
	}

	if candidate == "" {
		remoteAddr = strings.TrimSpace(remoteAddr)
		if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
			candidate = host
		} else {
			candidate = remoteAddr
		}
	}

	addr, err := netip.ParseAddr(candidate)
	if err != nil {
		return UnknownIP
	}
	return addr.WithZone("").String()
}

// NormalizeReferer keeps absolute http(s) URLs and drops everything else
func NormalizeReferer(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}

	u, err := url.Parse(v)
	if err != nil || u.Host == "" {
		return ""
	}
	if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
		return ""
	}
	return u.String()
}
