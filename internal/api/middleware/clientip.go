package middleware

import (
	"net"

	"github.com/labstack/echo/v4"
)

// IPExtractor resolves the client address used for rate limiting and view
// de-duplication. With no trusted proxies it is the peer address and
// forwarding headers are ignored. Otherwise X-Forwarded-For is honoured
// only when it arrives through one of the trusted ranges.
func IPExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, r := range trusted {
		opts = append(opts, echo.TrustIPRange(r))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}
