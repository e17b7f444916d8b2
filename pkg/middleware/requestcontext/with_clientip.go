package requestcontext

import (
	"context"
	"net/netip"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/erc20-indexer/pkg/logger"
	"github.com/gaze-network/erc20-indexer/pkg/logger/slogx"
	"github.com/gofiber/fiber/v2"
)

type clientIPKey struct{}

type WithClientIPConfig struct {
	// TrustedProxiesIP lists the CIDR ranges of every proxy between the server and the client.
	// The client IP is the last `X-Forwarded-For` entry outside these ranges.
	TrustedProxiesIP []string `mapstructure:"trusted_proxies_ip"`

	// TrustedHeader names a header set by the edge proxy, e.g. X-Real-IP or CF-Connecting-IP.
	// A valid IP in it wins over everything else.
	TrustedHeader string `mapstructure:"trusted_proxies_header"`

	// EnableRejectMalformedRequest returns 403 when the request came through proxies but no client IP can be trusted.
	EnableRejectMalformedRequest bool `mapstructure:"enable_reject_malformed_request"`
}

// WithClientIP resolves the client IP with protection against spoofed `X-Forwarded-For` headers.
func WithClientIP(config WithClientIPConfig) Option {
	trusted, err := parsePrefixes(config.TrustedProxiesIP)
	if err != nil {
		logger.Panic("Failed to parse trusted proxies", slogx.Error(err))
	}

	resolve := func(c *fiber.Ctx) (string, bool) {
		if config.TrustedHeader != "" {
			if ip, err := netip.ParseAddr(strings.TrimSpace(c.Get(config.TrustedHeader))); err == nil {
				return ip.String(), true
			}
		}

		forwarded := c.IPs()
		if len(forwarded) == 0 {
			return c.IP(), true
		}
		if len(trusted) > 0 {
			for i := len(forwarded) - 1; i >= 0; i-- {
				ip, err := netip.ParseAddr(strings.TrimSpace(forwarded[i]))
				if err != nil {
					continue
				}
				if !isTrusted(trusted, ip) {
					return ip.String(), true
				}
			}
		}
		return forwarded[0], false
	}

	return func(ctx context.Context, c *fiber.Ctx) (context.Context, error) {
		ip, ok := resolve(c)
		if !ok && len(trusted) == 0 && config.EnableRejectMalformedRequest {
			logger.WarnContext(ctx, "Rejected request with unresolvable client IP",
				slogx.String("event", "requestcontext_ip_spoofing_detected"),
				slogx.String("ip", c.IP()),
				slogx.Any("ips", c.IPs()),
			)
			return nil, rejectError{
				status:  fiber.StatusForbidden,
				message: "not allowed to access",
			}
		}
		return context.WithValue(ctx, clientIPKey{}, ip), nil
	}
}

// GetClientIP returns the IP stored by [WithClientIP], or an empty string.
func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

func parsePrefixes(ranges []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(ranges))
	for _, r := range ranges {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(r))
		if err != nil {
			return nil, errors.Wrapf(err, "can't parse CIDR %q", r)
		}
		prefixes = append(prefixes, prefix.Masked())
	}
	return prefixes, nil
}

func isTrusted(trusted []netip.Prefix, ip netip.Addr) bool {
	ip = ip.Unmap()
	for _, prefix := range trusted {
		if prefix.Contains(ip) {
			return true
		}
	}
	return false
}
