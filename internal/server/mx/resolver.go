// Package mx resolves MX records for email-domain reachability checks
// during registration.
package mx

import (
	"context"
	"errors"
	"net"
)

// Resolver answers MX queries for a host. An empty answer means the host
// accepts no mail and registration must be refused.
type Resolver interface {
	QueryMX(ctx context.Context, host string) ([]string, error)
}

// NetResolver queries MX records through the system resolver.
type NetResolver struct {
	resolver *net.Resolver
}

func NewNetResolver() *NetResolver {
	return &NetResolver{resolver: net.DefaultResolver}
}

func (r *NetResolver) QueryMX(ctx context.Context, host string) ([]string, error) {
	records, err := r.resolver.LookupMX(ctx, host)
	if err != nil {
		// A DNS "no such host" answer is a negative result, not a failure.
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, nil
		}
		return nil, err
	}

	hosts := make([]string, 0, len(records))
	for _, record := range records {
		hosts = append(hosts, record.Host)
	}
	return hosts, nil
}
