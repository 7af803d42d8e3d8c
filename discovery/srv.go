package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// DefaultDNSServer is the systemd-resolved stub listener.
const DefaultDNSServer = "127.0.0.53:53"

var (
	// ErrNoSigners is returned when a name resolves to no SRV records.
	ErrNoSigners = errors.New("no signer endpoints found")

	// ErrLookupFailed is returned when the DNS server answers with an error code.
	ErrLookupFailed = errors.New("dns lookup failed")
)

// SignerEndpoint is a TEE signing service instance advertised in an SRV record.
type SignerEndpoint struct {
	Target   string
	Port     uint16
	Priority uint16
	Weight   uint16
}

// URL returns the base URL for the endpoint.
func (e SignerEndpoint) URL(scheme string) string {
	host := strings.TrimSuffix(e.Target, ".")
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(host, strconv.Itoa(int(e.Port))))
}

// SRVResolver looks up signer endpoints published as SRV records, e.g.
// _tee-signer._tcp.example.org.
type SRVResolver struct {
	// Server is the DNS server address in host:port form.
	Server string
	// Scheme is used to build endpoint URLs, "http" unless set.
	Scheme string

	client *dns.Client
	log    *slog.Logger
}

func NewSRVResolver(server string, log *slog.Logger) *SRVResolver {
	if server == "" {
		server = DefaultDNSServer
	}
	return &SRVResolver{
		Server: server,
		Scheme: "http",
		client: &dns.Client{Timeout: 5 * time.Second},
		log:    log,
	}
}

// Resolve returns the endpoints for name ordered by ascending priority and,
// within a priority, by descending weight.
func (r *SRVResolver) Resolve(ctx context.Context, name string) ([]SignerEndpoint, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeSRV)
	msg.RecursionDesired = true

	in, rtt, err := r.client.ExchangeContext(ctx, msg, r.Server)
	if err != nil {
		return nil, fmt.Errorf("could not query %s for %s: %w", r.Server, name, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%w: %s for %s", ErrLookupFailed, dns.RcodeToString[in.Rcode], name)
	}

	endpoints := make([]SignerEndpoint, 0, len(in.Answer))
	for _, answer := range in.Answer {
		srv, ok := answer.(*dns.SRV)
		if !ok {
			continue
		}
		endpoints = append(endpoints, SignerEndpoint{
			Target:   srv.Target,
			Port:     srv.Port,
			Priority: srv.Priority,
			Weight:   srv.Weight,
		})
	}
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSigners, name)
	}

	sort.SliceStable(endpoints, func(i, j int) bool {
		if endpoints[i].Priority != endpoints[j].Priority {
			return endpoints[i].Priority < endpoints[j].Priority
		}
		return endpoints[i].Weight > endpoints[j].Weight
	})

	r.log.Debug("Resolved signer endpoints",
		slog.String("name", name),
		slog.Int("count", len(endpoints)),
		slog.Duration("rtt", rtt))

	return endpoints, nil
}

// ResolveURLs is Resolve followed by building a base URL per endpoint.
func (r *SRVResolver) ResolveURLs(ctx context.Context, name string) ([]string, error) {
	endpoints, err := r.Resolve(ctx, name)
	if err != nil {
		return nil, err
	}

	scheme := r.Scheme
	if scheme == "" {
		scheme = "http"
	}

	urls := make([]string, len(endpoints))
	for i, e := range endpoints {
		urls[i] = e.URL(scheme)
	}
	return urls, nil
}
