package discovery

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const signersName = "_tee-signer._tcp.example.org."

func srvRecord(priority, weight, port uint16, target string) dns.RR {
	return &dns.SRV{
		Hdr:      dns.RR_Header{Name: signersName, Rrtype: dns.TypeSRV, Class: dns.ClassINET, Ttl: 60},
		Priority: priority,
		Weight:   weight,
		Port:     port,
		Target:   target,
	}
}

// startDNSServer serves records for signersName, an empty answer for
// empty.example.org. and NXDOMAIN otherwise.
func startDNSServer(t *testing.T, records ...dns.RR) string {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	server := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler:           dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
			m := new(dns.Msg)
			m.SetReply(req)
			switch req.Question[0].Name {
			case signersName:
				m.Answer = append(m.Answer, records...)
			case "empty.example.org.":
			default:
				m.Rcode = dns.RcodeNameError
			}
			_ = w.WriteMsg(m)
		}),
	}

	go func() { _ = server.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = server.Shutdown() })

	return pc.LocalAddr().String()
}

func TestSRVResolver_Resolve(t *testing.T) {
	addr := startDNSServer(t,
		srvRecord(20, 10, 8080, "signer-c.example.org."),
		srvRecord(10, 10, 8080, "signer-b.example.org."),
		srvRecord(10, 50, 9090, "signer-a.example.org."),
	)
	resolver := NewSRVResolver(addr, testLogger)

	endpoints, err := resolver.Resolve(context.Background(), "_tee-signer._tcp.example.org")
	require.NoError(t, err)
	require.Len(t, endpoints, 3)
	assert.Equal(t, "signer-a.example.org.", endpoints[0].Target)
	assert.Equal(t, uint16(9090), endpoints[0].Port)
	assert.Equal(t, "signer-b.example.org.", endpoints[1].Target)
	assert.Equal(t, "signer-c.example.org.", endpoints[2].Target)

	urls, err := resolver.ResolveURLs(context.Background(), signersName)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"http://signer-a.example.org:9090",
		"http://signer-b.example.org:8080",
		"http://signer-c.example.org:8080",
	}, urls)
}

func TestSRVResolver_Failures(t *testing.T) {
	addr := startDNSServer(t, srvRecord(10, 10, 8080, "signer-a.example.org."))
	resolver := NewSRVResolver(addr, testLogger)

	_, err := resolver.Resolve(context.Background(), "unknown.example.org")
	assert.ErrorIs(t, err, ErrLookupFailed)

	_, err = resolver.Resolve(context.Background(), "empty.example.org")
	assert.ErrorIs(t, err, ErrNoSigners)
}

func TestSignerEndpoint_URL(t *testing.T) {
	e := SignerEndpoint{Target: "10.0.0.1.", Port: 443}
	assert.Equal(t, "https://10.0.0.1:443", e.URL("https"))

	e = SignerEndpoint{Target: "::1", Port: 8080}
	assert.Equal(t, "http://[::1]:8080", e.URL("http"))
}

func TestNewSRVResolver_DefaultServer(t *testing.T) {
	assert.Equal(t, DefaultDNSServer, NewSRVResolver("", testLogger).Server)
}
