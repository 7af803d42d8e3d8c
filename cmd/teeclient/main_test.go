package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/miekg/dns"
	"github.com/ruteri/tee-integrity-proofs/api/teehandler"
	"github.com/ruteri/tee-integrity-proofs/interfaces"
	"github.com/ruteri/tee-integrity-proofs/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startSigner(t *testing.T) (*signer.SimpleSigner, string) {
	s, err := signer.NewSimpleSigner(bytes.Repeat([]byte{5}, 32))
	require.NoError(t, err)

	r := chi.NewRouter()
	teehandler.NewHandler(signer.EchoExecutor{}, s, nil, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return s, srv.URL
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"teeclient"}, args...))
	return out.String(), err
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestAddressCommand(t *testing.T) {
	s, url := startSigner(t)

	out, err := runApp(t, "--tee-url", url, "address")
	require.NoError(t, err)
	assert.Equal(t, s.Address().Hex()+"\n", out)
}

func TestProveAndInspect(t *testing.T) {
	s, url := startSigner(t)
	dir := t.TempDir()

	program := writeFile(t, dir, "program.bin", []byte("guest program"))
	stdin := writeFile(t, dir, "stdin.bin", []byte("public values"))
	zkProof := writeFile(t, dir, "zk.proof", []byte("zk proof bytes"))
	proofOut := filepath.Join(dir, "proof.bin")
	attestationOut := filepath.Join(dir, "attestation.bin")

	out, err := runApp(t, "--tee-url", url, "prove",
		"--program", program,
		"--stdin", stdin,
		"--signer", s.Address().Hex(),
		"--proof", zkProof,
		"--out", proofOut,
		"--attestation-out", attestationOut,
	)
	require.NoError(t, err)

	var summary attestationSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, s.Address(), summary.Signer)
	assert.Equal(t, []byte("public values"), []byte(summary.PublicValues))
	require.Len(t, summary.Prefix, 69)

	encoded, err := os.ReadFile(proofOut)
	require.NoError(t, err)
	assert.Equal(t, []byte(summary.Prefix), encoded[:69])
	assert.Equal(t, []byte("zk proof bytes"), encoded[69:])

	out, err = runApp(t, "inspect", "--attestation", attestationOut, "--signer", s.Address().Hex())
	require.NoError(t, err)
	var stored attestationSummary
	require.NoError(t, json.Unmarshal([]byte(out), &stored))
	assert.Equal(t, summary.VKey, stored.VKey)
	assert.Equal(t, summary.Prefix, stored.Prefix)

	out, err = runApp(t, "inspect",
		"--proof", proofOut,
		"--vkey", summary.VKey.String(),
		"--public-values", stdin,
		"--signer", s.Address().Hex(),
	)
	require.NoError(t, err)
	var prefix prefixSummary
	require.NoError(t, json.Unmarshal([]byte(out), &prefix))
	assert.Equal(t, len("zk proof bytes"), prefix.ProofLength)
	require.NotNil(t, prefix.Signer)
	assert.Equal(t, s.Address(), *prefix.Signer)
}

func TestProve_FetchedSigner(t *testing.T) {
	s, url := startSigner(t)
	program := writeFile(t, t.TempDir(), "program.bin", []byte("p"))

	out, err := runApp(t, "--tee-url", url, "prove", "--program", program)
	require.NoError(t, err)

	var summary attestationSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, s.Address(), summary.Signer)
	assert.Empty(t, summary.PublicValues)
}

func TestProve_UntrustedSigner(t *testing.T) {
	_, url := startSigner(t)
	program := writeFile(t, t.TempDir(), "program.bin", []byte("p"))

	_, err := runApp(t, "--tee-url", url, "prove",
		"--program", program,
		"--signer", "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf",
	)
	assert.ErrorIs(t, err, interfaces.ErrAddressMismatch)
}

func TestInspect_RequiresInput(t *testing.T) {
	_, err := runApp(t, "inspect")
	assert.Error(t, err)

	dir := t.TempDir()
	short := writeFile(t, dir, "short.bin", []byte{0x11, 0x8d})
	_, err = runApp(t, "inspect", "--proof", short)
	assert.Error(t, err)
}

func TestProve_Archive(t *testing.T) {
	s, url := startSigner(t)
	dir := t.TempDir()
	program := writeFile(t, dir, "program.bin", []byte("archived program"))
	stdin := writeFile(t, dir, "stdin.bin", []byte("archived values"))
	archive := "file://" + filepath.Join(dir, "archive")

	out, err := runApp(t, "--tee-url", url, "prove",
		"--program", program,
		"--stdin", stdin,
		"--signer", s.Address().Hex(),
		"--archive", archive,
	)
	require.NoError(t, err)

	var summary attestationSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))

	out, err = runApp(t, "inspect",
		"--archive", archive,
		"--digest", summary.Digest.Hex(),
		"--signer", s.Address().Hex(),
	)
	require.NoError(t, err)

	var archived attestationSummary
	require.NoError(t, json.Unmarshal([]byte(out), &archived))
	assert.Equal(t, summary.Digest, archived.Digest)
	assert.Equal(t, summary.Prefix, archived.Prefix)
	assert.Equal(t, []byte("archived values"), []byte(archived.PublicValues))

	_, err = runApp(t, "inspect", "--archive", archive, "--digest", "0x"+strings.Repeat("00", 32))
	assert.ErrorIs(t, err, interfaces.ErrAttestationNotFound)

	_, err = runApp(t, "inspect", "--digest", summary.Digest.Hex())
	assert.Error(t, err)

	_, err = runApp(t, "inspect", "--archive", archive, "--digest", "0x1234")
	assert.Error(t, err)
}

// startSRVServer answers SRV queries for name with the host and port of target.
func startSRVServer(t *testing.T, name, target string) string {
	u, err := url.Parse(target)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan struct{})
	server := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler:           dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
			m := new(dns.Msg)
			m.SetReply(req)
			if req.Question[0].Name == dns.Fqdn(name) {
				m.Answer = append(m.Answer, &dns.SRV{
					Hdr:    dns.RR_Header{Name: dns.Fqdn(name), Rrtype: dns.TypeSRV, Class: dns.ClassINET, Ttl: 60},
					Port:   uint16(port),
					Target: dns.Fqdn(u.Hostname()),
				})
			} else {
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

func TestAddressCommand_SRVDiscovery(t *testing.T) {
	s, signerURL := startSigner(t)
	dnsAddr := startSRVServer(t, "_tee-signer._tcp.test", signerURL)

	out, err := runApp(t,
		"--tee-url", "http://127.0.0.1:1",
		"--tee-srv", "_tee-signer._tcp.test",
		"--dns-server", dnsAddr,
		"address",
	)
	require.NoError(t, err)
	assert.Equal(t, s.Address().Hex()+"\n", out)

	_, err = runApp(t, "--tee-srv", "_missing._tcp.test", "--dns-server", dnsAddr, "address")
	assert.Error(t, err)
}
