package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ruteri/tee-integrity-proofs/api/teeclient"
	"github.com/ruteri/tee-integrity-proofs/cmd/flags"
	"github.com/ruteri/tee-integrity-proofs/cryptoutils"
	"github.com/ruteri/tee-integrity-proofs/discovery"
	"github.com/ruteri/tee-integrity-proofs/interfaces"
	"github.com/ruteri/tee-integrity-proofs/onchain"
	"github.com/ruteri/tee-integrity-proofs/storage"
	"github.com/ruteri/tee-integrity-proofs/verifier"
	"github.com/urfave/cli/v2"
)

type attestationSummary struct {
	RequestID    string          `json:"request_id,omitempty"`
	Digest       common.Hash     `json:"digest"`
	Signer       common.Address  `json:"signer"`
	VKey         interfaces.VKey `json:"vkey"`
	PublicValues hexutil.Bytes   `json:"public_values"`
	Prefix       hexutil.Bytes   `json:"prefix"`
}

type prefixSummary struct {
	RecoveryID  uint8           `json:"recovery_id"`
	R           hexutil.Bytes   `json:"r"`
	S           hexutil.Bytes   `json:"s"`
	ProofLength int             `json:"proof_length"`
	Signer      *common.Address `json:"signer,omitempty"`
}

func printJSON(cCtx *cli.Context, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cCtx.App.Writer, string(out))
	return err
}

func readOptionalFile(path string) ([]byte, error) {
	if path == "" {
		return []byte{}, nil
	}
	return os.ReadFile(path)
}

func parseSigner(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid signer address %q", s)
	}
	return common.HexToAddress(s), nil
}

// newTEEClient targets --tee-url, or the preferred instance behind --tee-srv.
func newTEEClient(cCtx *cli.Context, logger *slog.Logger) (*teeclient.Client, error) {
	name := cCtx.String(flags.TEESRVFlag.Name)
	if name == "" {
		return teeclient.NewClient(cCtx.String(flags.TEEURLFlag.Name), logger), nil
	}

	resolver := discovery.NewSRVResolver(cCtx.String(flags.DNSServerFlag.Name), logger)
	urls, err := resolver.ResolveURLs(cCtx.Context, name)
	if err != nil {
		return nil, fmt.Errorf("could not discover TEE service: %w", err)
	}
	logger.Info("Discovered TEE service", "name", name, "url", urls[0], "candidates", len(urls))
	return teeclient.NewClient(urls[0], logger), nil
}

func openArchive(cCtx *cli.Context, logger *slog.Logger) (*storage.Archive, error) {
	backend, err := storage.NewStorageBackendFactory(logger).CreateMultiBackend(cCtx.StringSlice(flagArchive.Name))
	if err != nil {
		return nil, err
	}
	return storage.NewArchive(backend, logger), nil
}

func summarize(resp *interfaces.TEEResponse, signer common.Address) attestationSummary {
	return attestationSummary{
		Digest:       resp.Digest(),
		Signer:       signer,
		VKey:         resp.VKey,
		PublicValues: resp.PublicValues,
		Prefix:       resp.PrefixBytes(),
	}
}

func cmdAddress(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	client, err := newTEEClient(cCtx, logger)
	if err != nil {
		return err
	}

	resp, err := client.GetAddress(cCtx.Context)
	if err != nil {
		return fmt.Errorf("could not fetch signer address: %w", err)
	}
	_, err = fmt.Fprintln(cCtx.App.Writer, resp.Address.Hex())
	return err
}

func cmdProve(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	client, err := newTEEClient(cCtx, logger)
	if err != nil {
		return err
	}

	mode, err := interfaces.ParseTEEProofType(cCtx.String(flagTEEProof.Name))
	if err != nil {
		return err
	}

	program, err := os.ReadFile(cCtx.String(flagProgram.Name))
	if err != nil {
		return fmt.Errorf("could not read program: %w", err)
	}
	stdin, err := readOptionalFile(cCtx.String(flagStdin.Name))
	if err != nil {
		return fmt.Errorf("could not read stdin: %w", err)
	}

	var trusted *verifier.TrustedAddress
	if signer := cCtx.String(flagSigner.Name); signer != "" {
		addr, err := parseSigner(signer)
		if err != nil {
			return err
		}
		trusted = verifier.NewPinnedAddress(addr)
	} else {
		trusted = verifier.NewFetchedAddress(client, logger)
		addr, err := trusted.Refresh(cCtx.Context)
		if err != nil {
			return fmt.Errorf("could not fetch signer address: %w", err)
		}
		logger.Warn("trusting signer address served by the TEE service", "signer", addr.Hex())
	}

	req, err := teeclient.NewRequest(program, interfaces.Stdin(stdin))
	if err != nil {
		return err
	}

	verified, err := client.Prove(cCtx.Context, req, verifier.NewVerifier(trusted))
	if err != nil {
		return fmt.Errorf("could not obtain integrity proof: %w", err)
	}

	if path := cCtx.String(flagAttestationOut.Name); path != "" {
		encoded, err := interfaces.MarshalEventPayloadBinary(&interfaces.SuccessEvent{Response: *verified.TEEResponse})
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, encoded, 0o644); err != nil {
			return fmt.Errorf("could not write attestation: %w", err)
		}
	}

	if cCtx.IsSet(flagArchive.Name) {
		archive, err := openArchive(cCtx, logger)
		if err != nil {
			return err
		}
		if _, err := archive.Put(cCtx.Context, verified.TEEResponse); err != nil {
			return err
		}
	}

	if path := cCtx.String(flagOut.Name); path != "" {
		zkProof, err := readOptionalFile(cCtx.String(flagZKProof.Name))
		if err != nil {
			return fmt.Errorf("could not read proof: %w", err)
		}
		encoded, err := verified.EncodeProof(mode, zkProof)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, encoded, 0o644); err != nil {
			return fmt.Errorf("could not write proof: %w", err)
		}
	}

	summary := summarize(verified.TEEResponse, verified.Signer)
	summary.RequestID = req.ID.String()
	return printJSON(cCtx, summary)
}

func cmdInspect(cCtx *cli.Context) error {
	proofPath := cCtx.String(flagPrefixedProof.Name)
	attestationPath := cCtx.String(flagAttestation.Name)
	digest := cCtx.String(flagDigest.Name)

	inputs := 0
	for _, in := range []string{proofPath, attestationPath, digest} {
		if in != "" {
			inputs++
		}
	}

	switch {
	case inputs > 1:
		return errors.New("pass only one of --proof, --attestation or --digest")
	case attestationPath != "":
		resp, err := loadAttestation(attestationPath)
		if err != nil {
			return err
		}
		return inspectAttestation(cCtx, resp)
	case digest != "":
		resp, err := loadArchived(cCtx, digest)
		if err != nil {
			return err
		}
		return inspectAttestation(cCtx, resp)
	case proofPath != "":
		return inspectProof(cCtx, proofPath)
	default:
		return errors.New("one of --proof, --attestation or --digest is required")
	}
}

func loadAttestation(path string) (*interfaces.TEEResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read attestation: %w", err)
	}

	event, err := interfaces.UnmarshalEventPayloadBinary(data)
	if err != nil {
		return nil, err
	}
	return interfaces.Outcome(event)
}

func loadArchived(cCtx *cli.Context, digestHex string) (*interfaces.TEEResponse, error) {
	raw, err := hexutil.Decode(digestHex)
	if err != nil || len(raw) != common.HashLength {
		return nil, fmt.Errorf("invalid digest %q", digestHex)
	}
	if !cCtx.IsSet(flagArchive.Name) {
		return nil, errors.New("--digest requires --archive")
	}

	archive, err := openArchive(cCtx, flags.SetupLogger(cCtx))
	if err != nil {
		return nil, err
	}
	return archive.Get(cCtx.Context, common.BytesToHash(raw))
}

func inspectAttestation(cCtx *cli.Context, resp *interfaces.TEEResponse) error {
	signer, err := resp.RecoverSigner()
	if err != nil {
		return err
	}
	if expected := cCtx.String(flagSigner.Name); expected != "" {
		addr, err := parseSigner(expected)
		if err != nil {
			return err
		}
		if err := resp.Verify(addr); err != nil {
			return err
		}
	}

	return printJSON(cCtx, summarize(resp, signer))
}

func inspectProof(cCtx *cli.Context, path string) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read proof: %w", err)
	}

	sig, rest, err := cryptoutils.SplitPrefix(blob)
	if err != nil {
		return err
	}

	summary := prefixSummary{
		RecoveryID:  sig.RecoveryID,
		R:           sig.R[:],
		S:           sig.S[:],
		ProofLength: len(rest),
	}

	if vkeyHex := cCtx.String(flagVKey.Name); vkeyHex != "" {
		vkey, err := interfaces.VKeyFromHex(vkeyHex)
		if err != nil {
			return err
		}
		publicValues, err := readOptionalFile(cCtx.String(flagPublicValues.Name))
		if err != nil {
			return fmt.Errorf("could not read public values: %w", err)
		}

		digest := cryptoutils.Digest(vkey, publicValues)
		signer, err := sig.RecoverAddress(digest)
		if err != nil {
			return err
		}
		summary.Signer = &signer

		if expected := cCtx.String(flagSigner.Name); expected != "" {
			addr, err := parseSigner(expected)
			if err != nil {
				return err
			}
			if err := sig.VerifySigner(digest, addr); err != nil {
				return err
			}
		}
	}

	return printJSON(cCtx, summary)
}

func cmdOnchainVerify(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	verifierAddr := cCtx.String(flagVerifier.Name)
	if !common.IsHexAddress(verifierAddr) {
		return fmt.Errorf("invalid verifier address %q", verifierAddr)
	}

	vkey, err := interfaces.VKeyFromHex(cCtx.String(flagVKey.Name))
	if err != nil {
		return err
	}
	publicValues, err := readOptionalFile(cCtx.String(flagPublicValues.Name))
	if err != nil {
		return fmt.Errorf("could not read public values: %w", err)
	}
	proof, err := readOptionalFile(cCtx.String(flagPrefixedProof.Name))
	if err != nil {
		return fmt.Errorf("could not read proof: %w", err)
	}

	rpcAddr := cCtx.String(flags.RpcAddrFlag.Name)
	logger.Info("Connecting to Ethereum RPC", "address", rpcAddr)
	ethClient, err := ethclient.DialContext(cCtx.Context, rpcAddr)
	if err != nil {
		return fmt.Errorf("could not dial rpc: %w", err)
	}
	defer ethClient.Close()

	client := onchain.NewVerifierClient(ethClient, common.HexToAddress(verifierAddr))
	if err := client.VerifyProof(cCtx.Context, vkey, publicValues, proof); err != nil {
		return err
	}

	_, err = fmt.Fprintln(cCtx.App.Writer, "proof accepted by", client.Address().Hex())
	return err
}
