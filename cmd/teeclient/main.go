package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/tee-integrity-proofs/cmd/flags"
	"github.com/urfave/cli/v2"
)

const usage = `Obtain and check TEE integrity proofs.

The prefix printed by prove is the 69-byte selector||v||r||s blob the onchain
verifier expects in front of the zk proof.`

var flagSigner = &cli.StringFlag{
	Name:    "signer",
	EnvVars: []string{"TEE_SIGNER"},
	Usage:   "trusted signer address; when empty the address served by the TEE service is trusted",
}

var flagProgram = &cli.StringFlag{
	Name:     "program",
	Required: true,
	Usage:    "file with the program to execute",
}

var flagStdin = &cli.StringFlag{
	Name:  "stdin",
	Usage: "file with the program input",
}

var flagZKProof = &cli.StringFlag{
	Name:  "proof",
	Usage: "file with the zk proof the integrity prefix is prepended to",
}

var flagTEEProof = &cli.StringFlag{
	Name:  "tee-proof",
	Value: "nitro-integrity",
	Usage: "integrity proof mode: 'nitro-integrity' or 'none'",
}

var flagOut = &cli.StringFlag{
	Name:  "out",
	Usage: "write the encoded proof to this file",
}

var flagAttestationOut = &cli.StringFlag{
	Name:  "attestation-out",
	Usage: "write the binary encoded signed response to this file",
}

var flagAttestation = &cli.StringFlag{
	Name:  "attestation",
	Usage: "file with a binary encoded attestation written by prove",
}

var flagPrefixedProof = &cli.StringFlag{
	Name:  "proof",
	Usage: "file with an integrity-prefixed proof",
}

var flagVKey = &cli.StringFlag{
	Name:  "vkey",
	Usage: "0x-prefixed 32-byte program verification key",
}

var flagPublicValues = &cli.StringFlag{
	Name:  "public-values",
	Usage: "file with the program public values",
}

var flagArchive = &cli.StringSliceFlag{
	Name:  "archive",
	Usage: "attestation archive location (file://, s3://, vault://), may be repeated",
}

var flagDigest = &cli.StringFlag{
	Name:  "digest",
	Usage: "0x-prefixed digest of an archived attestation",
}

var flagVerifier = &cli.StringFlag{
	Name:     "verifier",
	Required: true,
	Usage:    "address of the onchain verifier gateway",
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "teeclient",
		Usage: usage,
		Flags: append([]cli.Flag{
			flags.TEEURLFlag,
			flags.TEESRVFlag,
			flags.DNSServerFlag,
			flags.LogServiceFlagFn("teeclient"),
		}, flags.LogFlags...),
		Commands: []*cli.Command{
			{
				Name:   "address",
				Usage:  "print the signer address served by the TEE service",
				Action: cmdAddress,
			},
			{
				Name:  "prove",
				Usage: "execute a program in the TEE and verify the signed result",
				Flags: []cli.Flag{
					flagProgram,
					flagStdin,
					flagSigner,
					flagZKProof,
					flagTEEProof,
					flagOut,
					flagAttestationOut,
					flagArchive,
				},
				Action: cmdProve,
			},
			{
				Name:  "inspect",
				Usage: "decode an integrity-prefixed proof, a stored attestation or an archived one",
				Flags: []cli.Flag{
					flagPrefixedProof,
					flagAttestation,
					flagArchive,
					flagDigest,
					flagVKey,
					flagPublicValues,
					flagSigner,
				},
				Action: cmdInspect,
			},
			{
				Name:  "onchain-verify",
				Usage: "dry-run a proof against the onchain verifier",
				Flags: []cli.Flag{
					flags.RpcAddrFlag,
					flagVerifier,
					flagVKey,
					flagPublicValues,
					flagPrefixedProof,
				},
				Action: cmdOnchainVerify,
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
