package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ruteri/tee-integrity-proofs/api/teehandler"
	"github.com/ruteri/tee-integrity-proofs/cmd/flags"
	"github.com/ruteri/tee-integrity-proofs/common"
	"github.com/ruteri/tee-integrity-proofs/httpserver"
	"github.com/ruteri/tee-integrity-proofs/metrics"
	"github.com/ruteri/tee-integrity-proofs/signer"
	"github.com/urfave/cli/v2"
)

var flagListenAddr = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}

var flagSignerSeed = &cli.StringFlag{
	Name:    "signer-seed",
	EnvVars: []string{"SIGNER_SEED"},
	Usage:   "hex-encoded seed (at least 32 bytes) the signer key is derived from; a random key is used if empty",
}

var flagPingSeconds = &cli.Int64Flag{
	Name:  "ping-seconds",
	Value: int64(teehandler.DefaultPingInterval.Seconds()),
	Usage: "seconds between keep-alive events on execute streams",
}

func main() {
	app := &cli.App{
		Name:  "devsigner",
		Usage: "Serve a development TEE integrity signer. SIGHUP rotates the signer key.",
		Flags: append([]cli.Flag{
			flagListenAddr,
			flagSignerSeed,
			flagPingSeconds,
			flags.LogServiceFlagFn("devsigner"),
		}, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			logger := flags.SetupLogger(cCtx)

			s, err := newSigner(cCtx.String(flagSignerSeed.Name))
			if err != nil {
				logger.Error("Failed to create signer", "err", err)
				return err
			}
			logger.Info("Signer initialized", "address", s.Address().Hex())

			cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(flagListenAddr.Name))
			server, err := httpserver.New(cfg)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			teeMetrics := metrics.NewTEEMetrics(server.MetricsRegistry(), common.PackageName)
			handler := teehandler.NewHandler(signer.EchoExecutor{}, s, teeMetrics, logger)
			if ping := cCtx.Int64(flagPingSeconds.Name); ping > 0 {
				handler.WithPingInterval(time.Duration(ping) * time.Second)
			}
			server.Mount(handler)
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

			logger.Info("Server is running, press Ctrl+C to stop")
			for sig := range exit {
				if sig != syscall.SIGHUP {
					break
				}
				rotated, err := rotate(s)
				if err != nil {
					logger.Error("Failed to rotate signer", "err", err)
					continue
				}
				logger.Info("Signer rotated", "address", rotated)
			}
			logger.Info("Shutdown signal received")

			if err := server.Shutdown(); err != nil {
				return err
			}
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newSigner(seedHex string) (*signer.SimpleSigner, error) {
	if seedHex == "" {
		return signer.NewRandomSimpleSigner()
	}

	seed, err := hex.DecodeString(strings.TrimPrefix(seedHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid signer-seed: %w", err)
	}
	if len(seed) < 32 {
		return nil, errors.New("signer-seed must be at least 32 bytes")
	}
	return signer.NewSimpleSigner(seed)
}

func rotate(s *signer.SimpleSigner) (string, error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return "", err
	}
	addr, err := s.Rotate(seed)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}
