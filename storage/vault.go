package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/vault/api"
	"github.com/ruteri/tee-integrity-proofs/interfaces"
)

const contentField = "content"

// VaultBackend stores attestations in a HashiCorp Vault KV v2 mount.
type VaultBackend struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultBackend creates a Vault backend.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: path within the mount (e.g. "tee-integrity")
//   - token: Vault token; when empty the VAULT_TOKEN environment variable is used
func NewVaultBackend(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultBackend, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.Trim(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultBackend{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", strings.TrimPrefix(strings.TrimPrefix(address, "https://"), "http://"), mountPath, dataPath),
	}, nil
}

func (b *VaultBackend) kv() *api.KVv2 {
	return b.client.KVv2(b.mountPath)
}

func (b *VaultBackend) Fetch(ctx context.Context, digest common.Hash) ([]byte, error) {
	key := b.secretKey(digest)

	secret, err := b.kv().Get(ctx, key)
	if errors.Is(err, api.ErrSecretNotFound) {
		b.log.Debug("Attestation not found in Vault", "key", key)
		return nil, interfaces.ErrAttestationNotFound
	}
	if err != nil {
		b.log.Error("Vault read failed", "key", key, "err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	encoded, ok := secret.Data[contentField].(string)
	if !ok {
		return nil, fmt.Errorf("vault secret %s has no %q field", key, contentField)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("vault secret %s: %w", key, err)
	}
	return data, nil
}

func (b *VaultBackend) Store(ctx context.Context, digest common.Hash, data []byte) error {
	key := b.secretKey(digest)

	_, err := b.kv().Put(ctx, key, map[string]interface{}{
		contentField: base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		b.log.Error("Vault write failed", "key", key, "err", err)
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored attestation in Vault", "key", key, "size", len(data))
	return nil
}

// secretKey is relative to the KV v2 mount; the client adds the data/ segment.
func (b *VaultBackend) secretKey(digest common.Hash) string {
	return path.Join(b.dataPath, attestationsDir, fmt.Sprintf("%x", digest[:]))
}

// Available reports whether Vault is initialized and unsealed.
func (b *VaultBackend) Available(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := b.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		b.log.Debug("Vault health check failed", "err", err)
		return false
	}

	if !health.Initialized || health.Sealed {
		b.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}

	return true
}

func (b *VaultBackend) Name() string {
	return fmt.Sprintf("vault-%s-%s", b.mountPath, b.dataPath)
}

func (b *VaultBackend) LocationURI() string {
	return b.locationURI
}
