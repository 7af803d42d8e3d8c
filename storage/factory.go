package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/tee-integrity-proofs/interfaces"
)

// ErrInvalidLocationURI is returned for unparseable or unsupported URIs.
var ErrInvalidLocationURI = errors.New("invalid storage location URI")

// StorageBackendFactory creates attestation backends from location URIs.
type StorageBackendFactory struct {
	log *slog.Logger
}

func NewStorageBackendFactory(logger *slog.Logger) *StorageBackendFactory {
	return &StorageBackendFactory{log: logger}
}

// StorageBackendFor creates a backend from a location URI.
//
// Supported schemes:
//   - file:///var/lib/attestations
//   - s3://[ACCESS_KEY:SECRET_KEY@]bucket/prefix?region=us-east-1&endpoint=http://minio:9000
//   - vault://vault.example.com:8200/mount/path?tls=false (token from VAULT_TOKEN)
func (sf *StorageBackendFactory) StorageBackendFor(locationURI string) (interfaces.AttestationBackend, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "s3":
		return sf.createS3Backend(u)
	case "file":
		return sf.createFileBackend(u)
	case "vault":
		return sf.createVaultBackend(u)
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme %q", ErrInvalidLocationURI, u.Scheme)
	}
}

// CreateMultiBackend creates a backend writing to every location and
// reading from the first that has the attestation.
func (sf *StorageBackendFactory) CreateMultiBackend(locationURIs []string) (interfaces.AttestationBackend, error) {
	if len(locationURIs) == 0 {
		return nil, fmt.Errorf("%w: no locations", ErrInvalidLocationURI)
	}
	if len(locationURIs) == 1 {
		return sf.StorageBackendFor(locationURIs[0])
	}

	backends := make([]interfaces.AttestationBackend, 0, len(locationURIs))
	for _, uri := range locationURIs {
		backend, err := sf.StorageBackendFor(uri)
		if err != nil {
			return nil, fmt.Errorf("could not create backend for %s: %w", uri, err)
		}
		backends = append(backends, backend)
	}
	return NewMultiStorageBackend(backends, sf.log), nil
}

// createS3Backend: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/prefix?region=us-west-2&endpoint=custom.s3.com
func (sf *StorageBackendFactory) createS3Backend(u *url.URL) (interfaces.AttestationBackend, error) {
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing bucket in %s", ErrInvalidLocationURI, u.Redacted())
	}

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
		sf.log.Debug("Using embedded S3 credentials")
	}

	return NewS3Backend(u.Host, strings.TrimPrefix(u.Path, "/"), region, query.Get("endpoint"), accessKey, secretKey, sf.log)
}

// createFileBackend: file:///absolute/path or file://./relative/path
func (sf *StorageBackendFactory) createFileBackend(u *url.URL) (interfaces.AttestationBackend, error) {
	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in %s", ErrInvalidLocationURI, u.String())
	}

	return NewFileBackend(path, sf.log)
}

// createVaultBackend: vault://host:port/mount/data/path?tls=false
func (sf *StorageBackendFactory) createVaultBackend(u *url.URL) (interfaces.AttestationBackend, error) {
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing vault address in %s", ErrInvalidLocationURI, u.Redacted())
	}

	mount, dataPath, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
	if mount == "" {
		return nil, fmt.Errorf("%w: missing vault mount in %s", ErrInvalidLocationURI, u.Redacted())
	}

	scheme := "https"
	if u.Query().Get("tls") == "false" {
		scheme = "http"
	}

	var token string
	if u.User != nil {
		token = u.User.Username()
	}

	return NewVaultBackend(fmt.Sprintf("%s://%s", scheme, u.Host), mount, dataPath, token, sf.log)
}
