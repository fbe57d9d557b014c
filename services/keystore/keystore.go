package keystore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/upb/parallelai/services/providers"
)

// EnvVarName returns the environment variable holding the key for providerID
func EnvVarName(providerID string) string {
	return strings.ToUpper(strings.ReplaceAll(providerID, "-", "_")) + "_API_KEY"
}

// EnvStore reads credentials from the process environment
type EnvStore struct {
	lookup func(string) (string, bool)
}

// NewEnvStore creates a store backed by os.LookupEnv
func NewEnvStore() *EnvStore {
	return &EnvStore{lookup: os.LookupEnv}
}

// CredentialsFor implements query.CredentialSource
func (s *EnvStore) CredentialsFor(_ context.Context, providerIDs []string) (providers.CredentialSet, error) {
	creds := make(providers.CredentialSet, len(providerIDs))
	for _, id := range providerIDs {
		if v, ok := s.lookup(EnvVarName(id)); ok && strings.TrimSpace(v) != "" {
			creds[id] = strings.TrimSpace(v)
		}
	}
	return creds, nil
}

// FileStore reads credentials from a dotenv-formatted file. The file is
// re-read on every call so edits take effect without a restart. Entries may
// be keyed by provider id ("openai=sk-...") or by variable name
// ("OPENAI_API_KEY=sk-...").
type FileStore struct {
	path string
}

// NewFileStore creates a store for path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file the store reads
func (s *FileStore) Path() string {
	return s.path
}

// CredentialsFor implements query.CredentialSource. A missing file yields an
// empty set.
func (s *FileStore) CredentialsFor(_ context.Context, providerIDs []string) (providers.CredentialSet, error) {
	creds := make(providers.CredentialSet, len(providerIDs))
	if s.path == "" {
		return creds, nil
	}

	entries, err := godotenv.Read(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return creds, nil
		}
		return nil, fmt.Errorf("failed to read key file %s: %w", s.path, err)
	}

	for _, id := range providerIDs {
		for _, key := range []string{EnvVarName(id), id} {
			if v := strings.TrimSpace(entries[key]); v != "" {
				creds[id] = v
				break
			}
		}
	}
	return creds, nil
}

// Source is anything that can produce credentials
type Source interface {
	CredentialsFor(ctx context.Context, providerIDs []string) (providers.CredentialSet, error)
}

// Chain consults sources in order; the first non-empty credential for a
// provider wins
type Chain []Source

// CredentialsFor implements query.CredentialSource
func (c Chain) CredentialsFor(ctx context.Context, providerIDs []string) (providers.CredentialSet, error) {
	creds := make(providers.CredentialSet, len(providerIDs))
	for _, src := range c {
		found, err := src.CredentialsFor(ctx, providerIDs)
		if err != nil {
			return nil, err
		}
		for id, v := range found {
			if _, ok := creds.Get(id); !ok {
				creds[id] = v
			}
		}
	}
	return creds, nil
}

// Default returns the standard lookup order: key file, then environment
func Default(keysFile string) Chain {
	return Chain{NewFileStore(keysFile), NewEnvStore()}
}
