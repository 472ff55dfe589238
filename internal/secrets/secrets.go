// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials from a directory of plain-text
// files, one secret per file: the filename is the key and the trimmed
// contents are the value. Keeping keys out of the config file means the
// config can be committed while .secrets/ stays ignored.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Key files recognized under the secrets directory.
const (
	NCBIAPIKey  = "ncbi-api-key"
	EntrezEmail = "entrez-email"
)

// Store maps secret names to values.
type Store map[string]string

// Get returns the value for name, or fallback when the secret is absent
// or empty.
func (s Store) Get(name, fallback string) string {
	if v := s[name]; v != "" {
		return v
	}
	return fallback
}

// Load reads every regular file in dir into a Store. A missing directory
// is not an error and yields an empty Store; dotfiles and subdirectories
// are skipped. A file that exists but cannot be read produces a warning
// on stderr rather than aborting, so one bad key does not block startup.
func Load(dir string) (Store, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return Store{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	store := make(Store, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping secret %s: %v\n", name, err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			store[name] = value
		}
	}
	return store, nil
}
