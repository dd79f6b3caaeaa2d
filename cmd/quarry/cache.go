package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"quarry/internal/index"
	"quarry/internal/module"
)

// indexCacheDir resolves the on-disk index cache location, honoring
// XDG_CACHE_HOME like the rest of the toolchain.
func indexCacheDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "quarry", "index")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// cacheKey fingerprints a module by its name and unit file identities
// so a renamed or relinked module never reuses a stale index.
func cacheKey(name string, unitFiles []string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n", name)
	for _, p := range unitFiles {
		fmt.Fprintf(h, "%s\n", p)
		if st, err := os.Stat(p); err == nil {
			fmt.Fprintf(h, "%d %d\n", st.Size(), st.ModTime().UnixNano())
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// writeIndexCache stores a module's index in the cache dir atomically.
func writeIndexCache(dir string, m *module.Module, unitFiles []string) (string, error) {
	path := filepath.Join(dir, cacheKey(m.Name, unitFiles)+".mp")
	f, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(f.Name())

	if err := m.Index.WriteCache(f, m.Units); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

// readIndexCache loads a cached index for a module, ok false on a miss.
// A stale or corrupt cache entry reads as a plain miss.
func readIndexCache(dir string, m *module.Module, unitFiles []string) (bool, error) {
	path := filepath.Join(dir, cacheKey(m.Name, unitFiles)+".mp")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	ix, err := index.ReadCache(f, m.Units)
	if err != nil {
		return false, nil
	}
	m.Index = ix
	return true, nil
}
