// Package store persists the device-local cache and pending operation slot
// as JSON documents under a state directory. Writes go through a temp file
// plus rename so a crash mid-write never corrupts the previous document.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	cacheFileName   = "cached_data.json"
	pendingFileName = "pending_operation.json"
)

// writeDocument atomically serializes v to path / Sérialise atomiquement v vers path
func writeDocument(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

// readDocument loads the JSON document at path into v. The second return
// value reports whether the document exists.
func readDocument(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read document: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode document %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

// removeDocument deletes the document, tolerating absence / Supprime le document, tolère l'absence
func removeDocument(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove document: %w", err)
	}
	return nil
}
