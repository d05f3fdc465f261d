package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
)

const (
	SymbolsFile   = "symbols_updated.json"
	ReferenceFile = "usdt_network.json"
)

// FileSnapshotSink dumps the market state and the reference network view as
// indented JSON files for debugging and plotting.
type FileSnapshotSink struct {
	dir string
}

func NewFileSnapshotSink(dir string) *FileSnapshotSink {
	return &FileSnapshotSink{dir: dir}
}

func (s *FileSnapshotSink) Save(ctx context.Context, snap domain.Snapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(s.dir, SymbolsFile), snap.Symbols); err != nil {
		return err
	}
	return writeJSON(filepath.Join(s.dir, ReferenceFile), snap.Reference)
}

// writeJSON replaces path through a rename so readers never see a partial file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
