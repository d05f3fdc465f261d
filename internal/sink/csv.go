package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/domain"
	"github.com/makalakabu/bsc-dissertation-crypto-arbitrage-bot/internal/platform/logger"
)

var Logger = logger.Get()

// CSVLogSink appends opportunities to a CSV file. The header row is written
// only when the file is created.
type CSVLogSink struct {
	mu   sync.Mutex
	path string
}

func NewCSVLogSink(path string) *CSVLogSink {
	return &CSVLogSink{path: path}
}

func (s *CSVLogSink) Append(ctx context.Context, sims []domain.TradeSimulation) error {
	if len(sims) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(s.path), err)
	}
	_, err := os.Stat(s.path)
	writeHeader := errors.Is(err, fs.ErrNotExist)

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	err = writeRows(f, sims, writeHeader)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("append %s: %w", s.path, err)
	}
	Logger.Info(fmt.Sprintf("Appended %d opportunities to %s", len(sims), s.path))
	return nil
}

func writeRows(out io.Writer, sims []domain.TradeSimulation, header bool) error {
	w := csv.NewWriter(out)
	if header {
		if err := w.Write(domain.FieldNames()); err != nil {
			return err
		}
	}
	for _, sim := range sims {
		fields := sim.Fields()
		row := make([]string, len(fields))
		for i, field := range fields {
			row[i] = field.Value
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
