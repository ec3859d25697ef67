// Package log persists the append-only ledgers: one JSON line per record,
// zstd-compressed, segmented by a caller-supplied partition key. The hour
// ledger partitions by simulated game day, so a replay of the same world
// lands in the same files no matter when it runs.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"transitcraft.sim/internal/sim/world"
)

// Ledger appends JSON lines to per-partition zstd segments under dir. A new
// partition key closes the open segment and starts the next file; records
// within a partition append in arrival order.
type Ledger struct {
	dir  string
	name string

	mu      sync.Mutex
	openKey string
	seg     *segment
}

type segment struct {
	f   *os.File
	enc *zstd.Encoder
	buf *bufio.Writer
}

func OpenLedger(dir, name string) *Ledger {
	return &Ledger{dir: dir, name: name}
}

// Append writes one record into the segment for the given partition key.
// Each record is flushed through to disk before Append returns.
func (l *Ledger) Append(partition string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seg == nil || partition != l.openKey {
		if err := l.startSegmentLocked(partition); err != nil {
			return err
		}
	}
	if _, err := l.seg.buf.Write(b); err != nil {
		return err
	}
	if err := l.seg.buf.WriteByte('\n'); err != nil {
		return err
	}
	return l.seg.buf.Flush()
}

func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeSegmentLocked()
}

// SegmentPath names the file a partition's records land in.
func (l *Ledger) SegmentPath(partition string) string {
	return filepath.Join(l.dir, fmt.Sprintf("%s-%s.jsonl.zst", l.name, partition))
}

func (l *Ledger) startSegmentLocked(partition string) error {
	if err := l.closeSegmentLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.SegmentPath(partition), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	l.seg = &segment{f: f, enc: enc, buf: bufio.NewWriterSize(enc, 128*1024)}
	l.openKey = partition
	return nil
}

func (l *Ledger) closeSegmentLocked() error {
	if l.seg == nil {
		return nil
	}
	_ = l.seg.buf.Flush()
	err := l.seg.enc.Close()
	_ = l.seg.f.Close()
	l.seg = nil
	l.openKey = ""
	return err
}

// dayOf formats a unix-millisecond timestamp as a partition key.
func dayOf(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02")
}

// HourLogger writes one compressed JSONL entry per simulated hour, one
// segment per game day taken from the entry's own clock.
type HourLogger struct{ ledger *Ledger }

func NewHourLogger(worldDir string) *HourLogger {
	return &HourLogger{ledger: OpenLedger(filepath.Join(worldDir, "hours"), "hours")}
}

func (l *HourLogger) WriteHour(e world.HourLogEntry) error {
	return l.ledger.Append(dayOf(e.DateMs), e)
}
func (l *HourLogger) Close() error { return l.ledger.Close() }

// AuditLogger records player actions and their outcomes, segmented by the
// wall-clock day the action arrived.
type AuditLogger struct{ ledger *Ledger }

func NewAuditLogger(worldDir string) *AuditLogger {
	return &AuditLogger{ledger: OpenLedger(filepath.Join(worldDir, "audit"), "audit")}
}

func (l *AuditLogger) WriteAudit(e world.AuditEntry) error {
	return l.ledger.Append(dayOf(e.AtMs), e)
}
func (l *AuditLogger) Close() error { return l.ledger.Close() }
