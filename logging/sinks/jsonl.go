package sinks

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"duskfall/server/logging"
)

// JSONL appends newline-delimited events to hourly-rotated files. When
// compression is enabled each rotation writes a .jsonl.zst stream instead.
type JSONL struct {
	dir      string
	prefix   string
	compress bool

	mu      sync.Mutex
	curHour string
	file    *os.File
	enc     *zstd.Encoder
	writer  *bufio.Writer
}

func NewJSONL(cfg logging.JSONLConfig) *JSONL {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "events"
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "logs"
	}
	return &JSONL{dir: dir, prefix: prefix, compress: cfg.Compress}
}

func (s *JSONL) Write(event logging.Event) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	hour := event.Time.UTC().Format("2006-01-02-15")
	if hour == "" || event.Time.IsZero() {
		hour = time.Now().UTC().Format("2006-01-02-15")
	}
	if hour != s.curHour {
		if err := s.rotateLocked(hour); err != nil {
			return err
		}
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := s.writer.Write(data); err != nil {
		return err
	}
	if err := s.writer.WriteByte('\n'); err != nil {
		return err
	}
	return s.writer.Flush()
}

func (s *JSONL) rotateLocked(hour string) error {
	if err := s.closeLocked(); err != nil {
		return err
	}
	path := s.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	s.file = file
	if s.compress {
		enc, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			_ = file.Close()
			s.file = nil
			return err
		}
		s.enc = enc
		s.writer = bufio.NewWriter(enc)
	} else {
		s.writer = bufio.NewWriter(file)
	}
	s.curHour = hour
	return nil
}

func (s *JSONL) pathForHour(hour string) string {
	name := fmt.Sprintf("%s-%s.jsonl", s.prefix, hour)
	if s.compress {
		name += ".zst"
	}
	return filepath.Join(s.dir, name)
}

func (s *JSONL) closeLocked() error {
	var firstErr error
	if s.writer != nil {
		if err := s.writer.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.writer = nil
	}
	if s.enc != nil {
		if err := s.enc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.enc = nil
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.file = nil
	}
	s.curHour = ""
	return firstErr
}

func (s *JSONL) Close(context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}
