package report

import (
	"log/slog"
	"os"
	"path/filepath"
)

// DirSink stores artifacts as files in a directory.
type DirSink struct {
	dir string
	log *slog.Logger
}

func NewDirSink(dir string, logger *slog.Logger) *DirSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirSink{dir: dir, log: logger.With(slog.String("component", "dir_sink"))}
}

func (d *DirSink) Write(data []byte, filename string) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		d.log.Error("create export dir", slog.String("dir", d.dir), slog.Any("err", err))
		return
	}
	path := filepath.Join(d.dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		d.log.Error("write export", slog.String("path", path), slog.Any("err", err))
	}
}

// MultiSink fans an artifact out to every sink.
type MultiSink []Sink

func (m MultiSink) Write(data []byte, filename string) {
	for _, s := range m {
		s.Write(data, filename)
	}
}
