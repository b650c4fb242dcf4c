package interchange

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

const (
	CompressionGzip = "gzip"
	CompressionNone = "none"
)

// Options controls how an artifact is framed on disk.
type Options struct {
	Compression string
	// Level is a gzip level; zero means gzip.DefaultCompression.
	Level int
}

func (o Options) validate() error {
	switch o.Compression {
	case "", CompressionGzip, CompressionNone:
	default:
		return fmt.Errorf("unknown compression %q", o.Compression)
	}
	if o.Level != 0 && (o.Level < gzip.HuffmanOnly || o.Level > gzip.BestCompression) {
		return fmt.Errorf("gzip level %d out of range", o.Level)
	}
	return nil
}

// WriteFile writes an encoded message to path through a temporary file in
// the same directory. path is only replaced once the write succeeded; on
// failure the temporary file is removed. It returns the number of bytes
// written to disk.
func WriteFile(path string, msg []byte, opts Options) (int64, error) {
	if err := opts.validate(); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.devres")
	if err != nil {
		return 0, fmt.Errorf("temp output file: %w", err)
	}
	if err := writeFramed(tmp, msg, opts); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("write output file: %w", err)
	}
	info, err := tmp.Stat()
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("stat output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("close output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, fmt.Errorf("rename output file: %w", err)
	}
	return info.Size(), nil
}

func writeFramed(w io.Writer, msg []byte, opts Options) error {
	if opts.Compression == CompressionNone {
		_, err := w.Write(msg)
		return err
	}
	level := opts.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}
	gz, err := gzip.NewWriterLevel(w, level)
	if err != nil {
		return err
	}
	if _, err := gz.Write(msg); err != nil {
		_ = gz.Close()
		return err
	}
	return gz.Close()
}

// ReadFile returns the message stored at path, undoing gzip framing when
// present.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()
	return readFramed(f)
}

func readFramed(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	if !bytes.Equal(head, []byte{0x1f, 0x8b}) {
		return io.ReadAll(br)
	}
	gz, err := gzip.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("gzip header: %w", err)
	}
	defer gz.Close()
	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("gzip body: %w", err)
	}
	return data, nil
}
