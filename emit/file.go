package emit

import (
	"bufio"
	"fmt"
	"os"
)

// FileEmitter appends one formatted line per emitted record to a file
// opened by rendered filename, matching the driver's "file" output-table
// flavor. Each OpenFile call opens the file anew; nothing is cached by
// filename.
type FileEmitter struct {
	f  *os.File
	w  *bufio.Writer
	buf []string
}

// OpenFile opens (creating/appending) the file at path for a FileEmitter.
func OpenFile(path string) (*FileEmitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("emit: open %q: %w", path, err)
	}
	return &FileEmitter{f: f, w: bufio.NewWriter(f)}, nil
}

func (e *FileEmitter) Close() error {
	if err := e.w.Flush(); err != nil {
		return err
	}
	return e.f.Close()
}

func (e *FileEmitter) PutBool(b bool)          { e.buf = append(e.buf, fmt.Sprintf("%t", b)) }
func (e *FileEmitter) PutInt(i int64)          { e.buf = append(e.buf, fmt.Sprintf("%d", i)) }
func (e *FileEmitter) PutFloat(f float64)      { e.buf = append(e.buf, fmt.Sprintf("%g", f)) }
func (e *FileEmitter) PutFingerprint(fp uint64) { e.buf = append(e.buf, fmt.Sprintf("%#016x", fp)) }
func (e *FileEmitter) PutTime(t int64)         { e.buf = append(e.buf, fmt.Sprintf("%d", t)) }
func (e *FileEmitter) PutString(s string)      { e.buf = append(e.buf, s) }
func (e *FileEmitter) PutBytes(b []byte)       { e.buf = append(e.buf, fmt.Sprintf("%x", b)) }

func (e *FileEmitter) Begin(kind Kind, count int) {
	if kind == KindEmit {
		e.buf = e.buf[:0]
	}
}

func (e *FileEmitter) End(kind Kind, count int) {
	if kind != KindEmit {
		return
	}
	for i, field := range e.buf {
		if i > 0 {
			e.w.WriteByte('\t')
		}
		e.w.WriteString(field)
	}
	e.w.WriteByte('\n')
}
