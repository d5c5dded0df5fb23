package emit

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
)

// ProcEmitter pipes one formatted line per emitted record to a
// `/bin/sh -c <expr>` subprocess, matching the driver's "proc" output-table
// flavor. Each OpenProc call starts a new subprocess; nothing is cached by
// command. Only constructible outside SecuritySandboxed mode — see
// szl.Process.NewProcEmitter, which refuses to build one under that mode.
type ProcEmitter struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	w      *bufio.Writer
	buf    []string
}

// OpenProc starts `/bin/sh -c expr` and pipes records to its stdin.
func OpenProc(expr string) (*ProcEmitter, error) {
	cmd := exec.Command("/bin/sh", "-c", expr)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("emit: proc stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("emit: proc start %q: %w", expr, err)
	}
	return &ProcEmitter{cmd: cmd, stdin: stdin, w: bufio.NewWriter(stdin)}, nil
}

func (e *ProcEmitter) Close() error {
	if err := e.w.Flush(); err != nil {
		return err
	}
	if err := e.stdin.Close(); err != nil {
		return err
	}
	return e.cmd.Wait()
}

func (e *ProcEmitter) PutBool(b bool)          { e.buf = append(e.buf, fmt.Sprintf("%t", b)) }
func (e *ProcEmitter) PutInt(i int64)          { e.buf = append(e.buf, fmt.Sprintf("%d", i)) }
func (e *ProcEmitter) PutFloat(f float64)      { e.buf = append(e.buf, fmt.Sprintf("%g", f)) }
func (e *ProcEmitter) PutFingerprint(fp uint64) { e.buf = append(e.buf, fmt.Sprintf("%#016x", fp)) }
func (e *ProcEmitter) PutTime(t int64)         { e.buf = append(e.buf, fmt.Sprintf("%d", t)) }
func (e *ProcEmitter) PutString(s string)      { e.buf = append(e.buf, s) }
func (e *ProcEmitter) PutBytes(b []byte)       { e.buf = append(e.buf, fmt.Sprintf("%x", b)) }

func (e *ProcEmitter) Begin(kind Kind, count int) {
	if kind == KindEmit {
		e.buf = e.buf[:0]
	}
}

func (e *ProcEmitter) End(kind Kind, count int) {
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
