// Package emit defines the narrow interface the interpreter uses to flush
// values to an output table, and two reference implementations ("file"
// and "proc" output-table flavors) matching the host driver's external
// surface.
package emit

// Kind brackets a structural emit: EMIT wraps one whole record's worth of
// output for a table, INDEX/ELEMENT wrap one index-tuple/value pair,
// TUPLE/ARRAY/MAP wrap the corresponding compound value, and WEIGHT wraps
// an optional weight expression.
type Kind int

const (
	KindEmit Kind = iota
	KindIndex
	KindElement
	KindTuple
	KindArray
	KindMap
	KindWeight
)

// Emitter receives scalar values interleaved with Begin/End structural
// brackets describing how to assemble them into one output record. The
// interpreter never inspects Emitter state directly; every side effect
// (buffering, flushing, sorting) is the implementation's concern.
type Emitter interface {
	PutBool(b bool)
	PutInt(i int64)
	PutFloat(f float64)
	PutFingerprint(fp uint64)
	PutTime(t int64)
	PutString(s string)
	PutBytes(b []byte)

	Begin(kind Kind, count int)
	End(kind Kind, count int)
}

// EmitInt is the single-element scalar-table shortcut equivalent to
// Begin(KindEmit,1); PutInt(i); End(KindEmit,1).
func EmitInt(e Emitter, i int64) {
	e.Begin(KindEmit, 1)
	e.PutInt(i)
	e.End(KindEmit, 1)
}

// EmitFloat is EmitInt's float counterpart.
func EmitFloat(e Emitter, f float64) {
	e.Begin(KindEmit, 1)
	e.PutFloat(f)
	e.End(KindEmit, 1)
}
