package nbd

import (
	"bytes"
	"io"
	"testing"
)

// chunks returns the pool of wire fragments fuzzing draws from: valid magic
// numbers and flag words alongside arbitrary small strings, so the corpus
// can both stumble into well-formed handshakes and probe truncated or
// garbled ones.
func chunks() [][]byte {
	return [][]byte{
		{},
		[]byte("IHAVEOPT"),
		[]byte("NBDMAGIC"),
		{0, 0},
		{0, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 1},
		{0, 0, 0x42, 0x02, 0x81, 0x86, 0x12, 0x53},
		{0, 3, 0xe8, 0x89, 0x04, 0x55, 0x65, 0xa9},
		make([]byte, 124),
		{1},
		{0xff},
	}
}

// fuzzSocket is a read-only, write-sink io.ReadWriter over a fixed byte
// slice, modeling an adversarial peer: every write succeeds and vanishes,
// every read comes from input until it's exhausted.
type fuzzSocket struct {
	r *bytes.Reader
}

func newFuzzSocket(b []byte) *fuzzSocket { return &fuzzSocket{bytes.NewReader(b)} }

func (s *fuzzSocket) Read(p []byte) (int, error)  { return s.r.Read(p) }
func (s *fuzzSocket) Write(p []byte) (int, error) { return len(p), nil }

func seedCorpus(f *testing.F) {
	f.Helper()
	all := chunks()
	seeds := [][]byte{
		nil,
		bytes.Join(all, nil),
		append(append([]byte("NBDMAGIC"), []byte("IHAVEOPT")...), make([]byte, 64)...),
		append(append([]byte("NBDMAGIC"), []byte{0, 0, 0x42, 0x02, 0x81, 0x86, 0x12, 0x53}...), make([]byte, 128)...),
	}
	for _, s := range seeds {
		f.Add(s)
	}
}

// FuzzClientHandshake asserts ClientHandshake never panics, regardless of
// what bytes a misbehaving or adversarial server sends.
func FuzzClientHandshake(f *testing.F) {
	seedCorpus(f)
	f.Fuzz(func(t *testing.T, in []byte) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("ClientHandshake panicked: %v", r)
			}
		}()
		_, _ = ClientHandshake(newFuzzSocket(in), "")
	})
}

// FuzzServerHandshake asserts Handshake never panics, regardless of what
// bytes an adversarial client sends, given a resolver that always
// succeeds.
func FuzzServerHandshake(f *testing.F) {
	seedCorpus(f)
	resolve := func(name string) (Export, BackingStore, error) {
		return Export{Name: name, Size: 4096}, newMemStore(make([]byte, 4096)), nil
	}
	f.Fuzz(func(t *testing.T, in []byte) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Handshake panicked: %v", r)
			}
		}()
		_, _, _ = Handshake(newFuzzSocket(in), resolve)
	})
}

// FuzzServerTransmission asserts Transmission never panics on an
// adversarial transmission-phase byte stream, once past a fixed
// handshake.
func FuzzServerTransmission(f *testing.F) {
	f.Add([]byte{})
	f.Add(append([]byte{0x25, 0x60, 0x95, 0x13, 0, 0, 0, 0}, make([]byte, 16)...))
	for _, c := range chunks() {
		f.Add(c)
	}
	f.Fuzz(func(t *testing.T, in []byte) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Transmission panicked: %v", r)
			}
		}()
		store := newMemStore(make([]byte, 4096))
		err := Transmission(newFuzzSocket(in), store)
		if err != nil && err != io.EOF {
			// Any error is acceptable; only a panic is a bug.
			return
		}
	})
}
