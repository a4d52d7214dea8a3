package nbd

import (
	"errors"
	"io"
)

// memStore is a trivial in-memory BackingStore used by the tests in this
// package; a real backing store (file, sparse file, remote store) is an
// external collaborator the library does not provide, per its own design.
type memStore struct {
	data []byte
	pos  int64
}

func newMemStore(data []byte) *memStore {
	return &memStore{data: data}
}

func (m *memStore) Seek(offset int64, whence int) (int64, error) {
	var np int64
	switch whence {
	case io.SeekStart:
		np = offset
	case io.SeekCurrent:
		np = m.pos + offset
	case io.SeekEnd:
		np = int64(len(m.data)) + offset
	default:
		return m.pos, errors.New("memstore: invalid whence")
	}
	if np < 0 {
		return m.pos, errors.New("memstore: negative position")
	}
	m.pos = np
	return m.pos, nil
}

func (m *memStore) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memStore) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	n := copy(m.data[m.pos:end], p)
	m.pos += int64(n)
	return n, nil
}

func (m *memStore) Flush() error { return nil }

// readOnlyStore wraps a memStore to reject all writes with EPERM, as a
// read-only export's backing store would.
type readOnlyStore struct {
	*memStore
}

func (r readOnlyStore) Write(p []byte) (int, error) {
	return 0, Errorf(EPERM, "export is read-only")
}

// noTrimStore wraps a memStore but otherwise behaves identically; used to
// document that TRIM rejection in this library is a Transmission-level
// policy (it never calls into the store), not a store-level one.
type noTrimStore struct {
	*memStore
}

// truncatingConn stops returning data (and then returns io.EOF) once
// remaining bytes have been read from it, to simulate a peer that
// disconnects mid-frame. Writes pass through unlimited.
type truncatingConn struct {
	io.ReadWriter
	remaining int
}

func (t *truncatingConn) Read(p []byte) (int, error) {
	if t.remaining <= 0 {
		return 0, io.EOF
	}
	if len(p) > t.remaining {
		p = p[:t.remaining]
	}
	n, err := t.ReadWriter.Read(p)
	t.remaining -= n
	return n, err
}
