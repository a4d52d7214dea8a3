// Copyright 2018 Axel Wagner
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package nbd implements the NBD ("new-style fixed") network protocol: the
// two-phase handshake/transmission connection lifecycle, its binary framing,
// and adapters turning a byte stream into a served block device (server
// side) or a seekable block device (client side).
//
// You can find a full description of the wire protocol at
// https://github.com/NetworkBlockDevice/nbd/blob/master/doc/proto.md
package nbd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	nbdMagic         = 0x4e42444d41474943
	oldStyleMagic    = 0x00004202_81861253
	optMagic         = 0x49484156454f5054
	repMagic         = 0x0003e889045565a9
	reqMagic         = 0x25609513
	simpleReplyMagic = 0x67446698

	// maxOptionLength bounds the option payload the handshake will
	// allocate for, guarding against a malicious length claim forcing a
	// large allocation before the option code is even known.
	maxOptionLength = 100000
)

const (
	flagFixedNewstyle = 1 << 0
	flagNoZeroes      = 1 << 1
)

const (
	optExportName = 1
	optAbort      = 2
	optList       = 3
	optStartTLS   = 5
	optInfo       = 6
	optGo         = 7
)

const (
	repErrFlag          = 1 << 31
	repAck              = 1
	repServer           = 2
	repErrUnsup         = 1 | repErrFlag
	repErrPolicy        = 2 | repErrFlag
	repErrInvalid       = 3 | repErrFlag
	repErrPlatform      = 4 | repErrFlag
	repErrTLSReqd       = 5 | repErrFlag
	repErrUnknown       = 6 | repErrFlag
	repErrBlockSizeReqd = 8 | repErrFlag
)

const (
	flagHasFlags      = 1 << 0
	flagReadOnly      = 1 << 1
	flagSendFlush     = 1 << 2
	flagSendFUA       = 1 << 3
	flagRotational    = 1 << 4
	flagSendTrim      = 1 << 5
	flagSendWriteZero = 1 << 6
	flagCanMultiConn  = 1 << 8
	flagSendResize    = 1 << 9
)

const (
	cmdRead        = 0
	cmdWrite       = 1
	cmdDisc        = 2
	cmdFlush       = 3
	cmdTrim        = 4
	cmdWriteZeroes = 6
	cmdResize      = 8
)

// Errno is an error code suitable to be sent over the NBD wire. Only the
// values named below are defined by this package; a server may still echo
// an arbitrary raw host errno (see Error).
type Errno uint32

// See https://manpages.debian.org/stretch/manpages-dev/errno.3.en.html for a
// description of these error numbers.
const (
	EPERM  Errno = 1
	EIO    Errno = 5
	ENOMEM Errno = 12
	EINVAL Errno = 22
	ENOSPC Errno = 28
	ENOSYS Errno = 38
)

var errnoStr = map[Errno]string{
	EPERM:  "operation not permitted",
	EIO:    "input/output error",
	ENOMEM: "cannot allocate memory",
	EINVAL: "invalid argument",
	ENOSPC: "no space left on device",
	ENOSYS: "function not implemented",
}

func (e Errno) Error() string {
	if msg, ok := errnoStr[e]; ok {
		return msg
	}
	return fmt.Sprintf("NBD_ERROR(%d)", uint32(e))
}

// Errno implements Error.
func (e Errno) Errno() Errno { return e }

// Error combines the normal error interface with an Errno method returning
// the NBD wire error code that should be reported for it. A BackingStore
// error that does not implement Error is mapped per the rule in
// mapStoreError: the raw host OS errno if there is one, otherwise EIO.
type Error interface {
	error
	Errno() Errno
}

type wireError struct {
	errno Errno
	error
}

func (e wireError) Errno() Errno { return e.errno }

// Errorf builds an Error reporting code over the wire, wrapping a formatted
// message.
func Errorf(code Errno, format string, v ...interface{}) Error {
	if len(v) == 0 {
		return wireError{code, errors.New(format)}
	}
	return wireError{code, fmt.Errorf(format, v...)}
}

// ErrShortRead is returned when the transport delivered fewer bytes than
// demanded before reaching EOF.
var ErrShortRead = errors.New("nbd: short read")

// conn is the minimal big-endian binary I/O helper shared by the handshake
// and transmission code on both sides of the wire. All reads use
// io.ReadFull, so any premature EOF is reported as ErrShortRead.
type conn struct {
	rw io.ReadWriter
}

func (c *conn) readFull(b []byte) error {
	_, err := io.ReadFull(c.rw, b)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrShortRead
	}
	return err
}

func (c *conn) readUint16() (uint16, error) {
	var b [2]byte
	if err := c.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func (c *conn) readUint32() (uint32, error) {
	var b [4]byte
	if err := c.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func (c *conn) readUint64() (uint64, error) {
	var b [8]byte
	if err := c.readFull(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func (c *conn) writeUint16(v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := c.rw.Write(b[:])
	return err
}

func (c *conn) writeUint32(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := c.rw.Write(b[:])
	return err
}

func (c *conn) writeUint64(v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := c.rw.Write(b[:])
	return err
}

// flush calls Flush if rw implements it (e.g. a bufio.Writer); otherwise
// it's a no-op, since a plain net.Conn has no buffering to flush.
func (c *conn) flush() error {
	if f, ok := c.rw.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
