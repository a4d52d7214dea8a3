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

// Package nbd implements both sides of the NBD ("new-style fixed") network
// protocol over an arbitrary bidirectional byte stream.
//
// An NBD connection lets a client treat a remote byte-addressable block
// device as if it were a local seekable file. The protocol has two phases:
// a handshake, during which the client selects (or lists, or aborts) an
// export, and a transmission phase, a sequential request/reply loop of
// reads, writes, flushes and (optionally) trims and resizes.
//
// On the server side, Handshake and Transmission drive a caller-supplied
// BackingStore — Serve and ListenAndServe combine the two for the common
// case of serving a listening socket. On the client side, ClientHandshake
// negotiates an export and NewSession wraps the resulting connection in an
// ordered-access Session (Seek/Read/Write/Flush, plus the Trim and Resize
// extensions).
//
// Under Linux, the nbdnl subpackage and this package's Configure/Loopback
// functions can hand a connection in transmission phase (Configure) or a
// BackingStore (Loopback) to an in-kernel /dev/nbdX block device.
package nbd

// BUG(1): Structured replies (NBD_OPT_STRUCTURED_REPLY and friends) are not
// supported; only the original "simple reply" form is implemented.

// BUG(2): NBD_OPT_INFO and NBD_OPT_GO are not supported; the server always
// answers them with NBD_REP_ERR_UNSUP. Use NBD_OPT_EXPORT_NAME instead.

// BUG(3): StartTLS is not supported.

// BUG(4): Only one request may be in flight per connection; Session does
// not pipeline. NBD_FLAG_CAN_MULTI_CONN is never advertised.

// BUG(5): The server does not honor the FUA request flag; writes are never
// treated specially for force-unit-access semantics.

// BUG(6): The old-style server handshake, tolerated by ClientHandshake, has
// no dedicated unit test (only a fuzz seed reaches it) — no production NBD
// server is known to still emit it.
