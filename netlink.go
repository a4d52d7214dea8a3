//go:build linux

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

package nbd

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/go-nbd/nbd/nbdnl"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// serverFlags mirrors Export.transmissionFlags in the vocabulary
// nbdnl.Connect expects, for the flags nbdnl names: Resizeable and
// Rotational are not passed to the kernel.
func (e Export) serverFlags() nbdnl.ServerFlags {
	var sf nbdnl.ServerFlags
	sf |= nbdnl.FlagHasFlags
	if e.ReadOnly {
		sf |= nbdnl.FlagReadOnly
	} else {
		sf |= nbdnl.FlagSendFlush
	}
	if e.SendTrim {
		sf |= nbdnl.FlagSendTrim
	}
	return sf
}

// Configure passes the given set of sockets to the kernel to provide them
// as an NBD device. socks must be connected to the same server (which must
// support multiple connections) and be in transmission phase. It returns
// the device number chosen by the kernel. You can then use /dev/nbdX as a
// block device. Use nbdnl.Disconnect to disconnect the device once you're
// done with it.
//
// This is a Linux-only API.
func Configure(e Export, socks ...*os.File) (uint32, error) {
	return nbdnl.Connect(nbdnl.IndexAny, socks, e.Size, 0, e.serverFlags())
}

// Loopback serves store on a private socket pair, passing one end to the
// kernel to connect to an NBD device and running Transmission on the
// other. It returns the device number the kernel chose. wait blocks until
// ctx is cancelled or an error occurs; when ctx is cancelled, the device is
// disconnected and any error encountered while doing so is returned by
// wait.
//
// This is a Linux-only API.
func Loopback(ctx context.Context, store BackingStore, export Export) (idx uint32, wait func() error, err error) {
	sp, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return 0, nil, err
	}

	client, server := os.NewFile(uintptr(sp[0]), "client"), os.NewFile(uintptr(sp[1]), "server")
	serverConn, err := net.FileConn(server)
	server.Close()
	if err != nil {
		client.Close()
		return 0, nil, err
	}

	idx, err = Configure(export, client)
	if err != nil {
		client.Close()
		serverConn.Close()
		return 0, nil, err
	}

	var eg errgroup.Group
	eg.Go(func() error {
		rw := wrapConn(ctx, serverConn)
		defer rw.Close()
		return Transmission(rw, store)
	})
	wait = func() error {
		err := eg.Wait()
		if err == context.Canceled || err == context.DeadlineExceeded {
			err = nil
		}
		if e := nbdnl.Disconnect(idx); e != nil && err == nil {
			err = fmt.Errorf("failed to disconnect device: %w", e)
		}
		if e := client.Close(); e != nil && err == nil {
			err = fmt.Errorf("failed to close client socket: %w", e)
		}
		if e := serverConn.Close(); e != nil && err == nil {
			err = fmt.Errorf("failed to close server connection: %w", e)
		}
		return err
	}
	return idx, wait, nil
}
