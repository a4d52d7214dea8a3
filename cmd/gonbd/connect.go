// +build linux

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/go-nbd/nbd"
	"github.com/google/subcommands"
)

func init() {
	commands = append(commands, &connectCmd{})
}

type connectCmd struct {
	addr   string
	unix   bool
	export string
}

func (cmd *connectCmd) Name() string {
	return "connect"
}

func (cmd *connectCmd) Synopsis() string {
	return "connect an NBD server to a block device"
}

func (cmd *connectCmd) Usage() string {
	return `Usage: gonbd connect -addr <addr> [-unix]

Connect a server to an NBD device node.
`
}

func (cmd *connectCmd) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&cmd.export, "export", "", "Export to use. If not provided, the default is used")
	fs.StringVar(&cmd.addr, "addr", "localhost:10809", "Address to connect to")
	fs.BoolVar(&cmd.unix, "unix", false, "Connect to a unix domain socket")
}

func (cmd *connectCmd) Execute(ctx context.Context, fs *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if fs.NArg() != 0 {
		log.Print(cmd.Usage())
		return subcommands.ExitUsageError
	}

	network := "tcp"
	if cmd.unix {
		network = "unix"
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	c, err := new(net.Dialer).DialContext(ctx, network, cmd.addr)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer c.Close()

	var sock *os.File
	switch c := c.(type) {
	case *net.TCPConn:
		sock, err = c.File()
	case *net.UnixConn:
		sock, err = c.File()
	default:
		err = errors.New("could not get file descriptor: unknown connection type")
	}
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer sock.Close()

	exp, err := nbd.ClientHandshake(c, cmd.export)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	n, err := nbd.Configure(exp, sock)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("/dev/nbd%d\n", n)
	return subcommands.ExitSuccess
}
