package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/go-nbd/nbd"
	"github.com/google/subcommands"
)

func init() {
	commands = append(commands, &serveCmd{})
}

// fileStore adapts *os.File to nbd.BackingStore: os.File already has
// Read/Write/Seek, it just names its durability call Sync instead of
// Flush.
type fileStore struct{ *os.File }

func (f fileStore) Flush() error { return f.Sync() }

type serveCmd struct {
	addr     string
	unix     bool
	readonly bool
}

func (cmd *serveCmd) Name() string {
	return "serve"
}

func (cmd *serveCmd) Synopsis() string {
	return "serve a file as a block device"
}

func (cmd *serveCmd) Usage() string {
	return `Usage: gonbd serve <file>

Serve a file over NBD as a block device.
`
}

func (cmd *serveCmd) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&cmd.addr, "addr", "localhost:10809", "Address to listen on")
	fs.BoolVar(&cmd.unix, "unix", false, "Serve on a unix domain socket")
	fs.BoolVar(&cmd.readonly, "readonly", false, "Reject writes")
}

func (cmd *serveCmd) Execute(ctx context.Context, fs *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if fs.NArg() != 1 {
		log.Print(cmd.Usage())
		return subcommands.ExitUsageError
	}

	mode := os.O_RDWR
	if cmd.readonly {
		mode = os.O_RDONLY
	}
	f, err := os.OpenFile(fs.Arg(0), mode, 0)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	export := nbd.Export{
		Name:      filepath.Base(fs.Arg(0)),
		Size:      uint64(fi.Size()),
		ReadOnly:  cmd.readonly,
		SendFlush: !cmd.readonly,
	}
	resolve := func(name string) (nbd.Export, nbd.BackingStore, error) {
		return export, fileStore{f}, nil
	}

	network := "tcp"
	if cmd.unix {
		network = "unix"
	}
	if err := nbd.ListenAndServe(ctx, network, cmd.addr, resolve); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
