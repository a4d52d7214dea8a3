// +build linux

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"

	"github.com/go-nbd/nbd"
	"github.com/google/subcommands"
	"golang.org/x/sys/unix"
)

func init() {
	commands = append(commands, &loCmd{})
}

type loCmd struct{}

func (cmd *loCmd) Name() string {
	return "lo"
}

func (cmd *loCmd) Synopsis() string {
	return "Provide file locally as a block device"
}

func (cmd *loCmd) Usage() string {
	return `Usage: gonbd lo <file>

Provide file locally as a block device. An NBD device node will be chosen automatically and the path of that device printed to stdout.

As a special feature, you can toggle read-only mode by sending a SIGUSR1. In
read-only mode, all write-requests are denied with a EPERM. This is useful for
testing crash-resilience of an application on a given filesystem. You can
create a virtual block device with a filesystem of your choice and have the
application under test write to it. When you want to simulate a crash, you send
a SIGUSR1 and unmount the device. You then send another SIGUSR1 and remount the
filesystem to check whether invariants of the application survived the "crash".
`
}

func (cmd *loCmd) SetFlags(fs *flag.FlagSet) {}

func (cmd *loCmd) Execute(ctx context.Context, fs *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if fs.NArg() != 1 {
		log.Print(cmd.Usage())
		return subcommands.ExitUsageError
	}

	f, err := os.OpenFile(fs.Arg(0), os.O_RDWR, 0)
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
	log.Println(fi.Size())

	d := &crashable{BackingStore: fileStore{f}}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGUSR1)
	go func() {
		for range ch {
			d.toggleCrash()
		}
	}()

	export := nbd.Export{
		Name:      filepath.Base(fs.Arg(0)),
		Size:      uint64(fi.Size()),
		SendFlush: true,
	}
	idx, wait, err := nbd.Loopback(ctx, d, export)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Connected to /dev/nbd%d\n", idx)
	if err := wait(); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// crashable wraps a BackingStore to reject writes with EPERM while
// "crashed", toggled by SIGUSR1. This simulates a filesystem gone
// read-only mid-write, to test an application's crash resilience.
type crashable struct {
	nbd.BackingStore
	crashed uint32
}

func (c *crashable) toggleCrash() {
	if atomic.AddUint32(&c.crashed, 1<<31) == 0 {
		log.Println("SIGUSR1 received, device is read-write")
	} else {
		log.Println("SIGUSR1 received, device is read-only")
	}
}

func (c *crashable) Write(p []byte) (int, error) {
	if atomic.LoadUint32(&c.crashed) != 0 {
		return 0, nbd.Errorf(nbd.EPERM, "read-only")
	}
	return c.BackingStore.Write(p)
}
