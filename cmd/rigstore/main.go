// rigstore inspects rig log files: structure dumps, consistency checks,
// raw hex dumps, and an interactive explorer.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/scigolib/hdf5"

	"github.com/scigolib/rigmerge"
	"github.com/scigolib/rigmerge/internal/logging"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: rigstore <command> [flags] <file.h5>

Commands:
  tree    print the object hierarchy
  check   verify sessions and descriptor consistency
  dump    hex dump a byte range (-offset, -length)
  shell   interactive explorer`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cmd := os.Args[1]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)

	var err error
	switch cmd {
	case "tree":
		fs.Parse(os.Args[2:])
		err = runTree(fileArg(fs))
	case "check":
		prefix := fs.String("prefix", "Session", "session group prefix")
		fs.Parse(os.Args[2:])
		err = runCheck(fileArg(fs), *prefix)
	case "dump":
		offset := fs.Int64("offset", 0, "offset in file to start dumping from")
		length := fs.Int("length", 128, "number of bytes to dump")
		fs.Parse(os.Args[2:])
		err = runDump(fileArg(fs), *offset, *length)
	case "shell":
		fs.Parse(os.Args[2:])
		err = runShell(fileArg(fs))
	default:
		usage()
	}
	if err != nil {
		logging.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func fileArg(fs *flag.FlagSet) string {
	if fs.NArg() != 1 {
		usage()
	}
	return fs.Arg(0)
}

func runTree(path string) error {
	f, err := hdf5.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	f.Walk(func(p string, obj hdf5.Object) {
		switch o := obj.(type) {
		case *hdf5.Group:
			fmt.Printf("group   %s\n", p)
		case *hdf5.Dataset:
			fmt.Printf("dataset %s (at 0x%x)\n", p, o.Address())
		}
	})
	return nil
}

func runCheck(path, prefix string) error {
	store, err := rigmerge.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	diag := &rigmerge.Diagnostics{}
	names := store.Sessions(prefix)
	fmt.Printf("%s: %d session(s)\n", path, len(names))

	for _, name := range names {
		sess, err := store.ReadSession(name, diag)
		if err != nil {
			fmt.Printf("  %s: unreadable: %v\n", name, err)
			continue
		}
		rows := 0
		if sess.Samples != nil {
			rows = sess.Samples.Rows
		}
		fmt.Printf("  %s: %d rows, %d signals, %d attributes\n",
			name, rows, len(sess.Signals), len(sess.Meta))
	}

	mismatched, err := store.VerifyDescriptors(prefix, diag)
	if err != nil {
		return err
	}
	for _, name := range mismatched {
		fmt.Printf("  descriptor mismatch: %s\n", name)
	}
	for _, w := range diag.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	if len(mismatched) > 0 {
		return fmt.Errorf("%d session(s) with inconsistent descriptors", len(mismatched))
	}
	fmt.Println("ok")
	return nil
}

func runDump(path string, offset int64, length int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}
	if offset < 0 || offset >= fi.Size() {
		return fmt.Errorf("offset %d out of range (file size %d)", offset, fi.Size())
	}
	if remaining := fi.Size() - offset; int64(length) > remaining {
		length = int(remaining)
	}

	buf := make([]byte, length)
	n, err := f.ReadAt(buf, offset)
	if err != nil {
		return err
	}

	for i := 0; i < n; i += 16 {
		end := i + 16
		if end > n {
			end = n
		}
		chunk := buf[i:end]

		fmt.Printf("%08x: ", offset+int64(i))
		for j := 0; j < 16; j++ {
			if j < len(chunk) {
				fmt.Printf("%02x ", chunk[j])
			} else {
				fmt.Print("   ")
			}
			if j == 7 {
				fmt.Print(" ")
			}
		}
		fmt.Print(" |")
		for _, b := range chunk {
			if b >= 32 && b <= 126 {
				fmt.Printf("%c", b)
			} else {
				fmt.Print(".")
			}
		}
		fmt.Println("|")
	}
	return nil
}
