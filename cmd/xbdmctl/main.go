// Command xbdmctl is a small interactive client for driving an XBDM
// server from the shell: dirlist, getfile/sendfile, mkdir, delete and
// a generic passthrough for anything else via RunSequence.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/GoobyCorp/xbdm-go/client"
	"github.com/GoobyCorp/xbdm-go/server"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Getenv); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer, getenv func(string) string) error {
	fs := flag.NewFlagSet("xbdmctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	defaultAddr := strings.TrimSpace(getenv("XBDM_ADDR"))
	if defaultAddr == "" {
		defaultAddr = "127.0.0.1" + server.DefaultAddr
	}
	addr := fs.String("addr", defaultAddr, "XBDM server host:port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("usage: xbdmctl [-addr host:port] <command> [args...]")
	}

	c := client.New(*addr)
	ctx := context.Background()

	switch cmd := rest[0]; cmd {
	case "dirlist":
		if len(rest) < 2 {
			return fmt.Errorf("usage: xbdmctl dirlist <path>")
		}
		entries, err := c.DirList(ctx, rest[1])
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintln(out, e)
		}
		return nil

	case "getfile":
		if len(rest) < 3 {
			return fmt.Errorf("usage: xbdmctl getfile <remote-path> <local-path>")
		}
		data, err := c.GetFile(ctx, rest[1])
		if err != nil {
			return err
		}
		return os.WriteFile(rest[2], data, 0o644)

	case "sendfile":
		if len(rest) < 3 {
			return fmt.Errorf("usage: xbdmctl sendfile <local-path> <remote-path>")
		}
		data, err := os.ReadFile(rest[1])
		if err != nil {
			return err
		}
		return c.SendFile(ctx, rest[2], data)

	case "mkdir":
		if len(rest) < 2 {
			return fmt.Errorf("usage: xbdmctl mkdir <path>")
		}
		return c.Mkdir(ctx, rest[1])

	case "delete":
		if len(rest) < 2 {
			return fmt.Errorf("usage: xbdmctl delete <path> [dir]")
		}
		recursive := len(rest) > 2 && rest[2] == "dir"
		return c.Delete(ctx, rest[1], recursive)

	case "systime":
		hi, lo, err := c.SysTime(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "high=0x%X low=0x%X\n", hi, lo)
		return nil

	case "magicboot":
		return c.MagicBoot(ctx, "")

	case "raw":
		if len(rest) < 2 {
			return fmt.Errorf("usage: xbdmctl raw <verb...>")
		}
		replies, err := c.RunSequence(ctx, []client.Step{{Verb: strings.Join(rest[1:], " ")}})
		if err != nil {
			return err
		}
		for _, r := range replies {
			fmt.Fprintf(out, "%d %s\n", r.Code, r.Text)
			for _, line := range r.Lines {
				fmt.Fprintln(out, line)
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}
