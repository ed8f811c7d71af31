// Package flashcmds exposes the sector record store operations as
// shell commands.
package flashcmds

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/flash.go/pkg/cli/sh"
)

func parseOffset(arg string) (uint32, error) {
	val, err := strconv.ParseUint(arg, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid OFFSET: %v", err)
	}
	return uint32(val), nil
}

var (
	// FlashWriteCmd stores a record in the sector at OFFSET.
	FlashWriteCmd = ishell.Cmd{
		Name:    "FLASH_WRITE",
		Aliases: []string{"write", "w"},
		Help:    "OFFSET \"DATA\"",
		Func: sh.MustBeAttached(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("OFFSET and DATA required"))
				return
			}
			offset, err := parseOffset(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			if err = sh.ShellFrom(c).Session.Ops.Write(offset, []byte(c.Args[1])); err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, map[string]bool{"ok": true}, "OK")
		}),
	}

	// FlashReadCmd reads back up to LEN bytes of the record at OFFSET.
	FlashReadCmd = ishell.Cmd{
		Name:    "FLASH_READ",
		Aliases: []string{"read", "r"},
		Help:    "OFFSET LEN",
		Func: sh.MustBeAttached(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("OFFSET and LEN required"))
				return
			}
			offset, err := parseOffset(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			maxLen, err := strconv.Atoi(c.Args[1])
			if err != nil || maxLen < 0 {
				c.Err(fmt.Errorf("invalid LEN: %s", c.Args[1]))
				return
			}
			data, err := sh.ShellFrom(c).Session.Ops.Read(offset, maxLen)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, map[string]string{"data": string(data)},
				fmt.Sprintf("%d bytes: %q", len(data), data))
		}),
	}

	// FlashEraseCmd discards the record at OFFSET.
	FlashEraseCmd = ishell.Cmd{
		Name:    "FLASH_ERASE",
		Aliases: []string{"erase", "e"},
		Help:    "OFFSET",
		Func: sh.MustBeAttached(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("OFFSET required"))
				return
			}
			offset, err := parseOffset(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			if err = sh.ShellFrom(c).Session.Ops.Erase(offset); err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, map[string]bool{"ok": true}, "OK")
		}),
	}

	// FlashStatCmd shows the record header of the sector at OFFSET.
	FlashStatCmd = ishell.Cmd{
		Name:    "FLASH_STAT",
		Aliases: []string{"stat", "s"},
		Help:    "OFFSET",
		Func: sh.MustBeAttached(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("OFFSET required"))
				return
			}
			offset, err := parseOffset(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			meta, err := sh.ShellFrom(c).Session.Ops.Stat(offset)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Print(c, meta,
				fmt.Sprintf("valid=%v write_count=%d length=%d",
					meta.Valid, meta.WriteCount, meta.Length))
		}),
	}
)

func init() {
	sh.AddCmds(
		&FlashWriteCmd,
		&FlashReadCmd,
		&FlashEraseCmd,
		&FlashStatCmd,
	)
}
