// Package sh provides the ishell backed interactive shell for driving
// sector record stores, local or remote.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/flash.go/pkg/flash"
	"github.com/robotalks/flash.go/pkg/flash/store"
	"github.com/robotalks/flash.go/pkg/l0/comm"
)

// Ops is the store surface the shell drives. It is satisfied by both
// *store.Store (local image) and *comm.Client (remote device).
type Ops interface {
	Write(offset uint32, payload []byte) error
	Read(offset uint32, maxLen int) ([]byte, error)
	Erase(offset uint32) error
	Stat(offset uint32) (store.Meta, error)
}

// Session is an attached store with its teardown.
type Session struct {
	Name  string
	Ops   Ops
	close func()
}

// Shell provides the interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell   *ishell.Shell
	Session *Session
}

const (
	shellKey       = "$shell"
	detachedPrompt = "[none] > "
)

var (
	// flags

	evalOnly    bool
	outputJSON  bool
	imagePath   string
	profilePath string
	connectAddr string

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&imagePath, "image", imagePath, "Flash image file to open on start.")
	flag.StringVar(&profilePath, "profile", profilePath, "Device profile YAML file.")
	flag.StringVar(&connectAddr, "connect", connectAddr, "Remote device address to connect on start.")
}

// AddCmds is used by other command providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New() *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell: ishell.New(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(detachedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeAttached wraps command funcs requiring an attached store.
func MustBeAttached(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Session == nil {
			c.Err(fmt.Errorf("no device attached, use open or connect"))
			return
		}
		fn(c)
	}
}

// Print writes a command result, honoring the JSON output mode.
func Print(c *ishell.Context, v interface{}, plain string) {
	s := ShellFrom(c)
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(plain)
}

// Attach makes the session current, detaching any previous one.
func (s *Shell) Attach(session *Session) {
	s.Detach()
	s.Session = session
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", session.Name))
}

// Detach tears down the current session.
func (s *Shell) Detach() {
	if s.Session != nil {
		s.Session.close()
		s.Session = nil
		s.Shell.SetPrompt(detachedPrompt)
	}
}

// OpenImage attaches a local flash image file.
func (s *Shell) OpenImage(path string) error {
	prof := flash.DefaultProfile
	if profilePath != "" {
		p, err := flash.LoadProfile(profilePath)
		if err != nil {
			return err
		}
		prof = *p
	}
	dev, err := flash.OpenImage(path, prof.Geometry())
	if err != nil {
		return err
	}
	s.Attach(&Session{
		Name:  filepath.Base(path),
		Ops:   store.New(dev),
		close: func() { dev.Close() },
	})
	return nil
}

// Connect attaches a remote device serving the command protocol.
// Address forms: unix:PATH, tcp:HOST:PORT, or HOST:PORT.
func (s *Shell) Connect(addr string) error {
	network, target := "tcp", addr
	if i := strings.Index(addr, ":"); i > 0 {
		switch addr[:i] {
		case "unix":
			network, target = "unix", addr[i+1:]
		case "tcp":
			target = addr[i+1:]
		}
	}
	conn, err := net.Dial(network, target)
	if err != nil {
		return err
	}
	client := comm.NewClient(comm.NewLink(conn))
	ctx, cancel := context.WithCancel(context.Background())
	go client.Run(ctx)
	if err = client.WaitReady(3 * time.Second); err != nil {
		cancel()
		conn.Close()
		return err
	}
	s.Attach(&Session{
		Name: addr,
		Ops:  client,
		close: func() {
			cancel()
			conn.Close()
		},
	})
	return nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if imagePath != "" {
		if err := s.OpenImage(imagePath); err != nil {
			log.Fatalf("open %q failed: %v", imagePath, err)
		}
	} else if connectAddr != "" {
		if err := s.Connect(connectAddr); err != nil {
			log.Fatalf("connect %q failed: %v", connectAddr, err)
		}
	}
	defer s.Detach()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// OpenCmd attaches a local flash image.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "IMAGE-FILE",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("IMAGE-FILE required"))
				return
			}
			if err := ShellFrom(c).OpenImage(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd detaches the current session.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Detach()
		},
	}

	// ConnectCmd attaches a remote device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "ADDRESS (unix:PATH or HOST:PORT)",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("ADDRESS required"))
				return
			}
			if err := ShellFrom(c).Connect(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd detaches the current session.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Detach()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New().Run(flag.Args()...)
}
