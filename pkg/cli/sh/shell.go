package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/abiosoft/ishell"

	fx "github.com/robotalks/monowheel/pkg/framework"
	"github.com/robotalks/monowheel/pkg/telemetry"
)

// DefaultTimeout bounds a remote operation.
const DefaultTimeout = time.Second

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	Timeout     time.Duration

	Shell  *ishell.Shell
	Config *telemetry.Config
	Client *telemetry.Client
	// Ref is the connected vehicle.
	Ref *telemetry.Ref
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	vehicle    string

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	vehicle = os.Getenv("MONOWHEEL_VEHICLE")
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&vehicle, "vehicle", vehicle, "Vehicle TYPE/ID to connect on start.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *telemetry.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     DefaultTimeout,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Ref == nil {
			c.Err(telemetry.ErrNotConnected)
			return
		}
		fn(c)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Context creates a context bounded by Timeout.
func (s *Shell) Context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.Timeout)
}

// EnsureClient connects to the broker once.
func (s *Shell) EnsureClient() (*telemetry.Client, error) {
	if s.Client != nil {
		return s.Client, nil
	}
	client, err := s.Config.NewClient()
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.Context()
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect %s: %w", s.Config.BrokerURL, err)
	}
	s.Client = client
	return client, nil
}

// Discover lists online vehicles.
func (s *Shell) Discover() ([]telemetry.Info, error) {
	client, err := s.EnsureClient()
	if err != nil {
		return nil, err
	}
	return client.Discover(context.Background())
}

// SelectVehicle discovers vehicles and asks for a choice.
func (s *Shell) SelectVehicle() (*telemetry.Info, error) {
	infoList, err := s.Discover()
	if err != nil || len(infoList) == 0 {
		return nil, err
	}
	var index int
	if len(infoList) > 1 {
		if !s.Interactive {
			return nil, fmt.Errorf("more than 1 vehicles discovered in non-interactive mode")
		}
		items := make([]string, len(infoList))
		for n, info := range infoList {
			items[n] = telemetry.FormatInfo(info)
		}
		index = s.Shell.MultiChoice(items, "Which one to connect?")
		if index < 0 {
			return nil, fmt.Errorf("no vehicle selected")
		}
	}
	return &infoList[index], nil
}

// Connect selects the vehicle commands are sent to.
func (s *Shell) Connect(ref telemetry.Ref) error {
	if !ref.IsValid() {
		return fmt.Errorf("invalid vehicle %q", ref.Name())
	}
	if _, err := s.EnsureClient(); err != nil {
		return err
	}
	s.Ref = &ref
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", ref.Name()))
	return nil
}

// Disconnect forgets the current vehicle.
func (s *Shell) Disconnect() {
	s.Ref = nil
	s.Shell.SetPrompt(unconnectedPrompt)
}

// Send sends a command to the connected vehicle.
func (s *Shell) Send(msg fx.Message) error {
	if s.Ref == nil {
		return telemetry.ErrNotConnected
	}
	ctx, cancel := s.Context()
	defer cancel()
	return s.Client.Send(ctx, *s.Ref, msg)
}

// DoCommand sends a command and reports the result.
func DoCommand(c *ishell.Context, msg fx.Message) error {
	if err := ShellFrom(c).Send(msg); err != nil {
		c.Err(err)
		return err
	}
	c.Println("OK")
	return nil
}

// PrintJSON prints v as JSON.
func PrintJSON(c *ishell.Context, v interface{}) {
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && vehicle != "" {
		ref, ok := telemetry.ParseRef(vehicle)
		if !ok {
			log.Fatalf("invalid vehicle %q, TYPE/ID expected", vehicle)
		}
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", ref.Name())
		}
		if err := s.Connect(ref); err != nil {
			log.Fatalf("connect %q failed: %v", ref.Name(), err)
		}
	}
	defer func() {
		if s.Client != nil {
			s.Client.Close()
		}
	}()

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
	// DiscoverCmd discovers vehicles.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			infoList, err := s.Discover()
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if infoList == nil {
					infoList = []telemetry.Info{}
				}
				PrintJSON(c, infoList)
				return
			}
			if len(infoList) == 0 {
				c.Println("No vehicles found")
				return
			}
			for _, info := range infoList {
				c.Println(telemetry.FormatInfo(info))
			}
		},
	}

	// ConnectCmd connects a vehicle.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[TYPE/ID]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var ref telemetry.Ref
			if len(c.Args) > 0 {
				var ok bool
				if ref, ok = telemetry.ParseRef(c.Args[0]); !ok {
					c.Err(fmt.Errorf("invalid vehicle %q, TYPE/ID expected", c.Args[0]))
					return
				}
			} else {
				info, err := s.SelectVehicle()
				if err != nil {
					c.Err(err)
					return
				}
				if info == nil {
					c.Err(fmt.Errorf("no vehicle discovered"))
					return
				}
				ref = info.Ref
			}
			if err := s.Connect(ref); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current vehicle.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(telemetry.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
