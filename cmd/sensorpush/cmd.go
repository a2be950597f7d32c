package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sensorpush"
	"sensorpush/internal/config"
	"sensorpush/internal/logging"
)

const (
	HumanOutput = "human"
	JSONOutput  = "json"
)

var (
	ErrUnsupportedOutput = errors.New("unsupported output")

	AvailableOutputs = []string{HumanOutput, JSONOutput}
)

type Writer struct {
	Out io.Writer
	Err io.Writer
}

type Error struct {
	Err string `json:"error"`
}

// RootFlags holds the global flags and what is derived from them before a
// subcommand runs.
type RootFlags struct {
	User        string
	Password    string
	APIURL      string
	Output      string
	Level       string
	SessionFile string
	NoSession   bool
	NoWait      bool
	MinInterval time.Duration

	cfg       *config.Config
	log       *zap.Logger
	prompt    *prompter
	newLogger func(level, format string) (*zap.Logger, error)
}

func Execute(w *Writer, cfg *config.Config) {
	c, rf := newCmdRoot(w, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	execErr := runRoot(ctx, c, rf)
	stop()
	if execErr == nil {
		return
	}

	defer os.Exit(1)

	output, _ := c.PersistentFlags().GetString("output")
	if output == JSONOutput {
		if err := printJSON(w.Err, Error{Err: execErr.Error()}); err != nil {
			_, _ = fmt.Fprintf(w.Err, "couldn't format error as JSON: %v\n", err)
			_, _ = fmt.Fprintf(w.Err, "original error: %v\n", execErr)
		}
		return
	}
	_, _ = color.New(color.FgRed, color.Bold).Fprint(w.Err, "Error: ")
	_, _ = fmt.Fprintln(w.Err, execErr)
}

// runRoot executes the command tree. The logger is flushed even when the
// command fails, since cobra skips the post-run hooks then.
func runRoot(ctx context.Context, c *cobra.Command, rf *RootFlags) error {
	defer rf.syncLog()
	return c.ExecuteContext(ctx)
}

func NewCmdRoot(w *Writer, cfg *config.Config) *cobra.Command {
	c, _ := newCmdRoot(w, cfg)
	return c
}

func newCmdRoot(w *Writer, cfg *config.Config) (*cobra.Command, *RootFlags) {
	rf := &RootFlags{
		cfg:       cfg,
		prompt:    newTerminalPrompter(os.Stdin, w.Err),
		newLogger: logging.New,
	}

	cmd := &cobra.Command{
		Use:           "sensorpush",
		Short:         "Query SensorPush sensors, gateways and samples",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return rf.setup()
		},
	}
	cmd.SetOut(w.Out)
	cmd.SetErr(w.Err)

	pf := cmd.PersistentFlags()
	pf.StringVarP(&rf.User, "user", "u", cfg.Email, "SensorPush account email")
	pf.StringVarP(&rf.Password, "password", "p", cfg.Password, "SensorPush account password")
	pf.StringVar(&rf.APIURL, "api-url", cfg.APIURL, "Base URL of the SensorPush API")
	pf.StringVarP(&rf.Output, "output", "o", HumanOutput,
		fmt.Sprintf("Specify the output format: %s", strings.Join(AvailableOutputs, ",")))
	pf.StringVar(&rf.Level, "level", cfg.LogLevel,
		fmt.Sprintf("Set the log level: %s", strings.Join(logging.SupportedLevels, ", ")))
	pf.StringVar(&rf.SessionFile, "session-file", cfg.SessionFile, "File keeping the API session between runs")
	pf.BoolVar(&rf.NoSession, "no-session", false, "Neither read nor write the session file")
	pf.BoolVar(&rf.NoWait, "no-wait", false, "Fail instead of waiting when requests are throttled")
	pf.DurationVar(&rf.MinInterval, "min-interval", cfg.MinInterval, "Minimum delay between two data requests")

	autoCompleteLogLevel(cmd)
	autoCompleteOutput(cmd)

	cmd.AddCommand(
		NewCmdSensors(w.Out, rf),
		NewCmdGateways(w.Out, rf),
		NewCmdSamples(w.Out, rf),
		NewCmdReport(w.Out, rf),
		NewCmdRecord(w.Out, rf),
		NewCmdExport(w.Out, rf),
		NewCmdServe(rf),
		NewCmdVersion(w.Out, rf),
	)
	return cmd, rf
}

func (rf *RootFlags) setup() error {
	if err := ValidateOutput(rf.Output); err != nil {
		return err
	}
	log, err := rf.newLogger(rf.Level, rf.cfg.LogFormat)
	if err != nil {
		return err
	}
	rf.log = log
	return nil
}

func (rf *RootFlags) syncLog() {
	if rf.log != nil {
		logging.Sync(rf.log)()
	}
}

func ValidateOutput(output string) error {
	for _, o := range AvailableOutputs {
		if output == o {
			return nil
		}
	}
	return fmt.Errorf("%w %q, expected one of %s", ErrUnsupportedOutput, output, strings.Join(AvailableOutputs, ", "))
}

func (rf *RootFlags) options() []sensorpush.Option {
	opts := []sensorpush.Option{
		sensorpush.WithBaseURL(rf.APIURL),
		sensorpush.WithLogger(rf.log.Named("client")),
		sensorpush.WithMinInterval(rf.MinInterval),
		sensorpush.WithAuthTimeout(rf.cfg.AuthTimeout),
		sensorpush.WithTokenTimeout(rf.cfg.TokenTimeout),
	}
	if rf.NoWait {
		opts = append(opts, sensorpush.WithNonBlocking())
	}
	return opts
}

// longRunning is the request count of a command that runs until stopped.
const longRunning = -1

// newClient builds an API client, resuming the saved session when there is
// one for the same account. The session spares the password only when its
// authorization outlives the given number of throttled requests; a
// longRunning command always needs the password to authorize again.
func (rf *RootFlags) newClient(requests int) (*sensorpush.Client, error) {
	opts := rf.options()
	user, password := rf.User, rf.Password

	if !rf.NoSession {
		saved, err := loadSession(rf.SessionFile)
		switch {
		case err == nil && (user == "" || strings.EqualFold(user, saved.Email)):
			opts = append(opts, sensorpush.WithSession(saved.Session))
			if user == "" {
				user = saved.Email
			}
		case err != nil && !errors.Is(err, os.ErrNotExist):
			rf.log.Warn("ignoring session file", zap.String("path", rf.SessionFile), zap.Error(err))
		}
	}

	c := sensorpush.New(user, password, opts...)
	if user != "" && password != "" {
		return c, nil
	}
	if requests != longRunning && c.AuthValidFor(time.Duration(requests)*rf.MinInterval) {
		return c, nil
	}

	var err error
	if user == "" {
		if user, err = rf.prompt.Line("username: "); err != nil {
			return nil, err
		}
	}
	if password == "" {
		if password, err = rf.prompt.Password("password: "); err != nil {
			return nil, err
		}
	}
	if user == "" || password == "" {
		return nil, sensorpush.ErrMissingCredentials
	}
	return sensorpush.New(user, password, opts...), nil
}

// saveSession persists the client session for the next run.
func (rf *RootFlags) saveSession(c *sensorpush.Client) {
	if rf.NoSession {
		return
	}
	s := c.Session()
	if s.AccessToken == "" {
		return
	}
	if err := writeSession(rf.SessionFile, savedSession{Email: c.Email(), Session: s}); err != nil {
		rf.log.Warn("could not save session", zap.String("path", rf.SessionFile), zap.Error(err))
	}
}

func autoCompleteLogLevel(cmd *cobra.Command) {
	err := cmd.RegisterFlagCompletionFunc("level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return logging.SupportedLevels, cobra.ShellCompDirectiveDefault
	})
	if err != nil {
		panic(err)
	}
}

func autoCompleteOutput(cmd *cobra.Command) {
	err := cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return AvailableOutputs, cobra.ShellCompDirectiveDefault
	})
	if err != nil {
		panic(err)
	}
}
