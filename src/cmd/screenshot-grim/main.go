package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"screenshot-grim/src/config"
	"screenshot-grim/src/grim"
	"screenshot-grim/src/gui"
	"screenshot-grim/src/runtimeinit"
	"screenshot-grim/src/screenshot"
	"screenshot-grim/src/selector"
	"screenshot-grim/src/session"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

const (
	exitOK             = 0
	exitExecutionError = 1
	exitCallingError   = 2
	exitCancelled      = 3
)

const (
	runModeInteractive    = "interactive"
	runModeNonInteractive = "noninteractive"
)

type cliOptions struct {
	runMode        string
	mode           string
	output         string
	x1, y1, x2, y2 int
	includePointer bool
	delay          int
	imageType      string
	level          int
	quality        int
	scale          float64
	save           string
	copy           bool
	stdout         bool
	report         string
	logLevel       string
	envFile        string
}

// exitError carries the process exit code out of cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	os.Exit(runWithArgs(normalizeLegacyArgs(os.Args), os.Stdout, os.Stderr))
}

func runWithArgs(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		args = []string{"screenshot-grim"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return exitOK
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", exitErr.err)
		}
		return exitErr.code
	}
	// Flag parsing and other cobra-level failures are calling errors.
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitCallingError
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screenshot-grim",
		Short:         "Take a screenshot of a Wayland desktop with grim and slurp",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShot(cmd, *opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.runMode, "run-mode", runModeNonInteractive, "interactive shows a dialog to edit the request first")
	f.StringVarP(&opts.mode, "mode", "m", "", "Shoot area: region, output or rectangle (default from SHOOT_TYPE, else region)")
	f.StringVarP(&opts.output, "output", "o", "", "Wayland output to capture in output mode, e.g. DP-1")
	f.IntVar(&opts.x1, "x1", 0, "Left x-coordinate for rectangle mode")
	f.IntVar(&opts.y1, "y1", 0, "Top y-coordinate for rectangle mode")
	f.IntVar(&opts.x2, "x2", 0, "Right x-coordinate for rectangle mode (inclusive)")
	f.IntVar(&opts.y2, "y2", 0, "Bottom y-coordinate for rectangle mode (inclusive)")
	f.BoolVarP(&opts.includePointer, "include-pointer", "c", false, "Include the mouse pointer")
	f.IntVarP(&opts.delay, "delay", "d", 0, "Seconds to wait before the screenshot (0-20)")
	f.StringVarP(&opts.imageType, "type", "t", "", "Encoding grim writes: ppm, png or jpeg")
	f.IntVarP(&opts.level, "level", "l", 6, "PNG compression level (0-9)")
	f.IntVarP(&opts.quality, "quality", "q", 80, "JPEG quality (0-100)")
	f.Float64VarP(&opts.scale, "scale", "s", 1, "Output scale factor")
	f.StringVar(&opts.save, "save", "", "Save the screenshot to this file or directory (default SAVE_DIR)")
	f.BoolVar(&opts.copy, "copy", false, "Copy the screenshot to the clipboard as PNG")
	f.BoolVar(&opts.stdout, "stdout", false, "Write the screenshot to stdout as PNG")
	f.StringVar(&opts.report, "report", "text", "Report format: text, json or yaml")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level (trace, debug, info, warning, error)")
	f.StringVar(&opts.envFile, "env-file", "", "Path to a .env file (highest precedence)")

	cmd.AddCommand(newDisplaysCmd(), newVersionCmd())
	cmd.SetGlobalNormalizationFunc(legacyFlagNames)
	return cmd
}

// legacyFlagNames accepts the parameter names of the original plug-in.
func legacyFlagNames(f *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "shoot-type":
		name = "mode"
	case "screenshot-delay":
		name = "delay"
	case "run_mode":
		name = "run-mode"
	}
	return pflag.NormalizedName(name)
}

func runShot(cmd *cobra.Command, opts cliOptions) error {
	if opts.runMode != runModeInteractive && opts.runMode != runModeNonInteractive {
		return &exitError{code: exitCallingError, err: fmt.Errorf("unknown run mode %q", opts.runMode)}
	}
	if !reportFormats[opts.report] {
		return &exitError{code: exitCallingError, err: fmt.Errorf("unknown report format %q", opts.report)}
	}

	ctx, cfg, err := runtimeinit.Bootstrap(context.Background(), runtimeinit.Options{
		LoadOptions: config.LoadOptions{
			EnvFileOverride:   opts.envFile,
			ShootTypeOverride: opts.mode,
			LogLevelOverride:  opts.logLevel,
		},
		LogOutput:     cmd.ErrOrStderr(),
		InitClipboard: opts.copy,
	})
	if err != nil {
		return &exitError{code: exitCallingError, err: err}
	}

	req := buildRequest(cmd.Flags(), opts, cfg)
	if opts.runMode == runModeInteractive {
		edited, ok := gui.ShowCaptureDialog(req)
		if !ok {
			logger.Infof(ctx, "capture dialog closed")
			return &exitError{code: exitCancelled}
		}
		req = edited
	}

	fileTarget, targets := buildTargets(cmd, opts, cfg)
	res, err := session.Execute(ctx, req, session.Options{
		Selector: selector.New(cfg.SlurpPath),
		Capturer: grim.New(cfg.GrimPath),
		Targets:  targets,
	})

	// The image owns stdout when --stdout is given.
	reportOut := cmd.OutOrStdout()
	if opts.stdout {
		reportOut = cmd.ErrOrStderr()
	}

	status := session.StatusOf(err)
	rep := newReport(status, res, err)
	if fileTarget != nil {
		rep.Saved = fileTarget.Saved
	}
	if werr := rep.write(reportOut, opts.report); werr != nil {
		logger.Warnf(ctx, "failed to write report: %v", werr)
	}

	switch status {
	case session.StatusSuccess:
		return nil
	case session.StatusCancel:
		logger.Infof(ctx, "screenshot cancelled")
		return &exitError{code: exitCancelled}
	case session.StatusCallingError:
		return &exitError{code: exitCallingError, err: err}
	default:
		return &exitError{code: exitExecutionError, err: err}
	}
}

// buildRequest merges configuration with the flags given on the command line.
// Explicit flags win over the environment.
func buildRequest(flags *pflag.FlagSet, opts cliOptions, cfg *config.Config) session.Request {
	req := session.Request{
		Mode:           session.ParseMode(cfg.ShootType),
		Output:         cfg.Output,
		Rect:           screenshot.Rectangle{X1: opts.x1, Y1: opts.y1, X2: opts.x2, Y2: opts.y2},
		IncludePointer: cfg.IncludePointer,
		Delay:          time.Duration(cfg.DelaySec) * time.Second,
		Type:           cfg.ImageType,
	}
	if flags.Changed("output") {
		req.Output = strings.TrimSpace(opts.output)
	}
	if flags.Changed("include-pointer") {
		req.IncludePointer = opts.includePointer
	}
	if flags.Changed("delay") {
		req.Delay = time.Duration(opts.delay) * time.Second
	}
	if flags.Changed("type") {
		req.Type = strings.ToLower(opts.imageType)
	}
	if flags.Changed("level") {
		level := opts.level
		req.Level = &level
	}
	if flags.Changed("quality") {
		quality := opts.quality
		req.Quality = &quality
	}
	if flags.Changed("scale") {
		scale := opts.scale
		req.Scale = &scale
	}
	return req
}

// buildTargets picks where the screenshot goes. Without --save, --copy or
// --stdout the image is saved to SAVE_DIR, else the working directory.
func buildTargets(cmd *cobra.Command, opts cliOptions, cfg *config.Config) (*session.FileTarget, []session.Target) {
	var targets []session.Target
	var fileTarget *session.FileTarget

	savePath := opts.save
	if savePath == "" && !opts.copy && !opts.stdout {
		savePath = cfg.SaveDir
		if savePath == "" {
			savePath = "."
		}
	}
	if savePath != "" {
		fileTarget = &session.FileTarget{Path: savePath}
		targets = append(targets, fileTarget)
	}
	if opts.copy {
		targets = append(targets, session.ClipboardTarget{})
	}
	if opts.stdout {
		targets = append(targets, session.StdoutTarget{Writer: cmd.OutOrStdout()})
	}
	targets = append(targets, session.NotifyTarget{})
	return fileTarget, targets
}

func newDisplaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "displays",
		Short: "List active displays and their rectangle coordinates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			displays, err := screenshot.Displays()
			if err != nil {
				return &exitError{code: exitExecutionError, err: err}
			}
			for _, d := range displays {
				r := d.Rectangle()
				fmt.Fprintf(cmd.OutOrStdout(), "%d: %s (--x1 %d --y1 %d --x2 %d --y2 %d)\n",
					d.Index, r.Region().Geometry(), r.X1, r.Y1, r.X2, r.Y2)
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "screenshot-grim %s\n", version)
		},
	}
}

var longFlags = map[string]bool{
	"run-mode": true, "mode": true, "output": true,
	"x1": true, "y1": true, "x2": true, "y2": true,
	"include-pointer": true, "delay": true, "type": true,
	"level": true, "quality": true, "scale": true,
	"save": true, "copy": true, "stdout": true, "report": true,
	"log-level": true, "env-file": true,
	"shoot-type": true, "screenshot-delay": true,
}

// normalizeLegacyArgs maps single-dash long flags (-mode, -x1=5) to their
// double-dash form. Shorthand flags are left alone.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
			continue
		}
		name, _, _ := strings.Cut(arg[1:], "=")
		if longFlags[name] {
			normalized[i] = "-" + arg
		}
	}

	return normalized
}
