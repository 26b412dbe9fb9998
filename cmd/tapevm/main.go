// Command tapevm runs the embedded hello-world program on the tape machine
// and reports any fatal error with its source position. It is a driver for
// the embedded fixture, not a file-loading front end.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/deepnoodle-ai/tapevm"
	"github.com/deepnoodle-ai/tapevm/dis"
	"github.com/deepnoodle-ai/tapevm/errz"
	"github.com/deepnoodle-ai/tapevm/op"
	"github.com/deepnoodle-ai/tapevm/vm"
	"github.com/fatih/color"
	"github.com/gofrs/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var red = color.New(color.FgRed).SprintFunc()

func fatal(msg interface{}) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case errz.FriendlyError:
		s = msg.FriendlyErrorMessage()
	case error:
		s = msg.Error()
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", red(s))
	os.Exit(1)
}

func isTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func main() {
	var (
		listFlag    = flag.Bool("list", false, "print the instruction listing instead of running")
		traceFlag   = flag.Bool("trace", false, "log every instruction to stderr")
		noColorFlag = flag.Bool("no-color", false, "disable colored output")
	)
	flag.Parse()

	if *noColorFlag || os.Getenv("NO_COLOR") != "" || !isTerminal() {
		color.NoColor = true
	}

	prog, err := tapevm.Compile(tapevm.HelloWorld)
	if err != nil {
		fatal(err)
	}

	if *listFlag {
		if err := dis.Print(dis.Disassemble(prog), os.Stdout); err != nil {
			fatal(err)
		}
		return
	}

	runID, err := uuid.NewV4()
	if err != nil {
		fatal(err)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Str("run_id", runID.String()).Logger()
	level := zerolog.InfoLevel
	if *traceFlag {
		level = zerolog.DebugLevel
	}
	logger = logger.Level(level)

	opts := []vm.Option{vm.WithOutput(os.Stdout)}
	if *traceFlag {
		opts = append(opts, vm.WithObserver(vm.ObserverFunc(
			func(offset int, instruction op.Code, pointer int) bool {
				logger.Debug().
					Int("offset", offset).
					Str("instruction", instruction.String()).
					Int("pointer", pointer).
					Msg("step")
				return true
			})))
	}

	machine := vm.New(prog, opts...)
	start := time.Now()
	if err := machine.Run(context.Background()); err != nil {
		logger.Error().Err(err).Int64("steps", machine.Steps()).Msg("run failed")
		fatal(err)
	}
	logger.Info().
		Int64("steps", machine.Steps()).
		Dur("elapsed", time.Since(start)).
		Int("program_bytes", prog.Len()).
		Int("instructions", prog.InstructionCount()).
		Msg("run complete")
}
