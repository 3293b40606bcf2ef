// cmd/audioboot/main.go
//
// audioboot runs the application-core bring-up on the simulated board and
// then stays in the steady-state loop until interrupted. A failing step
// halts the process the way the device traps.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"audioboot-go/bus"
	"audioboot-go/errcode"
	"audioboot-go/internal/logging"
	"audioboot-go/platform/sim"
	"audioboot-go/services/boardrev"
	"audioboot-go/services/boot"
	"audioboot-go/services/channel"
	"audioboot-go/services/config"
	"audioboot-go/services/fatal"
	"audioboot-go/services/settings"
)

type options struct {
	profile    string
	configPath string
	settings   string
	boardID    uint16
	press      []string
	readyAfter time.Duration
	sdAbsent   bool
	pmicAbsent bool
	runFor     time.Duration
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var o options
	flagSet := pflag.NewFlagSet("audioboot", pflag.ContinueOnError)
	flagSet.StringVar(&o.profile, "profile", "headset", "build variant: "+strings.Join(config.ProfileNames(), ", "))
	flagSet.StringVar(&o.configPath, "config", "", "variant YAML file (overrides --profile)")
	flagSet.StringVar(&o.settings, "settings", "", "settings TOML file (default: in memory)")
	flagSet.Uint16Var(&o.boardID, "board-id", 350, "raw board id reading")
	flagSet.StringSliceVar(&o.press, "press", nil, "controls held at power-on (volume_down, volume_up)")
	flagSet.DurationVar(&o.readyAfter, "ready-after", 200*time.Millisecond, "network core ready delay (negative: never)")
	flagSet.BoolVar(&o.sdAbsent, "sd-absent", false, "leave the SD slot empty")
	flagSet.BoolVar(&o.pmicAbsent, "pmic-absent", false, "leave the PMIC unpopulated")
	flagSet.DurationVar(&o.runFor, "run-for", 0, "stop after this long (0: until interrupted)")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	log := logging.Configure(logging.ProfileRuntime, "audioboot")

	v, err := loadVariant(o)
	if err != nil {
		return err
	}
	held, err := parseControls(o.press)
	if err != nil {
		return err
	}

	var store channel.Store = &settings.MemStore{}
	if o.settings != "" {
		store = settings.NewFileStore(o.settings)
	}

	board := sim.New(sim.Options{
		BoardID:    o.boardID,
		Held:       held,
		ReadyAfter: o.readyAfter,
		SDAbsent:   o.sdAbsent,
		PMICAbsent: o.pmicAbsent,
		Log:        log,
	})

	b := bus.NewBus(16)
	conn := b.NewConnection("audioboot")
	defer conn.Disconnect()

	seq, err := boot.New(v, board.Deps(store), conn, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if o.runFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.runFor)
		defer cancel()
	}

	go monitor(ctx, b.NewConnection("monitor"), log)

	err = seq.Run(ctx)
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		log.Info().Msg("stopped")
		return shutdown(seq, board, log)
	}
	fatal.Halt(fatal.Trap{Log: log}, err)
	return err
}

// shutdown cuts the rails on boards that carry the PMIC.
func shutdown(seq *boot.Sequencer, board *sim.Board, log zerolog.Logger) error {
	if !seq.Mask().Has(boardrev.CapPMIC) {
		return nil
	}
	if err := board.PMIC().PowerOff(); err != nil {
		return errcode.Wrap(errcode.IO, "pmic.power_off", err)
	}
	log.Info().Msg("pmic powered off")
	return nil
}

func loadVariant(o options) (config.Variant, error) {
	if o.configPath != "" {
		return config.Load(o.configPath)
	}
	return config.Profile(o.profile)
}

func parseControls(names []string) ([]channel.Control, error) {
	out := make([]channel.Control, 0, len(names))
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "volume_down", "down":
			out = append(out, channel.ControlVolumeDown)
		case "volume_up", "up":
			out = append(out, channel.ControlVolumeUp)
		default:
			return nil, fmt.Errorf("unknown control %q", n)
		}
	}
	return out, nil
}

// monitor logs boot state transitions and step failures seen on the bus.
func monitor(ctx context.Context, conn *bus.Connection, log zerolog.Logger) {
	defer conn.Disconnect()
	state := conn.Subscribe(boot.TopicState())
	steps := conn.Subscribe(boot.TopicStep("+"))
	log = log.With().Str("mod", "monitor").Logger()

	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-state.Channel():
			if !ok {
				return
			}
			log.Debug().Interface("state", m.Payload).Msg("boot state")
		case m, ok := <-steps.Channel():
			if !ok {
				return
			}
			log.Trace().Str("topic", m.Topic.String()).Interface("step", m.Payload).Msg("step")
		}
	}
}
