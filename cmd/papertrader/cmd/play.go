package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/market/data"
	"github.com/rustyeddy/papertrader/replay"
	"github.com/rustyeddy/papertrader/sim"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a paper trading session",
	Long: `Pick a random stock and a random window of its daily bars and trade it.

Without --script or --interactive the session just runs to the end, which
is useful for checking a data source.

Examples:
  papertrader play -i
  papertrader play -i --code 600519 --seed 42
  papertrader play --script examples/scripts/swing.csv
  papertrader play --script swing.csv --realtime`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

var (
	playCode        string
	playSeed        uint64
	playScript      string
	playInteractive bool
	playRealtime    bool
	playBase        time.Duration
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVar(&playCode, "code", "", "stock code to play (default random)")
	playCmd.Flags().Uint64Var(&playSeed, "seed", 0, "override session.seed")
	playCmd.Flags().StringVarP(&playScript, "script", "s", "", "replay a CSV action script")
	playCmd.Flags().BoolVarP(&playInteractive, "interactive", "i", false, "trade from a prompt")
	playCmd.Flags().BoolVar(&playRealtime, "realtime", false, "advance one bar per base interval")
	playCmd.Flags().DurationVar(&playBase, "base", time.Second, "wall time per bar at speed 1 with --realtime")
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	game, err := pickGame(ctx)
	if err != nil {
		return err
	}

	s := sim.New(cfg.Sim(), toaster(cmd.ErrOrStderr()), sim.LogObserver{Logger: log})

	j, err := openJournal()
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
		obs := journal.NewObserver(j, cfg.Account.Balance)
		obs.OnError = func(err error) { log.Warn("journal write failed", "err", err) }
		s.AddObserver(obs)
	}

	if err := s.Start(game.Instrument, game.Bars, game.StartIndex); err != nil {
		return err
	}
	p := printer(cmd)
	fmt.Fprintf(cmd.OutOrStdout(), "Playing %s, %d bars from %s\n",
		game.Instrument, len(game.Bars), game.Bars[0].Time.Format(market.DateLayout))

	base := time.Duration(0)
	if playRealtime {
		base = playBase
	}

	switch {
	case playScript != "":
		sc, err := replay.Load(playScript)
		if err != nil {
			return err
		}
		rep, err := replay.Run(ctx, s, sc, replay.Options{
			Base: base,
			OnFailure: func(f replay.Failure) {
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %v\n", f)
			},
		})
		fmt.Fprintf(cmd.OutOrStdout(), "Script: %d applied, %d failed, %d unreached\n",
			rep.Applied, rep.Failed, rep.Unreached)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("replay: %w", err)
		}

	case playInteractive:
		c := newConsole(s, p, cmd.InOrStdin(), cmd.OutOrStdout())
		c.base = base
		c.lot = cfg.Session.Lot
		c.fees = cfg.Fees
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

	default:
		clock := sim.NewClock(s)
		clock.Base = base
		if err := clock.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}

	if !s.IsOver() {
		if _, err := s.End(); err != nil {
			return err
		}
	}
	if r, ok := s.Result(); ok {
		p.PrintResult(game.Instrument, r)
	}
	return nil
}

// pickGame loads --code when given, otherwise a random instrument.
func pickGame(ctx context.Context) (data.Game, error) {
	c, err := catalog()
	if err != nil {
		return data.Game{}, err
	}
	from, to, err := dataRange()
	if err != nil {
		return data.Game{}, err
	}

	seed := cfg.Session.Seed
	if playSeed != 0 {
		seed = playSeed
	}
	picker := data.NewPicker(nil)
	if seed != 0 {
		picker.Rand = data.Seeded(seed)
	}
	picker.Duration = cfg.Session.Duration
	picker.Warmup = cfg.Session.Warmup

	if playCode == "" {
		return picker.Pick(ctx, c, from, to)
	}

	inst := market.Instrument{Code: playCode, Name: playCode}
	if list, err := c.Instruments(ctx); err == nil {
		for _, i := range list {
			if i.Code == playCode {
				inst = i
				break
			}
		}
	}
	return picker.Load(ctx, c, inst, from, to)
}

// toaster prints fill notifications as one line each.
func toaster(w io.Writer) sim.Notifier {
	return sim.NotifierFunc(func(n sim.Notification) {
		fmt.Fprintf(w, "[%s] %s: %s\n", n.Kind, n.Title, n.Message)
	})
}
