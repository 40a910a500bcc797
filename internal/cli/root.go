// Package cli wires the peer engine to a cobra command, the way the
// source repo's own CLI commands each bind flags in an init() and
// delegate to a RunE function.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ringkeeper/cdht-peer/internal/api"
	"github.com/ringkeeper/cdht-peer/internal/config"
	"github.com/ringkeeper/cdht-peer/internal/event"
	"github.com/ringkeeper/cdht-peer/internal/observability"
	"github.com/ringkeeper/cdht-peer/internal/peer"
	"github.com/ringkeeper/cdht-peer/internal/render"
)

var (
	flagConfig     string
	flagBindAddr   string
	flagStatusAddr string
	flagNoUI       bool
)

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "path to a TOML config file overlaying the defaults")
	rootCmd.Flags().StringVar(&flagBindAddr, "bind-addr", "", "override the network.bind_host config value")
	rootCmd.Flags().StringVar(&flagStatusAddr, "status-addr", "", "enable the status HTTP API on this address")
	rootCmd.Flags().BoolVar(&flagNoUI, "no-ui", false, "suppress the line-oriented event renderer on stdout")
}

var rootCmd = &cobra.Command{
	Use:   "cdhtpeer <self> <s1> <s2>",
	Short: "Run one peer of a circular distributed hash table",
	Long: `cdhtpeer runs a single peer of a 256-slot circular distributed hash table.
The three positional arguments are the peer's own identifier and the
identifiers of its two immediate ring successors, each in [0,255].`,
	Args: cobra.ExactArgs(3),
	RunE: runPeer,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func runPeer(cmd *cobra.Command, args []string) error {
	self, err := parseID(args[0])
	if err != nil {
		return fmt.Errorf("self: %w", err)
	}
	s1, err := parseID(args[1])
	if err != nil {
		return fmt.Errorf("s1: %w", err)
	}
	s2, err := parseID(args[2])
	if err != nil {
		return fmt.Errorf("s2: %w", err)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagBindAddr != "" {
		cfg.Network.BindHost = flagBindAddr
	}
	if flagStatusAddr != "" {
		cfg.StatusAPI.Enabled = true
		cfg.StatusAPI.Addr = flagStatusAddr
	}

	bus := event.NewBus()
	logger := observability.NewLogger(os.Stderr, self, !flagNoUI)
	bus.Subscribe(logger)
	if !flagNoUI {
		bus.Subscribe(render.NewWriter(os.Stdout))
	}

	eng, err := peer.New(cfg, self, s1, s2, nil, bus)
	if err != nil {
		return fmt.Errorf("start peer %d: %w", self, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.StatusAPI.Enabled {
		srv := api.NewServer(snapshotAdapter{eng})
		go http.ListenAndServe(cfg.StatusAPI.Addr, srv.Handler()) //nolint:errcheck
	}

	go readCommands(eng)

	return eng.Run(ctx)
}

// readCommands feeds stdin lines to the engine's command surface until
// stdin closes (EOF), e.g. when the process's input is a pipe or the
// terminal session ends.
func readCommands(eng *peer.Engine) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		eng.Submit(scanner.Text())
	}
}

func parseID(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer: %w", s, err)
	}
	if n < 0 || n > 255 {
		return 0, fmt.Errorf("%d is not in [0,255]", n)
	}
	return n, nil
}

type snapshotAdapter struct {
	eng *peer.Engine
}

func (a snapshotAdapter) Snapshot() api.StatusSnapshot {
	s := a.eng.Snapshot()
	return api.StatusSnapshot{
		Self: s.Self, S1: s.S1, S2: s.S2, P1: s.P1, P2: s.P2,
		LastDead: s.LastDead, Seq: s.Seq, Ack1: s.Ack1, Ack2: s.Ack2,
		ShowPings: s.ShowPings,
	}
}
