package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"rokuctl/internal/discovery"
	"rokuctl/internal/registry"
)

// stdinIsTerminal reports whether a device can be picked interactively.
var stdinIsTerminal = func() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	var pick int
	var assumeYes bool
	var listOnly bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find Rokus on the network and save one as the active device",
		Long: `Send an SSDP search for Roku devices and save the chosen one, together
with its installed applications, to the registry.

With one reply the device is saved after confirmation (or directly with --yes
or when not running in a terminal). With several, pass --pick N or choose
interactively.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.newSession(cmd)
			if err != nil {
				return err
			}
			candidates, err := sess.discoveryAgent().Discover(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, candidates)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderCandidates(candidates))
			if listOnly {
				return nil
			}

			chosen, err := chooseCandidate(cmd.InOrStdin(), out, candidates, pick, assumeYes)
			if err != nil {
				return err
			}

			// RefreshApps saves only after /query/apps succeeds, so an
			// unreachable pick never replaces the current registry.
			store := &registry.Store{Device: chosen.Device()}
			apps, err := sess.registry.RefreshApps(cmd.Context(), store)
			if err != nil {
				return fmt.Errorf("save %s: %w", chosen.Name, err)
			}
			fmt.Fprintf(out, "Saved %s (%s) with %d applications to %s\n", chosen.Name, chosen.Addr, len(apps), sess.registry.Path())
			return nil
		},
	}
	cmd.Flags().IntVar(&pick, "pick", 0, "Save the Nth discovered device without prompting")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Save a single discovered device without confirmation")
	cmd.Flags().BoolVar(&listOnly, "list", false, "Only list discovered devices; do not save")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output discovered devices as JSON; do not save")
	return cmd
}

func renderCandidates(candidates []discovery.Candidate) string {
	rows := make([][]string, 0, len(candidates))
	for i, c := range candidates {
		rows = append(rows, []string{strconv.Itoa(i + 1), c.Name, c.Addr, c.Serial()})
	}
	return renderTable(
		[]string{"#", "Name", "Address", "Serial"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)
}

func chooseCandidate(in io.Reader, out io.Writer, candidates []discovery.Candidate, pick int, assumeYes bool) (discovery.Candidate, error) {
	interactive := stdinIsTerminal()
	switch {
	case pick != 0:
		if pick < 1 || pick > len(candidates) {
			return discovery.Candidate{}, fmt.Errorf("--pick %d out of range (found %d devices)", pick, len(candidates))
		}
		return candidates[pick-1], nil
	case len(candidates) == 1 && (assumeYes || !interactive):
		return candidates[0], nil
	case !interactive:
		return discovery.Candidate{}, fmt.Errorf("found %d devices; rerun with --pick N to choose one", len(candidates))
	}

	reader := bufio.NewReader(in)
	if len(candidates) == 1 {
		fmt.Fprintf(out, "Save %s (%s)? [Y/n]: ", candidates[0].Name, candidates[0].Addr)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return discovery.Candidate{}, fmt.Errorf("read confirmation: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "", "y", "yes":
			return candidates[0], nil
		default:
			return discovery.Candidate{}, errors.New("discovery cancelled; registry unchanged")
		}
	}

	for {
		fmt.Fprintf(out, "Select device [1-%d]: ", len(candidates))
		line, err := reader.ReadString('\n')
		if choice, convErr := strconv.Atoi(strings.TrimSpace(line)); convErr == nil && choice >= 1 && choice <= len(candidates) {
			return candidates[choice-1], nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return discovery.Candidate{}, errors.New("no device selected")
			}
			return discovery.Candidate{}, fmt.Errorf("read selection: %w", err)
		}
		fmt.Fprintln(out, "Enter one of the numbers listed above.")
	}
}
