package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/polarstock/internal/debuglog"
	"github.com/pders01/polarstock/internal/supply"
)

var (
	fillSlots  int
	fillRounds int
)

var fillCmd = &cobra.Command{
	Use:   "fill [topic]",
	Short: "Fill a board without the interface and print the images",
	Long: "Fill a board for the topic and print one line per slot. With --rounds the whole\n" +
		"board is refreshed again, which shows that no photo repeats within the run.",
	Args: cobra.MaximumNArgs(1),
	RunE: runFill,
}

func init() {
	fillCmd.Flags().IntVarP(&fillSlots, "slots", "n", 0, "Number of slots (1-20, default from config)")
	fillCmd.Flags().IntVar(&fillRounds, "rounds", 1, "Number of times the board is filled")
}

func runFill(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	debuglog.SetOutput(debuglog.ParseLogLevel(cfg.Log.Level), os.Stderr)

	eng, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	n := cfg.Engine.SlotCount
	if cmd.Flags().Changed("slots") {
		n = fillSlots
	}
	topic := ""
	if len(args) > 0 {
		topic = args[0]
	}

	board := supply.NewBoard(n)
	board.SetTopic(topic)

	rounds := fillRounds
	if rounds < 1 {
		rounds = 1
	}
	out := cmd.OutOrStdout()
	for i := 0; i < rounds; i++ {
		var res *supply.BatchResult
		if i == 0 {
			res = eng.orchestrator.ChangeTopic(cmd.Context(), board, topic)
		} else {
			res = eng.orchestrator.FillAll(cmd.Context(), board)
		}
		if rounds > 1 {
			fmt.Fprintf(out, "Round %d\n", i+1)
		}
		printBoard(out, board)
		if msg := res.Message(); msg != "" {
			fmt.Fprintln(out, msg)
		}
	}

	if err := eng.orchestrator.Exclusions().Flush(); err != nil {
		return err
	}
	return nil
}

func printBoard(w io.Writer, board *supply.Board) {
	for _, s := range board.Snapshot() {
		if !s.HasImage() {
			fmt.Fprintf(w, "%-9s (empty)\n", s.Label())
			continue
		}
		author := strings.TrimSpace(s.Current.Attribution.Author)
		if author == "" {
			author = "unknown"
		}
		fmt.Fprintf(w, "%-9s %-10s %s  by %s\n", s.Label(), s.Current.ID, s.Reference(), author)
	}
}
