package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abhisek/shelf/internal/llm"
	"github.com/abhisek/shelf/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded LLM calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM calls, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit, Purpose: purpose})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No LLM calls recorded.")
			return nil
		}

		tw := newTable(os.Stdout)
		fmt.Fprintln(tw, "ID\tTIME\tPURPOSE\tMODEL\tIN\tOUT\tMS\tSTATUS")
		for _, e := range events {
			status := "ok"
			if !e.Success {
				status = "failed"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				e.ID, e.Timestamp.Local().Format(timeLayout), e.Purpose, truncate(e.Model, 28),
				e.InputTokens, e.OutputTokens, e.LatencyMs, status)
		}
		return tw.Flush()
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show one LLM call with its request and response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid event id %q: %w", args[0], err)
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		tw := newTable(os.Stdout)
		fmt.Fprintf(tw, "ID:\t%d (sequence %d)\n", e.ID, e.Sequence)
		fmt.Fprintf(tw, "Time:\t%s\n", e.Timestamp.Local().Format(timeLayout))
		fmt.Fprintf(tw, "Provider:\t%s\n", e.Provider)
		fmt.Fprintf(tw, "Model:\t%s\n", e.Model)
		fmt.Fprintf(tw, "Purpose:\t%s\n", e.Purpose)
		fmt.Fprintf(tw, "Tokens:\t%d in, %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Fprintf(tw, "Latency:\t%dms\n", e.LatencyMs)
		if e.ErrorMessage != "" {
			fmt.Fprintf(tw, "Error:\t%s\n", e.ErrorMessage)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		printBody("Request", e.RequestBody)
		printBody("Response", e.ResponseBody)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage per purpose and estimated cost per model",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		byPurpose, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		if len(byPurpose) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}
		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}

		tw := newTable(os.Stdout)
		fmt.Fprintln(tw, "PURPOSE\tCALLS\tIN\tOUT\tAVG MS")
		var calls, in, out int
		for _, u := range byPurpose {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", u.Purpose, u.Calls, u.InputTokens, u.OutputTokens, u.AvgLatencyMs)
			calls += u.Calls
			in += u.InputTokens
			out += u.OutputTokens
		}
		fmt.Fprintf(tw, "total\t%d\t%d\t%d\t\n", calls, in, out)
		if err := tw.Flush(); err != nil {
			return err
		}

		fmt.Println()
		tw = newTable(os.Stdout)
		fmt.Fprintln(tw, "MODEL\tCALLS\tIN\tOUT\tCOST")
		var total float64
		var unpriced []string
		for _, u := range byModel {
			cost := "?"
			if price, ok := llm.LookupPrice(u.Model); ok {
				c := price.Cost(u.InputTokens, u.OutputTokens)
				total += c
				cost = formatCost(c)
			} else {
				unpriced = append(unpriced, u.Model)
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", truncate(u.Model, 32), u.Calls, u.InputTokens, u.OutputTokens, cost)
		}
		label := "total"
		if len(unpriced) > 0 {
			label = "total (partial)"
		}
		fmt.Fprintf(tw, "%s\t\t\t\t%s\n", label, formatCost(total))
		if err := tw.Flush(); err != nil {
			return err
		}
		if len(unpriced) > 0 {
			fmt.Printf("\nNo pricing for: %s\n", strings.Join(unpriced, ", "))
		}
		return nil
	},
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// printBody prints a captured request or response, indenting it when it
// is JSON.
func printBody(title, body string) {
	fmt.Printf("\n%s\n%s\n", title, strings.Repeat("─", 60))
	if body == "" {
		fmt.Println("(not captured)")
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(body), "", "  "); err == nil {
		fmt.Println(buf.String())
		return
	}
	fmt.Println(body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show calls with this purpose (remedial, generate)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
