package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/sprachiz/internal/llm"
	"github.com/abhisek/sprachiz/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Check the LLM provider and inspect request events",
}

var llmTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a short test prompt to the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		p, err := d.provider(cmd)
		if err != nil {
			return err
		}
		prompt, _ := cmd.Flags().GetString("prompt")

		start := time.Now()
		resp, err := p.Generate(llm.WithPurpose(cmd.Context(), llm.PurposeProviderTest), llm.Request{
			System:    "You are a friendly German tutor. Answer in one short German sentence.",
			Messages:  []llm.Message{{Role: llm.RoleUser, Content: prompt}},
			MaxTokens: 128,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
		text, err := resp.Text()
		if err != nil {
			return err
		}

		printSuccess("%s responded in %s", p.Name(), time.Since(start).Round(time.Millisecond))
		printField("Model", resp.Model)
		printField("Tokens", fmt.Sprintf("%d in / %d out", resp.Usage.InputTokens, resp.Usage.OutputTokens))
		printField("Reply", text)
		return nil
	},
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		events, err := d.store.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		if len(events) == 0 {
			printHint("No LLM events found.")
			return nil
		}

		t := newTable("ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
		for _, e := range events {
			if purpose != "" && e.Purpose != purpose {
				continue
			}
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			t.Row(
				strconv.Itoa(e.ID),
				formatDate(e.Timestamp),
				e.Purpose,
				truncate(e.Model, 28),
				strconv.Itoa(e.InputTokens),
				strconv.Itoa(e.OutputTokens),
				strconv.FormatInt(e.LatencyMs, 10),
				ok,
			)
		}
		printTable(t)
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View full request/response for an LLM event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		e, err := d.store.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}

		printField("ID", e.ID)
		printField("Time", formatDate(e.Timestamp))
		printField("Provider", e.Provider)
		printField("Model", e.Model)
		printField("Purpose", e.Purpose)
		printField("Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens))
		printField("Latency", fmt.Sprintf("%dms", e.LatencyMs))
		printField("Success", e.Success)
		if e.ErrorMessage != "" {
			printField("Error", e.ErrorMessage)
		}

		sep := strings.Repeat("─", 60)
		for _, section := range []struct{ name, body string }{
			{"REQUEST", e.RequestBody},
			{"RESPONSE", e.ResponseBody},
		} {
			fmt.Println()
			fmt.Println(sep)
			printTitle(section.name)
			fmt.Println(sep)
			if section.body == "" {
				printHint("(not captured)")
				continue
			}
			fmt.Println(section.body)
		}
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup(cmd)
		if err != nil {
			return err
		}
		defer d.close()

		ctx := cmd.Context()
		stats, err := d.store.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		if len(stats) == 0 {
			printHint("No LLM usage recorded yet.")
			return nil
		}

		printTitle("Usage by Purpose")
		usage := newTable("Purpose", "Calls", "Input", "Output", "Total", "Avg Ms")
		var totalCalls, totalIn, totalOut int
		for _, st := range stats {
			usage.Row(st.Purpose, strconv.Itoa(st.Calls), strconv.Itoa(st.InputTokens),
				strconv.Itoa(st.OutputTokens), strconv.Itoa(st.InputTokens+st.OutputTokens),
				strconv.Itoa(st.AvgLatencyMs))
			totalCalls += st.Calls
			totalIn += st.InputTokens
			totalOut += st.OutputTokens
		}
		usage.Row("TOTAL", strconv.Itoa(totalCalls), strconv.Itoa(totalIn),
			strconv.Itoa(totalOut), strconv.Itoa(totalIn+totalOut), "")
		printTable(usage)

		modelUsage, err := d.store.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(modelUsage) == 0 {
			return nil
		}

		fmt.Println()
		printTitle("Estimated Cost (USD)")
		costs := newTable("Model", "Calls", "Input", "Output", "Cost")
		var totalCost float64
		var unknownModels []string
		for _, mu := range modelUsage {
			price := "?"
			if cost := llm.LookupCost(mu.Model); cost != nil {
				c := cost.Cost(mu.InputTokens, mu.OutputTokens)
				totalCost += c
				price = formatCost(c)
			} else {
				unknownModels = append(unknownModels, mu.Model)
			}
			costs.Row(truncate(mu.Model, 32), strconv.Itoa(mu.Calls),
				strconv.Itoa(mu.InputTokens), strconv.Itoa(mu.OutputTokens), price)
		}
		label := "TOTAL"
		if len(unknownModels) > 0 {
			label = "TOTAL (partial)"
		}
		costs.Row(label, "", "", "", formatCost(totalCost))
		printTable(costs)

		if len(unknownModels) > 0 {
			printHint("Pricing unavailable for: " + strings.Join(unknownModels, ", "))
		}
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmTestCmd.Flags().String("prompt", "Sag hallo!", "Prompt to send")
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. dialogue-practice, lesson-reflection)")

	llmCmd.AddCommand(llmTestCmd)
	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
