// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - Request history command handler.
//
// Command: history
// Short:   Inspect the local completion request log
//
// Examples:
//   chatterm history                 Show recent requests
//   chatterm history --limit 50     Show last 50 requests
//   chatterm history stats          Show aggregate counts
//   chatterm history clear --confirm
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jeranaias/chatterm/internal/history"
)

// historyPrinter formats counts with thousands separators.
var historyPrinter = message.NewPrinter(language.English)

// HandleHistory handles the "history" command.
func HandleHistory(args Args) error {
	store, err := history.Open(history.DefaultPath())
	if err != nil {
		return err
	}
	defer store.Close()

	parser := NewArgParser(args.Raw)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch args.Subcommand {
	case "", "recent", "show":
		limit := parser.FlagIntOrDefault("limit", 20)
		return historyRecent(ctx, store, limit, args.JSON)

	case "stats":
		return historyStats(ctx, store, args.JSON)

	case "clear":
		if !parser.BoolFlag("confirm") {
			return NewUsageError("history", "clear requires --confirm", "chatterm history clear --confirm")
		}
		if err := store.Clear(ctx); err != nil {
			return err
		}
		if !args.Quiet {
			fmt.Println(successStyle.Render("History cleared."))
		}
		return nil

	default:
		return NewUsageError("history", "unknown subcommand: "+args.Subcommand, "chatterm history [recent|stats|clear]")
	}
}

func historyRecent(ctx context.Context, store *history.Store, limit int, jsonOut bool) error {
	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println(dimStyle.Render("No requests recorded."))
		return nil
	}

	fmt.Println(titleStyle.Render("Recent requests"))
	for _, e := range entries {
		when := e.CreatedAt.Format("2006-01-02 15:04:05")
		outcome := e.Outcome
		if e.StatusCode > 0 {
			outcome = fmt.Sprintf("%s (%d)", e.Outcome, e.StatusCode)
		}
		fmt.Printf("  %s  %-14s %-20s %5dms  %s\n",
			dimStyle.Render(when),
			outcomeLabel(outcome, e.Outcome),
			valueStyle.Render(e.Model),
			e.LatencyMS,
			dimStyle.Render(e.Prompt),
		)
	}
	return nil
}

func historyStats(ctx context.Context, store *history.Store, jsonOut bool) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Println(titleStyle.Render("Request statistics"))
	fmt.Println(labelStyle.Render("Total") + valueStyle.Render(historyPrinter.Sprintf("%d", stats.Total)))
	fmt.Println(labelStyle.Render("Succeeded") + successStyle.Render(historyPrinter.Sprintf("%d", stats.Succeeded)))
	fmt.Println(labelStyle.Render("Failed") + valueStyle.Render(historyPrinter.Sprintf("%d", stats.Failed)))
	return nil
}

// outcomeLabel colors successes green and everything else plain.
func outcomeLabel(display, outcome string) string {
	if outcome == history.OutcomeOK {
		return successStyle.Render(display)
	}
	return valueStyle.Render(display)
}
