// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot and REPL question handlers for the chatterm CLI.
//
// USABILITY: Markdown rendering and input history for better CLI experience
//
// Command: ask
// Short:   Ask a question without starting the TUI
//
// Examples:
//   chatterm ask "What is Go?"        One-shot question, prints the reply
//   chatterm ask                      Interactive question loop
//   chatterm ask --model gpt-4 "hi"   Ask with a specific model
//
// Interactive Commands (during the loop):
//   /clear          Reset the conversation
//   /model [name]   Show or switch model
//   /quit           Exit
//   Ctrl+C, Ctrl+D  Exit
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"

	"github.com/jeranaias/chatterm/internal/auth"
	"github.com/jeranaias/chatterm/internal/guard"
	"github.com/jeranaias/chatterm/internal/history"
	"github.com/jeranaias/chatterm/internal/model"
	"github.com/jeranaias/chatterm/internal/util"
)

// =============================================================================
// OUTPUT RENDERING
// =============================================================================

// markdownRenderer is the shared glamour renderer for assistant replies.
var markdownRenderer *glamour.TermRenderer

// initMarkdownRenderer sets up glamour sized to the terminal. Errors leave
// the renderer nil and output falls back to plain text.
func initMarkdownRenderer() {
	width := GetTerminalWidth() - 2
	if width > 100 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err == nil {
		markdownRenderer = r
	}
}

// renderReply formats an assistant reply for the terminal. Markdown goes
// through glamour when enabled; otherwise fenced code blocks are syntax
// highlighted and the rest passes through untouched.
func renderReply(content string, markdown bool) string {
	if markdown && ColorsEnabled() {
		if markdownRenderer == nil {
			initMarkdownRenderer()
		}
		if markdownRenderer != nil {
			if rendered, err := markdownRenderer.Render(content); err == nil {
				return strings.TrimRight(rendered, "\n")
			}
		}
	}
	if ColorsEnabled() {
		return highlightCodeBlocks(content)
	}
	return content
}

// highlightCodeBlocks runs fenced code blocks through chroma and leaves
// the surrounding prose alone.
func highlightCodeBlocks(content string) string {
	var (
		out      strings.Builder
		code     strings.Builder
		inFence  bool
		language string
	)

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			if !inFence {
				inFence = true
				language = strings.TrimPrefix(trimmed, "```")
				code.Reset()
			} else {
				inFence = false
				out.WriteString(highlightBlock(code.String(), language))
			}
			continue
		}

		if inFence {
			code.WriteString(line)
			code.WriteString("\n")
		} else {
			out.WriteString(line)
			out.WriteString("\n")
		}
	}

	// Unterminated fence: emit what accumulated.
	if inFence {
		out.WriteString(highlightBlock(code.String(), language))
	}

	return strings.TrimRight(out.String(), "\n")
}

// highlightBlock highlights one code block, falling back to the raw text
// when the lexer or formatter fails.
func highlightBlock(code, language string) string {
	if language == "" {
		language = "text"
	}
	var buf strings.Builder
	if err := quick.Highlight(&buf, code, language, "terminal256", "monokai"); err != nil {
		return code
	}
	return buf.String()
}

// =============================================================================
// ONE-SHOT ASK
// =============================================================================

// HandleAsk handles the "ask" command. With a question it runs one
// completion and prints the reply; without one it starts the question loop.
func HandleAsk(args Args) error {
	sess, err := newCmdSession(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), sess.timeout)
	defer cancel()

	status, checkErr := sess.gate.Check(ctx, sess.client)
	if status != auth.StatusAuthenticated {
		if checkErr != nil {
			return &AuthRequiredError{Reason: checkErr.Error()}
		}
		return &AuthRequiredError{}
	}

	if strings.TrimSpace(args.Query) == "" {
		return runAskLoop(sess, args)
	}

	conv := model.NewConversation(sess.cfg.Chat.MaxTurns)
	if err := conv.Append(model.NewUserTurn(args.Query)); err != nil {
		return err
	}

	turns, err := askOnce(sess, args, conv.Turns())
	if err != nil {
		return err
	}

	for _, t := range turns[conv.Len():] {
		fmt.Println(renderReply(t.Content, sess.cfg.UI.Markdown))
	}
	return nil
}

// askOnce runs a single completion over the given context turns and
// records the attempt in the request history.
func askOnce(sess *cmdSession, args Args, contextTurns []model.Turn) ([]model.Turn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sess.timeout)
	defer cancel()

	start := time.Now()
	turns, err := sess.client.Complete(ctx, sess.modelID, sess.gate.Token(), contextTurns)
	latency := time.Since(start)

	recordAsk(sess, contextTurns, err, latency)
	return turns, err
}

// recordAsk appends the attempt to the history log. Best-effort: a history
// failure never fails the command.
func recordAsk(sess *cmdSession, contextTurns []model.Turn, askErr error, latency time.Duration) {
	if !sess.cfg.History.Enabled {
		return
	}
	store, err := history.Open(history.DefaultPath())
	if err != nil {
		return
	}
	defer store.Close()

	entry := history.Entry{
		Model:     sess.modelID,
		TurnCount: len(contextTurns),
		Outcome:   history.Classify(askErr),
		LatencyMS: latency.Milliseconds(),
	}
	if len(contextTurns) > 0 {
		entry.Prompt = util.TruncateWidth(util.FirstLine(contextTurns[len(contextTurns)-1].Content), 80)
	}
	if be := asBackendErrorCLI(askErr); be != nil {
		entry.StatusCode = be.StatusCode
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = store.Record(ctx, entry)
}

// =============================================================================
// QUESTION LOOP
// =============================================================================

// askHistoryFile is the liner history file under the data directory.
func askHistoryFile() string {
	return filepath.Join(auth.DefaultDataDir(), "ask_history")
}

// runAskLoop is the interactive fallback when ask is given no question.
// It keeps a bounded conversation across questions, like the TUI does.
func runAskLoop(sess *cmdSession, args Args) error {
	if err := RequiresTTY("run the question loop"); err != nil {
		return err
	}

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer func() {
		saveAskHistory(line)
		line.Close()
	}()

	if f, err := os.Open(askHistoryFile()); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	conv := model.NewConversation(sess.cfg.Chat.MaxTurns)
	submitGuard := guard.New(askGuardLogf(args))

	if !args.Quiet {
		fmt.Println(titleStyle.Render("chatterm ask") + dimStyle.Render(" · "+sess.modelID))
		fmt.Println(dimStyle.Render("/clear resets, /model switches, /quit exits"))
		fmt.Println()
	}

	for {
		input, err := line.Prompt(promptStyle.Render("? "))
		if err != nil {
			// Ctrl+C or Ctrl+D: exit cleanly.
			fmt.Println()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if done := handleAskCommand(input, sess, conv); done {
				return nil
			}
			continue
		}

		if conv.IsFull() {
			DisplayError(fmt.Errorf("conversation limit reached (max %d turns); /clear to continue", conv.MaxTurns()))
			continue
		}

		if !submitGuard.TryAcquire() {
			continue
		}

		// The question joins the conversation before the request and stays
		// there even when the request fails.
		if err := conv.Append(model.NewUserTurn(input)); err != nil {
			submitGuard.Release()
			DisplayError(err)
			continue
		}

		turns, err := askOnce(sess, args, conv.Turns())
		submitGuard.Release()
		if err != nil {
			DisplayError(err)
			continue
		}

		before := conv.Len()
		conv.ReplaceAll(turns)

		fmt.Println()
		for _, t := range turns[before:] {
			fmt.Println(assistantLabelStyle.Render("assistant"))
			fmt.Println(renderReply(t.Content, sess.cfg.UI.Markdown))
			fmt.Println()
		}
	}
}

// handleAskCommand processes loop slash commands. Returns true to exit.
func handleAskCommand(input string, sess *cmdSession, conv *model.Conversation) bool {
	fields := strings.Fields(input)

	switch fields[0] {
	case "/quit", "/q", "/exit":
		return true

	case "/clear", "/c":
		conv.Clear()
		fmt.Println(dimStyle.Render("Conversation cleared."))
		return false

	case "/model":
		if len(fields) < 2 {
			fmt.Println(dimStyle.Render("model: " + sess.modelID))
			return false
		}
		sess.modelID = fields[1]
		if _, known := model.GetModelInfo(sess.modelID); !known {
			fmt.Println(dimStyle.Render("model set to " + sess.modelID + " (not in registry, passed through)"))
		} else {
			fmt.Println(dimStyle.Render("model set to " + sess.modelID))
		}
		return false

	default:
		DisplayError(fmt.Errorf("unknown command: %s", fields[0]))
		return false
	}
}

// saveAskHistory persists liner history with owner-only permissions.
func saveAskHistory(line *liner.State) {
	path := askHistoryFile()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}

// askGuardLogf routes guard debounce logs to stderr in verbose mode only.
func askGuardLogf(args Args) func(format string, v ...any) {
	if !args.Verbose {
		return nil
	}
	return func(format string, v ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", v...)
	}
}
