// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// login.go - login/logout/whoami command handlers.
//
// Command: login
// Short:   Prompt for credentials, exchange them for a token, store it
//
// Command: logout
// Short:   Clear the stored token
//
// Command: whoami
// Short:   Report whether the stored token is still accepted
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jeranaias/chatterm/internal/auth"
)

// HandleLogin handles the "login" command.
func HandleLogin(args Args) error {
	if err := RequiresTTY("read credentials"); err != nil {
		return err
	}

	sess, err := newCmdSession(args)
	if err != nil {
		return err
	}

	fmt.Print("Username: ")
	reader := bufio.NewReader(os.Stdin)
	username, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return NewUsageError("login", "username is required", "chatterm login")
	}

	// SECURITY: password is read with echo disabled.
	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	password := string(passwordBytes)
	if password == "" {
		return NewUsageError("login", "password is required", "chatterm login")
	}

	ctx, cancel := context.WithTimeout(context.Background(), sess.timeout)
	defer cancel()

	token, err := sess.client.Login(ctx, username, password)
	if err != nil {
		return err
	}

	if err := sess.tokens.Set(token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	if !args.Quiet {
		fmt.Println(successStyle.Render("Logged in.") + " " + dimStyle.Render("Token stored in "+auth.DefaultDataDir()))
	}
	return nil
}

// HandleLogout handles the "logout" command.
func HandleLogout(args Args) error {
	sess, err := newCmdSession(args)
	if err != nil {
		return err
	}

	if !sess.tokens.Exists() {
		if !args.Quiet {
			fmt.Println(dimStyle.Render("No stored session."))
		}
		return nil
	}

	if err := sess.tokens.Clear(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	if !args.Quiet {
		fmt.Println(successStyle.Render("Logged out."))
	}
	return nil
}

// HandleWhoami handles the "whoami" command. It runs one gate cycle: a
// missing token reports logged-out without a network call, and a
// verification failure reports logged-out too.
func HandleWhoami(args Args) error {
	sess, err := newCmdSession(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), sess.timeout)
	defer cancel()

	status, checkErr := sess.gate.Check(ctx, sess.client)

	if args.JSON {
		out := map[string]any{
			"logged_in": status == auth.StatusAuthenticated,
			"server":    sess.cfg.Server.URL,
		}
		if checkErr != nil {
			out["check_error"] = checkErr.Error()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println(labelStyle.Render("Server") + valueStyle.Render(sess.cfg.Server.URL))
	switch status {
	case auth.StatusAuthenticated:
		fmt.Println(labelStyle.Render("Session") + successStyle.Render("logged in"))
	default:
		fmt.Println(labelStyle.Render("Session") + valueStyle.Render("logged out"))
		if checkErr != nil {
			fmt.Println(dimStyle.Render("  (verification failed: " + checkErr.Error() + ")"))
		}
	}
	return nil
}
