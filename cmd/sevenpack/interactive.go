package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"
)

type interactiveCtxKeyType struct{}

var interactiveCtxKey = interactiveCtxKeyType{}

func isInteractiveEnvironment() bool {
	if os.Getenv("CI") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func withInteractive(ctx context.Context, interactive bool) context.Context {
	return context.WithValue(ctx, interactiveCtxKey, interactive)
}

func isInteractive(ctx context.Context) bool {
	interactive, ok := ctx.Value(interactiveCtxKey).(bool)
	if !ok {
		return false
	}
	return interactive
}

// promptPassword reads a password from the terminal without echoing it.
func promptPassword(ctx context.Context) (string, error) {
	if !isInteractive(ctx) {
		return "", fmt.Errorf("cannot prompt for a password outside an interactive terminal")
	}

	fmt.Fprint(os.Stderr, "Archive password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
