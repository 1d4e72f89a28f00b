package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. The real App
// satisfies it; tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	SetAPIKey(ctx context.Context, args []string) error

	AddWord(ctx context.Context, args []string) error
	AddSentence(ctx context.Context) error
	ListWords(ctx context.Context, args []string) error
	ListSentences(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	Stats(ctx context.Context) error
	Delete(ctx context.Context, args []string) error
	DeleteSentence(ctx context.Context, args []string) error
	Undo(ctx context.Context) error
	Regen(ctx context.Context, args []string) error
	Speak(ctx context.Context, args []string) error

	Sync(ctx context.Context) error
	Pending(ctx context.Context) error
	Retry(ctx context.Context, args []string) error
	Discard(ctx context.Context, args []string) error
	ClearCache(ctx context.Context) error
	AudioStats(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: login, apikey [clear], pending, clearcache, exit"
	helpLoggedIn  = "Available commands: (a)dd [word], addsentence, (l)ist [all|today|week] [category], " +
		"sentences [tab] [scene], search <text>, stats, (d)elete <id>, delsentence <id>, undo, " +
		"regen <id>, (s)peak <id>, sync, pending, retry <op>, discard <op>, apikey [clear], " +
		"clearcache, audio, logout, exit"
)

// runREPL reads commands from in until EOF or "exit", dispatching each line
// to a. Command errors are printed and the loop continues. Commands prompt
// for more input through the same reader.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("vocab %s > ", statusFn()))
		line, rerr := in.ReadString('\n')
		if rerr != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "apikey":
			err = a.SetAPIKey(ctx, args)

		case "a", "add":
			err = a.AddWord(ctx, args)
		case "addsentence":
			err = a.AddSentence(ctx)
		case "l", "list":
			err = a.ListWords(ctx, args)
		case "sentences":
			err = a.ListSentences(ctx, args)
		case "search":
			err = a.Search(ctx, args)
		case "stats":
			err = a.Stats(ctx)
		case "d", "delete":
			err = a.Delete(ctx, args)
		case "delsentence":
			err = a.DeleteSentence(ctx, args)
		case "undo":
			err = a.Undo(ctx)
		case "regen":
			err = a.Regen(ctx, args)
		case "s", "speak":
			err = a.Speak(ctx, args)

		case "sync":
			err = a.Sync(ctx)
		case "pending":
			err = a.Pending(ctx)
		case "retry":
			err = a.Retry(ctx, args)
		case "discard":
			err = a.Discard(ctx, args)
		case "clearcache":
			err = a.ClearCache(ctx)
		case "audio":
			err = a.AudioStats(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
