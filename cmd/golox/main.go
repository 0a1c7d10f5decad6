package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	lox "github.com/studiovc/golox"
)

const (
	appName     = "golox"
	historyFile = ".golox_history"
	prompt      = "> "
)

func red(s string) string  { return "\x1b[31m" + s + "\x1b[0m" }
func blue(s string) string { return "\x1b[94m" + s + "\x1b[0m" }

func main() {
	switch len(os.Args) {
	case 1:
		os.Exit(repl())
	case 2:
		os.Exit(runFile(os.Args[1]))
	default:
		fmt.Fprintf(os.Stderr, "Usage: %s [script]\n", appName)
		os.Exit(1)
	}
}

func runFile(path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, path, err)
		return 1
	}

	ip := lox.NewInterpreter(os.Stdout)
	if err := lox.RunSource(ip, string(src)); err != nil {
		lox.ReportErrors(os.Stderr, err)
		return lox.ExitCode(err)
	}
	return 0
}

func repl() int {
	fmt.Printf("golox %s\nCtrl+C cancels input, Ctrl+D exits.\n", lox.Version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	ip := lox.NewInterpreter(os.Stdout)

	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return 0
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			return 1
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		ln.AppendHistory(line)

		v, echo, rerr := lox.EvalLine(ip, line)
		if rerr != nil {
			// Errors don't kill the session; globals defined so far survive.
			for _, msg := range strings.Split(errText(rerr), "\n") {
				fmt.Fprintln(os.Stderr, red(msg))
			}
			continue
		}
		if echo {
			fmt.Println(blue(lox.FormatValue(v)))
		}
	}
}

func errText(err error) string {
	var b strings.Builder
	lox.ReportErrors(&b, err)
	return strings.TrimRight(b.String(), "\n")
}
