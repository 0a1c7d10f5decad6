package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"

	lox "github.com/studiovc/golox"
)

const (
	appName     = "goloxvm"
	historyFile = ".goloxvm_history"
	prompt      = "> "
)

func red(s string) string { return "\x1b[31m" + s + "\x1b[0m" }

func main() {
	trace := flag.Bool("trace", false, "log the stack and each instruction while executing")
	disasm := flag.Bool("disasm", false, "disassemble the compiled chunk instead of running it")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-trace] [-disasm] [script]\n", appName)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *trace {
		logrus.SetLevel(logrus.DebugLevel)
	}

	switch flag.NArg() {
	case 0:
		os.Exit(repl(*trace))
	case 1:
		os.Exit(runFile(flag.Arg(0), *trace, *disasm))
	default:
		flag.Usage()
		os.Exit(1)
	}
}

func runFile(path string, trace, disasm bool) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, path, err)
		return 1
	}

	if disasm {
		chunk, cerr := lox.NewCompiler(string(src)).Compile()
		if cerr != nil {
			lox.ReportErrors(os.Stderr, cerr)
			return lox.ExitCode(cerr)
		}
		fmt.Print(lox.DisassembleChunk(chunk, filepath.Base(path)))
		return 0
	}

	vm := lox.NewVM(os.Stdout)
	vm.Trace = trace
	if rerr := vm.Interpret(string(src)); rerr != nil {
		lox.ReportErrors(os.Stderr, rerr)
		return lox.ExitCode(rerr)
	}
	return 0
}

func repl(trace bool) int {
	fmt.Printf("goloxvm %s\nCtrl+C cancels input, Ctrl+D exits.\n", lox.Version)

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

	vm := lox.NewVM(os.Stdout)
	vm.Trace = trace

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

		if rerr := vm.Interpret(line); rerr != nil {
			var b strings.Builder
			lox.ReportErrors(&b, rerr)
			for _, msg := range strings.Split(strings.TrimRight(b.String(), "\n"), "\n") {
				fmt.Fprintln(os.Stderr, red(msg))
			}
		}
	}
}
