// Package main implements an interactive debugging client for the engine
// bridge: a readline REPL feeding an in-process bridge and echoing sink
// traffic.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"dam/internal/bridge"
	"dam/internal/engine"
)

const (
	colorReset = "\033[0m"
	colorCyan  = "\033[36m"
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
)

func main() {
	// Color only when stdout is a real terminal.
	colored := term.IsTerminal(int(os.Stdout.Fd()))
	paint := func(color, s string) string {
		if !colored {
			return s
		}
		return color + s + colorReset
	}

	log := zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()

	b := bridge.New(engine.New(engine.Config{}), log)
	b.SetMessageSink(func(line string) {
		color := colorGreen
		if strings.HasPrefix(line, "error") {
			color = colorRed
		}
		fmt.Printf("%s\n", paint(color, "< "+line))
	})

	if err := b.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "init failed: %v (%s)\n", err, b.LastError())
		os.Exit(1)
	}
	if err := b.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "start failed: %v\n", err)
		os.Exit(1)
	}
	defer b.Shutdown()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          paint(colorCyan, "dam> "),
		HistoryFile:     ".dam_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Println(paint(colorCyan, "Dam HUB Client"))
	fmt.Println("HUB commands go to the engine; 'status' and 'exit' are local")
	fmt.Println()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "x":
			return
		case "status":
			fmt.Printf("status: %s", b.Status())
			if e := b.LastError(); e != "" {
				fmt.Printf("  last error: %s", e)
			}
			fmt.Println()
			continue
		}

		if err := b.SendCommand(line); err != nil {
			fmt.Println(paint(colorRed, "rejected: "+err.Error()))
		}
		if line == "quit" {
			return
		}
	}
}
