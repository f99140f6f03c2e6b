// Package main runs the bridge as a plain HUB engine over stdio: stdin
// lines feed the command queue, sink traffic goes to stdout. This is the
// out-of-process variant a GUI or match runner launches directly.
package main

import (
	"errors"
	"flag"
	"os"

	"github.com/rs/zerolog"

	"dam/internal/bridge"
	"dam/internal/engine"
	"dam/internal/transport"
)

func main() {
	var (
		bookPath    = flag.String("book", "", "Path to the opening book file")
		bitbasePath = flag.String("bitbase", "", "Path to the endgame database file")
		debug       = flag.Bool("debug", false, "Enable debug logging on stderr")
	)
	flag.Parse()

	level := zerolog.WarnLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	conn := transport.NewFileConn(os.Stdin, os.Stdout)

	b := bridge.New(engine.New(engine.Config{
		BookPath:    *bookPath,
		BitbasePath: *bitbasePath,
	}), log)
	b.SetMessageSink(func(line string) {
		if err := conn.WriteLine(line); err != nil {
			log.Error().Err(err).Msg("failed to write response")
		}
	})

	if err := b.Init(); err != nil {
		log.Fatal().Err(err).Msg("engine init failed")
	}
	if err := b.Start(); err != nil {
		log.Fatal().Err(err).Msg("engine start failed")
	}
	defer b.Shutdown()

	for b.Status() != bridge.StatusStopped && b.Status() != bridge.StatusError {
		line, err := conn.ReadLine(transport.DefaultPoll)
		if errors.Is(err, transport.ErrNoData) {
			continue
		}
		if err != nil {
			// stdin closed: the host is gone.
			return
		}
		if line == "" {
			line = " " // preserve empty lines for the protocol error path
		}
		if err := b.SendCommand(line); err != nil {
			log.Warn().Err(err).Str("line", line).Msg("command rejected")
		}
		if line == "quit" {
			b.Shutdown()
			return
		}
	}
}
