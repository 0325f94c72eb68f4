// Command spreaddump prints the content of a Bolt-backed spread store.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/andreyvit/spread"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	DB      string `env:"SPREAD_DB"`
	Key     string `env:"SPREAD_KEY"`
	Verbose bool   `env:"SPREAD_VERBOSE"`
	Decode  bool   `env:"SPREAD_DECODE" envDefault:"true"`
	Stats   bool   `env:"SPREAD_STATS" envDefault:"true"`
}

// ParseConfig reads the environment, then lets flags override it.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	fs.StringVar(&cfg.DB, "db", cfg.DB, "Bolt database file")
	fs.StringVar(&cfg.Key, "key", cfg.Key, "only print the value at this key (64 hex digits)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "log every store read")
	fs.BoolVar(&cfg.Decode, "decode", cfg.Decode, "show msgpack values decoded")
	fs.BoolVar(&cfg.Stats, "stats", cfg.Stats, "print key count and state hash")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.DB == "" {
		return Config{}, errors.New("database file not specified (-db or SPREAD_DB)")
	}
	return cfg, nil
}

func main() {
	cfg, err := ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "spreaddump: %v\n", err)
		os.Exit(2)
	}
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(cfg, os.Stdout, logger); err != nil {
		logger.Error("spreaddump failed", "db", cfg.DB, "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, w io.Writer, logger *slog.Logger) error {
	storage, err := spread.OpenBolt(cfg.DB, spread.BoltOptions{ReadOnly: true})
	if err != nil {
		return err
	}
	defer storage.Close()

	tx, err := storage.BeginTx(false)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if cfg.Key != "" {
		key, err := spread.ParseKey(cfg.Key)
		if err != nil {
			return err
		}
		senv := spread.NewEnv(tx, spread.Options{
			Verbose: cfg.Verbose,
			Logf: func(format string, args ...any) {
				logger.Debug(fmt.Sprintf(format, args...))
			},
		})
		raw := senv.ReadRaw(key)
		if raw == nil {
			return fmt.Errorf("%v: not found", key)
		}
		return printValue(w, key, raw, cfg.Decode)
	}

	flags := spread.DumpEntries
	if cfg.Decode {
		flags |= spread.DumpDecoded
	}
	if cfg.Stats {
		flags |= spread.DumpStats
	}
	if _, err := io.WriteString(w, spread.Dump(tx, flags)); err != nil {
		return err
	}
	if cfg.Stats {
		st, err := storage.Stats()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "bolt: %v\n", &st); err != nil {
			return err
		}
	}
	logger.Debug("dumped", "db", cfg.DB)
	return nil
}

func printValue(w io.Writer, key spread.Key, raw []byte, decode bool) error {
	if decode {
		var v any
		if err := spread.MsgPack.DecodeValue(raw, &v); err == nil {
			_, err := fmt.Fprintf(w, "%v = %x  // %v\n", key, raw, v)
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%v = %x\n", key, raw)
	return err
}
