package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/ufrates/server/config"
)

const defaultConfigPath = "config.toml"

type generateCfg struct {
	outputPath string
}

// newGenerateCmd creates the generate command
func newGenerateCmd() *ffcli.Command {
	cfg := &generateCfg{}

	fs := flag.NewFlagSet("generate", flag.ExitOnError)

	fs.StringVar(
		&cfg.outputPath,
		"output",
		defaultConfigPath,
		"the output path for the generated TOML configuration",
	)

	return &ffcli.Command{
		Name:       "generate",
		ShortUsage: "generate [flags]",
		LongHelp:   "Generates the default server TOML configuration",
		FlagSet:    fs,
		Exec:       cfg.exec,
	}
}

func (c *generateCfg) exec(_ context.Context, _ []string) error {
	if err := config.Write(config.DefaultConfig(), c.outputPath); err != nil {
		return err
	}

	fmt.Printf("configuration written to %s\n", c.outputPath)

	return nil
}
