package main

import (
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"anthingest/internal/config"
)

func ledgerPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "ledger.db")
}

func stdoutIsTTY() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
