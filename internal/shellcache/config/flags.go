package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/otpvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-l string   listen address (default from Config)
//	-o string   origin base URL
//	-r string   cache root directory
//	-g string   generation name to install and activate
//	-s int      in-memory LRU size
//
// Note: The function filters os.Args to only include the flags it knows
// about, using flagx.FilterArgs, to avoid interference with other
// components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-l", "-o", "-r", "-g", "-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ListenAddr, "l", cfg.ListenAddr, "listen address")
	fs.StringVar(&cfg.OriginURL, "o", cfg.OriginURL, "origin base URL")
	fs.StringVar(&cfg.CacheDir, "r", cfg.CacheDir, "cache root directory")
	fs.StringVar(&cfg.Generation, "g", cfg.Generation, "generation name")
	fs.IntVar(&cfg.LRUSize, "s", cfg.LRUSize, "in-memory LRU size")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
