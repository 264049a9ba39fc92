// Package config defines the kong CLI grammar for keyrxd.
package config

import "keyrx/internal/cmd"

// CLI is the root command structure parsed by kong. Values can come
// from flags, KEYRXD_* environment variables, or layered
// JSON/YAML/TOML config files, in that priority order.
type CLI struct {
	Config string    `help:"Path to a configuration file." env:"KEYRXD_CONFIG"`
	Log    LogConfig `embed:"" prefix:"log."`

	Run     cmd.Run           `cmd:"" help:"Capture keyboard input and run the remapping engine."`
	Verify  cmd.Verify        `cmd:"" help:"Validate a compiled .krx profile."`
	Inspect cmd.Inspect       `cmd:"" help:"Decode a compiled .krx profile and print its contents."`
	Replay  cmd.Replay        `cmd:"" help:"Drive the engine from a scripted event file."`
	Cfg     cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration file utilities."`
}

// LogConfig groups the logging flags shared by all commands.
type LogConfig struct {
	Level string `help:"Log level." enum:"trace,debug,info,warn,error" default:"info" env:"KEYRXD_LOG_LEVEL"`
	File  string `help:"Log file path (console only when empty)." env:"KEYRXD_LOG_FILE"`
	Trace string `help:"Key-edge trace file path." env:"KEYRXD_LOG_TRACE"`
}
