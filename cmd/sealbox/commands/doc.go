// Package commands implements the sealbox CLI subcommands.
package commands
