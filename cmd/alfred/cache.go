package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/alfred/memory"
)

var errNoCache = errors.New("no cache backend configured")

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the tool result cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list [namespace]",
	Short: "List cached keys, optionally under a namespace such as search/web",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache(cmd)
		if err != nil {
			return err
		}

		keys, err := memory.Keys(cmd.Context(), store, firstArg(args))
		if err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [namespace]",
	Short: "Delete cached entries, optionally only those under a namespace",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache(cmd)
		if err != nil {
			return err
		}

		n, err := memory.Purge(cmd.Context(), store, firstArg(args))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", n)
		return nil
	},
}

func openCache(cmd *cobra.Command) (memory.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	store, err := memory.NewStore(&cfg.Memory)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errNoCache
	}
	return store, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func init() {
	cacheCmd.AddCommand(cacheListCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
