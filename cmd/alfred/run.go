package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/alfred/kernel"
	"github.com/tailored-agentic-units/alfred/server"
)

var runCmd = &cobra.Command{
	Use:   "run [question]",
	Short: "Answer a single question",
	Long: `Answers one question and prints the response. Without a question argument
the question is read from standard input. With --server the question is sent
to a running "alfred serve" instead of a local agent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		if query == "" {
			data, err := readStdin(cmd)
			if err != nil {
				return err
			}
			query = data
		}

		sessionID, _ := cmd.Flags().GetString("session")
		showTools, _ := cmd.Flags().GetBool("show-tools")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if addr, _ := cmd.Flags().GetString("server"); addr != "" {
			answer, err := server.NewClient(nil, addr).Run(ctx, query, sessionID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer.Answer)
			return nil
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		k, err := kernel.New(ctx, cfg, kernel.WithLogger(newLogger(cmd)))
		if err != nil {
			return fmt.Errorf("failed to create kernel: %w", err)
		}
		defer k.Close()

		result, err := k.Run(ctx, query, sessionID)
		if showTools && result != nil {
			printToolCalls(cmd, result)
		}
		if err != nil {
			return fmt.Errorf("run failed: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), result.Response)
		return nil
	},
}

func readStdin(cmd *cobra.Command) (string, error) {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read question: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func printToolCalls(cmd *cobra.Command, result *kernel.Result) {
	out := cmd.ErrOrStderr()
	for i, tc := range result.ToolCalls {
		fmt.Fprintf(out, "[%d] %s(%s)\n", i+1, tc.Name, tc.Arguments)
		switch {
		case tc.IsError:
			fmt.Fprintf(out, "    error: %s\n", tc.Result)
		case len(tc.Result) > 200:
			fmt.Fprintf(out, "    -> %s...\n", tc.Result[:200])
		default:
			fmt.Fprintf(out, "    -> %s\n", tc.Result)
		}
	}
	fmt.Fprintf(out, "iterations: %d\n", result.Iterations)
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("session", "", "Task identifier handed to tools that fetch task files")
	runCmd.Flags().Bool("show-tools", false, "Print tool calls and results to stderr")
	runCmd.Flags().String("server", "", "Base URL of an alfred server to ask instead of running locally")
}
