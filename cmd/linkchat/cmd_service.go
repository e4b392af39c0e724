package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"linkchat/cmd/linkchat/chat"

	"github.com/spf13/cobra"
)

// =============================================================================
// ONE-SHOT SERVICE COMMANDS
// =============================================================================

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load [url]",
		Short: "Have the service ingest a link",
		Long: `Sends the link to the RAG service for ingestion and waits until its
contents are indexed. With -v the service's own message is printed as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			link := strings.TrimSpace(args[0])
			if link == "" {
				return fmt.Errorf("link must not be empty")
			}

			resp, err := a.client().Load(ctx, link)
			if err != nil {
				return fmt.Errorf("load failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, chat.GreetingText)
			if a.verbose && resp.Message != "" {
				fmt.Fprintln(out, resp.Message)
			}
			return nil
		},
	}
}

func newAskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask a question about the ingested link",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return fmt.Errorf("question must not be empty")
			}

			resp, err := a.client().Query(ctx, query)
			if err != nil {
				return fmt.Errorf("query failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Response)
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop everything the service has indexed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			resp, err := a.client().Clear(ctx)
			if err != nil {
				return fmt.Errorf("clear failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
}

// signalContext derives a context that is cancelled on SIGINT/SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
