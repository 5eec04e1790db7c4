package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/SlpAus/lotto-mirror-backend/internal/lottery"
	"github.com/SlpAus/lotto-mirror-backend/internal/lotteryapi"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// Env is what every command runs against.
type Env struct {
	DB    *gorm.DB
	API   lotteryapi.Client
	Rules lottery.Rules
}

// EnvOpener builds the environment lazily, so --help works without a config.
type EnvOpener func() (*Env, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "text"
}

// NewRootCommand creates the lottoadm command tree.
func NewRootCommand(open EnvOpener) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lottoadm",
		Short: "Administrative tasks for the lottery mirror",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", opts.Format)
			}
			return nil
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newSyncUsersCommand(opts, open))
	cmd.AddCommand(newSyncDrawCommand(opts, open))
	cmd.AddCommand(newIssueTicketCommand(opts, open))
	return cmd
}

// output writes data as JSON, or the text line in text mode.
func output(w io.Writer, opts *RootOptions, data any, text string) error {
	if opts.Format == "json" {
		return json.NewEncoder(w).Encode(map[string]any{"status": "ok", "data": data})
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
