package cli

import (
	"fmt"

	"github.com/SlpAus/lotto-mirror-backend/internal/draw"
	"github.com/SlpAus/lotto-mirror-backend/internal/lottery"
	"github.com/SlpAus/lotto-mirror-backend/internal/ticket"
	"github.com/SlpAus/lotto-mirror-backend/internal/user"
	"github.com/spf13/cobra"
)

func newSyncUsersCommand(opts *RootOptions, open EnvOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-users",
		Short: "Refresh every user's customer projection from the external system",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := open()
			if err != nil {
				return err
			}
			linker := user.NewLinker(user.NewRepository(env.DB), env.API)
			synced, failed, err := linker.ResolveAll(cmd.Context())
			if err != nil {
				return err
			}
			return output(cmd.OutOrStdout(), opts,
				map[string]int{"synced": synced, "failed": failed},
				fmt.Sprintf("synced %d users, %d failed", synced, failed))
		},
	}
}

func newSyncDrawCommand(opts *RootOptions, open EnvOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-draw",
		Short: "Run one draw sync cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := open()
			if err != nil {
				return err
			}
			d, err := draw.NewSyncer(env.DB, env.API).SyncCurrent(cmd.Context())
			if err != nil {
				return err
			}
			if d == nil {
				return output(cmd.OutOrStdout(), opts, nil, "no current draw published")
			}
			return output(cmd.OutOrStdout(), opts, d,
				fmt.Sprintf("draw %d %q: %s", d.ExternalID, d.Name, d.Status))
		},
	}
}

func newIssueTicketCommand(opts *RootOptions, open EnvOpener) *cobra.Command {
	var phone, numbersText string

	cmd := &cobra.Command{
		Use:   "issue-ticket",
		Short: "Issue a ticket in the current draw to the user with the given phone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var numbers lottery.Numbers
			if numbersText != "" {
				parsed, err := lottery.ParseNumbers(numbersText)
				if err != nil {
					return err
				}
				numbers = parsed
			}

			env, err := open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			users := user.NewRepository(env.DB)
			u, err := users.FindByPhone(ctx, user.NormalizePhone(phone))
			if err != nil {
				return fmt.Errorf("phone %s: %w", phone, err)
			}

			linker := user.NewLinker(users, env.API)
			t, err := ticket.NewIssuer(env.DB, env.API, linker, env.Rules).Issue(ctx, u, numbers)
			if err != nil {
				return err
			}
			if t == nil {
				return output(cmd.OutOrStdout(), opts, nil, "ticket requested, not materialised yet")
			}
			return output(cmd.OutOrStdout(), opts, t,
				fmt.Sprintf("issued ticket %d in draw %d (%s), %d available", t.ExternalID, t.DrawID, t.Status, u.AvailableTickets))
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "phone of a registered user")
	cmd.Flags().StringVar(&numbersText, "numbers", "", "optional pre-filled numbers, e.g. \"1 5 12 23 34 45\"")
	_ = cmd.MarkFlagRequired("phone")
	return cmd
}
