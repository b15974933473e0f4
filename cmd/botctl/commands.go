package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/himarplupi/bot-himarpl/internal/config"
	"github.com/himarplupi/bot-himarpl/internal/secret"
	"github.com/himarplupi/bot-himarpl/internal/telegram"
)

type loadFunc func(ctx context.Context) (*config.Config, error)

var flagVerbose bool

func newRootCmd(load loadFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "botctl",
		Short: "Manage the HIMARPL Telegram bot registration",
		Long: `Operator commands for the HIMARPL bot: derive the webhook secret token,
register or remove the webhook and publish the command list.
Configuration is read from the same environment as the bot server.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(
		newSecretTokenCmd(load),
		newWebhookCmd(load),
		newCommandsCmd(load),
	)
	return cmd
}

func newSecretTokenCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "secret-token",
		Short: "Print the webhook secret token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadTelegramConfig(cmd.Context(), load)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), secret.Derive(conf.TelegramBotToken, conf.TelegramBotUsername, conf.TelegramBotSecret))
			return nil
		},
	}
}

func newWebhookCmd(load loadFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Register or remove the webhook",
	}

	set := &cobra.Command{
		Use:   "set <base-url>",
		Short: "Register <base-url>" + telegram.WebhookPath + " as the webhook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, bot, err := newBot(cmd, load)
			if err != nil {
				return err
			}

			token := secret.Derive(conf.TelegramBotToken, conf.TelegramBotUsername, conf.TelegramBotSecret)
			url, err := bot.SetWebhook(args[0], token)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Webhook set to %s\n", url)
			return nil
		},
	}

	var dropPending bool
	del := &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, bot, err := newBot(cmd, load)
			if err != nil {
				return err
			}
			if err := bot.DeleteWebhook(dropPending); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Webhook deleted")
			return nil
		},
	}
	del.Flags().BoolVar(&dropPending, "drop-pending", false, "Drop updates waiting for delivery")

	cmd.AddCommand(set, del)
	return cmd
}

func newCommandsCmd(load loadFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commands",
		Short: "Publish or remove the bot command list",
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Replace the registered commands with the bot's command table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, bot, err := newBot(cmd, load)
			if err != nil {
				return err
			}

			cmds, err := bot.SetCommands()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Commands set:")
			for _, c := range cmds {
				fmt.Fprintf(out, "  /%s - %s\n", c.Text, c.Description)
			}
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete",
		Short: "Remove the registered commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, bot, err := newBot(cmd, load)
			if err != nil {
				return err
			}
			if err := bot.DeleteCommands(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Commands deleted")
			return nil
		},
	}

	cmd.AddCommand(set, del)
	return cmd
}

func loadTelegramConfig(ctx context.Context, load loadFunc) (*config.Config, error) {
	conf, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := conf.ValidateTelegram(); err != nil {
		return nil, err
	}
	return conf, nil
}

func newBot(cmd *cobra.Command, load loadFunc) (*config.Config, *telegram.Bot, error) {
	conf, err := loadTelegramConfig(cmd.Context(), load)
	if err != nil {
		return nil, nil, err
	}

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token:  conf.TelegramBotToken,
		APIURL: conf.TelegramBotAPIURL,
	}, newLogger(cmd))
	if err != nil {
		return nil, nil, err
	}
	return conf, bot, nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
