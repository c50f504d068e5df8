package main

import (
	"github.com/spf13/cobra"
)

func executeCLI() error {
	rootCmd := buildRootCommand()
	return rootCmd.Execute()
}

func buildRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ritmo",
		Short: "Ritmo - empathetic companion gateway",
		Long: `Ritmo decides when to speak, when to wait, and when to stay silent.

It watches each user's behavioral signals, assesses abandonment risk,
and orchestrates replies, habit nudges, and proactive check-ins across
delivery channels.`,
		Version:       formatVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddCommand(
		newOnboardCommand(),
		newChatCommand(),
		newProfileCommand(),
		newCheckInCommand(),
		newGatewayCommand(),
		newStatusCommand(),
		newVersionCommand(),
	)

	return rootCmd
}

func newOnboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "onboard",
		Short: "Create the default configuration",
		Long:  "Writes ~/.ritmo/config.json and prepares the workspace directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return onboard()
		},
	}
}

func newChatCommand() *cobra.Command {
	var (
		userID  string
		message string
		debug   bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the companion from the terminal",
		Long: `Runs the full evaluation pipeline for a registered user. Without
-m the session is interactive.`,
		Example: `  ritmo chat --user u-ana
  ritmo chat --user u-ana -m "me siento agotado"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return chatCmd(userID, message, debug)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "profile id of the user chatting")
	cmd.Flags().StringVarP(&message, "message", "m", "", "send one message and exit")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	return cmd
}

func newProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage user profiles",
	}

	var (
		id      string
		name    string
		stage   string
		tz      string
		channel string
		chatID  string
		mode    string
	)

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Register or update a user profile",
		Example: `  ritmo profile add --name Ana --stage young_adult --timezone Europe/Madrid
  ritmo profile add --id u-1 --name Elena --stage older_adult --timezone America/Mexico_City --channel discord --chat-id 1234`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return profileAdd(id, name, stage, tz, channel, chatID, mode)
		},
	}
	addCmd.Flags().StringVar(&id, "id", "", "profile id (generated when empty)")
	addCmd.Flags().StringVar(&name, "name", "", "display name used in replies")
	addCmd.Flags().StringVar(&stage, "stage", "", "life stage: older_adult, working_adult, young_adult, migrant, visually_impaired")
	addCmd.Flags().StringVar(&tz, "timezone", "UTC", "IANA timezone, e.g. Europe/Madrid")
	addCmd.Flags().StringVar(&channel, "channel", "cli", "preferred delivery channel")
	addCmd.Flags().StringVar(&chatID, "chat-id", "direct", "chat id on the delivery channel")
	addCmd.Flags().StringVar(&mode, "mode", "text", "communication mode: text, audio, mixed")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("stage")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return profileList()
		},
	}

	cmd.AddCommand(addCmd, listCmd)
	return cmd
}

func newCheckInCommand() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "checkin <good|neutral|difficult>",
		Short: "Record a daily check-in for a user",
		Example: `  ritmo checkin good --user u-ana
  ritmo checkin difficult --user u-ana`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkIn(userID, args[0])
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "profile id of the user checking in")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newGatewayCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Run the companion gateway",
		Long: `Starts the delivery channels, the companion loop, the proactive
scheduler, and the health endpoints, then blocks until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return gatewayCmd(debug)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return statusCmd()
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion()
		},
	}
}
