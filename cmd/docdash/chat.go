package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/efecanulku/docdash/internal/view"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with your documents",
}

var chatSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List chat sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.ctrl.GoTo(cmd.Context(), view.SectionChat)
	},
}

var chatNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Start a named chat session",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.ctrl.Chat().CreateSession(cmd.Context(), strings.Join(args, " "))
	},
}

var chatSendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send a message, creating a session when none is given",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetInt("session")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if sessionID != 0 {
			if err := a.ctrl.LoadChatSessions(ctx); err != nil {
				return err
			}
			if err := a.ctrl.Chat().SelectSession(ctx, sessionID); err != nil {
				return err
			}
		}
		return a.ctrl.Chat().SendMessage(ctx, strings.Join(args, " "))
	},
}

var chatHistoryCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Show a session's transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if err := a.ctrl.LoadChatSessions(ctx); err != nil {
			return err
		}
		return a.ctrl.Chat().SelectSession(ctx, id)
	},
}

var chatDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a chat session and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.ctrl.Chat().DeleteSession(cmd.Context(), id)
	},
}

var chatRenameCmd = &cobra.Command{
	Use:   "rename <session-id> <name>",
	Short: "Rename a chat session",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.ctrl.Chat().RenameSession(cmd.Context(), id, strings.Join(args[1:], " "))
	},
}

func init() {
	chatSendCmd.Flags().Int("session", 0, "session id to continue (0 starts a new one)")
	chatCmd.AddCommand(chatSessionsCmd)
	chatCmd.AddCommand(chatNewCmd)
	chatCmd.AddCommand(chatSendCmd)
	chatCmd.AddCommand(chatHistoryCmd)
	chatCmd.AddCommand(chatDeleteCmd)
	chatCmd.AddCommand(chatRenameCmd)
}
