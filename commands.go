package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bgc-assistant/internal/assistant"
	"bgc-assistant/internal/config"
	"bgc-assistant/internal/conversation"
	"bgc-assistant/internal/ui"
)

// newAskCommand answers one question and exits
func newAskCommand(cfg *config.Config) *cobra.Command {
	var voice bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			display := ui.NewDisplay()
			session := a.session

			if banner := session.Startup(ctx); banner != "" {
				display.PrintWarning(banner)
			}
			if session.Store().Active() == "" {
				session.NewConversation()
			}

			question := strings.Join(args, " ")
			start := time.Now()
			var res assistant.TurnResult
			if voice {
				res = session.SubmitVoice(ctx, question)
			} else {
				res = session.SubmitText(ctx, question)
			}
			display.PrintTurn(res, time.Since(start), session.Language)
			if res.Failed() {
				return fmt.Errorf("question could not be answered")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&voice, "voice", false, "Treat the question as a speech transcript")
	return cmd
}

// newHistoryCommand prints the conversations kept in the state file
func newHistoryCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "history [n]",
		Short: "List saved conversations, or print conversation n",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.StatePath == "" {
				return fmt.Errorf("no state file configured (use --state)")
			}

			store := conversation.NewStore(conversation.WithTitleBudget(cfg.TitleBudget))
			if err := store.RestoreSnapshot(cfg.StatePath); err != nil {
				return err
			}

			display := ui.NewDisplay()
			lang := cfg.InterfaceLanguage()
			if len(args) == 0 {
				display.PrintHistory(store.ListVisibleByDate(), store.Active(), lang)
				return nil
			}

			list := store.ListVisible()
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 || n > len(list) {
				return fmt.Errorf("conversation %q not found, %d available", args[0], len(list))
			}
			conv, err := store.Get(list[n-1].ID)
			if err != nil {
				return err
			}
			display.PrintConversation(conv, lang)
			return nil
		},
	}
}
