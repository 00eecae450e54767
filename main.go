package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"bgc-assistant/internal/assistant"
	"bgc-assistant/internal/classifier"
	"bgc-assistant/internal/config"
	"bgc-assistant/internal/conversation"
	"bgc-assistant/internal/llm"
	"bgc-assistant/internal/locale"
	"bgc-assistant/internal/metrics"
	"bgc-assistant/internal/ollama"
	"bgc-assistant/internal/pdf"
	"bgc-assistant/internal/retriever"
	"bgc-assistant/internal/terminal"
	"bgc-assistant/internal/ui"
)

func main() {
	// Set the GetEnv function for config
	config.GetEnv = os.Getenv

	cfg := config.NewConfig()
	cfg.LoadEnv(".env")
	if err := loadConfigFile(cfg, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	rootCmd := newRootCommand(cfg)
	rootCmd.AddCommand(
		newAskCommand(cfg),
		newHistoryCommand(cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	var closeLog func()

	cmd := &cobra.Command{
		Use:   "bgc-assistant",
		Short: "Question answering over the Basrah Gas Company knowledge base",
		Long: `bgc-assistant answers questions about Basrah Gas Company from its PDF
knowledge base, in English or Arabic, citing and rendering the pages used.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			var err error
			closeLog, err = cfg.ConfigureLogging()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if closeLog != nil {
				closeLog()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), cfg)
		},
	}

	cmd.PersistentFlags().String("config", "", "YAML configuration file, applied before flags")
	cfg.BindFlags(cmd.PersistentFlags())
	return cmd
}

// loadConfigFile applies --config ahead of cobra so flags keep precedence
func loadConfigFile(cfg *config.Config, args []string) error {
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	path := fs.String("config", "", "")
	_ = fs.Parse(args)

	if *path == "" {
		return nil
	}
	return cfg.LoadFile(*path)
}

// app holds the wired session of one process
type app struct {
	session *assistant.Session
	model   string
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	generator, model, err := newGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store := conversation.NewStore(conversation.WithTitleBudget(cfg.TitleBudget))
	if cfg.StatePath != "" {
		if err := store.RestoreSnapshot(cfg.StatePath); err != nil {
			log.WithError(err).WithField("path", cfg.StatePath).Warn("failed to restore conversations, starting empty")
		}
	}

	var retr assistant.Retriever
	if cfg.RetrieverURL != "" {
		retr = retriever.NewClient(cfg.RetrieverURL, cfg.RetrieverTimeout, cfg.TopK)
	}

	bases := map[locale.Language]assistant.KnowledgeBase{}
	for lang, kb := range cfg.KnowledgeBasesByLanguage() {
		bases[lang] = assistant.KnowledgeBase{Index: kb.Index, PDF: kb.PDF}
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	session := assistant.NewSession(assistant.Options{
		Store:          store,
		Assembler:      assistant.NewAssembler(generator),
		Retriever:      retr,
		Classifier:     classifier.New(),
		Renderer:       pdf.NewRenderer(cfg.PdftoppmPath, cfg.ScreenshotDir, cfg.RenderScale),
		KnowledgeBases: bases,
		Metrics:        m,
		Language:       cfg.InterfaceLanguage(),
		StatePath:      cfg.StatePath,
	})

	return &app{session: session, model: model}, nil
}

// newGenerator picks the language model provider
func newGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, string, error) {
	if cfg.Provider != config.ProviderOllama {
		client := llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.APIKey, cfg.ModelName, cfg.LLMTimeout, cfg.MaxRetries)
		return client, client.Model(), nil
	}

	client := ollama.NewClient(cfg.OllamaURL, cfg.ModelName, cfg.LLMTimeout)
	if err := client.HealthCheck(ctx); err != nil {
		return nil, "", fmt.Errorf("%w (make sure Ollama is running: ollama serve)", err)
	}
	if err := client.CheckModel(ctx); err != nil {
		return nil, "", err
	}
	return client, client.Model(), nil
}

// runChat is the interactive conversation loop
func runChat(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	display := ui.NewDisplay()

	a, err := newApp(ctx, cfg)
	if err != nil {
		display.PrintError(err)
		return err
	}
	session := a.session
	store := session.Store()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
		display.StopSpinner()
		display.PrintInfo("\nShutting down gracefully...")
		os.Exit(0)
	}()

	display.PrintWelcome(a.model, session.Language)
	startup(ctx, display, session)

	if store.Active() == "" {
		session.NewConversation()
	}

	input := terminal.NewInput(os.Stdin)
	interactive := terminal.IsTerminal()
	for {
		if interactive {
			display.PrintPrompt(session.Language)
		}
		line, err := input.ReadUserInput()
		if err != nil {
			break
		}

		cmd := terminal.ParseCommand(line)
		lang := session.Language
		switch cmd.Kind {
		case terminal.CmdExit:
			display.PrintGoodbye()
			return nil
		case terminal.CmdClear:
			display.ClearScreen()
			display.PrintWelcome(a.model, lang)
		case terminal.CmdHelp:
			display.PrintWelcome(a.model, lang)
		case terminal.CmdNew:
			session.NewConversation()
			display.PrintSuccess(lang.T(locale.NewConversation))
		case terminal.CmdHistory:
			display.PrintHistory(store.ListVisibleByDate(), store.Active(), lang)
		case terminal.CmdOpen:
			openConversation(display, session, cmd.Arg)
		case terminal.CmdReset:
			display.PrintSuccess(session.Reset())
			session.NewConversation()
		case terminal.CmdLang:
			newLang, err := locale.Parse(cmd.Arg)
			if err != nil {
				display.PrintWarning(err.Error())
				continue
			}
			session.SetLanguage(newLang)
			startup(ctx, display, session)
			display.PrintInfo(fmt.Sprintf("Language: %s", newLang))
		case terminal.CmdVoice:
			runTurn(ctx, display, session, cmd.Arg, true)
		case terminal.CmdUnknown:
			display.PrintWarning(fmt.Sprintf("Unknown command %s (try /help)", cmd.Name))
		default:
			if line == "" {
				continue
			}
			runTurn(ctx, display, session, line, false)
		}
	}

	// Print goodbye message
	display.PrintGoodbye()
	return nil
}

// startup checks the knowledge base, showing the loading banner meanwhile
func startup(ctx context.Context, display *ui.Display, session *assistant.Session) {
	display.ShowSpinner(session.Language.T(locale.LoadingIndex))
	banner := session.Startup(ctx)
	display.StopSpinner()
	if banner != "" {
		display.PrintWarning(banner)
	}
}

func runTurn(ctx context.Context, display *ui.Display, session *assistant.Session, question string, voice bool) {
	if question == "" {
		return
	}
	lang := session.Language
	start := time.Now()
	display.PrintUserMessage(question, start, voice, lang)

	display.ShowSpinner("...")
	var res assistant.TurnResult
	if voice {
		res = session.SubmitVoice(ctx, question)
	} else {
		res = session.SubmitText(ctx, question)
	}
	display.StopSpinner()

	display.PrintTurn(res, time.Since(start), lang)
}

// openConversation switches to the nth conversation of the history listing
func openConversation(display *ui.Display, session *assistant.Session, arg string) {
	lang := session.Language
	list := session.Store().ListVisible()
	if len(list) == 0 {
		display.PrintInfo(lang.T(locale.NoHistory))
		return
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(list) {
		display.PrintWarning(fmt.Sprintf("Choose a conversation between 1 and %d (see /history)", len(list)))
		return
	}

	id := list[n-1].ID
	if err := session.SelectConversation(id); err != nil {
		display.PrintError(err)
		return
	}
	conv, err := session.Store().Get(id)
	if err != nil {
		display.PrintError(err)
		return
	}
	display.PrintConversation(conv, lang)
}
