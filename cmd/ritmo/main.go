package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/ritmolabs/ritmo/pkg/bus"
	"github.com/ritmolabs/ritmo/pkg/channels"
	"github.com/ritmolabs/ritmo/pkg/config"
	"github.com/ritmolabs/ritmo/pkg/conversation"
	"github.com/ritmolabs/ritmo/pkg/habits"
	"github.com/ritmolabs/ritmo/pkg/health"
	"github.com/ritmolabs/ritmo/pkg/logger"
	"github.com/ritmolabs/ritmo/pkg/loop"
	"github.com/ritmolabs/ritmo/pkg/memory"
	"github.com/ritmolabs/ritmo/pkg/orchestrator"
	"github.com/ritmolabs/ritmo/pkg/profile"
	"github.com/ritmolabs/ritmo/pkg/providers"
	"github.com/ritmolabs/ritmo/pkg/risk"
	"github.com/ritmolabs/ritmo/pkg/scheduler"
	"github.com/ritmolabs/ritmo/pkg/signals"
)

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

const appName = "ritmo"

func main() {
	if err := executeCLI(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

func printVersion() {
	fmt.Printf("%s %s\n", appName, formatVersion())
	if buildTime != "" {
		fmt.Printf("  Build: %s\n", buildTime)
	}
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	fmt.Printf("  Go: %s\n", goVer)
}

func getConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".ritmo", "config.json")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// engine bundles the assembled evaluation pipeline and its stores.
type engine struct {
	cfg      *config.Config
	bus      *bus.MessageBus
	profiles *profile.SQLiteStore
	loop     *loop.Loop
	closers  []func() error
}

func (e *engine) Close() {
	for _, closer := range e.closers {
		_ = closer()
	}
}

// buildEngine wires stores, agents, and the companion loop. requireKey
// controls whether a missing provider API key is fatal; the chat command
// can run fallback-only for local smoke tests, the gateway cannot.
func buildEngine(cfg *config.Config, requireKey bool) (*engine, error) {
	quietStart, err := config.ParseClockTime(cfg.Orchestrator.QuietHoursStart)
	if err != nil {
		return nil, err
	}
	quietEnd, err := config.ParseClockTime(cfg.Orchestrator.QuietHoursEnd)
	if err != nil {
		return nil, err
	}

	stateDir := filepath.Join(cfg.WorkspacePath(), "state")

	profiles, err := profile.NewSQLiteStore(filepath.Join(stateDir, "profiles.db"))
	if err != nil {
		return nil, err
	}
	signalStore, err := signals.NewSQLiteStore(filepath.Join(stateDir, "signals.db"))
	if err != nil {
		profiles.Close()
		return nil, err
	}
	memStore, err := memory.NewSQLiteStore(filepath.Join(stateDir, "memory.db"))
	if err != nil {
		profiles.Close()
		signalStore.Close()
		return nil, err
	}
	habitStore, err := habits.NewSQLiteStore(filepath.Join(stateDir, "habits.db"))
	if err != nil {
		profiles.Close()
		signalStore.Close()
		memStore.Close()
		return nil, err
	}

	var provider providers.LLMProvider
	provider, err = providers.CreateProvider(cfg)
	if err != nil {
		if requireKey {
			profiles.Close()
			signalStore.Close()
			memStore.Close()
			habitStore.Close()
			return nil, err
		}
		logger.WarnC("cli", "No provider configured, replies use the fallback catalog")
		provider = nil
	}

	predictorOpts := []risk.PredictorOption{
		risk.WithInactivityHighDays(cfg.Orchestrator.InactivityHighDays),
	}
	if strings.TrimSpace(cfg.Classifier.URL) != "" {
		predictorOpts = append(predictorOpts, risk.WithClassifier(
			risk.NewHTTPClassifier(cfg.Classifier.URL, time.Duration(cfg.Classifier.TimeoutSeconds)*time.Second),
		))
	}

	msgBus := bus.NewMessageBus()
	companionLoop := loop.New(loop.Options{
		Bus:        msgBus,
		Profiles:   profiles,
		Signals:    signalStore,
		Memory:     memStore,
		Predictor:  risk.NewPredictor(predictorOpts...),
		HabitAgent: habits.NewAgent(habitStore, time.Duration(cfg.Habits.CooldownDays)*24*time.Hour),
		Conversation: conversation.NewAgent(
			provider, cfg.Companion.Model, cfg.Companion.MaxTokens, cfg.Companion.ReplyWordCap),
		Orchestrator: orchestrator.New(orchestrator.QuietHours{Start: quietStart, End: quietEnd}),
		MemoryDepth:  cfg.Companion.MemoryDepth,
		Lookback:     time.Duration(cfg.Orchestrator.LookbackDays) * 24 * time.Hour,
	})

	return &engine{
		cfg:      cfg,
		bus:      msgBus,
		profiles: profiles,
		loop:     companionLoop,
		closers: []func() error{
			profiles.Close, signalStore.Close, memStore.Close, habitStore.Close,
		},
	}, nil
}

func onboard() error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config already exists at %s\n", configPath)
		fmt.Print("Overwrite? (y/n): ")
		var response string
		if _, err := fmt.Scanln(&response); err != nil {
			fmt.Println("Aborted.")
			return nil
		}
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "y" && response != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if err := config.SaveConfig(configPath, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(cfg.WorkspacePath(), "state"), 0o755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	fmt.Printf("%s is ready!\n", appName)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Add your Anthropic API key to", configPath)
	fmt.Println("  2. (Gateway mode) Add your Discord bot token to channels.discord.token")
	fmt.Println("  3. Register a user: ritmo profile add --name Ana --stage young_adult --timezone Europe/Madrid")
	fmt.Println("  4. Chat locally: ritmo chat --user <id> -m \"hola\"")
	fmt.Println("  5. Run the gateway: ritmo gateway")
	return nil
}

func openProfileStore() (*profile.SQLiteStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return profile.NewSQLiteStore(filepath.Join(cfg.WorkspacePath(), "state", "profiles.db"))
}

func profileAdd(id, name, stage, tz, channel, chatID, mode string) error {
	profiles, err := openProfileStore()
	if err != nil {
		return err
	}
	defer profiles.Close()

	if id == "" {
		id = uuid.NewString()
	}
	lifeStage, err := profile.ParseLifeStage(stage)
	if err != nil {
		return err
	}
	if mode == "" {
		mode = string(profile.CommText)
	}

	prof := profile.UserProfile{
		ID:          id,
		LifeStage:   lifeStage,
		DisplayName: name,
		Channel:     channel,
		ChatID:      chatID,
		CommMode:    profile.CommMode(mode),
		Timezone:    tz,
	}
	if err := profiles.Upsert(context.Background(), prof); err != nil {
		return err
	}
	fmt.Printf("Profile saved: %s (%s, %s)\n", id, name, lifeStage)
	return nil
}

func profileList() error {
	profiles, err := openProfileStore()
	if err != nil {
		return err
	}
	defer profiles.Close()

	ctx := context.Background()
	ids, err := profiles.ListIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("No profiles registered.")
		return nil
	}
	for _, id := range ids {
		prof, err := profiles.Get(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %-20s %-18s %s\n", prof.ID, prof.DisplayName, prof.LifeStage, prof.Timezone)
	}
	return nil
}

func checkIn(userID, value string) error {
	checkInValue := signals.CheckInValue(strings.ToLower(strings.TrimSpace(value)))
	switch checkInValue {
	case signals.CheckInGood, signals.CheckInNeutral, signals.CheckInDifficult:
	default:
		return fmt.Errorf("check-in value must be good, neutral, or difficult")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	stateDir := filepath.Join(cfg.WorkspacePath(), "state")

	profiles, err := profile.NewSQLiteStore(filepath.Join(stateDir, "profiles.db"))
	if err != nil {
		return err
	}
	defer profiles.Close()
	signalStore, err := signals.NewSQLiteStore(filepath.Join(stateDir, "signals.db"))
	if err != nil {
		return err
	}
	defer signalStore.Close()

	ctx := context.Background()
	if _, err := profiles.Get(ctx, userID); err != nil {
		return err
	}

	if err := signalStore.Record(ctx, signals.Event{
		UserID:  userID,
		Kind:    signals.EventCheckIn,
		CheckIn: checkInValue,
	}); err != nil {
		return err
	}
	fmt.Printf("Check-in recorded for %s: %s\n", userID, checkInValue)
	return nil
}

func chatCmd(userID, message string, debug bool) error {
	if debug {
		logger.SetLevel(logger.DEBUG)
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("--user is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := buildEngine(cfg, false)
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx := context.Background()
	if _, err := eng.profiles.Get(ctx, userID); err != nil {
		return err
	}

	if strings.TrimSpace(message) != "" {
		reply, err := sendAndAwait(ctx, eng, userID, message)
		if err != nil {
			return err
		}
		fmt.Printf("\n%s %s\n", appName, reply)
		return nil
	}

	fmt.Printf("%s Interactive mode (Ctrl+C to exit)\n\n", appName)
	return interactiveMode(ctx, eng, userID)
}

// sendAndAwait pushes one message through the pipeline and waits for the
// reply on the outbound side of the bus.
func sendAndAwait(ctx context.Context, eng *engine, userID, message string) (string, error) {
	if err := eng.loop.HandleUserMessage(ctx, bus.InboundMessage{
		Channel:  "cli",
		SenderID: userID,
		ChatID:   "direct",
		Content:  message,
	}); err != nil {
		return "", err
	}

	waitCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	out, ok := eng.bus.SubscribeOutbound(waitCtx)
	if !ok {
		return "", fmt.Errorf("no reply produced")
	}
	return out.Content, nil
}

func interactiveMode(ctx context.Context, eng *engine, userID string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          fmt.Sprintf("%s You: ", appName),
		HistoryFile:     filepath.Join(os.TempDir(), ".ritmo_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initialize readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Goodbye!")
			return nil
		}

		reply, err := sendAndAwait(ctx, eng, userID, input)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Printf("\n%s %s\n\n", appName, reply)
	}
}

func gatewayCmd(debug bool) error {
	if debug {
		logger.SetLevel(logger.DEBUG)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng, err := buildEngine(cfg, true)
	if err != nil {
		return err
	}
	defer eng.Close()

	channelManager, err := channels.NewManager(cfg, eng.bus)
	if err != nil {
		return fmt.Errorf("create channel manager: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := channelManager.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}

	var proactive *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		proactive, err = scheduler.New(cfg.Scheduler.Cron, eng.loop, eng.profiles)
		if err != nil {
			channelManager.StopAll(ctx)
			return err
		}
		go proactive.Run(ctx)
		fmt.Printf("✓ Proactive scheduler started (%s)\n", cfg.Scheduler.Cron)
	}

	healthServer := health.NewServer(cfg.Gateway.Host, cfg.Gateway.Port)
	healthServer.Register("provider", func() error {
		if strings.TrimSpace(cfg.APIKey()) == "" {
			return fmt.Errorf("no api key")
		}
		return nil
	})
	healthServer.Register("profiles", func() error {
		_, err := eng.profiles.ListIDs(context.Background())
		return err
	})
	go func() {
		if err := healthServer.Start(); err != nil && err != http.ErrServerClosed {
			logger.ErrorCF("health", "Health server error", map[string]interface{}{"error": err.Error()})
		}
	}()
	fmt.Printf("✓ Health endpoints at http://%s:%d/health and /ready\n", cfg.Gateway.Host, cfg.Gateway.Port)

	go eng.loop.Run(ctx)

	fmt.Printf("✓ Gateway started on %s:%d\n", cfg.Gateway.Host, cfg.Gateway.Port)
	fmt.Println("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	<-sigChan

	fmt.Println("\nShutting down...")
	cancel()
	_ = healthServer.Stop(context.Background())
	_ = channelManager.StopAll(context.Background())
	eng.bus.Close()
	fmt.Println("✓ Gateway stopped")
	return nil
}

func statusCmd() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	configPath := getConfigPath()

	fmt.Printf("%s Status\n", appName)
	fmt.Printf("Version: %s\n\n", formatVersion())

	mark := func(ok bool) string {
		if ok {
			return "✓"
		}
		return "not set"
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("Config:", configPath, "✓")
	} else {
		fmt.Println("Config:", configPath, "✗")
	}

	workspace := cfg.WorkspacePath()
	if _, err := os.Stat(workspace); err == nil {
		fmt.Println("Workspace:", workspace, "✓")
	} else {
		fmt.Println("Workspace:", workspace, "✗")
	}

	fmt.Printf("Model: %s\n", cfg.Companion.Model)
	fmt.Printf("Quiet hours: %s-%s (per-user local time)\n",
		cfg.Orchestrator.QuietHoursStart, cfg.Orchestrator.QuietHoursEnd)

	apiReady := strings.TrimSpace(cfg.APIKey()) != ""
	discordReady := strings.TrimSpace(cfg.Channels.Discord.Token) != ""
	classifierSet := strings.TrimSpace(cfg.Classifier.URL) != ""

	fmt.Println("Anthropic API:", mark(apiReady))
	fmt.Println("Discord token:", mark(discordReady))
	if classifierSet {
		fmt.Println("Risk classifier:", cfg.Classifier.URL)
	} else {
		fmt.Println("Risk classifier: heuristic only")
	}
	fmt.Println("Gateway ready:", mark(apiReady))
	return nil
}
