package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smartduck/wabot/bot"
	"github.com/smartduck/wabot/bot/kb"
	"github.com/smartduck/wabot/channel/whatsapp"
	"github.com/smartduck/wabot/internal/profile"
	"github.com/smartduck/wabot/internal/version"
	"github.com/smartduck/wabot/media"
	"github.com/smartduck/wabot/server"
)

var rootCmd = &cobra.Command{
	Use:   "wabot",
	Short: "WhatsApp assistant bot: classifies inbound messages against a knowledge base and replies with templated answers.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load .env from the working directory when present.
		_ = godotenv.Load()
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:    viper.GetString("mode"),
			Addr:    viper.GetString("addr"),
			Port:    viper.GetInt("port"),
			KBPath:  viper.GetString("kb"),
			Version: version.GetCurrentVersion(viper.GetString("mode")),
		}
		instanceProfile.FromEnv()
		setupLogger(instanceProfile)
		if err := instanceProfile.Validate(); err != nil {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}

		knowledge, err := loadKnowledgeBase(instanceProfile)
		if err != nil {
			// A broken knowledge base must not serve traffic.
			slog.Error("failed to load knowledge base", "error", err)
			os.Exit(1)
		}

		assistant := bot.New(knowledge, kb.Locale(instanceProfile.DefaultLocale))
		client := whatsapp.NewClient(
			instanceProfile.WhatsAppAPIBase,
			instanceProfile.WhatsAppPhoneNumberID,
			instanceProfile.WhatsAppToken,
		)
		transcriber := media.NewTranscriber(
			instanceProfile.STTProvider,
			instanceProfile.STTAPIKey,
			instanceProfile.STTBaseURL,
		)

		s := server.NewServer(instanceProfile, assistant, client, transcriber, nil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		c := make(chan os.Signal, 1)
		// Trigger graceful shutdown on SIGINT or SIGTERM.
		signal.Notify(c, terminationSignals...)
		go func() {
			<-c
			if err := s.Shutdown(ctx); err != nil {
				slog.Error("shutdown failed", "error", err)
			}
			cancel()
		}()

		printGreetings(instanceProfile)
		if err := s.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "error", err)
			cancel()
		}
		<-ctx.Done()
	},
}

func loadKnowledgeBase(p *profile.Profile) (*kb.KB, error) {
	if p.KBPath != "" {
		return kb.LoadFile(p.KBPath)
	}
	return kb.LoadDefault()
}

func setupLogger(p *profile.Profile) {
	level := slog.LevelInfo
	if p.IsDev() {
		level = slog.LevelDebug
	}
	var handler slog.Handler
	if p.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func printGreetings(p *profile.Profile) {
	fmt.Printf("wabot %s started successfully!\n", p.Version)
	if p.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
	}
	fmt.Printf("Mode: %s\n", p.Mode)
	if p.Addr == "" {
		fmt.Printf("Webhook listening on port %d\n", p.Port)
	} else {
		fmt.Printf("Webhook listening on %s:%d\n", p.Addr, p.Port)
	}
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("port", 3000)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 3000, "port of server")
	rootCmd.PersistentFlags().String("kb", "", "path to the knowledge base JSON file (default: embedded dataset)")

	for _, flag := range []string{"mode", "addr", "port", "kb"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
