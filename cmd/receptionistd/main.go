// receptionistd is the tennis club's AI voice receptionist: it answers the
// club's phone number via the telephony provider's webhooks, bridges each
// caller to a realtime speech session, and serves the dashboard API.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/brandonreznik00/tennis-voice-ai/internal/config"
	"github.com/brandonreznik00/tennis-voice-ai/internal/httpapi"
	"github.com/brandonreznik00/tennis-voice-ai/internal/notifier"
	"github.com/brandonreznik00/tennis-voice-ai/internal/realtime"
	"github.com/brandonreznik00/tennis-voice-ai/internal/registry"
	"github.com/brandonreznik00/tennis-voice-ai/internal/relay"
	"github.com/brandonreznik00/tennis-voice-ai/internal/store"
	"github.com/brandonreznik00/tennis-voice-ai/internal/twilio"
)

const realtimeEndpoint = "https://api.openai.com"

func main() {
	cfgPath := flag.String("config", "/etc/receptionistd.yaml", "config file path")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}

	st := store.NewMemStore()
	reg := registry.New()
	hub := notifier.NewHub(log.With().Str("component", "notifier").Logger())
	rest := twilio.NewRestClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken)

	speechLog := log.With().Str("component", "realtime").Logger()
	dialSpeech := func(ctx context.Context) (relay.SpeechSession, error) {
		return realtime.Dial(ctx, realtime.Config{
			Endpoint:    realtimeEndpoint,
			Model:       cfg.OpenAI.Model,
			Credential:  realtime.Bearer(cfg.OpenAI.APIKey),
			DialTimeout: 10 * time.Second,
			Logger: func(event string, fields map[string]any) {
				speechLog.Debug().Fields(fields).Msg(event)
			},
		})
	}

	rel := relay.New(st, reg, hub, dialSpeech,
		rest, log.With().Str("component", "relay").Logger(),
		relay.Config{
			SettleDelay: cfg.SettleDelay(),
			IdleTimeout: cfg.IdleTimeout(),
		})
	hub.SetController(rel)

	router := httpapi.NewRouter(httpapi.Deps{
		Log:         log.With().Str("component", "http").Logger(),
		Store:       st,
		Hub:         hub,
		MediaStream: rel.HandleMediaStream,
		StreamURL:   cfg.StreamURL(),
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
		// No read/write timeouts: both WebSocket endpoints stay open for
		// the duration of a call or dashboard session.
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("receptionist listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("server shutdown")
	}
}
