package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"syscall"
	"time"

	"pt1/agent/internal/client"
	"pt1/agent/internal/config"
	"pt1/agent/internal/logger"
	"pt1/agent/internal/runner"
	"pt1/agent/internal/state"
	"pt1/agent/internal/transcript"
)

const terminateCommand = "__terminate__"

func main() {
	cfgPath := flag.String("config", "config/agent.yaml", "Path to configuration file")
	flag.Parse()

	cfg := config.Init(*cfgPath)
	_ = logger.Init(cfg.LogPath)

	if cfg.RootToken == "" {
		logger.L.Fatal().Msg("no root token configured, set agent.root_token or PT1_API_TOKEN")
	}

	hostname, _ := os.Hostname()
	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	state.SetClientID(cfg.ClientID)

	api := client.New(config.ServerURL())
	if err := authenticate(api, cfg.RootToken); err != nil {
		logger.L.Fatal().Err(err).Msg("token exchange failed")
	}
	stableID, err := api.Register(cfg.ClientID, hostname, username)
	if err != nil {
		logger.L.Fatal().Err(err).Msg("registration failed")
	}
	logger.L.Info().Str("stable_id", stableID).Str("server", config.ServerURL()).Msg("agent registered")

	tw, err := transcript.New(cfg.TranscriptDir)
	if err != nil {
		logger.L.Warn().Err(err).Msg("transcript disabled")
		tw = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	poll(ctx, api, cfg, hostname, username, tw)

	if err := tw.Upload(api); err != nil {
		logger.L.Warn().Err(err).Msg("transcript upload failed")
	}
}

func authenticate(api *client.Client, rootToken string) error {
	token, err := api.Exchange(rootToken)
	if err != nil {
		return err
	}
	state.SetSessionToken(token)
	return nil
}

func poll(ctx context.Context, api *client.Client, cfg config.AppConfig, hostname, username string, tw *transcript.Writer) {
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.L.Info().Msg("agent shutting down")
			return
		case <-ticker.C:
		}

		command, commandID, err := api.NextCommand(cfg.ClientID, hostname, username)
		if err != nil {
			if errors.Is(err, client.ErrUnauthorized) {
				// session expired, mint a new one
				if err := authenticate(api, cfg.RootToken); err != nil {
					logger.L.Error().Err(err).Msg("re-exchange failed")
				}
				continue
			}
			logger.L.Error().Err(err).Msg("poll failed")
			continue
		}
		if command == "" {
			continue
		}

		if command == terminateCommand {
			logger.L.Info().Str("command_id", commandID).Msg("termination requested")
			tw.Append(commandID, command, "completed", "agent terminated")
			_ = api.SubmitResult(commandID, "agent terminated", "completed", "text")
			return
		}

		logger.L.Info().Str("command_id", commandID).Str("command", command).Msg("executing")
		res := runner.Run(ctx, command)
		tw.Append(commandID, command, res.Status, res.Output)
		if err := api.SubmitResult(commandID, res.Output, res.Status, "text"); err != nil {
			if errors.Is(err, client.ErrUnauthorized) {
				if err := authenticate(api, cfg.RootToken); err == nil {
					err = api.SubmitResult(commandID, res.Output, res.Status, "text")
				}
			}
			if err != nil {
				logger.L.Error().Err(err).Str("command_id", commandID).Msg("submit result failed")
			}
		}
		shipOutbox(api, cfg.OutboxDir, commandID)
	}
}

// shipOutbox uploads any files a command dropped into the outbox directory
// and clears them so the next command starts empty.
func shipOutbox(api *client.Client, dir, commandID string) {
	if dir == "" {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return
	}
	if err := api.UploadFiles(commandID, paths); err != nil {
		logger.L.Error().Err(err).Str("command_id", commandID).Msg("file upload failed")
		return
	}
	for _, p := range paths {
		_ = os.Remove(p)
	}
	logger.L.Info().Int("files", len(paths)).Str("command_id", commandID).Msg("result files uploaded")
}
