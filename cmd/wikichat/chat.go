package main

import (
	"fmt"
	"os"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/thinkscotty/wikichat/internal/assistant"
	"github.com/thinkscotty/wikichat/internal/terminal"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat in the terminal (default)",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	// The chat screen owns the terminal, so logs go to a file.
	logPath, err := xdg.StateFile("wikichat/wikichat.log")
	if err != nil {
		return fmt.Errorf("resolving log path: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()

	e, err := setup(logFile)
	if err != nil {
		return err
	}
	defer e.Close()

	sink := terminal.NewSink()
	synth := localSynthesizer(e.cfg.Narration)
	a := assistant.New(e.provider, synth, nil, sink, assistantOptions(e.cfg, e.voicePrefs(), e.journal()))
	defer a.Close()

	opts := terminal.Options{Assistant: a, Sink: sink}
	if e.db != nil {
		opts.Stats = e.db.GetStats
		opts.SavePrefs = e.db.SaveVoicePrefs
	}
	return terminal.Run(opts)
}
