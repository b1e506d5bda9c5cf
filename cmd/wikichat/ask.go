package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/thinkscotty/wikichat/internal/assistant"
	"github.com/thinkscotty/wikichat/internal/terminal"
)

var flagSpeak bool

var askCmd = &cobra.Command{
	Use:   "ask QUERY...",
	Short: "Answer a single question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&flagSpeak, "speak", false, "read the answer aloud with the local voice")
}

func runAsk(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer e.Close()

	opts := assistantOptions(e.cfg, e.voicePrefs(), e.journal())
	opts.StatusDelay = 0
	opts.CharDelay = 0

	var synth assistant.Synthesizer
	if flagSpeak {
		synth = localSynthesizer(e.cfg.Narration)
		opts.VoiceEnabled = true
	}

	a := assistant.New(e.provider, synth, nil, terminal.NewPrinter(cmd.OutOrStdout()), opts)
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if !a.Orchestrator.Submit(ctx, strings.Join(args, " ")) {
		return errors.New("query is empty")
	}
	if synth != nil {
		waitForNarration(ctx, a.Narrator, synth)
	}
	return nil
}

// waitForNarration blocks until the answer has been read out. The platform
// is asked too since the start callback may not have fired yet.
func waitForNarration(ctx context.Context, n *assistant.Narrator, synth assistant.Synthesizer) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for n.Speaking() || synth.Speaking() {
		select {
		case <-ctx.Done():
			n.Stop()
			return
		case <-ticker.C:
		}
	}
}
