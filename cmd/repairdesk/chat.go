package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hrygo/repairdesk/plugin/support/channel"
	"github.com/hrygo/repairdesk/plugin/support/timeline"
	"github.com/hrygo/repairdesk/server/gateway"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the repair assistant",
	Long: `Starts an interactive chat. Each line is sent as one message.
The conversation is kept in local state and restored on the next run.
Type /quit to leave; replies still in flight are awaited before exit.`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	st, identity, err := openIdentity()
	if err != nil {
		return err
	}
	defer st.Close()

	sessionID := identity.GetOrCreate(ctx)
	tl := timeline.New(sessionID)
	persister := timeline.NewPersister(st, slog.Default())
	if _, err := persister.Restore(ctx, tl); err != nil {
		slog.Warn("failed to restore conversation", "session_id", sessionID, "error", err)
	}
	for _, m := range tl.All() {
		printMessage(out, m)
	}
	tl.OnAppend(func(m timeline.Message) {
		if m.Sender != timeline.SenderUser {
			printMessage(out, m)
		}
	})
	persister.Attach(tl)

	ch := channel.New(gateway.NewClientFromProfile(instanceProfile), identity, tl)
	if tl.IsEmpty() {
		// Failure is logged by the channel and does not block sending.
		_ = ch.Start(ctx)
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "/quit" {
			break
		}
		if line == "" {
			continue
		}
		if _, err := ch.Send(ctx, line); err != nil {
			fmt.Fprintln(out, userMessage(err))
		}
	}

	ch.Wait()
	return scanner.Err()
}

func printMessage(w io.Writer, m timeline.Message) {
	label := map[timeline.Sender]string{
		timeline.SenderUser:   "あなた",
		timeline.SenderAI:     "AI",
		timeline.SenderSystem: "システム",
	}[m.Sender]
	fmt.Fprintf(w, "[%s] %s\n", label, m.Text)
}
