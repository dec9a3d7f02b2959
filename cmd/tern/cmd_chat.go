package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wirebird/tern/messages"
	"github.com/wirebird/tern/pkg/stdx"
	"github.com/wirebird/tern/provider"
)

func init() {
	chatCmd.Flags().StringVarP(&chatProvider, "provider", "p", "", "provider to use (default: first configured)")
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "model override")
	chatCmd.Flags().StringVarP(&chatSystem, "system", "s", "", "system prompt")
	chatCmd.Flags().BoolVar(&chatFailover, "failover", false, "fall back to other providers on retryable failures")
	rootCmd.AddCommand(chatCmd)
}

var (
	chatProvider string
	chatModel    string
	chatSystem   string
	chatFailover bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Send a prompt and stream the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	reg := buildRegistry()
	if err := requireProviders(reg); err != nil {
		return err
	}
	if chatProvider != "" && !reg.SetActive(chatProvider) {
		return fmt.Errorf("unknown provider %q (configured: %s)", chatProvider, strings.Join(reg.Names(), ", "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req := &messages.ChatRequest{
		Messages:     []messages.ChatMessage{messages.User(strings.Join(args, " "))},
		Model:        chatModel,
		SystemPrompt: chatSystem,
	}

	if chatFailover {
		resp, err := reg.ChatWithFailover(ctx, req)
		if err != nil {
			return err
		}
		return renderFinal(resp.Provider, resp.Message.Content)
	}

	stream, err := reg.ChatStream(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprint(os.Stdout, color.MagentaString(reg.ActiveName())+": ")
	var final string
	for event := range stream.Events {
		switch ev := event.(type) {
		case provider.TextDelta:
			fmt.Fprint(os.Stdout, ev.Text)
		case provider.ToolUseStart:
			fmt.Fprintf(os.Stdout, "\n%s ", color.YellowString(ev.Name))
		case provider.ToolUseEnd:
			fmt.Fprintf(os.Stdout, "%s\n", ev.Input)
		case provider.MessageEnd:
			final = ev.Message.Content
		case provider.Error:
			fmt.Fprintln(os.Stdout)
			return ev.Err
		}
	}
	fmt.Fprintln(os.Stdout)

	if ctx.Err() != nil {
		fmt.Fprintln(os.Stdout, color.HiBlackString("(interrupted)"))
		return nil
	}
	if final != "" {
		out, err := glam.Render(final)
		if err != nil {
			return nil
		}
		fmt.Fprintln(os.Stdout, out)
	}
	return nil
}

func renderFinal(name, content string) error {
	fmt.Fprint(os.Stdout, color.MagentaString(name)+": ")
	out, err := glam.Render(content)
	if err != nil {
		fmt.Fprintln(os.Stdout, content)
		return nil
	}
	fmt.Fprintln(os.Stdout, out)
	return nil
}

var glam = stdx.Must1(glamour.NewTermRenderer(
	glamour.WithAutoStyle(),
))
