// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/peterh/liner"

	"github.com/jeranaias/botline/internal/config"
	"github.com/jeranaias/botline/internal/export"
	"github.com/jeranaias/botline/internal/model"
	"github.com/jeranaias/botline/internal/service"
	"github.com/jeranaias/botline/internal/storage"
	"github.com/jeranaias/botline/internal/store"
	"github.com/jeranaias/botline/internal/util"
)

// =============================================================================
// LINE INPUT
// =============================================================================

// lineReader is the REPL input. liner backs it on a terminal; piped input
// uses the App's reader.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// historyFileName lives in the config directory.
const historyFileName = "chat_history"

// maxHistoryEntries bounds the saved history.
const maxHistoryEntries = 500

var slashCommands = []string{"/help", "/clear", "/quota", "/rate", "/quit", "/exit"}

type linerReader struct {
	state *liner.State
	path  string
}

func newLinerReader() *linerReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(func(line string) []string {
		if !strings.HasPrefix(line, "/") {
			return nil
		}
		var out []string
		for _, c := range slashCommands {
			if strings.HasPrefix(c, line) {
				out = append(out, c)
			}
		}
		return out
	})

	r := &linerReader{state: state}
	if dir, err := config.ConfigDir(); err == nil {
		r.path = filepath.Join(dir, historyFileName)
		if f, err := os.Open(r.path); err == nil {
			state.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	return r.state.Prompt(prompt)
}

func (r *linerReader) AppendHistory(item string) {
	r.state.AppendHistory(item)
}

// Close saves the history with owner-only permissions and restores the
// terminal.
func (r *linerReader) Close() error {
	var err error
	if r.path != "" {
		var buf bytes.Buffer
		if _, werr := r.state.WriteHistory(&buf); werr == nil {
			err = util.AtomicWriteFile(r.path, trimHistory(buf.Bytes(), maxHistoryEntries), 0600)
		}
	}
	if cerr := r.state.Close(); err == nil {
		err = cerr
	}
	return err
}

// trimHistory keeps the last n lines.
func trimHistory(data []byte, n int) []byte {
	lines := bytes.SplitAfter(data, []byte("\n"))
	if len(lines) > 0 && len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}
	if len(lines) <= n {
		return data
	}
	return bytes.Join(lines[len(lines)-n:], nil)
}

// pipeReader reads one line per prompt without echoing the prompt.
type pipeReader struct {
	app *App
}

func (r pipeReader) Prompt(string) (string, error) {
	line, err := r.app.readLine()
	if errors.Is(err, ErrNoInput) {
		return "", io.EOF
	}
	return line, err
}

func (pipeReader) AppendHistory(string) {}

func (pipeReader) Close() error { return nil }

func (a *App) newLineReader() lineReader {
	if isTerminal(a.IO.In) && isTerminal(a.IO.Out) {
		return newLinerReader()
	}
	return pipeReader{app: a}
}

// =============================================================================
// CHAT REPL
// =============================================================================

type chatSummary struct {
	Sent      int    `json:"sent"`
	SessionID string `json:"session_id,omitempty"`
}

// handleChat runs the interactive chat loop.
func (a *App) handleChat(ctx context.Context, args Args) (any, error) {
	if a.JSON {
		return nil, NewValidationErrorWithExample("json", "", "chat is interactive", `botline ask --json "hello"`)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	md := newMarkdown(a.Config.UI.Markdown, a.Config.UI.Theme, a.IO.Out)
	changed := a.watchState(ctx)

	lr := a.newLineReader()
	defer func() {
		if err := lr.Close(); err != nil {
			a.Logger.WithError(err).Warn("failed to save chat history")
		}
	}()

	a.printChatBanner()

	sent := 0
	for ctx.Err() == nil {
		line, err := lr.Prompt(a.chatPrompt())
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lr.AppendHistory(line)

		if changed.Swap(false) {
			a.resyncIdentity(ctx)
		}

		if strings.HasPrefix(line, "/") {
			quit, err := a.chatCommand(ctx, line)
			if err != nil {
				DisplayError(a.IO.Out, CmdChat.String(), err, false)
			}
			if quit {
				break
			}
			continue
		}

		if err := a.sendAndPrint(ctx, line, md); err != nil {
			DisplayError(a.IO.Out, CmdChat.String(), err, false)
			if errors.Is(err, store.ErrGuestLimitReached) {
				fmt.Fprintln(a.IO.Out, DimStyle.Render("Run `botline register` or `botline login` to keep chatting."))
			}
			continue
		}
		sent++
	}

	return chatSummary{Sent: sent, SessionID: a.Stores.Chat.CurrentSession()}, nil
}

// watchState follows writes to a file-backed state store by other botline
// processes. The returned flag is raised after each change.
func (a *App) watchState(ctx context.Context) *atomic.Bool {
	changed := &atomic.Bool{}
	fs, ok := storage.AsFileStore(a.Backend)
	if !ok {
		return changed
	}
	err := fs.Watch(ctx, func() {
		a.Logger.Debug("local state changed by another process")
		changed.Store(true)
	})
	if err != nil {
		a.Logger.WithError(err).Warn("cannot watch local state")
	}
	return changed
}

// resyncIdentity picks up a login or logout made in another terminal.
func (a *App) resyncIdentity(ctx context.Context) {
	before := a.Stores.Auth.IsAuthenticated()
	after := a.Stores.Auth.Resync(ctx)
	if before != after {
		if after {
			fmt.Fprintln(a.IO.Out, DimStyle.Render("Signed in from another terminal as "+a.identityName()+"."))
		} else {
			fmt.Fprintln(a.IO.Out, DimStyle.Render("Signed out from another terminal. Continuing as guest."))
		}
	}
}

func (a *App) printChatBanner() {
	fmt.Fprintln(a.IO.Out, TitleStyle.Render("botline chat"))
	if a.Stores.Auth.IsAuthenticated() {
		fmt.Fprintf(a.IO.Out, "Signed in as %s.\n", a.identityName())
	} else {
		fmt.Fprintf(a.IO.Out, "Chatting as a guest: %s\n", a.quotaText())
	}
	fmt.Fprintln(a.IO.Out, DimStyle.Render("Type /help for commands, /quit to leave."))
}

func (a *App) chatPrompt() string {
	if n, ok := a.Stores.Chat.RemainingPrompts(); ok {
		return fmt.Sprintf("you [%d left]> ", n)
	}
	return "you> "
}

// sendAndPrint sends one message and prints the reply.
func (a *App) sendAndPrint(ctx context.Context, content string, md *markdown) error {
	reply, err := a.send(ctx, content)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.IO.Out, "%s %s\n", BotStyle.Render("bot>"), md.Render(reply.Content))
	if n, ok := a.Stores.Chat.RemainingPrompts(); ok && n <= 1 {
		fmt.Fprintln(a.IO.Out, WarningStyle.Render(a.quotaText()))
	}
	return nil
}

// send delivers content and returns the bot reply.
func (a *App) send(ctx context.Context, content string) (model.Message, error) {
	ok, err := a.Stores.Chat.SendMessage(ctx, content)
	if err != nil {
		return model.Message{}, err
	}
	if !ok {
		return model.Message{}, &store.LimitError{Max: a.Stores.Chat.MaxGuestPrompts()}
	}
	msgs := a.Stores.Chat.Messages()
	return msgs[len(msgs)-1], nil
}

// chatCommand runs a slash command. quit is true for /quit.
func (a *App) chatCommand(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit", "/q":
		return true, nil
	case "/help", "/?":
		fmt.Fprintln(a.IO.Out, "/clear               start a new conversation")
		fmt.Fprintln(a.IO.Out, "/quota               show remaining free messages")
		fmt.Fprintln(a.IO.Out, "/rate N [feedback]   rate the bot from 1 to 5")
		fmt.Fprintln(a.IO.Out, "/save [FILE]         save the conversation (.md or .json)")
		fmt.Fprintln(a.IO.Out, "/quit                leave")
	case "/clear":
		a.Stores.Chat.ClearChat()
		fmt.Fprintln(a.IO.Out, DimStyle.Render("Conversation cleared."))
	case "/quota":
		if a.Stores.Auth.IsAuthenticated() {
			fmt.Fprintln(a.IO.Out, "Signed in: no message limit.")
		} else {
			fmt.Fprintln(a.IO.Out, a.quotaText())
		}
	case "/rate":
		p := NewArgParser(fields[1:])
		rating, err := a.submitRating(ctx, p)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(a.IO.Out, "Thanks for rating %s\n", RenderStars(rating.Rating))
	case "/save":
		path, err := a.saveTranscript(strings.Join(fields[1:], " "))
		if err != nil {
			return false, err
		}
		fmt.Fprintf(a.IO.Out, "%s Saved to %s\n", SuccessStyle.Render("[OK]"), path)
	default:
		return false, NewValidationErrorWithExample("command", fields[0], "unknown chat command", "/help")
	}
	return false, nil
}

// saveTranscript writes the current conversation to path, or to a
// generated file in the working directory.
func (a *App) saveTranscript(path string) (string, error) {
	msgs := a.Stores.Chat.Messages()
	if len(msgs) == 0 {
		return "", NewValidationError("transcript", "", "nothing to save yet")
	}

	t := export.New(util.TruncateRunes(util.SingleLine(msgs[0].Content), 40), msgs)
	t.SessionID = a.Stores.Chat.CurrentSession()
	if u := a.Stores.Auth.User(); u != nil {
		t.Author = service.DisplayName(*u)
	} else {
		t.Guest = true
	}

	saved, err := export.ToFile(t, path, export.DefaultOptions())
	if err != nil {
		return "", NewCommandError("chat", "save", "could not save the conversation", err)
	}
	a.Logger.WithField("path", saved).Debug("transcript saved")
	return saved, nil
}

func (a *App) quotaText() string {
	n, _ := a.Stores.Chat.RemainingPrompts()
	word := "messages"
	if n == 1 {
		word = "message"
	}
	return fmt.Sprintf("%d free %s left of %d", n, word, a.Stores.Chat.MaxGuestPrompts())
}

// =============================================================================
// ASK
// =============================================================================

type askResult struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id,omitempty"`
	Remaining *int   `json:"remaining_prompts,omitempty"`
}

// handleAsk sends one message. With no arguments the message is read from
// piped stdin.
func (a *App) handleAsk(ctx context.Context, args Args) (any, error) {
	content := JoinPositionalArgs(args.Parser, 0)
	if content == "" && !isTerminal(a.IO.In) {
		data, err := io.ReadAll(a.in)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		content = strings.TrimSpace(string(data))
	}
	if content == "" {
		return nil, ErrMissingArgument("message", `botline ask "What can you do?"`)
	}

	reply, err := a.send(ctx, content)
	if err != nil {
		return nil, err
	}

	res := askResult{Reply: reply.Content, SessionID: a.Stores.Chat.CurrentSession()}
	if n, ok := a.Stores.Chat.RemainingPrompts(); ok {
		res.Remaining = &n
	}

	md := newMarkdown(a.Config.UI.Markdown, a.Config.UI.Theme, a.IO.Out)
	a.Println(md.Render(reply.Content))
	if res.Remaining != nil && !a.Quiet {
		a.Println(DimStyle.Render(a.quotaText()))
	}
	return res, nil
}
