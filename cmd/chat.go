package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shouni/go-coloring-kit/internal/builder"
	"github.com/shouni/go-coloring-kit/pkg/chat"
	"github.com/shouni/go-coloring-kit/pkg/domain"
)

// newChatCmd は、テーマのアイデア出しを手伝うアシスタントと対話するコマンドなのだ。
func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "テーマのアイデアをアシスタントに相談するのだ。",
		Long:  "標準入力から1行ずつ送信するのだ。exit か quit、または EOF で終了するのだよ。",
		RunE:  chatCommand,
	}
}

func chatCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	appCtx, err := builder.BuildAppContext(ctx, loadConfig())
	if err != nil {
		return err
	}
	session, err := appCtx.Manager.NewChatSession(ctx)
	if err != nil {
		return err
	}

	title := appCtx.Manager.Translations().T("chat.title")
	return runChat(cmd.InOrStdin(), cmd.OutOrStdout(), title, session.History(), func(text string) (domain.ChatMessage, error) {
		return session.SendMessage(ctx, text)
	})
}

// runChat は入力がなくなるまで発言を送り、応答を書き出すのだ。
func runChat(in io.Reader, out io.Writer, title string, history []domain.ChatMessage, send func(string) (domain.ChatMessage, error)) error {
	fmt.Fprintf(out, "== %s ==\n", title)
	for _, m := range history {
		printMessage(out, m)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "exit", "quit":
			return nil
		}

		reply, err := send(line)
		if errors.Is(err, chat.ErrEmptyMessage) {
			continue
		}
		if err != nil {
			return err
		}
		printMessage(out, reply)
	}
}

func printMessage(out io.Writer, m domain.ChatMessage) {
	fmt.Fprintf(out, "[%s] %s\n", m.Role, m.Text)
}
