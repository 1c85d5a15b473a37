package runtime

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/harunnryd/solace/internal/chain"
	"github.com/harunnryd/solace/internal/chat"
	"github.com/harunnryd/solace/internal/config"
	solaceErrors "github.com/harunnryd/solace/internal/errors"

	"github.com/google/shlex"
)

var errQuit = errors.New("quit")

const replHelp = `Commands:
  /start            start the scheduled session when its window is open
  /end              end the current chat
  /refresh [id]     reload the view, optionally switching to a chain or chat id
  /history          print the transcript again
  /help             show this help
  /exit             leave
Anything else is sent as a message.`

// REPL is the interactive chat loop. Lines starting with "/" are commands,
// everything else goes to the active chat.
type REPL struct {
	components *Components
	reader     *bufio.Reader
	out        io.Writer
	target     chain.Target
	controller *chat.Controller
}

func NewREPL(components *Components, target chain.Target, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		components: components,
		reader:     bufio.NewReader(in),
		out:        out,
		target:     target,
	}
}

type inputLine struct {
	text string
	err  error
}

func (r *REPL) Start() error {
	if err := r.load(r.target); err != nil {
		return err
	}
	defer r.close()

	done := make(chan struct{})
	defer close(done)
	lines := r.readLines(done)

	fmt.Fprintln(r.out, "Type '/help' for commands, '/exit' to quit.")
	for {
		if r.components.SessionExpired() {
			fmt.Fprintln(r.out, r.components.Renderer.Notice("error", "Your session has expired. Run 'solace login' to sign in again."))
			return nil
		}

		fmt.Fprint(r.out, "> ")
		var in inputLine
		select {
		case <-r.components.Ctx.Done():
			fmt.Fprintln(r.out)
			return nil
		case in = <-lines:
		}

		if line := strings.TrimSpace(in.text); line != "" {
			if herr := r.handle(line); herr != nil {
				if errors.Is(herr, errQuit) {
					return nil
				}
				fmt.Fprintln(r.out, r.components.Renderer.Notice("error", solaceErrors.UserMessage(herr)))
			}
		}
		if in.err != nil {
			if in.err == io.EOF {
				return nil
			}
			return in.err
		}
	}
}

// readLines feeds input lines to the loop so a cancelled context is noticed
// while the terminal is idle. The reader goroutine ends after the first read
// error or once done is closed.
func (r *REPL) readLines(done <-chan struct{}) <-chan inputLine {
	lines := make(chan inputLine)
	go func() {
		for {
			text, err := r.reader.ReadString('\n')
			select {
			case lines <- inputLine{text: text, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return lines
}

func (r *REPL) handle(line string) error {
	if !strings.HasPrefix(line, "/") {
		return r.send(line)
	}

	parts, err := shlex.Split(line)
	if err != nil {
		parts = strings.Fields(line)
	}
	if len(parts) == 0 {
		return nil
	}
	cmd, args := parts[0], parts[1:]
	slog.Debug("Executing slash command", "cmd", cmd)

	switch cmd {
	case "/exit", "/quit":
		return errQuit
	case "/help":
		fmt.Fprintln(r.out, replHelp)
	case "/history":
		fmt.Fprintln(r.out, r.components.Renderer.Transcript(r.controller.Snapshot().Messages))
	case "/start":
		msg, err := r.controller.Initiate(r.components.Ctx)
		if err != nil {
			return err
		}
		if msg != nil {
			fmt.Fprintln(r.out, r.components.Renderer.Message(*msg))
		}
	case "/end":
		if err := r.controller.End(); err != nil {
			return err
		}
		fmt.Fprintln(r.out, "Chat ended. The transcript is now read-only.")
	case "/refresh":
		target := r.target
		if len(args) > 0 {
			target = chain.ParseTarget(args[0])
		}
		return r.load(target)
	default:
		fmt.Fprintf(r.out, "Unknown command: %s\n", cmd)
	}
	return nil
}

func (r *REPL) send(text string) error {
	reply, err := r.controller.Send(r.components.Ctx, text)
	if err != nil {
		// The controller has already notified a backend failure.
		if solaceErrors.IsCategory(err, solaceErrors.ErrInvalidInput) {
			return err
		}
		return nil
	}
	fmt.Fprintln(r.out, r.components.Renderer.Message(*reply))
	return nil
}

// load reconciles target and swaps in a fresh controller for it.
func (r *REPL) load(target chain.Target) error {
	view := r.components.Reconciler.Reconcile(r.components.Ctx, target)

	interval, err := config.DurationOrDefault(r.components.Config.Chat.PingInterval, config.DefaultChatPingInterval)
	if err != nil {
		return fmt.Errorf("parse chat ping interval: %w", err)
	}

	controller, err := chat.NewController(r.components.Ctx, r.components.API, r.components.Store, view, chat.Options{
		PingInterval:     interval,
		EndChatThreshold: r.components.Config.Chat.EndChatThreshold,
		Notifier: chat.NotifierFunc(func(level chat.Level, message string) {
			fmt.Fprintln(r.out, r.components.Renderer.Notice(string(level), message))
		}),
	})
	if err != nil {
		return err
	}

	r.close()
	r.controller = controller
	r.target = target

	messages := view.Messages
	if limit := r.components.Config.Chat.HistoryLimit; limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	fmt.Fprintln(r.out, r.components.Renderer.Transcript(messages))
	fmt.Fprintln(r.out, r.components.Renderer.Banner(view))
	return nil
}

func (r *REPL) close() {
	if r.controller != nil {
		r.controller.Close()
		r.controller = nil
	}
}
