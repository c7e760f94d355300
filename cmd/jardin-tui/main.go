// ABOUTME: Terminal client for a jardin conversation
// ABOUTME: Opens a realtime channel, prints history and live messages, sends input lines

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"

	"github.com/2389/jardin-gateway/internal/channel"
	"github.com/2389/jardin-gateway/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultClientConfigPath(), "Client config file (TOML)")
	conversationID := flag.Int64("conversation", 0, "Conversation ID to open")
	flag.Parse()

	if *conversationID <= 0 {
		fmt.Fprintln(os.Stderr, "Usage: jardin-tui --conversation ID [--config path]")
		os.Exit(1)
	}

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *conversationID, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n¡Hasta luego!")
}

func setupLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// userFromToken reads the session's user ID without verifying it; the
// gateway verifies. It only decides how messages are labelled.
func userFromToken(token string) int64 {
	if token == "" {
		return 0
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0
	}
	id, _ := strconv.ParseInt(sub, 10, 64)
	return id
}

func run(ctx context.Context, cfg *config.ClientConfig, conversationID int64, in io.Reader, out io.Writer) error {
	client, err := channel.NewSessionClient(cfg.API.URL, cfg.Session.Token)
	if err != nil {
		return err
	}

	gray := color.New(color.FgHiBlack)
	gray.Fprintf(out, "jardin-tui → %s, conversación %d\n", cfg.API.URL, conversationID)
	if cfg.Session.Token == "" {
		color.New(color.FgYellow).Fprintln(out, "Sin sesión: define JARDIN_TOKEN o [session] token")
	}
	gray.Fprintln(out, "Escribe un mensaje y pulsa Enter. /help para comandos.")
	fmt.Fprintln(out)

	ch := channel.Open(ctx, conversationID, channel.Options{
		BaseURL:              cfg.API.URL,
		HTTPClient:           client,
		MaxReconnectAttempts: cfg.Channel.MaxReconnectAttempts,
		ReconnectDelay:       cfg.Channel.ReconnectDelay,
		Logger:               setupLogger(cfg.Logging.Level),
	})
	defer ch.Close()

	p := &printer{out: out, self: userFromToken(cfg.Session.Token)}
	go p.follow(ch)

	return inputLoop(ctx, ch, p, in)
}

// inputLoop reads lines until EOF, /quit or ctx ends.
func inputLoop(ctx context.Context, ch *channel.Channel, p *printer, in io.Reader) error {
	lines := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errCh <- err
			return
		}
		errCh <- io.EOF
	}()

	for {
		var input string
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case input = <-lines:
		}

		input = strings.TrimSpace(input)
		switch {
		case input == "":
			continue
		case input == "/quit" || input == "/exit":
			return nil
		case input == "/help":
			p.help()
		case input == "/estado":
			p.status(ch)
		case input == "/historial":
			p.reprint(ch.Messages())
		case strings.HasPrefix(input, "/"):
			p.notice(color.FgYellow, "Comando desconocido: %s", input)
		default:
			if err := ch.Send(ctx, input); err != nil {
				p.notice(color.FgRed, "No se pudo enviar: %v", err)
			}
		}
	}
}

// printer writes channel output; all writes go through mu.
type printer struct {
	mu      sync.Mutex
	out     io.Writer
	self    int64
	printed int
	state   channel.State
}

// follow prints new messages and state changes until the channel closes.
func (p *printer) follow(ch *channel.Channel) {
	for range ch.Updates() {
		p.update(ch.State(), ch.Loading(), ch.Messages())
	}
}

func (p *printer) update(state channel.State, loading bool, msgs []channel.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if state != p.state {
		p.state = state
		switch state {
		case channel.StateConnected:
			color.New(color.FgGreen).Fprintln(p.out, "● conectado")
		case channel.StateExhausted:
			color.New(color.FgRed).Fprintln(p.out, "● sin conexión en vivo (reinicia para reintentar)")
		case channel.StateDisconnected:
			color.New(color.FgYellow).Fprintln(p.out, "● reconectando…")
		}
	}

	if loading {
		return
	}
	// The list is append-only, so everything past printed is new.
	for _, msg := range msgs[p.printed:] {
		p.writeMessage(msg)
	}
	p.printed = len(msgs)
}

func (p *printer) writeMessage(msg channel.Message) {
	label := fmt.Sprintf("#%d", msg.SenderID)
	c := color.New(color.FgCyan)
	if p.self != 0 && msg.SenderID == p.self {
		label = "tú"
		c = color.New(color.FgGreen)
	}

	stamp := ""
	if !msg.CreatedAt.IsZero() {
		stamp = msg.CreatedAt.Local().Format("15:04") + " "
	}

	color.New(color.FgHiBlack).Fprint(p.out, stamp)
	c.Fprintf(p.out, "%s: ", label)
	fmt.Fprintln(p.out, renderPlain(msg.Body))
}

func (p *printer) reprint(msgs []channel.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(msgs) == 0 {
		color.New(color.FgHiBlack).Fprintln(p.out, "(sin mensajes)")
		return
	}
	for _, msg := range msgs {
		p.writeMessage(msg)
	}
}

func (p *printer) status(ch *channel.Channel) {
	p.notice(color.FgHiBlack, "estado: %s, intentos: %d, mensajes: %d", ch.State(), ch.ReconnectAttempts(), len(ch.Messages()))
}

func (p *printer) help() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, "Comandos:")
	fmt.Fprintln(p.out, "  /historial     Vuelve a mostrar todos los mensajes")
	fmt.Fprintln(p.out, "  /estado        Estado de la conexión en vivo")
	fmt.Fprintln(p.out, "  /help          Muestra esta ayuda")
	fmt.Fprintln(p.out, "  /quit          Salir")
}

func (p *printer) notice(attr color.Attribute, format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	color.New(attr).Fprintf(p.out, format+"\n", args...)
}
