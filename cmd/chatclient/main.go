// Command chatclient is the client side of the federated chat system: it
// registers with a home server, then loops reading commands from stdin and
// polling for delivered messages. Per spec.md §1 ("the terminal UI ... are
// treated as external collaborators"), this is a plain line-oriented REPL,
// not the original Rust client's ratatui TUI (original_source/client/src/main.rs
// minus crossterm/ratatui).
package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sony-level/chatserver-lab/internal/chatclient"
	"github.com/sony-level/chatserver-lab/internal/config"
	"github.com/sony-level/chatserver-lab/internal/ids"
	"github.com/sony-level/chatserver-lab/internal/proto"
	"github.com/sony-level/chatserver-lab/internal/wire"
)

// Framing bytes matching internal/app's client-facing socket: frameRegister
// precedes a bare ClientQuery sent before an identity exists; frameSequenced
// precedes a Sequence[ClientQuery] for everything after.
const (
	frameRegister  byte = 0
	frameSequenced byte = 1
)

const datagramBufferSize = 8 * 1024

func main() {
	cfg, err := config.LoadClientConfig(os.Args[1:])
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if strings.TrimSpace(cfg.Name) == "" {
		slog.Error("--name is required")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	conn, err := net.Dial("udp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	if err != nil {
		logger.Error("dial server", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	cid, err := register(conn, cfg.Name)
	if err != nil {
		logger.Error("registration failed", "error", err)
		os.Exit(1)
	}
	logger.Info("registered", "client_id", cid.String(), "name", cfg.Name)

	seq := chatclient.New(cid)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go pollLoop(ctx, conn, seq, logger)
	runREPL(ctx, conn, seq, logger)

	logger.Info("chat client exiting")
}

// register sends a bare Register query (no sequencing: there is no identity
// yet to sequence against) and decodes the returned ClientId.
func register(conn net.Conn, name string) (ids.ClientId, error) {
	var out bytes.Buffer
	out.WriteByte(frameRegister)
	if err := wire.EncodeClientQuery(&out, proto.ClientQuery{Kind: proto.ClientQueryRegister, RegisterName: name}); err != nil {
		return ids.ClientId{}, fmt.Errorf("encode register: %w", err)
	}
	if _, err := conn.Write(out.Bytes()); err != nil {
		return ids.ClientId{}, fmt.Errorf("send register: %w", err)
	}

	reply, err := readReply(conn)
	if err != nil {
		return ids.ClientId{}, err
	}
	if reply.Kind != proto.QueryReplyRegistered {
		return ids.ClientId{}, fmt.Errorf("unexpected reply to register: kind %d", reply.Kind)
	}
	return reply.Registered, nil
}

func readReply(conn net.Conn) (proto.QueryReply, error) {
	buf := make([]byte, datagramBufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		return proto.QueryReply{}, fmt.Errorf("read reply: %w", err)
	}
	return wire.DecodeQueryReply(wire.Reader(buf[:n]))
}

func send(conn net.Conn, seq *chatclient.Sequencer, q proto.ClientQuery) (proto.QueryReply, error) {
	env := seq.Sequence(q)

	var out bytes.Buffer
	out.WriteByte(frameSequenced)
	if err := wire.EncodeSequence(&out, env, wire.EncodeClientQuery); err != nil {
		return proto.QueryReply{}, fmt.Errorf("encode query: %w", err)
	}
	if _, err := conn.Write(out.Bytes()); err != nil {
		return proto.QueryReply{}, fmt.Errorf("send query: %w", err)
	}
	return readReply(conn)
}

// pollLoop mirrors the original client's poller task: ask the server for new
// mail once a second. Delivered messages and delayed-recipient notices are
// printed to stdout as they arrive.
func pollLoop(ctx context.Context, conn net.Conn, seq *chatclient.Sequencer, logger *slog.Logger) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reply, err := send(conn, seq, proto.ClientQuery{Kind: proto.ClientQueryPoll})
			if err != nil {
				logger.Debug("poll failed", "error", err)
				continue
			}
			printPollReply(reply)
		}
	}
}

func printPollReply(reply proto.QueryReply) {
	if reply.Kind != proto.QueryReplyPoll {
		return
	}
	switch reply.Poll.Kind {
	case proto.ClientPollReplyMessage:
		fmt.Printf("< %s: %s\n", reply.Poll.Src, reply.Poll.Content)
	case proto.ClientPollReplyDelayedError:
		fmt.Printf("! message to %s could not be delivered\n", reply.Poll.UnknownRecipientClient)
	}
}

// runREPL reads stdin lines of the form "@<client-id> message text", plus the
// bare commands /users and /quit, until ctx is canceled or stdin closes.
func runREPL(ctx context.Context, conn net.Conn, seq *chatclient.Sequencer, logger *slog.Logger) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Println("connected. commands: /users, /quit, @<client-id> <message>")
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			handleLine(conn, seq, logger, line)
		}
	}
}

func handleLine(conn net.Conn, seq *chatclient.Sequencer, logger *slog.Logger, line string) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return
	case line == "/quit":
		os.Exit(0)
	case line == "/users":
		reply, err := send(conn, seq, proto.ClientQuery{Kind: proto.ClientQueryListUsers})
		if err != nil {
			logger.Error("list users failed", "error", err)
			return
		}
		if reply.Kind != proto.QueryReplyUsers {
			return
		}
		for id, name := range reply.Users {
			fmt.Printf("  %s  %s\n", id, name)
		}
	case strings.HasPrefix(line, "@"):
		rest := strings.TrimPrefix(line, "@")
		target, content, found := strings.Cut(rest, " ")
		if !found {
			fmt.Println("usage: @<client-id> <message>")
			return
		}
		destUUID, err := uuid.Parse(target)
		if err != nil {
			fmt.Println("invalid client id:", target)
			return
		}
		dest := ids.ClientIdFromBytes(destUUID)
		reply, err := send(conn, seq, proto.ClientQuery{
			Kind: proto.ClientQueryMessage,
			Message: proto.ClientMessage{
				Kind:    proto.ClientMessageText,
				Dest:    dest,
				Content: content,
			},
		})
		if err != nil {
			logger.Error("send failed", "error", err)
			return
		}
		printSendResult(reply)
	default:
		fmt.Println("unrecognized input; use @<client-id> <message>, /users, or /quit")
	}
}

func printSendResult(reply proto.QueryReply) {
	if reply.Kind != proto.QueryReplyMessage {
		return
	}
	for _, r := range reply.Replies {
		switch r.Kind {
		case proto.ClientReplyDelivered:
			fmt.Println("delivered")
		case proto.ClientReplyDelayed:
			fmt.Println("delayed: recipient not yet known")
		case proto.ClientReplyError:
			fmt.Println("error:", r.Err.Error())
		case proto.ClientReplyTransfer:
			fmt.Println("transferred to next hop", r.NextHop)
		}
	}
}
