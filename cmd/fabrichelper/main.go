// Command fabrichelper is a small CLI used for cross-SDK interoperability
// testing. Each command reads its inputs from flags, stdin, and the
// SECUREFABRIC_URL / SECUREFABRIC_TOKEN environment variables, and writes a
// single JSON document to stdout.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	securefabric "github.com/securefabric/client-go"
	"github.com/securefabric/client-go/envelope"
)

func main() {
	if len(os.Args) < 2 {
		fatal("usage: fabrichelper <keygen|send|recv|stats> [args]")
	}

	// keygen needs no node connection
	if os.Args[1] == "keygen" {
		keygen()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := newClient()
	if err != nil {
		fatal("create client: %v", err)
	}
	defer client.Close()

	switch os.Args[1] {
	case "send":
		if len(os.Args) < 3 {
			fatal("usage: fabrichelper send <topic> (payload on stdin)")
		}
		send(ctx, client, os.Args[2])
	case "recv":
		if len(os.Args) < 4 {
			fatal("usage: fabrichelper recv <topic> <count>")
		}
		count, err := strconv.Atoi(os.Args[3])
		if err != nil || count < 1 {
			fatal("count must be a positive integer")
		}
		recv(ctx, client, os.Args[2], count)
	case "stats":
		stats(ctx, client)
	default:
		fatal("unknown command: %s", os.Args[1])
	}
}

func newClient() (*securefabric.Client, error) {
	opts := []securefabric.Option{}
	if token := os.Getenv("SECUREFABRIC_TOKEN"); token != "" {
		opts = append(opts, securefabric.WithBearerToken(token))
	}
	if seedHex := os.Getenv("SECUREFABRIC_SEED"); seedHex != "" {
		seed, err := hex.DecodeString(seedHex)
		if err != nil {
			return nil, fmt.Errorf("parse SECUREFABRIC_SEED: %w", err)
		}
		opts = append(opts, securefabric.WithSigningSeed(seed))
	}
	return securefabric.New(os.Getenv("SECUREFABRIC_URL"), opts...)
}

func keygen() {
	kp, err := envelope.GenerateKeypair()
	if err != nil {
		fatal("generate keypair: %v", err)
	}
	json.NewEncoder(os.Stdout).Encode(map[string]string{
		"seed":       hex.EncodeToString(kp.PrivateKey.Seed()),
		"public_key": kp.PublicKeyHex,
	})
}

// MessageOutput is the JSON shape emitted for each received message.
type MessageOutput struct {
	Topic       string `json:"topic"`
	MsgID       string `json:"msg_id"`
	Sender      string `json:"sender"`
	Seq         uint64 `json:"seq"`
	Payload     string `json:"payload"`
	TenantID    string `json:"tenant_id,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	KeyVersion  uint32 `json:"key_version"`
}

func send(ctx context.Context, client *securefabric.Client, topic string) {
	payload, err := io.ReadAll(os.Stdin)
	if err != nil {
		fatal("read stdin: %v", err)
	}

	msgID, err := client.Send(ctx, topic, payload)
	if err != nil {
		fatal("send: %v", err)
	}

	json.NewEncoder(os.Stdout).Encode(map[string]string{
		"msg_id": msgID,
		"sender": client.PublicKeyHex(),
	})
}

func recv(ctx context.Context, client *securefabric.Client, topic string, count int) {
	msgs, err := client.Subscribe(ctx, topic)
	if err != nil {
		fatal("subscribe: %v", err)
	}

	output := struct {
		Messages []MessageOutput `json:"messages"`
	}{
		Messages: make([]MessageOutput, 0, count),
	}

	for len(output.Messages) < count {
		select {
		case <-ctx.Done():
			fatal("timed out after %d of %d messages", len(output.Messages), count)
		case msg := <-msgs:
			output.Messages = append(output.Messages, MessageOutput{
				Topic:       msg.Topic,
				MsgID:       msg.MsgID,
				Sender:      hex.EncodeToString(msg.Sender),
				Seq:         msg.Seq,
				Payload:     string(msg.Payload),
				TenantID:    msg.TenantID,
				ContentType: msg.ContentType,
				KeyVersion:  msg.KeyVersion,
			})
		}
	}

	if err := json.NewEncoder(os.Stdout).Encode(output); err != nil {
		fatal("encode output: %v", err)
	}
}

func stats(ctx context.Context, client *securefabric.Client) {
	s, err := client.Stats(ctx)
	if err != nil {
		fatal("stats: %v", err)
	}
	json.NewEncoder(os.Stdout).Encode(s)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
