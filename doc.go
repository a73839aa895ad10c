// Package securefabric provides a Go client SDK for SecureFabric,
// a signed-and-encrypted message fabric for service-to-service messaging.
//
// Every message travels as a tamper-evident envelope: Ed25519-signed,
// optionally XChaCha20-Poly1305 encrypted, with a BLAKE3-derived message ID
// and per-sender replay protection. The envelope subpackage implements the
// protocol; this package wires it to a fabric node's HTTP API.
//
// Basic usage:
//
//	client, err := securefabric.New("https://node.example.com",
//	    securefabric.WithBearerToken(token))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Publish a message
//	msgID, err := client.Send(ctx, "demo.messages", []byte("hello"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Receive messages
//	msgs, err := client.Subscribe(ctx, "demo.messages")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for msg := range msgs {
//	    fmt.Printf("%s: %s\n", msg.Topic, msg.Payload)
//	}
package securefabric
