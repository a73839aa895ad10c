// Package delivery provides strategies for receiving envelopes from
// subscribed topics. It supports multiple delivery mechanisms that can be
// selected based on node capabilities and network conditions.
//
// # Delivery Strategies
//
// The package implements three delivery strategies:
//
//   - [StreamStrategy]: Uses a Server-Sent Events stream per topic for
//     real-time push delivery. Lowest latency, recommended for most use
//     cases.
//
//   - [PollingStrategy]: Periodically fetches each topic's messages. Uses
//     adaptive backoff to reduce API calls when no new envelopes arrive.
//     Use when streaming is not available.
//
//   - [AutoStrategy]: Tries streaming first and falls back to polling when
//     the stream does not connect within a timeout.
//
// # Usage
//
// All strategies implement the [Strategy] interface for event-driven
// delivery:
//
//	cfg := delivery.Config{APIClient: apiClient}
//	strategy := delivery.NewStreamStrategy(cfg)
//
//	strategy.Start(ctx, []string{"demo.messages"}, func(ctx context.Context, wire *api.WireEnvelope) error {
//	    // Verify and open the envelope
//	    return nil
//	})
//	defer strategy.Stop()
//
// # Backoff and Retry
//
// Both polling and streaming implement exponential backoff with jitter:
//
//   - Polling increases intervals from 2s to 30s max when nothing new arrives
//   - Streams reconnect with exponential backoff up to 10 attempts
//   - Jitter prevents thundering herd when multiple clients reconnect
//
// # Thread Safety
//
// All strategy types are safe for concurrent use. Topics can be added or
// removed while the strategy is running.
package delivery
