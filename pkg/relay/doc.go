// Copyright 2024-2026 Aiku AI

// Package relay mirrors one channel per Discord guild into every other
// linked guild through webhooks, under the original author's name and
// avatar.
//
// Mentions are guild scoped, so a message is first taken apart into a
// portable [mentionfmt.Sequence] against the source guild and then rendered
// again for each destination, where users, roles and channels are looked up
// by ID or name and fall back to plain text when they don't exist there.
//
// # Core Types
//
// [Bridge] owns the gateway session. It builds the [Registry] of active
// links when the session is ready, feeds message events to the [Handler]
// and posts through webhooks as the [Transport].
//
// [Handler] applies the guards (bots, webhooks, unlinked channels, edits of
// unknown messages, oversized messages) and hands accepted messages to the
// [Relayer].
//
// [Relayer] delivers to each destination in turn. A failed destination is
// logged and reported to the other links with a notice; it never blocks the
// remaining destinations and a failed notice is only logged.
//
// [StateDirectory] answers roster lookups from the session's state cache.
//
// # Sub-packages
//
//   - mentionfmt converts message text to and from portable mention tokens.
package relay
