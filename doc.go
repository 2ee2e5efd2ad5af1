// Package tradebook derives portfolio positions, cost basis and unrealised
// P&L from a history of trade and cash events.
//
// The engine is a pure, synchronous computation over an in-memory snapshot
// of events: raw documents are normalised into canonical events, replayed
// chronologically through per-instrument FIFO lot books (long and short
// positions, including sign flips, are handled by draining opposite-sign
// lots before opening new ones), aggregated into open positions, and valued
// against externally supplied market prices in a caller-chosen display
// currency.
//
// Persistence, the HTTP surface, price providers and statement import live
// in the sibling packages store, server, quotes and ibkr; the engine itself
// performs no I/O and keeps no global state.
package tradebook
