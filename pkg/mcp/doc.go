// Package mcp defines the tool-calling session contract that mcptape records
// and replays: JSON-RPC 2.0 framing, the typed MCP operation surface, a
// client for driving a live stdio server, and a stdio server loop for
// exposing any Session implementation (notably the replay responder).
//
// The capture core attaches at the call-dispatch boundary — the Session
// interface — never at the byte-level transport. The transports here are
// boundary glue: the stdio client lets the record command reach a real
// server, and the stdio server makes a replayed session independently
// runnable.
package mcp
