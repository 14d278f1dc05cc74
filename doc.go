/*
Package muster coordinates game scheduling inside a chat guild.

An initiator opens a coordination session, up to five players opt in (or out), and the
initiator finalizes the session by assigning a game identifier. Finalizing creates a
private channel for the participants and posts a summary to a coordination channel.

# Architecture

muster follows a Hexagonal Architecture: the coordinator (pkg/coordinator) is a small
state machine that only talks to ports (pkg/ports). Adapters plug the chat platform
(Discord or an in-memory fake), the session store and an optional Redis lock into it,
and dispatchers (Discord slash commands, the local console, an MCP server) feed it
commands through a shared registry (pkg/registry).

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/muster"
		"github.com/aretw0/muster/pkg/adapters/memory"
		"github.com/aretw0/muster/pkg/coordinator"
		"github.com/aretw0/muster/pkg/domain"
	)

	func main() {
		gw := memory.NewGateway("coordination")
		bot := muster.New(gw, memory.Grantor{}, coordinator.Config{CoordinationChannelID: "coordination"})

		ctx := context.Background()
		inv := domain.Invocation{Scope: "guild", ChannelID: "lobby", UserID: "alice"}
		msg, err := bot.Registry().Reply(ctx, "start_game", inv, nil)
		if err != nil {
			log.Fatal(err)
		}
		log.Println(msg.Content)
	}
*/
package muster
