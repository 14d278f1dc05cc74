/*
Package domain contains the core domain models for muster.

It defines the coordination Session, the Invocation that identifies who called an
operation and from where, and the Message/Channel values exchanged with the chat
platform. This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Session: One start-to-finish coordination cycle for scheduling one game.
  - Invocation: The calling user, origin channel and scope (guild) of a command.
  - Message: A reply addressed to the invoking context.
  - AccessList: The resolved audience of a private game channel.
*/
package domain
