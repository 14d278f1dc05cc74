// Package discord connects the coordinator to Discord.
//
// Gateway and Grantor implement the ports used by the coordinator on top of the
// REST API; Dispatcher turns slash-command interactions into registry calls.
package discord
