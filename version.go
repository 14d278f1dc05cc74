package muster

// Version is the release of muster, overridden at build time with
// -ldflags "-X github.com/aretw0/muster.Version=...".
var Version = "0.1.0-dev"
