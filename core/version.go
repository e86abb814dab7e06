package core

// AgentVersion is overridden at build time with -ldflags "-X".
var AgentVersion = "0.7.0"
