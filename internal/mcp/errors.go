package mcp

import "errors"

// -- Sentinels --

var (
	ErrUnknownTransport = errors.New("unknown mcp transport")
	ErrUnknownServer    = errors.New("unknown mcp server")
	ErrDuplicateServer  = errors.New("duplicate mcp server name")
	ErrUnnamedServer    = errors.New("mcp server config has no name")
)
