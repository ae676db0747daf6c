package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"xstream/internal/store"
	"xstream/internal/synthesis"
)

type Server struct {
	db       store.Store
	pipeline *synthesis.Pipeline
	mcp      *sdk.Server
}

func NewServer(db store.Store, pipeline *synthesis.Pipeline, version string) *Server {
	s := &Server{
		db:       db,
		pipeline: pipeline,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "xstream",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
