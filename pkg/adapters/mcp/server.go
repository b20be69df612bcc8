package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/quire"
	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/schema"
	"github.com/aretw0/quire/pkg/session"
)

// DocumentsURI lists the known document IDs.
const DocumentsURI = "quire://documents"

// DocumentStatus is returned by the update and status tools.
type DocumentStatus struct {
	ID          string `json:"id" jsonschema_description:"Document ID"`
	Dirty       bool   `json:"dirty" jsonschema_description:"Whether the document changed since its last completed render"`
	Generation  uint64 `json:"generation" jsonschema_description:"Number of updates that changed the document"`
	Fingerprint string `json:"fingerprint" jsonschema_description:"Hash of the last applied description"`
}

// UpdateArgs are the arguments of update_document.
type UpdateArgs struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Format      string `json:"format,omitempty"`
}

// DocumentArgs identify a document.
type DocumentArgs struct {
	ID string `json:"id"`
}

// Server exposes a session manager as an MCP server.
type Server struct {
	manager   *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(m *session.Manager, opts ...Option) *Server {
	s := &Server{
		manager:   m,
		mcpServer: server.NewMCPServer("quire-mcp", quire.Version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, for in-process transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("update_document",
		mcp.WithDescription("Create or replace a document from a JSON or YAML description."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document ID")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Document description tree")),
		mcp.WithString("format", mcp.Enum(string(schema.FormatJSON), string(schema.FormatYAML)), mcp.Description("Encoding of the description (default json)")),
		mcp.WithOutputSchema[DocumentStatus](),
	), mcp.NewStructuredToolHandler(s.handleUpdate))

	s.mcpServer.AddTool(mcp.NewTool("document_status",
		mcp.WithDescription("Report whether a document has changed since it was last rendered."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document ID")),
		mcp.WithOutputSchema[DocumentStatus](),
	), mcp.NewStructuredToolHandler(s.handleStatus))

	s.mcpServer.AddTool(mcp.NewTool("render_text",
		mcp.WithDescription("Render a document and return the output as text."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document ID")),
	), s.handleRenderText)

	s.mcpServer.AddTool(mcp.NewTool("document_layout",
		mcp.WithDescription("Return page and node geometry for a document, rendering it first when stale."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document ID")),
		mcp.WithOutputSchema[domain.LayoutData](),
	), mcp.NewStructuredToolHandler(s.handleLayout))

	s.mcpServer.AddTool(mcp.NewTool("destroy_document",
		mcp.WithDescription("Destroy a document session and delete its stored description."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document ID")),
	), s.handleDestroy)
}

func (s *Server) handleUpdate(ctx context.Context, _ mcp.CallToolRequest, args UpdateArgs) (DocumentStatus, error) {
	format := schema.Format(args.Format)
	if format == "" {
		format = schema.FormatJSON
	}
	desc, err := schema.Parse([]byte(args.Description), format)
	if err != nil {
		return DocumentStatus{}, err
	}
	if err := s.manager.Update(ctx, args.ID, desc); err != nil {
		s.logger.Warn("MCP update rejected", "document", args.ID, "error", err)
		return DocumentStatus{}, fmt.Errorf("update failed: %w", err)
	}
	return s.status(ctx, args.ID)
}

func (s *Server) handleStatus(ctx context.Context, _ mcp.CallToolRequest, args DocumentArgs) (DocumentStatus, error) {
	return s.status(ctx, args.ID)
}

func (s *Server) status(ctx context.Context, id string) (DocumentStatus, error) {
	st := DocumentStatus{ID: id}
	err := s.manager.WithSession(ctx, id, func(_ context.Context, sess *quire.Session) error {
		st.Dirty = sess.IsDirty()
		st.Generation = sess.Generation()
		return nil
	})
	if err != nil {
		return DocumentStatus{}, err
	}
	if st.Fingerprint, err = s.manager.Fingerprint(ctx, id); err != nil {
		return DocumentStatus{}, err
	}
	return st, nil
}

func (s *Server) handleRenderText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var text string
	err = s.manager.WithSession(ctx, id, func(ctx context.Context, sess *quire.Session) error {
		text, err = sess.ToText(ctx)
		return err
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleLayout(ctx context.Context, _ mcp.CallToolRequest, args DocumentArgs) (domain.LayoutData, error) {
	var ld domain.LayoutData
	err := s.manager.WithSession(ctx, args.ID, func(ctx context.Context, sess *quire.Session) error {
		var err error
		if ld, err = sess.LayoutData(); err != nil {
			return err
		}
		if !sess.IsDirty() && ld.PageCount() > 0 {
			return nil
		}
		if _, err := sess.ToText(ctx); err != nil {
			return err
		}
		ld, err = sess.LayoutData()
		return err
	})
	return ld, err
}

func (s *Server) handleDestroy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.manager.Destroy(ctx, id); err != nil && !errors.Is(err, domain.ErrDocumentNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("destroy failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("document %s destroyed", id)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(DocumentsURI, "Documents",
		mcp.WithResourceDescription("IDs of live and stored documents"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.manager.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}
		if ids == nil {
			ids = []string{}
		}
		data, _ := json.Marshal(ids)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      DocumentsURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
