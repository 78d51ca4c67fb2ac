package service

import (
	"github.com/louisbranch/ludos/internal/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerSessionTools(mcpServer *mcp.Server, svc domain.Deduction) {
	mcp.AddTool(mcpServer, domain.SessionStartTool(), domain.SessionStartHandler(svc))
	mcp.AddTool(mcpServer, domain.DeductionRunTool(), domain.DeductionRunHandler(svc))
	mcp.AddTool(mcpServer, domain.SessionGetTool(), domain.SessionGetHandler(svc))
	mcp.AddTool(mcpServer, domain.SessionPolishTool(), domain.SessionPolishHandler(svc))
}

func registerInteractionTools(mcpServer *mcp.Server, svc domain.Deduction) {
	mcp.AddTool(mcpServer, domain.InteractionListTool(), domain.InteractionListHandler(svc))
	mcp.AddTool(mcpServer, domain.InteractionSearchTool(), domain.InteractionSearchHandler(svc))
}

// registerJournalResources registers the readable session listing and
// public log resources.
func registerJournalResources(mcpServer *mcp.Server, svc domain.Deduction) {
	mcpServer.AddResource(domain.SessionListResource(), domain.SessionListResourceHandler(svc))
	mcpServer.AddResourceTemplate(domain.SessionLogResourceTemplate(), domain.SessionLogResourceHandler(svc))
}
