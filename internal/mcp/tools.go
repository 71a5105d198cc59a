package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listCompaniesTool defines the list_companies MCP tool.
var listCompaniesTool = mcp.NewTool("list_companies",
	mcp.WithDescription("List the companies available in the research catalog with their tickers."),
)

// corpusSearchTool defines the corpus_search MCP tool.
var corpusSearchTool = mcp.NewTool("corpus_search",
	mcp.WithDescription("Semantic search over a company's announcement corpus. Returns matching documents with excerpts."),
	mcp.WithString("ticker",
		mcp.Required(),
		mcp.Description("Company ticker symbol, e.g. BHP"),
	),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 10)"),
	),
	mcp.WithNumber("days",
		mcp.Description("Lookback window in days for the announcement filter (default 180)"),
	),
)

// askCorpusTool defines the ask_corpus MCP tool.
var askCorpusTool = mcp.NewTool("ask_corpus",
	mcp.WithDescription("Ask a grounded research question about a company. The answer is generated from the company's announcement corpus and includes a reference list."),
	mcp.WithString("ticker",
		mcp.Required(),
		mcp.Description("Company ticker symbol, e.g. BHP"),
	),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("The research question to answer"),
	),
	mcp.WithNumber("days",
		mcp.Description("Lookback window in days for the announcement filter (default 180)"),
	),
)
