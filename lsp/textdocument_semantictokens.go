package lsp

type SemanticTokensLegend struct {
	TokenTypes     []string `json:"tokenTypes"`
	TokenModifiers []string `json:"tokenModifiers"`
}

type SemanticTokensParams struct {
	WorkDoneProgressParams
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// SemanticTokens holds the tokens of a document in the relative encoding:
// five integers per token for line delta, start delta, length, type and
// modifier bits.
type SemanticTokens struct {
	Data []uint32 `json:"data"`
}
