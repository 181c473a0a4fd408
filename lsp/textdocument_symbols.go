package lsp

type SymbolKind int

const (
	SymbolKindFile     SymbolKind = 1
	SymbolKindFunction SymbolKind = 12
	SymbolKindVariable SymbolKind = 13
	SymbolKindConstant SymbolKind = 14
	SymbolKindArray    SymbolKind = 18
	SymbolKindObject   SymbolKind = 19
)

type DocumentSymbolParams struct {
	WorkDoneProgressParams
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

type DocumentSymbol struct {
	Name   string     `json:"name"`
	Detail string     `json:"detail,omitempty"`
	Kind   SymbolKind `json:"kind"`
	// Range encloses the whole definition.
	Range Range `json:"range"`
	// SelectionRange is the name of the definition.
	SelectionRange Range            `json:"selectionRange"`
	Children       []DocumentSymbol `json:"children,omitempty"`
}

type WorkspaceSymbolParams struct {
	WorkDoneProgressParams
	Query string `json:"query"`
}

type SymbolInformation struct {
	Name          string     `json:"name"`
	Kind          SymbolKind `json:"kind"`
	Location      Location   `json:"location"`
	ContainerName string     `json:"containerName,omitempty"`
}
