package lsp

type DefinitionParams struct {
	TextDocumentPositionParams
	WorkDoneProgressParams
}

type ReferenceContext struct {
	// Include the declaration of the current symbol.
	IncludeDeclaration bool `json:"includeDeclaration"`
}

type ReferenceParams struct {
	TextDocumentPositionParams
	WorkDoneProgressParams
	Context ReferenceContext `json:"context"`
}
