package lsp

type PrepareRenameParams struct {
	TextDocumentPositionParams
	WorkDoneProgressParams
}

type RenameParams struct {
	TextDocumentPositionParams
	WorkDoneProgressParams
	// The new name of the symbol.
	NewName string `json:"newName"`
}
