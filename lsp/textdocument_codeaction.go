package lsp

type CodeActionParams struct {
	WorkDoneProgressParams
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
	Context      CodeActionContext      `json:"context"`
}

type CodeActionKind string

// CodeActionKindQuickFix is the only kind of action the server offers.
const CodeActionKindQuickFix CodeActionKind = "quickfix"

type CodeActionContext struct {
	// Diagnostics the editor shows at the requested range.
	Diagnostics []Diagnostic `json:"diagnostics"`
	// Only restricts the result to these kinds when set.
	Only []CodeActionKind `json:"only,omitempty"`
}

type CodeAction struct {
	Title       string         `json:"title"`
	Kind        CodeActionKind `json:"kind"`
	Edit        *WorkspaceEdit `json:"edit,omitempty"`
	Diagnostics []Diagnostic   `json:"diagnostics,omitempty"`
	IsPreferred bool           `json:"isPreferred,omitempty"`
}
