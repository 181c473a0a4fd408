package lsp

import "context"

// Client is what the server sends to the editor.
type Client interface {
	PublishDiagnostics(context.Context, *PublishDiagnosticsParams) error
	WorkDoneProgressCreate(context.Context, *WorkDoneProgressCreateParams) error
	ProgressBegin(context.Context, *WorkDoneProgressBeginParams) error
	ProgressReport(context.Context, *WorkDoneProgressReportParams) error
	ProgressEnd(context.Context, *WorkDoneProgressEndParams) error
	ShowMessage(context.Context, *ShowMessageParams) error
	LogMessage(context.Context, *LogMessageParams) error
}

const progressMethod = "$/progress"

func (d *clientDispatcher) PublishDiagnostics(ctx context.Context, params *PublishDiagnosticsParams) error {
	return d.sender.Notify(ctx, "textDocument/publishDiagnostics", params)
}

// WorkDoneProgressCreate is the only client request the server makes. It
// blocks until the editor answers, so it must not run on the read loop.
func (d *clientDispatcher) WorkDoneProgressCreate(ctx context.Context, params *WorkDoneProgressCreateParams) error {
	return d.sender.Call(ctx, "window/workDoneProgress/create", params, nil)
}

func (d *clientDispatcher) ProgressBegin(ctx context.Context, params *WorkDoneProgressBeginParams) error {
	return d.sender.Notify(ctx, progressMethod, params)
}

func (d *clientDispatcher) ProgressReport(ctx context.Context, params *WorkDoneProgressReportParams) error {
	return d.sender.Notify(ctx, progressMethod, params)
}

func (d *clientDispatcher) ProgressEnd(ctx context.Context, params *WorkDoneProgressEndParams) error {
	return d.sender.Notify(ctx, progressMethod, params)
}

func (d *clientDispatcher) ShowMessage(ctx context.Context, params *ShowMessageParams) error {
	return d.sender.Notify(ctx, "window/showMessage", params)
}

func (d *clientDispatcher) LogMessage(ctx context.Context, params *LogMessageParams) error {
	return d.sender.Notify(ctx, "window/logMessage", params)
}
