package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"

	"github.com/corymhall/forthlsp/config"
	forthdebug "github.com/corymhall/forthlsp/debug"
	"github.com/corymhall/forthlsp/logger"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/rpc"
	"github.com/corymhall/forthlsp/server"
	"github.com/spf13/cobra"
)

var (
	logFile     string
	logLevel    string
	logToClient bool
	root        string
)

var rootCmd = &cobra.Command{
	Use:           "forthlsp",
	Short:         "Language server for Forth",
	Long:          "forthlsp serves the Language Server Protocol over stdio when run without a subcommand.",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&logFile, "log-file", filepath.Join(os.TempDir(), "forthlsp.log"), "file the server logs to")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "one of trace, debug, info, warn or error")
	rootCmd.Flags().BoolVar(&logToClient, "log-to-client", false, "send structured logs to the editor as window/logMessage")
	rootCmd.PersistentFlags().StringVar(&root, "root", ".", "workspace root holding "+config.FileName+" for fmt and check")
}

func main() {
	defer panicHandler()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func serve(ctx context.Context) error {
	level, err := forthdebug.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger.ProgramLevel.Set(level)

	logfile, err := os.OpenFile(logFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o666)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logfile.Close()
	stdLogger := log.New(logfile, "[forthlsp]", log.Ldate|log.Ltime|log.Lshortfile)

	stream := rpc.NewHeaderStream(os.Stdin, os.Stdout)
	conn := rpc.NewConn(stream, stdLogger)
	client := lsp.ClientDispatcher(conn)

	var handler slog.Handler = slog.NewTextHandler(logfile, &slog.HandlerOptions{Level: logger.ProgramLevel})
	if logToClient {
		handler = logger.NewHandler(client, nil)
	}
	slog.SetDefault(slog.New(handler))

	srv := server.New(stdLogger, client)
	defer func() {
		if err := srv.Shutdown(ctx); err != nil {
			stdLogger.Println("Error shutting down server:", err)
		}
	}()
	ctx = lsp.WithClient(ctx, client)
	ctx = forthdebug.WithLogger(ctx, slog.Default())
	return conn.Run(ctx, lsp.ServerHandler(srv, rpc.MethodNotFound))
}

func panicHandler() {
	if panicPayload := recover(); panicPayload != nil {
		stack := string(debug.Stack())
		fmt.Fprintln(os.Stderr, "================================================================================")
		fmt.Fprintln(os.Stderr, "forthlsp encountered a fatal error. This is a bug!")
		fmt.Fprintln(os.Stderr, "We would appreciate a report: https://github.com/corymhall/forthlsp/issues/")
		fmt.Fprintln(os.Stderr, "Please provide all of the below text in your report.")
		fmt.Fprintln(os.Stderr, "================================================================================")
		fmt.Fprintf(os.Stderr, "forthlsp Version:     %s\n", server.Version)
		fmt.Fprintf(os.Stderr, "Go Version:           %s\n", runtime.Version())
		fmt.Fprintf(os.Stderr, "Go Compiler:          %s\n", runtime.Compiler)
		fmt.Fprintf(os.Stderr, "Architecture:         %s\n", runtime.GOARCH)
		fmt.Fprintf(os.Stderr, "Operating System:     %s\n", runtime.GOOS)
		fmt.Fprintf(os.Stderr, "Panic:                %s\n\n", panicPayload)
		fmt.Fprintln(os.Stderr, stack)
		os.Exit(1)
	}
}
