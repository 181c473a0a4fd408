// Package projenrc synthesizes the build, the VS Code client and the release
// workflows of forthlsp.
package projenrc

func StrPtr(s string) *string {
	return &s
}

func BoolPtr(b bool) *bool {
	return &b
}

// ServerBinary is the name of the language server binary shipped inside the
// VS Code extension.
const ServerBinary = "forthlsp"

// Extensions are the file extensions the client starts the server for. They
// match the default workspace extensions of the server.
var Extensions = []string{".forth", ".fs", ".fth", ".4th", ".f"}
