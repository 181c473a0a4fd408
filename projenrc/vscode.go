package projenrc

import (
	"fmt"

	"github.com/projen/projen-go/projen"
	"github.com/projen/projen-go/projen/javascript"
	"github.com/projen/projen-go/projen/typescript"
)

type Contributes struct {
	Languages     []Language    `json:"languages"`
	Configuration Configuration `json:"configuration"`
}

// Language registers the forth language id with the editor.
type Language struct {
	ID         string   `json:"id"`
	Aliases    []string `json:"aliases"`
	Extensions []string `json:"extensions"`
}

// Configuration represents the settings of the Forth extension.
type Configuration struct {
	Title      string              `json:"title"`
	Properties map[string]Property `json:"properties"`
}

// Property represents a property in the configuration.
type Property struct {
	Type                []string `json:"type"`
	Default             any      `json:"default"`
	Enum                []string `json:"enum,omitempty"`
	MarkdownDescription string   `json:"markdownDescription"`
}

func NewVscodeProject(project projen.Project) typescript.TypeScriptProject {
	vscode := typescript.NewTypeScriptProject(&typescript.TypeScriptProjectOptions{
		DefaultReleaseBranch: StrPtr("main"),
		Outdir:               StrPtr("editors/vscode"),
		SampleCode:           BoolPtr(false),
		Parent:               project,
		Prettier:             BoolPtr(true),
		PrettierOptions: &javascript.PrettierOptions{
			Settings: &javascript.PrettierSettings{
				SingleQuote: BoolPtr(true),
			},
		},
		Description: StrPtr("Forth language support for Visual Studio Code, powered by forthlsp"),
		Repository:  StrPtr("https://github.com/corymhall/forthlsp"),
		EslintOptions: &javascript.EslintOptions{
			Dirs:     &[]*string{},
			Prettier: BoolPtr(true),
		},
		Name:       StrPtr("forthlsp-client"),
		AuthorName: StrPtr("corymhall"),
		Deps:       &[]*string{StrPtr("vscode-languageclient")},
		DevDeps:    &[]*string{StrPtr("@types/vscode"), StrPtr("@vscode/vsce")},
	})

	vscode.Gitignore().AddPatterns(StrPtr(ServerBinary))
	vscode.Package().AddField(StrPtr("main"), "assets/extension/index.js")
	bundle := vscode.Bundler().AddBundle(StrPtr("src/extension.ts"), &javascript.AddBundleOptions{
		Platform:  StrPtr("node"),
		Target:    StrPtr("node18"),
		Externals: &[]*string{StrPtr("vscode")},
		Minify:    BoolPtr(true),
	})

	projen.NewIgnoreFile(vscode, StrPtr(".vscodeignore"), &projen.IgnoreFileOptions{
		IgnorePatterns: &[]*string{
			StrPtr("node_modules"),
			StrPtr("!assets/extension/index.js"),
			StrPtr("!" + ServerBinary),
			StrPtr("!README.md"),
			StrPtr("!LICENSE"),
			StrPtr("!package.json"),
			StrPtr("**/*"),
		},
	})

	vscode.AddScripts(&map[string]*string{
		"vscode:prepublish": StrPtr(fmt.Sprintf("npx projen %s", *bundle.BundleTask.Name())),
	})

	vscode.PackageTask().Reset(StrPtr("npx vsce package --target ${PLATFORM}-${ARCH} --out ../../dist/"), &projen.TaskStepOptions{})
	vscode.Package().AddField(StrPtr("activationEvents"), []string{
		"onLanguage:forth",
		"workspaceContains:**/.forth-lsp.toml",
	})
	vscode.Package().AddField(StrPtr("engines"), map[string]any{
		"vscode": "^1.99.1",
	})
	vscode.Package().AddField(StrPtr("contributes"), Contributes{
		Languages: []Language{{
			ID:         "forth",
			Aliases:    []string{"Forth", "forth"},
			Extensions: Extensions,
		}},
		Configuration: Configuration{
			Title: "Forth",
			Properties: map[string]Property{
				"forthlsp.server.path": {
					Type:                []string{"string", "null"},
					MarkdownDescription: "Path to the `forthlsp` binary. Leave as `null` to use the binary bundled with the extension.",
				},
				"forthlsp.logLevel": {
					Type:                []string{"string"},
					Default:             "info",
					Enum:                []string{"trace", "debug", "info", "warn", "error"},
					MarkdownDescription: "Passed to the server as `--log-level`.",
				},
				"forthlsp.logToClient": {
					Type:                []string{"boolean"},
					Default:             false,
					MarkdownDescription: "Show the server log in the `Forth` output channel instead of a log file.",
				},
			},
		},
	})
	return vscode
}
