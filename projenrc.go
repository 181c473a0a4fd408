package main

import (
	"fmt"

	"github.com/corymhall/forthlsp/projenrc"
	"github.com/projen/projen-go/projen"
	"github.com/projen/projen-go/projen/github"
)

func main() {
	project := projen.NewProject(&projen.ProjectOptions{
		Name: projenrc.StrPtr("forthlsp"),
		GitIgnoreOptions: &projen.IgnoreFileOptions{
			IgnorePatterns: &[]*string{projenrc.StrPtr("bin"), projenrc.StrPtr("dist")},
		},
	})
	project.DefaultTask().Exec(projenrc.StrPtr("go run projenrc.go"), &projen.TaskStepOptions{})
	gh := github.NewGitHub(project, &github.GitHubOptions{})

	vscode := projenrc.NewVscodeProject(project)

	packageGoTask := project.AddTask(projenrc.StrPtr("package:go"), &projen.TaskOptions{
		Steps: &[]*projen.TaskStep{
			{
				Exec: projenrc.StrPtr(fmt.Sprintf(
					"go build -o bin/%[1]s -ldflags \"-s -w -X github.com/corymhall/forthlsp/server.Version=${VERSION}\" ./cmd/%[1]s",
					projenrc.ServerBinary)),
			},
			{
				Exec: projenrc.StrPtr(fmt.Sprintf(
					"mkdir -p dist && tar -czf dist/%[1]s-${VERSION}-${GOOS}-${GOARCH}.tar.gz -C bin %[1]s",
					projenrc.ServerBinary)),
			},
		},
	})

	packageVsceTask := project.AddTask(projenrc.StrPtr("package:vscode"), &projen.TaskOptions{
		Steps: &[]*projen.TaskStep{
			{
				Exec: projenrc.StrPtr(fmt.Sprintf("GOOS=${PLATFORM/win32/windows} GOARCH=${ARCH/x64/amd64} go build -o ./editors/vscode/%[1]s ./cmd/%[1]s", projenrc.ServerBinary)),
			},
			{
				Exec: projenrc.StrPtr("npx projen package"),
				Cwd:  projenrc.StrPtr("./editors/vscode"),
			},
		},
	})

	project.PackageTask().Spawn(packageGoTask, &projen.TaskStepOptions{})
	projenrc.NewGitHubReleaseWorkflow(project, gh, packageVsceTask, packageGoTask)
	projenrc.NewTestWorkflow(gh)

	project.Synth()
	vscode.Synth()
}
