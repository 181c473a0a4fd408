package projenrc

import (
	"github.com/projen/projen-go/projen"
	"github.com/projen/projen-go/projen/github"
	"github.com/projen/projen-go/projen/github/workflows"
	"github.com/projen/projen-go/projen/release"
)

// A platform is one release target. The extension is published per VS Code
// target, which names operating systems and architectures like Node does.
type platform struct {
	goos, goarch string
	runner       string
}

var platforms = []platform{
	{goos: "linux", goarch: "amd64", runner: "ubuntu-latest"},
	{goos: "linux", goarch: "arm64", runner: "ubuntu-latest"},
	{goos: "darwin", goarch: "amd64", runner: "macos-latest"},
	{goos: "darwin", goarch: "arm64", runner: "macos-latest"},
	{goos: "windows", goarch: "amd64", runner: "windows-latest"},
}

func (p platform) vscodeOS() string {
	if p.goos == "windows" {
		return "win32"
	}
	return p.goos
}

func (p platform) vscodeArch() string {
	if p.goarch == "amd64" {
		return "x64"
	}
	return p.goarch
}

func matrix(entry func(platform) map[string]any) *workflows.JobStrategy {
	include := make([]*map[string]any, 0, len(platforms))
	for _, p := range platforms {
		m := entry(p)
		include = append(include, &m)
	}
	return &workflows.JobStrategy{Matrix: &workflows.JobMatrix{Include: &include}}
}

func Workflows_SetupNode() *workflows.JobStep {
	return &workflows.JobStep{
		Uses: StrPtr("actions/setup-node@v4"),
		With: &map[string]any{
			"node-version": "20.x",
		},
	}
}

func Workflows_SetupGo() *workflows.JobStep {
	return &workflows.JobStep{
		Uses: StrPtr("actions/setup-go@v5"),
		With: &map[string]any{
			"cache-dependency-path": "go.sum",
			"go-version-file":       "go.mod",
		},
	}
}

// NewGitHubReleaseWorkflow bumps the version on main and attaches the
// server archives and the extension packages to the GitHub release.
func NewGitHubReleaseWorkflow(
	project projen.Project,
	gh github.GitHub,
	packageVsceTask projen.Task,
	packageGoTask projen.Task,
) release.Release {
	ghRelease := release.NewRelease(gh, &release.ReleaseOptions{
		PostBuildSteps: &[]*workflows.JobStep{
			{
				Name: StrPtr("Get Version"),
				Id:   StrPtr("get_version"),
				Run:  StrPtr("echo \"version=$(cat dist/releasetag.txt)\" >> $GITHUB_OUTPUT"),
			},
		},
		ReleaseWorkflowSetupSteps: &[]*workflows.JobStep{
			Workflows_SetupGo(),
			Workflows_SetupNode(),
			{Run: StrPtr("cd editors/vscode && yarn install --check-files --frozen-lockfile")},
		},
		ArtifactsDirectory: StrPtr("dist"),
		Branch:             StrPtr("main"),
		Task:               project.PackageTask(),
		VersionFile:        StrPtr("editors/vscode/package.json"),
	})
	project.TryFindObjectFile(StrPtr(".github/workflows/release.yml")).
		AddOverride(StrPtr("jobs.release.outputs.version"), "${{ steps.get_version.outputs.version }}")

	released := &releaseJob{
		ifCond: StrPtr("needs.release.outputs.tag_exists != 'true' && needs.release.outputs.latest_commit == github.sha"),
		needs:  &[]*string{StrPtr("release"), StrPtr("release_github")},
		permissions: &workflows.JobPermissions{
			Contents: workflows.JobPermission_WRITE,
		},
	}

	ghRelease.AddJobs(&map[string]*workflows.Job{
		"package-vsce": released.job(vscePackageSteps(gh, packageVsceTask), matrix(func(p platform) map[string]any {
			return map[string]any{"platform": p.vscodeOS(), "arch": p.vscodeArch(), "os": "ubuntu-latest"}
		})),
		"package-go": released.job(goPackageSteps(gh, packageGoTask), matrix(func(p platform) map[string]any {
			return map[string]any{"platform": p.goos, "arch": p.goarch, "os": p.runner}
		})),
		"update-release": uploadReleaseJob(*released.ifCond, released.permissions),
	})
	return ghRelease
}

// releaseJob holds what every job after the release job shares: it only
// runs for a new tag on the released commit.
type releaseJob struct {
	ifCond      *string
	needs       *[]*string
	permissions *workflows.JobPermissions
}

func (r *releaseJob) job(steps []*workflows.JobStep, strategy *workflows.JobStrategy) *workflows.Job {
	return &workflows.Job{
		If:          r.ifCond,
		Needs:       r.needs,
		Permissions: r.permissions,
		Env: &map[string]*string{
			"VERSION": StrPtr("${{ needs.release.outputs.version }}"),
		},
		RunsOn:   &[]*string{StrPtr("${{ matrix.os }}")},
		Strategy: strategy,
		Steps:    &steps,
	}
}

func uploadArtifact(name, path string) *workflows.JobStep {
	return github.WorkflowSteps_UploadArtifact(&github.UploadArtifactOptions{
		With: &github.UploadArtifactWith{
			Name: StrPtr(name),
			Path: StrPtr(path),
		},
	})
}

func vscePackageSteps(gh github.GitHub, packageVsceTask projen.Task) []*workflows.JobStep {
	return []*workflows.JobStep{
		github.WorkflowSteps_Checkout(&github.CheckoutOptions{}),
		Workflows_SetupGo(),
		Workflows_SetupNode(),
		{
			Name: StrPtr("Install Deps"),
			Run:  StrPtr("cd editors/vscode && yarn install --check-files --frozen-lockfile"),
		},
		{
			Name: StrPtr("Package vsce"),
			Run:  gh.Project().RunTaskCommand(packageVsceTask),
			Env: &map[string]*string{
				"PLATFORM": StrPtr("${{ matrix.platform }}"),
				"ARCH":     StrPtr("${{ matrix.arch }}"),
			},
		},
		uploadArtifact(
			ServerBinary+"-client-${{ matrix.platform }}-${{ matrix.arch }}",
			"./dist/*.vsix",
		),
	}
}

func goPackageSteps(gh github.GitHub, packageGoTask projen.Task) []*workflows.JobStep {
	return []*workflows.JobStep{
		github.WorkflowSteps_Checkout(&github.CheckoutOptions{}),
		Workflows_SetupGo(),
		Workflows_SetupNode(),
		{
			Name: StrPtr("Package Go"),
			Run:  gh.Project().RunTaskCommand(packageGoTask),
			Env: &map[string]*string{
				"GOOS":   StrPtr("${{ matrix.platform }}"),
				"GOARCH": StrPtr("${{ matrix.arch }}"),
			},
		},
		uploadArtifact(
			ServerBinary+"-${{ matrix.platform }}-${{ matrix.arch }}",
			"./dist/"+ServerBinary+"-*.tar.gz",
		),
	}
}

func uploadReleaseJob(ifCond string, permissions *workflows.JobPermissions) *workflows.Job {
	return &workflows.Job{
		Permissions: permissions,
		If:          &ifCond,
		Needs:       &[]*string{StrPtr("package-vsce"), StrPtr("package-go"), StrPtr("release")},
		RunsOn:      &[]*string{StrPtr("ubuntu-latest")},
		Env: &map[string]*string{
			"VERSION":  StrPtr("${{ needs.release.outputs.version }}"),
			"GH_TOKEN": StrPtr("${{ github.token }}"),
		},
		Steps: &[]*workflows.JobStep{
			github.WorkflowSteps_Checkout(&github.CheckoutOptions{}),
			github.WorkflowSteps_DownloadArtifact(&github.DownloadArtifactOptions{
				With: &github.DownloadArtifactWith{
					MergeMultiple: BoolPtr(true),
					Path:          StrPtr("dist"),
					Pattern:       StrPtr(ServerBinary + "-*"),
				},
			}),
			{
				Name: StrPtr("Upload Release"),
				Run:  StrPtr("gh release upload $VERSION dist/*"),
			},
		},
	}
}

// NewTestWorkflow runs the Go tests on pull requests. The server has no cgo
// dependencies, so one runner covers every platform.
func NewTestWorkflow(gh github.GitHub) github.GithubWorkflow {
	wf := github.NewGithubWorkflow(gh, StrPtr("test"), &github.GithubWorkflowOptions{})
	wf.On(&workflows.Triggers{
		PullRequest: &workflows.PullRequestOptions{},
		Push: &workflows.PushOptions{
			Branches: &[]*string{StrPtr("main")},
		},
	})
	wf.AddJob(StrPtr("test"), &workflows.Job{
		RunsOn: &[]*string{StrPtr("ubuntu-latest")},
		Permissions: &workflows.JobPermissions{
			Contents: workflows.JobPermission_READ,
		},
		Steps: &[]*workflows.JobStep{
			github.WorkflowSteps_Checkout(&github.CheckoutOptions{}),
			Workflows_SetupGo(),
			{Name: StrPtr("Vet"), Run: StrPtr("go vet ./...")},
			{Name: StrPtr("Test"), Run: StrPtr("go test -race ./...")},
		},
	})
	return wf
}
