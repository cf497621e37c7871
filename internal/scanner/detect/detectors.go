package detect

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-git/go-git/v5"
	"github.com/hay-kot/battle/internal/core/battle"
	"gopkg.in/yaml.v3"
)

func dockerDetector() Detector {
	return Detector{
		Name:     "docker",
		Type:     "docker",
		Markers:  []string{"Dockerfile", "*.Dockerfile"},
		Binaries: []string{"docker", "podman"},
		Actions: func(_ context.Context, root string) []battle.Action {
			tag := strings.ToLower(projectName(root))
			return []battle.Action{
				action("Docker: Build", "docker build -t "+tag+" ."),
				action("Docker: Run", "docker run --rm -it "+tag),
			}
		},
	}
}

var composeFiles = []string{"compose.yaml", "compose.yml", "docker-compose.yaml", "docker-compose.yml"}

func composeDetector() Detector {
	return Detector{
		Name:     "docker-compose",
		Type:     "docker-compose",
		Markers:  composeFiles,
		Binaries: []string{"docker-compose", "docker"},
		Actions: func(_ context.Context, root string) []battle.Action {
			actions := []battle.Action{
				action("Compose: Up", "docker compose up -d"),
				action("Compose: Down", "docker compose down"),
			}
			for _, svc := range composeServices(root) {
				actions = append(actions, action("Compose: Logs "+svc, "docker compose logs -f "+svc))
			}
			return actions
		},
	}
}

// composeServices returns the sorted service names of the first compose file
// found in root.
func composeServices(root string) []string {
	for _, name := range composeFiles {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}

		var compose struct {
			Services map[string]yaml.Node `yaml:"services"`
		}
		if err := yaml.Unmarshal(data, &compose); err != nil {
			return nil
		}

		services := make([]string, 0, len(compose.Services))
		for svc := range compose.Services {
			services = append(services, svc)
		}
		sort.Strings(services)
		return services
	}
	return nil
}

func pythonDetector() Detector {
	return Detector{
		Name:     "python",
		Type:     "python",
		Markers:  []string{"pyproject.toml", "requirements*.txt", "setup.py"},
		Binaries: []string{"python3", "python"},
		Actions: func(_ context.Context, root string) []battle.Action {
			var actions []battle.Action
			if fileExists(root, "requirements.txt") {
				actions = append(actions, action("Python: Install", "pip install -r requirements.txt"))
			}

			var project struct {
				Project struct {
					Scripts map[string]string `toml:"scripts"`
				} `toml:"project"`
			}
			if _, err := toml.DecodeFile(filepath.Join(root, "pyproject.toml"), &project); err == nil {
				if len(actions) == 0 {
					actions = append(actions, action("Python: Install", "pip install -e ."))
				}
				scripts := make([]string, 0, len(project.Project.Scripts))
				for name := range project.Project.Scripts {
					scripts = append(scripts, name)
				}
				sort.Strings(scripts)
				for _, name := range scripts {
					actions = append(actions, action("Python: "+name, name))
				}
			}

			return append(actions, action("Python: Test", "python -m pytest"))
		},
	}
}

func goDetector() Detector {
	return Detector{
		Name:     "go",
		Type:     "go",
		Markers:  []string{"go.mod"},
		Binaries: []string{"go"},
		Actions: func(_ context.Context, root string) []battle.Action {
			actions := []battle.Action{
				action("Go: Build", "go build ./..."),
				action("Go: Test", "go test ./..."),
			}
			if fileExists(root, "main.go") {
				actions = append(actions, action("Go: Run", "go run ."))
			}
			return actions
		},
	}
}

func rustDetector() Detector {
	return Detector{
		Name:     "rust",
		Type:     "rust",
		Markers:  []string{"Cargo.toml"},
		Binaries: []string{"cargo"},
		Actions: func(_ context.Context, root string) []battle.Action {
			actions := []battle.Action{
				action("Cargo: Build", "cargo build"),
				action("Cargo: Test", "cargo test"),
				action("Cargo: Run", "cargo run"),
			}

			var manifest struct {
				Bin []struct {
					Name string `toml:"name"`
				} `toml:"bin"`
			}
			if _, err := toml.DecodeFile(filepath.Join(root, "Cargo.toml"), &manifest); err == nil {
				for _, bin := range manifest.Bin {
					if bin.Name == "" {
						continue
					}
					actions = append(actions, action("Cargo: Run "+bin.Name, "cargo run --bin "+bin.Name))
				}
			}
			return actions
		},
	}
}

var makeTarget = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9_.-]*)\s*:([^=]|$)`)

func makeDetector() Detector {
	return Detector{
		Name:     "make",
		Type:     "make",
		Markers:  []string{"Makefile", "makefile", "GNUmakefile"},
		Binaries: []string{"make"},
		Actions: func(_ context.Context, root string) []battle.Action {
			targets := makeTargets(root)
			if len(targets) == 0 {
				targets = []string{"all", "clean", "test"}
			}

			actions := make([]battle.Action, 0, len(targets))
			for _, t := range targets {
				actions = append(actions, action("Make: "+t, "make "+t))
			}
			return actions
		},
	}
}

// makeTargets lists explicit targets in file order, skipping special and
// pattern rules.
func makeTargets(root string) []string {
	for _, name := range []string{"GNUmakefile", "makefile", "Makefile"} {
		f, err := os.Open(filepath.Join(root, name))
		if err != nil {
			continue
		}
		defer func() { _ = f.Close() }()

		var targets []string
		seen := make(map[string]bool)
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			m := makeTarget.FindStringSubmatch(sc.Text())
			if m == nil {
				continue
			}
			t := m[1]
			if strings.HasPrefix(t, ".") || strings.Contains(t, "%") || seen[t] {
				continue
			}
			seen[t] = true
			targets = append(targets, t)
		}
		return targets
	}
	return nil
}

func gradleDetector() Detector {
	return Detector{
		Name:     "gradle",
		Type:     "gradle",
		Markers:  []string{"build.gradle", "build.gradle.kts", "settings.gradle*"},
		Binaries: []string{"gradle"},
		Actions: func(_ context.Context, root string) []battle.Action {
			g := wrapperOr(root, "gradlew", "gradle")
			return []battle.Action{
				action("Gradle: Build", g+" build"),
				action("Gradle: Test", g+" test"),
				action("Gradle: Clean", g+" clean"),
			}
		},
	}
}

func mavenDetector() Detector {
	return Detector{
		Name:     "maven",
		Type:     "maven",
		Markers:  []string{"pom.xml"},
		Binaries: []string{"mvn"},
		Actions: func(_ context.Context, root string) []battle.Action {
			m := wrapperOr(root, "mvnw", "mvn")
			return []battle.Action{
				action("Maven: Package", m+" package"),
				action("Maven: Test", m+" test"),
				action("Maven: Clean", m+" clean"),
			}
		},
	}
}

func cmakeDetector() Detector {
	return Detector{
		Name:     "cmake",
		Type:     "cmake",
		Markers:  []string{"CMakeLists.txt"},
		Binaries: []string{"cmake"},
		Actions: func(_ context.Context, _ string) []battle.Action {
			return []battle.Action{
				action("CMake: Configure", "cmake -S . -B build"),
				action("CMake: Build", "cmake --build build"),
				action("CMake: Test", "ctest --test-dir build"),
			}
		},
	}
}

func gitDetector() Detector {
	return Detector{
		Name:     "git",
		Type:     "git",
		Markers:  []string{".git"},
		Binaries: []string{"git"},
		Actions: func(_ context.Context, root string) []battle.Action {
			actions := []battle.Action{action("Git: Status", "git status")}

			pull, push := "git pull", "git push"
			if branch := currentBranch(root); branch != "" {
				pull = "git pull origin " + branch
				push = "git push origin " + branch
			}
			return append(actions, action("Git: Pull", pull), action("Git: Push", push))
		},
	}
}

// currentBranch returns the checked out branch, or "" when detached or not a
// repository.
func currentBranch(root string) string {
	repo, err := git.PlainOpen(root)
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil || !head.Name().IsBranch() {
		return ""
	}
	return head.Name().Short()
}
