package launchpad

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/battle/internal/core/battle"
	"github.com/hay-kot/battle/internal/core/history"
	"github.com/hay-kot/battle/internal/core/logging"
	"github.com/rs/zerolog"
)

// On-disk names.
const (
	FileName        = "battle.json"
	DotFolder       = ".vscode"
	HistoryFileName = "battle.history.jsonl"

	legacyFileName   = "battle.config"
	legacyFolder     = ".battle"
	legacyVersionDir = "versions"
)

// StateStore persists the workspace-scoped custom directory.
type StateStore interface {
	CustomDir(ctx context.Context, workspace string) (string, error)
	SetCustomDir(ctx context.Context, workspace, dir string) error
}

// HistoryOpener returns the history log stored at path.
type HistoryOpener func(path string) history.Log

// Location is a resolved document location.
type Location struct {
	// Path is the document path. The file may not exist yet.
	Path string
	// Dir is the directory holding the document and its history log.
	Dir string
	// Custom is set when the user picked the directory.
	Custom bool
	// MigratedFrom names the legacy file copied into Path by this
	// resolution, if any.
	MigratedFrom string
}

// HistoryPath is the history log next to the document.
func (l Location) HistoryPath() string {
	return filepath.Join(l.Dir, HistoryFileName)
}

// errTargetExists reports a migration that found the current document
// already in place. Nothing was copied and the legacy file is untouched.
var errTargetExists = errors.New("current config already exists")

// legacySource is one deprecated document location and how to move it
// forward.
type legacySource struct {
	name    string
	locate  func(workspace string) string
	migrate func(r *Resolver, ctx context.Context, from string, loc Location) error
}

// legacySources are tried in order; the first existing file wins.
var legacySources = []legacySource{
	{
		name:    "old file name",
		locate:  func(ws string) string { return filepath.Join(ws, DotFolder, legacyFileName) },
		migrate: (*Resolver).migrateFile,
	},
	{
		name:    "legacy folder",
		locate:  func(ws string) string { return filepath.Join(ws, legacyFolder, legacyFileName) },
		migrate: (*Resolver).migrateFolder,
	},
	{
		name:    "workspace root",
		locate:  func(ws string) string { return filepath.Join(ws, legacyFileName) },
		migrate: (*Resolver).migrateFile,
	},
}

// Resolver finds the authoritative document path for one workspace and
// migrates legacy layouts forward on first use.
type Resolver struct {
	workspace   string
	state       StateStore
	openHistory HistoryOpener
	log         zerolog.Logger
}

// NewResolver creates a resolver for workspace. An empty workspace makes
// every resolution fail with ErrNoWorkspace.
func NewResolver(workspace string, state StateStore, openHistory HistoryOpener, log zerolog.Logger) *Resolver {
	return &Resolver{
		workspace:   workspace,
		state:       state,
		openHistory: openHistory,
		log:         logging.For(log, "resolver"),
	}
}

// Workspace returns the workspace root.
func (r *Resolver) Workspace() string { return r.workspace }

// Resolve returns the document location, migrating a legacy document into
// place when the target does not exist yet.
func (r *Resolver) Resolve(ctx context.Context) (Location, error) {
	loc, err := r.target(ctx)
	if err != nil {
		return Location{}, err
	}

	if fileExists(loc.Path) {
		return loc, nil
	}

	for _, src := range legacySources {
		from := src.locate(r.workspace)
		if !fileExists(from) {
			continue
		}

		err := src.migrate(r, ctx, from, loc)
		if errors.Is(err, errTargetExists) {
			r.log.Debug().Str("from", from).Str("to", loc.Path).Msg("current config appeared during migration, keeping it")
			return loc, nil
		}
		if err != nil {
			r.log.Warn().Err(err).Str("from", from).Str("source", src.name).Msg("legacy migration failed")
			return loc, nil
		}

		loc.MigratedFrom = from
		r.log.Info().Str("from", from).Str("to", loc.Path).Msg("migrated legacy config")
		return loc, nil
	}

	return loc, nil
}

// target computes the location without touching legacy files.
func (r *Resolver) target(ctx context.Context) (Location, error) {
	if r.workspace == "" {
		return Location{}, ErrNoWorkspace
	}

	custom, err := r.state.CustomDir(ctx, r.workspace)
	if err != nil {
		r.log.Warn().Err(err).Msg("read custom dir, using default location")
		custom = ""
	}

	if custom != "" {
		return Location{Path: filepath.Join(custom, FileName), Dir: custom, Custom: true}, nil
	}

	dir := filepath.Join(r.workspace, DotFolder)
	return Location{Path: filepath.Join(dir, FileName), Dir: dir}, nil
}

// migrateFile copies from into the target, imports legacy versions and
// removes the migrated file. Only the copy can fail the migration; a target
// that appeared underneath us wins and yields errTargetExists.
func (r *Resolver) migrateFile(ctx context.Context, from string, loc Location) error {
	if err := copyExclusive(from, loc.Path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return errTargetExists
		}
		return err
	}

	r.importLegacyVersions(ctx, loc)

	if err := os.Remove(from); err != nil {
		r.log.Warn().Err(err).Str("path", from).Msg("remove migrated legacy config")
	}
	return nil
}

// migrateFolder migrates a document out of the legacy folder, then removes
// the folder once nothing is left in it.
func (r *Resolver) migrateFolder(ctx context.Context, from string, loc Location) error {
	if err := r.migrateFile(ctx, from, loc); err != nil {
		return err
	}
	_ = os.Remove(filepath.Dir(from)) // only succeeds when empty
	return nil
}

// importLegacyVersions moves .battle/versions/battle.config.* into the
// history log, oldest first. Imported files are removed.
func (r *Resolver) importLegacyVersions(ctx context.Context, loc Location) {
	dir := filepath.Join(r.workspace, legacyFolder, legacyVersionDir)
	matches, err := doublestar.Glob(os.DirFS(dir), legacyFileName+".*")
	if err != nil || len(matches) == 0 {
		return
	}

	type version struct {
		path string
		info os.FileInfo
	}

	versions := make([]version, 0, len(matches))
	for _, m := range matches {
		path := filepath.Join(dir, m)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		versions = append(versions, version{path: path, info: info})
	}
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].info.ModTime().Before(versions[j].info.ModTime())
	})

	log := r.openHistory(loc.HistoryPath())
	imported := 0
	for _, v := range versions {
		data, err := os.ReadFile(v.path)
		if err != nil {
			r.log.Debug().Err(err).Str("path", v.path).Msg("read legacy version")
			continue
		}

		cfg, err := battle.Parse(data)
		if err != nil {
			r.log.Debug().Err(err).Str("path", v.path).Msg("skip invalid legacy version")
			continue
		}

		mtime := v.info.ModTime()
		_, err = log.Import(ctx, history.Entry{
			Timestamp: mtime.UnixMilli(),
			Label:     mtime.Format(history.LegacyLabelLayout),
			Config:    cfg,
		})
		if err != nil {
			r.log.Warn().Err(err).Str("path", v.path).Msg("import legacy version")
			continue
		}

		imported++
		_ = os.Remove(v.path)
	}

	_ = os.Remove(dir) // only succeeds when empty
	r.log.Debug().Int("count", imported).Msg("imported legacy versions")
}

// Candidates lists the current location followed by every legacy location.
func (r *Resolver) Candidates(ctx context.Context) ([]string, error) {
	loc, err := r.target(ctx)
	if err != nil {
		return nil, err
	}

	paths := []string{loc.Path}
	for _, src := range legacySources {
		paths = append(paths, src.locate(r.workspace))
	}
	return paths, nil
}

// Leftovers lists legacy documents that still exist next to a current one.
func (r *Resolver) Leftovers(ctx context.Context) ([]string, error) {
	if r.workspace == "" {
		return nil, ErrNoWorkspace
	}

	var out []string
	for _, src := range legacySources {
		if path := src.locate(r.workspace); fileExists(path) {
			out = append(out, path)
		}
	}
	return out, nil
}

// SetCustomDir records dir as the document directory for this workspace.
func (r *Resolver) SetCustomDir(ctx context.Context, dir string) error {
	if r.workspace == "" {
		return ErrNoWorkspace
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve custom dir: %w", err)
	}
	return r.state.SetCustomDir(ctx, r.workspace, abs)
}

// ClearCustomDir returns the workspace to the default location.
func (r *Resolver) ClearCustomDir(ctx context.Context) error {
	if r.workspace == "" {
		return ErrNoWorkspace
	}
	return r.state.SetCustomDir(ctx, r.workspace, "")
}

// copyExclusive copies src to dst, creating parent directories. It fails
// with os.ErrExist rather than overwrite dst.
func copyExclusive(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	return out.Close()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
