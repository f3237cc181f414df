package artifact

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ghetzel/go-stockutil/fileutil"
	"github.com/klauspost/compress/zip"

	"github.com/jdziat/simple-function-invoker/pkg/core"
)

// DefaultSourceExtensions lists the extensions treated as single source files.
var DefaultSourceExtensions = []string{".go", ".py"}

// ArchiveExtension is the extension of expandable archives.
const ArchiveExtension = ".zip"

// Artifact describes staged handler code.
type Artifact struct {
	Kind    core.ArtifactKind
	Source  string
	WorkDir string
	// Files holds staged paths relative to WorkDir, slash separated and sorted
	Files []string
	// Copied is false when a source file was already present in WorkDir
	Copied bool
}

// Stager stages artifacts into a working directory.
type Stager struct {
	WorkDir          string
	SourceExtensions []string
	logger           *slog.Logger
}

// NewStager creates a Stager for workDir. An empty workDir means the
// current working directory.
func NewStager(workDir string, logger *slog.Logger) *Stager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stager{
		WorkDir:          workDir,
		SourceExtensions: DefaultSourceExtensions,
		logger:           logger,
	}
}

// KindOf classifies path by its extension.
func (s *Stager) KindOf(path string) (core.ArtifactKind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ArchiveExtension {
		return core.ArtifactArchive, nil
	}
	for _, candidate := range s.SourceExtensions {
		if ext == strings.ToLower(candidate) {
			return core.ArtifactSource, nil
		}
	}
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", core.ErrUnsupportedArtifact, filepath.Base(path))
	}
	return "", fmt.Errorf("%w: %q", core.ErrUnsupportedArtifact, ext)
}

// Stage makes the artifact at path available in the working directory.
func (s *Stager) Stage(ctx context.Context, path string) (*Artifact, error) {
	workDir, err := s.workDir()
	if err != nil {
		return nil, err
	}

	kind, err := s.KindOf(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create workdir: %w", err)
	}

	art := &Artifact{Kind: kind, Source: path, WorkDir: workDir}

	switch kind {
	case core.ArtifactArchive:
		err = s.expand(ctx, art)
	case core.ArtifactSource:
		err = s.copySource(art)
	}
	if err != nil {
		return nil, err
	}

	sort.Strings(art.Files)
	s.logger.Info("artifact staged",
		"kind", art.Kind,
		"source", art.Source,
		"workdir", art.WorkDir,
		"files", len(art.Files),
	)
	return art, nil
}

// Provides reports whether the staged files contain module, either as
// <module path><ext> or as a directory <module path>/.
func (a *Artifact) Provides(module string, exts []string) bool {
	rel := strings.ReplaceAll(module, ".", "/")
	for _, f := range a.Files {
		if strings.HasPrefix(f, rel+"/") {
			return true
		}
		ext := filepath.Ext(f)
		if strings.TrimSuffix(f, ext) != rel {
			continue
		}
		for _, candidate := range exts {
			if strings.EqualFold(ext, candidate) {
				return true
			}
		}
	}
	return false
}

func (s *Stager) workDir() (string, error) {
	if s.WorkDir == "" {
		return os.Getwd()
	}
	return filepath.Abs(s.WorkDir)
}

func (s *Stager) copySource(art *Artifact) error {
	name := filepath.Base(art.Source)
	dst := filepath.Join(art.WorkDir, name)
	art.Files = []string{name}

	if fileutil.FileExists(dst) {
		s.logger.Debug("source already present, keeping existing copy", "path", dst)
		return nil
	}

	in, err := os.Open(art.Source)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	if err := writeFile(dst, in, 0o644); err != nil {
		return fmt.Errorf("copy source: %w", err)
	}
	art.Copied = true
	return nil
}

func (s *Stager) expand(ctx context.Context, art *Artifact) error {
	rc, err := zip.OpenReader(art.Source)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer rc.Close()

	for _, f := range rc.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, rel, err := safeJoin(art.WorkDir, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", rel, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create parent of %s: %w", rel, err)
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("extract %s: %w", rel, err)
		}
		art.Files = append(art.Files, rel)
		s.logger.Debug("expanded archive entry", "name", rel, "bytes", f.UncompressedSize64)
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	return writeFile(target, r, mode)
}

func writeFile(dst string, r io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// safeJoin joins an archive entry name onto root and rejects names that
// would land outside of it.
func safeJoin(root, name string) (string, string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("%w: %q", core.ErrUnsafeArchiveEntry, name)
	}
	return filepath.Join(root, clean), filepath.ToSlash(clean), nil
}
