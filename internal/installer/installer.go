package installer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agentx-labs/pkginstall/internal/i18n"
	"github.com/agentx-labs/pkginstall/internal/manifest"
	"github.com/agentx-labs/pkginstall/internal/platform"
	"github.com/agentx-labs/pkginstall/internal/retry"
	"github.com/agentx-labs/pkginstall/internal/version"
	"github.com/agentx-labs/pkginstall/internal/workspace"
)

// Outcome is what an install did to the destination.
type Outcome int

const (
	// OutcomeInstalled means the destination now holds the archive's content.
	OutcomeInstalled Outcome = iota
	// OutcomeUpToDate means the installed version was not older; nothing changed.
	OutcomeUpToDate
	// OutcomeManagedSkip means a managed environment owns the destination.
	OutcomeManagedSkip
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInstalled:
		return "installed"
	case OutcomeUpToDate:
		return "up-to-date"
	case OutcomeManagedSkip:
		return "managed-skip"
	default:
		return "unknown"
	}
}

// Options controls a single install.
type Options struct {
	// Name overrides the destination directory name.
	Name string
	// CheckVersion skips the swap when the installed version is not older
	// than the archive's.
	CheckVersion bool
}

// Result describes a completed install.
type Result struct {
	Name            string
	Version         string
	PreviousVersion string
	Destination     string
	Outcome         Outcome
}

// Installer swaps archives into a workspace's packages directory.
type Installer struct {
	layout workspace.Layout
	fs     FS
	policy retry.Policy
	logger *zap.SugaredLogger
	tr     *i18n.Translator
}

// Option configures an Installer.
type Option func(*Installer)

// WithFS replaces the filesystem used for staging and swapping.
func WithFS(fsys FS) Option {
	return func(in *Installer) {
		in.fs = fsys
	}
}

// WithRetryPolicy sets the policy for every retried mutation.
func WithRetryPolicy(p retry.Policy) Option {
	return func(in *Installer) {
		in.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(in *Installer) {
		in.logger = l.Sugar()
	}
}

// WithTranslator sets the translator for user-facing log messages.
func WithTranslator(tr *i18n.Translator) Option {
	return func(in *Installer) {
		in.tr = tr
	}
}

// New creates an Installer for layout.
func New(layout workspace.Layout, opts ...Option) *Installer {
	in := &Installer{
		layout: layout,
		fs:     OSFS{},
		policy: retry.Default(),
		logger: zap.NewNop().Sugar(),
		tr:     i18n.English(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Install extracts archivePath and makes it the content of the package
// directory. On any error the destination is unchanged, except for
// *DegradedStateError where it is absent and the previous content sits in
// quarantine.
func (in *Installer) Install(ctx context.Context, archivePath string, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := in.fs.Stat(archivePath)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, archivePath)
	}

	stem := strings.TrimSuffix(filepath.Base(archivePath), filepath.Ext(archivePath))
	scratch := in.layout.ScratchDir(stem)

	if err := in.preStage(ctx, scratch); err != nil {
		return nil, err
	}

	if err := extractZip(archivePath, scratch); err != nil {
		in.cleanup(ctx, scratch)
		return nil, fmt.Errorf("%w: %s: %w", ErrExtractFailure, filepath.Base(archivePath), err)
	}

	root := packageRoot(scratch)
	m, manifestErr := manifest.Read(root)
	if manifestErr != nil {
		in.logger.Debugw("extracted package has no usable manifest", "path", root, "error", manifestErr)
	}

	name, err := resolveName(opts.Name, m, stem)
	if err != nil {
		in.cleanup(ctx, scratch)
		return nil, err
	}

	dest := in.layout.PackageDir(name)
	var quarantine string
	log := in.logger.With("package", name)

	res := &Result{Name: name, Destination: dest, Outcome: OutcomeInstalled}
	if m != nil {
		res.Version = m.Version
	}
	prev, probeErr := manifest.ProbeDir(dest)
	if probeErr != nil {
		log.Debugw("installed package has no usable manifest", "path", dest, "error", probeErr)
	}
	res.PreviousVersion = prev.Version

	if opts.CheckVersion && manifestErr == nil && probeErr == nil && prev.Installed &&
		!version.Newer(m.Version, prev.Version) {
		log.Infow(in.tr.T(i18n.MsgUpToDate, name, prev.Version, m.Version))
		in.cleanup(ctx, scratch)
		res.Outcome = OutcomeUpToDate
		return res, nil
	}

	destExists := in.exists(dest)
	if destExists && in.layout.DetectMode() == workspace.ModeManaged {
		log.Warnw(in.tr.T(i18n.MsgManagedSkip, name))
		in.cleanup(ctx, scratch)
		res.Outcome = OutcomeManagedSkip
		return res, nil
	}

	if destExists {
		parked, err := in.swapOut(ctx, log, name, dest)
		if err != nil {
			in.cleanup(ctx, scratch)
			return nil, err
		}
		quarantine = parked
	}

	if err := in.swapIn(ctx, log, root, dest); err != nil {
		if destExists {
			log.Errorw(in.tr.T(i18n.MsgDegraded, name, quarantine), "error", err)
			return nil, &DegradedStateError{Name: name, Destination: dest, Quarantine: quarantine, Err: err}
		}
		in.cleanup(ctx, scratch)
		return nil, fmt.Errorf("%w: moving %s into %s: %w", ErrSwapFailure, name, dest, err)
	}

	if quarantine != "" {
		in.cleanup(ctx, quarantine)
	}
	in.cleanup(ctx, scratch)
	return res, nil
}

// preStage makes sure the staging area exists and the scratch directory
// for this archive is empty.
func (in *Installer) preStage(ctx context.Context, scratch string) error {
	if err := in.fs.MkdirAll(in.layout.StagingDir, workspace.DirPermNormal); err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrStageConflict, in.layout.StagingDir, err)
	}
	if err := in.retry(ctx, "delete", scratch, func() error { return in.fs.RemoveAll(scratch) }); err != nil {
		return fmt.Errorf("%w: clearing %s: %w", ErrStageConflict, scratch, err)
	}
	return nil
}

// swapOut parks the current install and returns where it went. Only
// renames are used, so on failure the destination is untouched. When the
// quarantine directory is on another volume the install is parked in a
// hidden sibling of the destination instead.
func (in *Installer) swapOut(ctx context.Context, log *zap.SugaredLogger, name, dest string) (string, error) {
	if err := in.fs.MkdirAll(in.layout.QuarantineDir, workspace.DirPermNormal); err != nil {
		return "", fmt.Errorf("%w: creating %s: %w", ErrSwapFailure, in.layout.QuarantineDir, err)
	}
	quarantine := in.layout.QuarantinePath(name)
	err := in.park(ctx, dest, quarantine)
	if errors.Is(err, platform.ErrCrossDevice) {
		quarantine = in.layout.ParkingPath(name)
		log.Debugw("quarantine is on another volume, parking next to the package", "path", quarantine)
		err = in.park(ctx, dest, quarantine)
	}
	if err != nil {
		return "", fmt.Errorf("%w: moving %s to quarantine: %w", ErrSwapFailure, dest, err)
	}
	return quarantine, nil
}

func (in *Installer) park(ctx context.Context, dest, quarantine string) error {
	if err := in.retry(ctx, "delete", quarantine, func() error { return in.fs.RemoveAll(quarantine) }); err != nil {
		return fmt.Errorf("clearing %s: %w", quarantine, err)
	}
	return in.retry(ctx, "move", dest, func() error { return in.fs.Rename(dest, quarantine) })
}

// swapIn moves the extracted package into place. A cross-volume move whose
// copy was verified counts as done even if the scratch copy could not be
// removed; cleanup retries that later.
func (in *Installer) swapIn(ctx context.Context, log *zap.SugaredLogger, root, dest string) error {
	if err := in.fs.MkdirAll(in.layout.PackagesDir, workspace.DirPermNormal); err != nil {
		return err
	}
	return in.retry(ctx, "move", root, func() error {
		err := in.fs.Move(root, dest)
		if errors.Is(err, platform.ErrSourceRemains) {
			log.Warnw(in.tr.T(i18n.MsgCleanupFailed, root, err), "path", root)
			return nil
		}
		return err
	})
}

// cleanup removes path under the retry policy. Failures only warn.
func (in *Installer) cleanup(ctx context.Context, path string) {
	if err := in.retry(ctx, "delete", path, func() error { return in.fs.RemoveAll(path) }); err != nil {
		in.logger.Warnw(in.tr.T(i18n.MsgCleanupFailed, path, err), "path", path)
	}
}

func (in *Installer) retry(ctx context.Context, action, path string, op func() error) error {
	return in.policy.Do(ctx, op, func(attempt int, err error, next time.Duration) {
		in.logger.Warnw(in.tr.T(i18n.MsgRetry, action, path, next, err), "path", path, "attempt", attempt)
	})
}

func (in *Installer) exists(path string) bool {
	_, err := in.fs.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// resolveName picks the destination directory name: the explicit override,
// then the manifest name, then the archive stem.
func resolveName(override string, m *manifest.Manifest, stem string) (string, error) {
	name := strings.TrimSpace(override)
	if name == "" && m != nil {
		name = strings.TrimSpace(m.Name)
	}
	if name == "" {
		name = stem
	}
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.VolumeName(name) != "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}
