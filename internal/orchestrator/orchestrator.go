package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agentx-labs/pkginstall/internal/config"
	"github.com/agentx-labs/pkginstall/internal/fetch"
	"github.com/agentx-labs/pkginstall/internal/i18n"
	"github.com/agentx-labs/pkginstall/internal/installer"
	"github.com/agentx-labs/pkginstall/internal/manifest"
	"github.com/agentx-labs/pkginstall/internal/platform"
	"github.com/agentx-labs/pkginstall/internal/registry"
	"github.com/agentx-labs/pkginstall/internal/retry"
	"github.com/agentx-labs/pkginstall/internal/version"
	"github.com/agentx-labs/pkginstall/internal/workspace"
)

// Fetcher retrieves the registry document and package archives.
type Fetcher interface {
	FetchRegistry(ctx context.Context, url string) (*registry.Document, error)
	FetchArchive(ctx context.Context, url, cacheDir string) (string, error)
}

// Installer swaps one archive into the packages directory.
type Installer interface {
	Install(ctx context.Context, archivePath string, opts installer.Options) (*installer.Result, error)
}

// Orchestrator runs installation passes for one project.
type Orchestrator struct {
	cfg       *config.Config
	layout    workspace.Layout
	fetcher   Fetcher
	installer Installer
	policy    retry.Policy
	logger    *zap.SugaredLogger
	tr        *i18n.Translator
	newRunID  func() string
	copyFile  func(src, dst string) error
	moveFile  func(src, dst string) error
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l.Sugar()
	}
}

// WithTranslator sets the translator for user-facing log messages.
func WithTranslator(tr *i18n.Translator) Option {
	return func(o *Orchestrator) {
		o.tr = tr
	}
}

// WithRetryPolicy sets the policy for staging, cache purge and folder removal.
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *Orchestrator) {
		o.policy = p
	}
}

// New creates an Orchestrator.
func New(cfg *config.Config, layout workspace.Layout, f Fetcher, in Installer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		layout:    layout,
		fetcher:   f,
		installer: in,
		policy:    retry.Default(),
		logger:    zap.NewNop().Sugar(),
		tr:        i18n.English(),
		newRunID:  uuid.NewString,
		copyFile:  platform.CopyFile,
		moveFile:  platform.Move,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run performs one pass. Package failures are recorded in the report and do
// not stop the run; the returned error is non-nil only when ctx ends early.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: o.newRunID()}
	log := o.logger.With("run", report.RunID)
	managed := o.layout.DetectMode() == workspace.ModeManaged
	log.Debugw("starting run", "root", o.layout.Root, "mode", o.layout.DetectMode().String())

	if o.cfg.InstallZipPackages {
		o.installZipPackages(ctx, log, report, managed)
	}
	if o.cfg.InstallRegistryPackages && strings.TrimSpace(o.cfg.RegistryURL) != "" {
		o.installRegistryPackages(ctx, log, report)
	}

	log.Infow(o.tr.T(i18n.MsgPurgeCache, o.layout.CacheDir))
	if err := o.retry(ctx, log, "delete", o.layout.CacheDir, func() error { return os.RemoveAll(o.layout.CacheDir) }); err != nil {
		log.Warnw(o.tr.T(i18n.MsgCleanupFailed, o.layout.CacheDir, err), "path", o.layout.CacheDir)
	} else {
		report.CachePurged = true
	}

	if !managed && o.cfg.DeleteSelf {
		report.DeletedFolders = o.deleteFolders(ctx, log)
	}

	log.Infow(o.tr.T(i18n.MsgRunSummary,
		report.Count(StatusInstalled), report.Count(StatusUpToDate),
		report.Count(StatusManagedSkip), report.Count(StatusFailed)))
	return report, ctx.Err()
}

// installZipPackages installs every archive dropped into the zip packages
// folder, in name order.
func (o *Orchestrator) installZipPackages(ctx context.Context, log *zap.SugaredLogger, report *Report, managed bool) {
	entries, err := os.ReadDir(o.layout.ZipPackagesDir)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		log.Warnw("cannot read zip packages folder", "path", o.layout.ZipPackagesDir, "error", err)
		return
	}

	for _, e := range entries {
		if ctx.Err() != nil {
			return
		}
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".zip") {
			continue
		}
		report.Packages = append(report.Packages, o.installZip(ctx, log, e.Name(), managed))
	}
}

func (o *Orchestrator) installZip(ctx context.Context, log *zap.SugaredLogger, fileName string, managed bool) PackageReport {
	src := filepath.Join(o.layout.ZipPackagesDir, fileName)
	staged := filepath.Join(o.layout.CacheDir, fileName)
	pr := PackageReport{Name: strings.TrimSuffix(fileName, filepath.Ext(fileName)), Source: SourceZip}
	log = log.With("package", pr.Name)
	log.Infow(o.tr.T(i18n.MsgInstallZip, fileName))

	fail := func(err error) PackageReport {
		log.Errorw(o.tr.T(i18n.MsgInstallZipFailed, fileName), "error", err)
		pr.Status, pr.Err = StatusFailed, err
		return pr
	}

	if err := os.MkdirAll(o.layout.CacheDir, workspace.DirPermNormal); err != nil {
		return fail(err)
	}
	if err := o.retry(ctx, log, "delete", staged, func() error { return os.RemoveAll(staged) }); err != nil {
		return fail(err)
	}
	// A managed environment keeps the drop folder intact.
	if managed {
		if err := o.retry(ctx, log, "copy", src, func() error { return o.copyFile(src, staged) }); err != nil {
			return fail(err)
		}
	} else if err := o.retry(ctx, log, "move", src, func() error { return o.stage(log, src, staged) }); err != nil {
		return fail(err)
	}

	res, err := o.installer.Install(ctx, staged, installer.Options{CheckVersion: !o.cfg.ForceInstallZipPackages})
	if err != nil {
		return fail(err)
	}
	pr.Name = res.Name
	pr.Resolved = res.Version
	pr.Previous = res.PreviousVersion
	pr.Status = statusFor(res.Outcome)
	if pr.Status == StatusInstalled {
		log.Infow(o.tr.T(i18n.MsgInstallZipSuccess, fileName))
	}
	return pr
}

func (o *Orchestrator) installRegistryPackages(ctx context.Context, log *zap.SugaredLogger, report *Report) {
	requests := o.cfg.Requests()
	if len(requests) == 0 {
		return
	}

	log.Infow(o.tr.T(i18n.MsgFetchRegistry, o.cfg.RegistryURL))
	doc, err := o.fetcher.FetchRegistry(ctx, o.cfg.RegistryURL)
	if err != nil {
		log.Errorw(o.tr.T(i18n.MsgFetchRegistryFailed, o.cfg.RegistryURL), "error", err)
		for _, req := range requests {
			report.Packages = append(report.Packages, PackageReport{
				Name: req.Name, Source: SourceRegistry, Requested: req.Version,
				Status: StatusFailed, Err: err,
			})
		}
		return
	}

	for _, req := range requests {
		if ctx.Err() != nil {
			return
		}
		report.Packages = append(report.Packages, o.installRegistryPackage(ctx, log, doc, req))
	}
}

func (o *Orchestrator) installRegistryPackage(ctx context.Context, log *zap.SugaredLogger, doc *registry.Document, req config.PackageRequest) PackageReport {
	pr := PackageReport{Name: req.Name, Source: SourceRegistry, Requested: req.Version}
	log = log.With("package", req.Name)

	entry, err := doc.Lookup(req.Name)
	if err != nil {
		log.Errorw(o.tr.T(i18n.MsgPackageNotFound, req.Name))
		pr.Status, pr.Err = StatusFailed, err
		return pr
	}

	res := registry.SelectByRequest(entry, req.Version)
	if res.Version == nil {
		err := &registry.NotFoundError{Name: req.Name, Version: req.Version}
		log.Errorw(o.tr.T(i18n.MsgPackageNotFound, req.Name))
		pr.Status, pr.Err = StatusFailed, err
		return pr
	}
	pv := res.Version
	pr.Resolved = pv.Version
	if res.FellBack {
		msg := o.tr.T(i18n.MsgVersionFallback, req.Name, req.Version, pv.Version)
		log.Warnw(msg)
		pr.FellBack = true
		pr.Warnings = append(pr.Warnings, msg)
	}

	probe, err := manifest.ProbeDir(o.layout.PackageDir(req.Name))
	if err != nil {
		log.Warnw("cannot read installed version, treating as not installed", "error", err)
	}
	pr.Previous = probe.Version

	if probe.Installed && !req.Force && !version.Newer(pv.Version, probe.Version) {
		log.Infow(o.tr.T(i18n.MsgUpToDate, req.Name, probe.Version, pv.Version))
		pr.Status = StatusUpToDate
		return pr
	}

	fail := func(key string, err error) PackageReport {
		log.Errorw(o.tr.T(key, req.Name, pv.Version), "error", err)
		pr.Status, pr.Err = StatusFailed, err
		return pr
	}

	log.Infow(o.tr.T(i18n.MsgDownload, pv.URL))
	archive, err := o.fetcher.FetchArchive(ctx, pv.URL, o.layout.DownloadsDir)
	if err != nil {
		return fail(i18n.MsgDownloadFailed, err)
	}
	if o.cfg.VerifyChecksums && strings.TrimSpace(pv.ZipSHA256) != "" {
		if err := fetch.VerifyChecksum(archive, pv.ZipSHA256); err != nil {
			return fail(i18n.MsgChecksumFailed, err)
		}
	}

	result, err := o.installer.Install(ctx, archive, installer.Options{Name: req.Name})
	if err != nil {
		return fail(i18n.MsgInstallFailed, err)
	}
	pr.Status = statusFor(result.Outcome)
	if pr.Status == StatusInstalled {
		log.Infow(o.tr.T(i18n.MsgInstallSuccess, req.Name, pv.Version))
		pr.Warnings = append(pr.Warnings, o.dependencyWarnings(log, req.Name, pv)...)
	}
	return pr
}

// dependencyWarnings checks each declared dependency range against what is
// installed. Nothing is installed on the package's behalf.
func (o *Orchestrator) dependencyWarnings(log *zap.SugaredLogger, name string, pv *registry.PackageVersion) []string {
	var warnings []string
	for _, dep := range slices.Sorted(maps.Keys(pv.Dependencies)) {
		rng := pv.Dependencies[dep]
		probe, err := manifest.ProbeDir(o.layout.PackageDir(dep))
		if err != nil || !probe.Installed {
			warnings = append(warnings, o.tr.T(i18n.MsgDependencyMissing, name, dep, rng))
			continue
		}
		ok, err := version.Satisfies(probe.Version, rng)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: dependency %s: %v", name, dep, err))
			continue
		}
		if !ok {
			warnings = append(warnings, o.tr.T(i18n.MsgDependencyMismatch, name, dep, rng, probe.Version))
		}
	}
	for _, w := range warnings {
		log.Warnw(w)
	}
	return warnings
}

// deleteFolders removes the configured folders relative to the project
// root. Entries use either separator and must have at least two segments.
func (o *Orchestrator) deleteFolders(ctx context.Context, log *zap.SugaredLogger) []string {
	var deleted []string
	for _, entry := range o.cfg.DeleteFolders {
		rel, ok := folderPath(entry)
		if !ok {
			log.Debugw("ignoring delete folder entry", "entry", entry)
			continue
		}
		path := filepath.Join(o.layout.Root, rel)
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			continue
		}
		log.Infow(o.tr.T(i18n.MsgDeleteFolder, path))
		if err := o.retry(ctx, log, "delete", path, func() error { return os.RemoveAll(path) }); err != nil {
			log.Warnw(o.tr.T(i18n.MsgCleanupFailed, path, err), "path", path)
			continue
		}
		deleted = append(deleted, path)
	}
	return deleted
}

// folderPath turns a configured entry such as `Assets\Installer` into a
// relative path. Single-segment, absolute and parent-relative entries are
// rejected.
func folderPath(entry string) (string, bool) {
	entry = strings.TrimSpace(entry)
	if entry == "" || strings.HasPrefix(entry, "/") || strings.HasPrefix(entry, `\`) || filepath.IsAbs(entry) {
		return "", false
	}
	parts := strings.FieldsFunc(entry, func(r rune) bool { return r == '/' || r == '\\' })
	if len(parts) < 2 {
		return "", false
	}
	for _, p := range parts {
		if p == ".." || p == "." || strings.Contains(p, ":") {
			return "", false
		}
	}
	return filepath.Join(parts...), true
}

// stage moves src to staged. A verified copy whose source could not be
// removed still counts as staged.
func (o *Orchestrator) stage(log *zap.SugaredLogger, src, staged string) error {
	err := o.moveFile(src, staged)
	if errors.Is(err, platform.ErrSourceRemains) {
		log.Warnw(o.tr.T(i18n.MsgCleanupFailed, src, err), "path", src)
		return nil
	}
	return err
}

func (o *Orchestrator) retry(ctx context.Context, log *zap.SugaredLogger, action, path string, op func() error) error {
	return o.policy.Do(ctx, op, func(attempt int, err error, next time.Duration) {
		log.Warnw(o.tr.T(i18n.MsgRetry, action, path, next, err), "path", path, "attempt", attempt)
	})
}
