package i18n

// Message keys. Each key is also its English rendering.
const (
	MsgInstallZip          = "Install zip package %s"
	MsgInstallZipSuccess   = "Install zip package %s success"
	MsgInstallZipFailed    = "Failed to install zip package %s"
	MsgFetchRegistry       = "Fetching registry %s"
	MsgFetchRegistryFailed = "Failed to fetch registry %s"
	MsgPackageNotFound     = "Package %s not found"
	MsgVersionFallback     = "Package %s version %s not found, use latest version %s"
	MsgUpToDate            = "Local package %s version %s is up to date with %s"
	MsgDownload            = "Downloading %s"
	MsgDownloadFailed      = "Failed to download package %s version %s"
	MsgChecksumFailed      = "Checksum mismatch for package %s version %s"
	MsgInstallFailed       = "Failed to install package %s version %s"
	MsgInstallSuccess      = "Install package %s version %s success"
	MsgManagedSkip         = "Managed environment detected, skip install %s"
	MsgRetry               = "Failed to %s %s, retry after %s: %v"
	MsgRetryExhausted      = "Failed to %s %s, retry count exceeded %d"
	MsgDegraded            = "Package %s is missing; previous version kept at %s"
	MsgCleanupFailed       = "Failed to clean up %s: %v"
	MsgPurgeCache          = "Purging cache %s"
	MsgDeleteFolder        = "Deleting folder %s"
	MsgDependencyMissing   = "%s requires %s %s, which is not installed"
	MsgDependencyMismatch  = "%s requires %s %s, installed %s"
	MsgInsecureURL         = "Fetching over plain http: %s"
	MsgRunSummary          = "Installed %d, up to date %d, skipped %d, failed %d"
)
