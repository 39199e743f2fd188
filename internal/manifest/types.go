package manifest

// FileName is the manifest file at the root of every package directory.
const FileName = "package.json"

// Manifest holds the package.json fields the installer consumes. Everything
// else in the file is ignored.
type Manifest struct {
	Name            string            `json:"name"`
	DisplayName     string            `json:"displayName,omitempty"`
	Version         string            `json:"version"`
	Unity           string            `json:"unity,omitempty"`
	Description     string            `json:"description,omitempty"`
	VPMDependencies map[string]string `json:"vpmDependencies,omitempty"`
}

// Probe describes what is installed at a package directory.
type Probe struct {
	Dir       string
	Installed bool   // a readable manifest with a version exists
	Version   string // installed version, empty when not Installed
}
