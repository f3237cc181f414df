package core

// SchemeFile is the only supported locator scheme.
const SchemeFile = "file"

// HandlerParam is the locator query parameter naming the callable.
const HandlerParam = "handler"

// ArtifactKind classifies the code artifact a locator points at.
type ArtifactKind string

const (
	ArtifactSource  ArtifactKind = "source"  // a single source file
	ArtifactArchive ArtifactKind = "archive" // a zip archive expanded in place
)

// Locator identifies where handler code lives and which callable to invoke.
type Locator struct {
	Raw     string
	Scheme  string
	Path    string
	Handler string
}

// String returns the raw locator.
func (l Locator) String() string {
	return l.Raw
}
