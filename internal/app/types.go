package app

type RestoreRequest struct {
	DocsetDir      string
	CacheDir       string
	Token          string
	Workers        int
	HTTPTimeoutSec int
	KeepLast       int
	KeepDays       int
	SkipGC         bool
}

type RestoreResult struct {
	DocsetName  string
	DocsetCount int
	URLCount    int
	GitCount    int
	RemovedGit  []string
	RemovedURLs []string
}

type GCRequest struct {
	DocsetDir string
	CacheDir  string
	Workers   int
	KeepLast  int
	KeepDays  int
	DryRun    bool
}

type GCResult struct {
	DocsetCount int
	RemovedGit  []string
	RemovedURLs []string
	DryRun      bool
}

type ValidateRequest struct {
	DocsetDir string
}

type ValidateResult struct {
	DocsetName string
	RemoteURLs int
	GitRefs    int
}

type InspectRequest struct {
	DocsetDir string
}

type InspectResult struct {
	DocsetName  string
	GeneratedAt string
	URLs        map[string]string
	Git         map[string]string
}
