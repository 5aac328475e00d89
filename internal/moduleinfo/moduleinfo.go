package moduleinfo

// Metadata captures static identifiers for the module. Centralising the
// values keeps the boundary's Version and the daemon's self-description in
// one place.
type Metadata struct {
	Name        string
	BinaryName  string
	Slug        string
	Description string
	Version     string
}

// Info describes the current module.
var Info = Metadata{
	Name:        "BetterFasterWhisper Core",
	BinaryName:  "whisperd",
	Slug:        "whisper-core",
	Description: "Speech-to-text engine with a strict lifecycle and ownership boundary.",
	Version:     "0.1.0",
}
