package piston

// Request is a single execution of one source file
type Request struct {
	Language string
	Source   string
	Stdin    string
	Args     []string
}

// File is a source file in the Piston wire format
type File struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

type executeRequest struct {
	Language string   `json:"language"`
	Version  string   `json:"version"`
	Files    []File   `json:"files"`
	Stdin    string   `json:"stdin"`
	Args     []string `json:"args"`
}

// Response is the decoded body of a Piston execute call.
// Run is nil when the service could not execute the program at all.
type Response struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Run      *Stage `json:"run,omitempty"`
	Compile  *Stage `json:"compile,omitempty"`
}

// Stage is the outcome of the compile or run step
type Stage struct {
	Stdout string  `json:"stdout"`
	Stderr string  `json:"stderr"`
	Output string  `json:"output"`
	Code   *int    `json:"code"`
	Signal *string `json:"signal"`
}

// InstalledRuntime is an entry of GET /runtimes
type InstalledRuntime struct {
	Language string   `json:"language"`
	Version  string   `json:"version"`
	Aliases  []string `json:"aliases"`
	Runtime  string   `json:"runtime,omitempty"`
}

type packageRequest struct {
	Language string `json:"language"`
	Version  string `json:"version"`
}
