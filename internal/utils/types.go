package utils

// FutJob is one URL to download together with every knob that shapes how it is fetched.
type FutJob struct {
	ID               string
	URL              string
	Destination      string
	Threads          int
	ChunkSize        int
	Threshold        int64
	BarSize          int
	ForceSingle      bool
	Verbose          bool
	Status           bool
	HTTPClientConfig HTTPClientConfig
}

// Reporting is true when the job should print headers and progress.
func (j *FutJob) Reporting() bool {
	return j.Verbose || j.Status
}

type BatchEntry struct {
	URL         string `yaml:"link"`
	Destination string `yaml:"dir,omitempty"`
	Threads     *int   `yaml:"threads,omitempty"`
}
