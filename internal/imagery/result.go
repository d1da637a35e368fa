package imagery

// Candidate is one image descriptor returned by a source adapter before
// download.
type Candidate struct {
	URL              string
	Width            int
	Height           int
	Attribution      string
	AttributionURL   string
	DownloadLocation string
}

// Result is a resolved image. Exactly one successful adapter attempt or the
// placeholder store produces it; the caller owns it afterwards.
type Result struct {
	Source         string
	Path           string
	Attribution    string
	AttributionURL string
	Placeholder    bool
}
