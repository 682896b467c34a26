package entity

// PageContent is a snapshot of the page the session currently shows.
type PageContent struct {
	URL   string
	Title string
	HTML  string
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// WindowSize is the browser viewport in CSS pixels.
type WindowSize struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}
