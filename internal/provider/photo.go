package provider

// Photo is one search result. Immutable once fetched.
type Photo struct {
	ID          string      `json:"id"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	PageURL     string      `json:"url,omitempty"`
	Alt         string      `json:"alt,omitempty"`
	AvgColor    string      `json:"avg_color,omitempty"`
	Sizes       Sizes       `json:"src"`
	Attribution Attribution `json:"attribution"`
}

// Sizes holds the renditions a provider offers for a photo.
type Sizes struct {
	Original  string `json:"original,omitempty"`
	Large2x   string `json:"large2x,omitempty"`
	Large     string `json:"large,omitempty"`
	Medium    string `json:"medium,omitempty"`
	Small     string `json:"small,omitempty"`
	Portrait  string `json:"portrait,omitempty"`
	Landscape string `json:"landscape,omitempty"`
	Tiny      string `json:"tiny,omitempty"`
}

type Attribution struct {
	Author     string `json:"author"`
	ProfileURL string `json:"profile_url,omitempty"`
}

// Preferred returns the rendition used for display and export. It favours the
// web-sized "large" and "medium" renditions over the multi-megabyte originals,
// then falls back to whatever else is available.
func (s Sizes) Preferred() string {
	for _, u := range []string{s.Large, s.Medium, s.Large2x, s.Original, s.Landscape, s.Small, s.Portrait, s.Tiny} {
		if u != "" {
			return u
		}
	}
	return ""
}
