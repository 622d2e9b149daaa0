package config

// Resolution is a width x height pair in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Product image limits enforced on admin uploads.
var (
	MinResolution = Resolution{Width: 400, Height: 400}
	MaxResolution = Resolution{Width: 800, Height: 800}
	// OptimalResolution is the exact output size for oversize images. The
	// aspect ratio is not preserved.
	OptimalResolution = Resolution{Width: 800, Height: 600}
)

const (
	MaxImageSize     = 3 * 1024 * 1024
	ImageJPEGQuality = 90
	// MaxImagePixels caps width*height before an upload is decoded.
	MaxImagePixels = 40_000_000
)

// DefaultCategories are created by the migration when missing.
var DefaultCategories = []struct {
	Name string
	Slug string
}{
	{Name: "Notebooks", Slug: "notebooks"},
	{Name: "Smartphones", Slug: "smartphones"},
}
