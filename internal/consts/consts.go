package consts

const (
	GeekBaseURL   = "https://geekai.co/api"
	TuziBaseURL   = "https://api.tu-zi.com"
	V3BaseUrl     = "https://api.gpt.ge"
	GoogleBaseURL = "https://generativelanguage.googleapis.com"
)

type ModelSupplier string

const (
	Geek   ModelSupplier = "geek"
	Tuzi   ModelSupplier = "tuzi"
	V3     ModelSupplier = "v3"
	Google ModelSupplier = "google"
)

func (m ModelSupplier) String() string {
	return string(m)
}

func (m ModelSupplier) BaseURL() string {
	switch m {
	case Geek:
		return GeekBaseURL
	case Tuzi:
		return TuziBaseURL
	case V3:
		return V3BaseUrl
	case Google:
		return GoogleBaseURL
	default:
		return ""
	}
}

// OpenAICompatible reports whether the supplier speaks the chat completions API.
func (m ModelSupplier) OpenAICompatible() bool {
	return m == Geek || m == Tuzi || m == V3
}

type DocumentKind string

const (
	DocumentKindImage DocumentKind = "image"
	DocumentKindPDF   DocumentKind = "pdf"
)

func (d DocumentKind) String() string {
	return string(d)
}

const (
	PageJPEGQuality = 90
	ThumbnailRatio  = 0.25
)
