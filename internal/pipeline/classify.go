package pipeline

// Category selects the extraction strategies tried for a file.
type Category int

const (
	Unsupported Category = iota
	PlainText
	OfficeDocument
	ScannedOrImage
)

func (c Category) String() string {
	switch c {
	case PlainText:
		return "plain_text"
	case OfficeDocument:
		return "office_document"
	case ScannedOrImage:
		return "scanned_or_image"
	default:
		return "unsupported"
	}
}

var categoryByExtension = map[string]Category{
	"txt":  PlainText,
	"json": PlainText,
	"md":   PlainText,
	"docx": OfficeDocument,
	"doc":  OfficeDocument,
	"pdf":  ScannedOrImage,
	"png":  ScannedOrImage,
	"jpg":  ScannedOrImage,
	"jpeg": ScannedOrImage,
}

// Classify maps the suffix of a decoded key to a Category.
func Classify(decodedKey string) Category {
	if c, ok := categoryByExtension[extensionOf(decodedKey)]; ok {
		return c
	}
	return Unsupported
}
