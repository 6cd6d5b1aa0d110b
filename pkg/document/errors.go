package document

// MissingFieldError reports a mandatory core field absent from the
// front matter.
type MissingFieldError struct {
	Name string
}

func (e *MissingFieldError) Error() string {
	return "document: missing required field " + e.Name
}
