package recognize

// Request is the document-reader process request. Images are base64-encoded
// JPEG payloads, one entry per page/photo of the same document.
type Request struct {
	ProcessParam ProcessParam `json:"processParam"`
	List         []ImageEntry `json:"List"`
}

// ProcessParam selects the recognition scenario and which result blocks the
// service should return.
type ProcessParam struct {
	Scenario         string   `json:"scenario"`
	ResultTypeOutput []string `json:"resultTypeOutput,omitempty"`
}

// ImageEntry wraps one base64 image.
type ImageEntry struct {
	ImageData string `json:"ImageData"`
}

// Response is the low-level recognition result. Some deployments wrap the
// payload in low_lvl_response, and multi-image requests carry one child
// result per image under list.
type Response struct {
	LowLvlResponse *Response      `json:"low_lvl_response,omitempty"`
	ContainerList  *ContainerList `json:"ContainerList,omitempty"`
	List           []Response     `json:"list,omitempty"`
}

// Root unwraps the optional low_lvl_response envelope.
func (r *Response) Root() *Response {
	if r == nil {
		return nil
	}
	if r.LowLvlResponse != nil {
		return r.LowLvlResponse
	}
	return r
}

// Fields yields every text field entry across all containers.
func (r *Response) Fields() []TextField {
	root := r.Root()
	if root == nil || root.ContainerList == nil {
		return nil
	}
	var out []TextField
	for _, c := range root.ContainerList.List {
		if c.Text == nil {
			continue
		}
		out = append(out, c.Text.FieldList...)
	}
	return out
}

type ContainerList struct {
	List []Container `json:"List"`
}

type Container struct {
	Text *TextResult `json:"Text,omitempty"`
}

type TextResult struct {
	FieldList []TextField `json:"fieldList"`
}

// TextField is one recognized field with its per-source candidate values.
// Older service versions report a flat value/probability instead of a
// valueList; the mapper treats that as a VISUAL candidate.
type TextField struct {
	FieldName   string       `json:"fieldName,omitempty"`
	Name        string       `json:"name,omitempty"`
	Value       string       `json:"value,omitempty"`
	Probability float64      `json:"probability,omitempty"`
	ValueList   []FieldValue `json:"valueList,omitempty"`
}

// Label returns the field's display name, whichever key the service used.
func (f TextField) Label() string {
	if f.FieldName != "" {
		return f.FieldName
	}
	return f.Name
}

// Candidate sources reported by the service.
const (
	SourceMRZ    = "MRZ"
	SourceVisual = "VISUAL"
)

// FieldValue is a single candidate reading of a field. Probability is on the
// service's 0-100 scale.
type FieldValue struct {
	Value         string  `json:"value,omitempty"`
	OriginalValue string  `json:"originalValue,omitempty"`
	Source        string  `json:"source"`
	Probability   float64 `json:"probability,omitempty"`
}

// Text returns the candidate's value, falling back to originalValue.
func (v FieldValue) Text() string {
	if v.Value != "" {
		return v.Value
	}
	return v.OriginalValue
}
