package cache

// Keyer builds cache keys for each cached stage.
type Keyer interface {
	// LabelKey identifies one rendered label.
	LabelKey(payload string, opts LabelKeyOpts) string

	// SheetKey identifies one emitted sheet, given a hash over its labels.
	SheetKey(labelsHash string, opts SheetKeyOpts) string
}

// LabelKeyOpts holds every input besides the payload that changes a label.
type LabelKeyOpts struct {
	Name       string  `json:"name"`
	Level      string  `json:"level"`
	SymbolDim  int     `json:"symbol_dim"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	TextHeight float64 `json:"text_height"`
	Padding    int     `json:"padding"`
	FontHash   string  `json:"font_hash"`
}

// SheetKeyOpts holds the page geometry that changes a sheet.
type SheetKeyOpts struct {
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
	PitchX     float64 `json:"pitch_x"`
	PitchY     float64 `json:"pitch_y"`
	Margin     float64 `json:"margin"`
	Columns    int     `json:"columns"`
	DPI        float64 `json:"dpi"`
}

// DefaultKeyer hashes key inputs into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LabelKey returns "label:<sha256>" over the payload and options.
func (DefaultKeyer) LabelKey(payload string, opts LabelKeyOpts) string {
	return hashKey("label", payload, opts)
}

// SheetKey returns "sheet:<sha256>" over the label hash and geometry.
func (DefaultKeyer) SheetKey(labelsHash string, opts SheetKeyOpts) string {
	return hashKey("sheet", labelsHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = DefaultKeyer{}
