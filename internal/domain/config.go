package domain

import "fmt"

// ViewKind names one of the record views.
type ViewKind string

const (
	ViewGrid     ViewKind = "grid"
	ViewForm     ViewKind = "form"
	ViewKanban   ViewKind = "kanban"
	ViewGallery  ViewKind = "gallery"
	ViewCalendar ViewKind = "calendar"
)

// ViewKinds lists the views in tab order.
var ViewKinds = []ViewKind{ViewGrid, ViewForm, ViewKanban, ViewGallery, ViewCalendar}

// Valid reports whether k names a known view.
func (k ViewKind) Valid() bool {
	switch k {
	case ViewGrid, ViewForm, ViewKanban, ViewGallery, ViewCalendar:
		return true
	}
	return false
}

// ViewsConfig is the user-facing configuration of the views component.
// It is validated by type only, never against the schema's fields.
type ViewsConfig struct {
	DefaultView ViewKind `json:"defaultView,omitempty" mapstructure:"defaultView"`
	Language    string   `json:"language,omitempty" mapstructure:"language"`
}

// Validate checks that set values are of a known kind.
func (c ViewsConfig) Validate() error {
	if c.DefaultView != "" && !c.DefaultView.Valid() {
		return fmt.Errorf("unknown default view: %q", c.DefaultView)
	}
	return nil
}
