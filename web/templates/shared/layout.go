// Package shared holds view types used by every page.
package shared

// Breadcrumb represents a navigation trail
type Breadcrumb struct {
	Title string
	URL   string
}

// FlashMessage is a one-shot notice shown at the top of a page
type FlashMessage struct {
	Level   string
	Message string
}

// Layout is the data the base layout needs. Page props embed it.
type Layout struct {
	Title       string
	ActiveNav   string
	Breadcrumbs []Breadcrumb
	UserEmail   string
	UserUID     string
	Flashes     []FlashMessage
}
