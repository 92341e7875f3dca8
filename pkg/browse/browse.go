// Package browse implements the foreground half of a collection cycle: a
// simulator that drives a browser session through randomized page visits,
// imitating a human reader while the capture loop records the traffic.
package browse

// Element is a clickable element found on a page
type Element interface {
	// Click clicks the element
	Click() error
}

// Session defines the capabilities the simulator needs from a browser
type Session interface {
	// Navigate loads the given URL in the browser
	Navigate(url string) error
	// ExecuteScript runs a script in the current page with the given arguments
	ExecuteScript(script string, args []interface{}) error
	// FindVisibleElements returns the visible elements matching a CSS selector
	FindVisibleElements(selector string) ([]Element, error)
	// Quit terminates the session and releases the browser
	Quit() error
}

// SessionFactory creates a browser session
type SessionFactory func() (Session, error)

// ClickOutcome is the result of a link click attempt on a page
type ClickOutcome int

const (
	// ClickSucceeded indicates a link was found and clicked
	ClickSucceeded ClickOutcome = iota
	// ClickNotFound indicates no visible link matched the selector
	ClickNotFound
	// ClickTransientFailure indicates the interaction failed in a way that
	// does not compromise the session
	ClickTransientFailure
)

// String returns a printable representation of the outcome
func (o ClickOutcome) String() string {
	switch o {
	case ClickSucceeded:
		return "succeeded"
	case ClickNotFound:
		return "no link found"
	case ClickTransientFailure:
		return "transient failure"
	default:
		return "unknown"
	}
}
