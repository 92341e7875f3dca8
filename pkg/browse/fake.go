package browse

// FakeElement is an Element for testing that counts clicks and returns a
// scripted error
type FakeElement struct {
	// Err is returned by every call to Click
	Err    error
	clicks int
}

// Click implements the Element interface
func (e *FakeElement) Click() error {
	e.clicks++
	return e.Err
}

// Clicks returns the number of times the element was clicked
func (e *FakeElement) Clicks() int {
	return e.clicks
}

// FakeSession is a Session for testing. It records every interaction and
// returns scripted results. It is not safe for concurrent use, the
// simulator drives a session from a single goroutine.
type FakeSession struct {
	// NavigateErr is returned by every call to Navigate
	NavigateErr error
	// ScriptErr is returned by every call to ExecuteScript
	ScriptErr error
	// FindErr is returned by every call to FindVisibleElements
	FindErr error
	// QuitErr is returned by every call to Quit
	QuitErr error
	// FindResults are consumed one per FindVisibleElements call, the last
	// one repeating once the script is exhausted
	FindResults [][]Element

	navigations []string
	scripts     []string
	scriptArgs  [][]interface{}
	finds       int
	quits       int
}

// NewFakeSession creates an empty FakeSession
func NewFakeSession() *FakeSession {
	return &FakeSession{}
}

// Factory returns a SessionFactory that always returns this session
func (f *FakeSession) Factory() SessionFactory {
	return func() (Session, error) {
		return f, nil
	}
}

// Navigate implements the Session interface
func (f *FakeSession) Navigate(url string) error {
	f.navigations = append(f.navigations, url)
	return f.NavigateErr
}

// ExecuteScript implements the Session interface
func (f *FakeSession) ExecuteScript(script string, args []interface{}) error {
	f.scripts = append(f.scripts, script)
	f.scriptArgs = append(f.scriptArgs, args)
	return f.ScriptErr
}

// FindVisibleElements implements the Session interface
func (f *FakeSession) FindVisibleElements(string) ([]Element, error) {
	index := f.finds
	f.finds++

	if f.FindErr != nil {
		return nil, f.FindErr
	}

	if len(f.FindResults) == 0 {
		return nil, nil
	}

	if index >= len(f.FindResults) {
		index = len(f.FindResults) - 1
	}

	return f.FindResults[index], nil
}

// Quit implements the Session interface
func (f *FakeSession) Quit() error {
	f.quits++
	return f.QuitErr
}

// Navigations returns the urls passed to Navigate, in order
func (f *FakeSession) Navigations() []string {
	return f.navigations
}

// Scripts returns the scripts passed to ExecuteScript, in order
func (f *FakeSession) Scripts() []string {
	return f.scripts
}

// ScrolledPixels returns the first argument of each ExecuteScript call
// that carried one, as scroll deltas
func (f *FakeSession) ScrolledPixels() []int {
	pixels := []int{}
	for _, args := range f.scriptArgs {
		if len(args) == 0 {
			continue
		}

		if delta, ok := args[0].(int); ok {
			pixels = append(pixels, delta)
		}
	}

	return pixels
}

// FindInvocations returns the number of calls to FindVisibleElements
func (f *FakeSession) FindInvocations() int {
	return f.finds
}

// QuitInvocations returns the number of calls to Quit
func (f *FakeSession) QuitInvocations() int {
	return f.quits
}
