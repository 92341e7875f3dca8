// Package webdriver implements browser sessions backed by a local
// ChromeDriver controlled Chrome instance.
package webdriver

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"

	"github.com/wikicap/wikicap/pkg/browse"
)

const (
	// DefaultBinary is the chromedriver binary resolved from the PATH
	// when no explicit location is given
	DefaultBinary = "chromedriver"

	// DefaultPort is the port chromedriver listens on
	DefaultPort = 9515
)

// Config holds the options for launching browser sessions
type Config struct {
	// ChromeDriverPath is the location of the chromedriver binary
	ChromeDriverPath string
	// Port is the local port chromedriver listens on
	Port int
	// Headless runs Chrome without a visible window
	Headless bool
}

// Driver launches Chrome instances by means of a chromedriver process
type Driver struct {
	config Config
	logger logrus.FieldLogger
}

// NewDriver creates a Driver with the given configuration.
// Missing options are filled with defaults
func NewDriver(config Config, logger logrus.FieldLogger) *Driver {
	if config.ChromeDriverPath == "" {
		config.ChromeDriverPath = DefaultBinary
	}

	if config.Port == 0 {
		config.Port = DefaultPort
	}

	return &Driver{
		config: config,
		logger: logger,
	}
}

// Factory returns a session factory that starts a chromedriver process
// and opens a browser window on each invocation
func (d *Driver) Factory() browse.SessionFactory {
	return func() (browse.Session, error) {
		return d.open()
	}
}

func (d *Driver) open() (*Session, error) {
	d.logger.WithField("path", d.config.ChromeDriverPath).Debug("starting chromedriver")

	service, err := selenium.NewChromeDriverService(
		d.config.ChromeDriverPath,
		d.config.Port,
		selenium.Output(io.Discard),
	)
	if err != nil {
		return nil, fmt.Errorf("starting chromedriver: %w", err)
	}

	args := []string{
		"--no-sandbox",
		"--disable-dev-shm-usage",
	}
	if d.config.Headless {
		args = append(args, "--headless=new")
	}

	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(chrome.Capabilities{Args: args})

	driver, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", d.config.Port))
	if err != nil {
		_ = service.Stop()
		return nil, fmt.Errorf("opening browser: %w", err)
	}

	return &Session{
		driver:  driver,
		service: service,
	}, nil
}

// Session is a running browser window together with the chromedriver
// process that controls it
type Session struct {
	driver  selenium.WebDriver
	service *selenium.Service
}

// Navigate opens the given url in the browser
func (s *Session) Navigate(url string) error {
	return s.driver.Get(url)
}

// ExecuteScript runs a javascript snippet in the current page
func (s *Session) ExecuteScript(script string, args []interface{}) error {
	_, err := s.driver.ExecuteScript(script, args)
	return err
}

// FindVisibleElements returns the elements matching the css selector
// that are currently displayed
func (s *Session) FindVisibleElements(selector string) ([]browse.Element, error) {
	found, err := s.driver.FindElements(selenium.ByCSSSelector, selector)
	if err != nil {
		return nil, err
	}

	visible := []browse.Element{}
	for _, element := range found {
		displayed, err := element.IsDisplayed()
		if err != nil {
			continue
		}

		if displayed {
			visible = append(visible, element)
		}
	}

	return visible, nil
}

// Quit closes the browser window and stops the chromedriver process
func (s *Session) Quit() error {
	err := s.driver.Quit()
	if stopErr := s.service.Stop(); err == nil {
		err = stopErr
	}

	return err
}
