package reviq

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reviq-scraper/config"
	"reviq-scraper/models"
	"reviq-scraper/utils"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
)

// PortalScraper drives the pricing portal in a headless browser: one
// login per credential set, one export download per property.
type PortalScraper struct {
	cfg    *config.Config
	logger *utils.Logger
}

// NewPortalScraper creates a new PortalScraper
func NewPortalScraper(cfg *config.Config, logger *utils.Logger) *PortalScraper {
	return &PortalScraper{cfg: cfg, logger: logger}
}

// NewSession creates a fresh chromedp context (one browser per credential
// set) with downloads routed to the configured directory.
func (s *PortalScraper) NewSession() (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("log-level", "3"), // suppress Chrome logs
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		chromedp.WindowSize(1440, 900),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	cancel := func() {
		cancelCtx()
		cancelAlloc()
	}
	return ctx, cancel
}

// Login signs the session into the portal with the credential set,
// walking the identity-provider redirect and, if the portal asks for
// one, a one-time passcode read from stdin.
func (s *PortalScraper) Login(ctx context.Context, creds models.CredentialSet) error {
	s.logger.Info("Logging in to %s as %s", creds.PlatformName, creds.Username)

	err := utils.RetryWithBackoff(ctx, s.cfg.MaxRetries, func() error {
		err := chromedp.Run(ctx,
			browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
				WithDownloadPath(s.cfg.DownloadDir),
			chromedp.Navigate(s.cfg.PortalURL),
			chromedp.Sleep(5*time.Second), // let the IdP redirect settle
		)
		if err != nil {
			return fmt.Errorf("portal navigation failed: %w", err)
		}

		err = chromedp.Run(ctx,
			chromedp.WaitVisible(`input[name="username"], input[type="email"]`, chromedp.ByQuery),
			chromedp.SendKeys(`input[name="username"], input[type="email"]`, creds.Username, chromedp.ByQuery),
			chromedp.SendKeys(`input[name="password"], input[type="password"]`, creds.Password, chromedp.ByQuery),
			chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
			chromedp.Sleep(5*time.Second),
		)
		if err != nil {
			return fmt.Errorf("credential submit failed: %w", err)
		}

		if s.otpRequired(ctx) {
			if err := s.submitOTP(ctx); err != nil {
				return err
			}
		}

		ok, err := s.loggedIn(ctx)
		if err != nil {
			return fmt.Errorf("login check failed: %w", err)
		}
		if !ok {
			return fmt.Errorf("portal did not reach the dashboard after login")
		}
		return nil
	}, s.logger)
	if err != nil {
		return fmt.Errorf("login failed for %s: %w", creds.Username, err)
	}

	s.logger.Info("Login successful for %s", creds.Username)
	return nil
}

// otpRequired reports whether the portal is showing a passcode prompt
func (s *PortalScraper) otpRequired(ctx context.Context) bool {
	var present bool
	_ = chromedp.Run(ctx, chromedp.Evaluate(`
		(function() {
			return !!(document.querySelector('input[name="otp"]') ||
			          document.querySelector('input[name="passcode"]') ||
			          document.querySelector('input[autocomplete="one-time-code"]'));
		})()
	`, &present))
	return present
}

// submitOTP reads a one-time passcode from stdin and submits it. The
// portal sends the code to the account holder's phone, so this step
// needs an operator at the terminal.
func (s *PortalScraper) submitOTP(ctx context.Context) error {
	fmt.Print("Enter the one-time passcode sent to your device: ")
	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read passcode: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("empty passcode")
	}

	err = chromedp.Run(ctx,
		chromedp.SendKeys(`input[name="otp"], input[name="passcode"], input[autocomplete="one-time-code"]`, code, chromedp.ByQuery),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		chromedp.Sleep(5*time.Second),
	)
	if err != nil {
		return fmt.Errorf("passcode submit failed: %w", err)
	}
	return nil
}

// loggedIn checks for the dashboard shell that only renders after auth
func (s *PortalScraper) loggedIn(ctx context.Context) (bool, error) {
	var ok bool
	err := chromedp.Run(ctx, chromedp.Evaluate(`
		(function() {
			if (document.querySelector('input[type="password"]')) return false;
			return !!(document.querySelector('[class*="dashboard"]') ||
			          document.querySelector('nav') ||
			          document.querySelector('[class*="property-selector"]'));
		})()
	`, &ok))
	return ok, err
}

// SelectProperty switches the portal to the given property code. Portals
// with a single property render no selector; that is not an error.
func (s *PortalScraper) SelectProperty(ctx context.Context, propertyCode string) error {
	s.logger.Info("Selecting property %s", propertyCode)

	var found bool
	err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(`
		(function() {
			var code = %q;
			var selector = document.querySelector('[class*="property-selector"]') ||
			               document.querySelector('select[name="property"]');
			if (!selector) return true;
			if (selector.tagName === 'SELECT') {
				for (var i = 0; i < selector.options.length; i++) {
					if (selector.options[i].text.indexOf(code) !== -1 ||
					    selector.options[i].value === code) {
						selector.selectedIndex = i;
						selector.dispatchEvent(new Event('change', {bubbles: true}));
						return true;
					}
				}
				return false;
			}
			selector.click();
			var items = document.querySelectorAll('[class*="property-selector"] li, [role="option"]');
			for (var j = 0; j < items.length; j++) {
				if (items[j].innerText.indexOf(code) !== -1) {
					items[j].click();
					return true;
				}
			}
			return false;
		})()
	`, propertyCode), &found))
	if err != nil {
		return fmt.Errorf("property selection failed: %w", err)
	}
	if !found {
		return fmt.Errorf("property %s not listed in the portal", propertyCode)
	}

	_ = chromedp.Run(ctx, chromedp.Sleep(3*time.Second))
	return nil
}

// DownloadExport triggers the historical-data export for the current
// property and scrape window and returns the path of the downloaded
// file once it lands in the download directory.
func (s *PortalScraper) DownloadExport(ctx context.Context, propertyCode string) (string, error) {
	s.logger.Info("Requesting export for property %s (%s, %d days)",
		propertyCode, s.cfg.StartDate, s.cfg.Days)

	before, err := s.snapshotDownloads()
	if err != nil {
		return "", err
	}

	var path string
	err = utils.RetryWithBackoff(ctx, s.cfg.MaxRetries, func() error {
		var clicked bool
		err := chromedp.Run(ctx, chromedp.Evaluate(`
			(function() {
				var btn = document.querySelector('[data-testid="export-button"]') ||
				          document.querySelector('button[class*="export"]') ||
				          document.querySelector('a[href*="export"]');
				if (!btn) {
					var buttons = document.querySelectorAll('button');
					for (var i = 0; i < buttons.length; i++) {
						if (/export|download/i.test(buttons[i].innerText)) { btn = buttons[i]; break; }
					}
				}
				if (!btn) return false;
				btn.click();
				return true;
			})()
		`, &clicked))
		if err != nil {
			return fmt.Errorf("export trigger failed: %w", err)
		}
		// Without a click there is nothing to wait for; failing here skips
		// the download poll entirely.
		if !clicked {
			return fmt.Errorf("no export control found on the page")
		}

		p, err := s.waitForDownload(ctx, before)
		if err != nil {
			return err
		}
		path = p
		return nil
	}, s.logger)
	if err != nil {
		return "", fmt.Errorf("export download failed for %s: %w", propertyCode, err)
	}

	s.logger.Info("Export downloaded: %s", path)
	return path, nil
}

// snapshotDownloads records the files already in the download dir so a
// new arrival can be told apart from leftovers.
func (s *PortalScraper) snapshotDownloads() (map[string]bool, error) {
	if err := os.MkdirAll(s.cfg.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	entries, err := os.ReadDir(s.cfg.DownloadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read download directory: %w", err)
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		seen[e.Name()] = true
	}
	return seen, nil
}

// waitForDownload polls the download dir until a new export file appears
// fully written, or the configured timeout expires. Chrome keeps partial
// downloads under a .crdownload suffix.
func (s *PortalScraper) waitForDownload(ctx context.Context, before map[string]bool) (string, error) {
	deadline := time.Now().Add(s.cfg.DownloadTimeout)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
		}

		entries, err := os.ReadDir(s.cfg.DownloadDir)
		if err != nil {
			return "", fmt.Errorf("failed to read download directory: %w", err)
		}
		for _, e := range entries {
			name := e.Name()
			if before[name] || strings.HasSuffix(name, ".crdownload") {
				continue
			}
			ext := strings.ToLower(filepath.Ext(name))
			if ext != ".xlsx" && ext != ".csv" {
				continue
			}
			return filepath.Join(s.cfg.DownloadDir, name), nil
		}
	}

	return "", fmt.Errorf("no export file appeared within %s", s.cfg.DownloadTimeout)
}
