// File: internal/bridge/mock_test.go
package bridge

import (
	"context"
	stdjson "encoding/json"
	"fmt"
	"testing"
	"time"

	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/x0rw4ng/ghostbridge/internal/config"
	"github.com/x0rw4ng/ghostbridge/internal/driver"
	"github.com/x0rw4ng/ghostbridge/internal/humanize"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockElement is a scriptable driver.Element.
type mockElement struct {
	selector string
	centerX  int
	centerY  int
	text     string

	centerErr error
	clickErr  error
	clearErr  error

	clicked    int
	cleared    int
	inputChars []rune
	inputTexts []string
}

func (m *mockElement) Selector() string { return m.selector }

func (m *mockElement) Center(context.Context) (int, int, error) {
	if m.centerErr != nil {
		return 0, 0, m.centerErr
	}
	return m.centerX, m.centerY, nil
}

func (m *mockElement) Text(context.Context) (string, error) { return m.text, nil }

func (m *mockElement) Click(context.Context) error {
	m.clicked++
	return m.clickErr
}

func (m *mockElement) Clear(context.Context) error {
	m.cleared++
	return m.clearErr
}

func (m *mockElement) InputChar(_ context.Context, c rune) error {
	m.inputChars = append(m.inputChars, c)
	return nil
}

func (m *mockElement) InputText(_ context.Context, text string) error {
	m.inputTexts = append(m.inputTexts, text)
	return nil
}

// mockDriver is a scriptable driver.Driver that records every call.
type mockDriver struct {
	url   string
	title string

	elements map[string]*mockElement

	navigated    []string
	clickAts     []humanize.Point
	pointerMoves []humanize.Point
	scrollDeltas []int
	toTop        int
	toBottom     int
	waitVisible  bool
	scripts      []string
	scriptResult stdjson.RawMessage
	screenshots  []string
	closed       int

	navigateErr error
	panicOnURL  bool
}

func (m *mockDriver) Navigate(_ context.Context, url string) error {
	m.navigated = append(m.navigated, url)
	if m.navigateErr != nil {
		return m.navigateErr
	}
	m.url = url
	return nil
}

func (m *mockDriver) CurrentURL(context.Context) (string, error) {
	if m.panicOnURL {
		panic("renderer crashed")
	}
	return m.url, nil
}

func (m *mockDriver) Title(context.Context) (string, error) { return m.title, nil }

func (m *mockDriver) FindElement(_ context.Context, selector string) (driver.Element, error) {
	el, ok := m.elements[selector]
	if !ok {
		return nil, fmt.Errorf("%q: %w", selector, driver.ErrElementNotFound)
	}
	return el, nil
}

func (m *mockDriver) ClickAt(_ context.Context, x, y int) error {
	m.clickAts = append(m.clickAts, humanize.Point{X: x, Y: y})
	return nil
}

func (m *mockDriver) MovePointer(_ context.Context, x, y int) error {
	m.pointerMoves = append(m.pointerMoves, humanize.Point{X: x, Y: y})
	return nil
}

func (m *mockDriver) ScrollBy(_ context.Context, delta int) error {
	m.scrollDeltas = append(m.scrollDeltas, delta)
	return nil
}

func (m *mockDriver) ScrollToTop(context.Context) error {
	m.toTop++
	return nil
}

func (m *mockDriver) ScrollToBottom(context.Context) error {
	m.toBottom++
	return nil
}

func (m *mockDriver) WaitVisible(context.Context, string, time.Duration) (bool, error) {
	return m.waitVisible, nil
}

func (m *mockDriver) RunScript(_ context.Context, code string) (stdjson.RawMessage, error) {
	m.scripts = append(m.scripts, code)
	if m.scriptResult == nil {
		return stdjson.RawMessage("null"), nil
	}
	return m.scriptResult, nil
}

func (m *mockDriver) Screenshot(_ context.Context, format string, _ bool) ([]byte, error) {
	m.screenshots = append(m.screenshots, format)
	return []byte{0x89, 0x50, 0x4e, 0x47}, nil
}

func (m *mockDriver) Close(context.Context) error {
	m.closed++
	return nil
}

// fakeLaunch returns a LaunchFunc handing out drv and recording the configs it
// was launched with.
func fakeLaunch(drv *mockDriver, launched *[]driver.Config) driver.LaunchFunc {
	return func(_ context.Context, cfg driver.Config, _ *zap.Logger) (driver.Driver, error) {
		if launched != nil {
			*launched = append(*launched, cfg)
		}
		return drv, nil
	}
}

// sequencedLaunch hands out one driver per launch, in order.
func sequencedLaunch(drivers []*mockDriver) driver.LaunchFunc {
	i := 0
	return func(context.Context, driver.Config, *zap.Logger) (driver.Driver, error) {
		drv := drivers[i]
		i++
		return drv, nil
	}
}

// fastDefaults keeps humanized sleeps to a millisecond so tests stay quick.
// Natural mouse movement is off by default; tests exercising it opt in.
func fastDefaults() config.StealthConfig {
	return config.StealthConfig{
		WindowWidth:          1920,
		WindowHeight:         1080,
		DisableWebdriverFlag: true,
		MinDelayMs:           1,
		MaxDelayMs:           1,
	}
}

// newTestSession builds an initialized session over drv, plus its dispatcher.
func newTestSession(t *testing.T, drv *mockDriver, defaults config.StealthConfig, opts StealthOptions) (*Session, *Dispatcher) {
	t.Helper()
	engine := humanize.NewWithSeed(nil, 12345)
	session := NewSession(defaults, engine, fakeLaunch(drv, nil), zap.NewNop())
	if _, err := session.Init(context.Background(), opts); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() { session.Close(context.Background()) })
	return session, NewDispatcher(session, zap.NewNop())
}
