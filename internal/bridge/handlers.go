// File: internal/bridge/handlers.go
package bridge

import (
	"context"
	"encoding/base64"
	stdjson "encoding/json"
	"errors"
	"time"

	"github.com/x0rw4ng/ghostbridge/internal/driver"
	"github.com/x0rw4ng/ghostbridge/internal/humanize"
)

// maxDescriptionLen caps the element text echoed back in click results.
const maxDescriptionLen = 200

type windowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type initResult struct {
	Status     string     `json:"status"`
	WindowSize windowSize `json:"windowSize"`
}

type navigateResult struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type clickElementResult struct {
	Success            bool   `json:"success"`
	ElementDescription string `json:"elementDescription"`
}

type clickXYResult struct {
	Success bool `json:"success"`
	X       int  `json:"x"`
	Y       int  `json:"y"`
}

type typeTextResult struct {
	Success          bool   `json:"success"`
	FieldDescription string `json:"fieldDescription"`
}

type screenshotResult struct {
	Base64 string `json:"base64"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type domMapResult struct {
	Elements stdjson.RawMessage `json:"elements"`
	URL      string             `json:"url"`
	Title    string             `json:"title"`
}

type scrollResult struct {
	Success   bool   `json:"success"`
	Direction string `json:"direction"`
}

// Fixed-duration and selector waits report different fields, so they get
// separate result shapes.
type waitElapsedResult struct {
	Success  bool `json:"success"`
	WaitedMs int  `json:"waited_ms"`
}

type waitSelectorResult struct {
	Success   bool   `json:"success"`
	WaitedFor string `json:"waited_for"`
	TimedOut  bool   `json:"timedOut,omitempty"`
}

type executeJSResult struct {
	Result stdjson.RawMessage `json:"result"`
}

type closeResult struct {
	Status string `json:"status"`
}

type pageInfoResult struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Ready bool   `json:"ready"`
}

func handleInit(ctx context.Context, s *Session, params stdjson.RawMessage) (interface{}, error) {
	var p struct {
		Stealth StealthOptions `json:"stealth"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	cfg, err := s.Init(ctx, p.Stealth)
	if err != nil {
		return nil, err
	}

	return initResult{
		Status:     "initialized",
		WindowSize: windowSize{Width: cfg.windowWidth, Height: cfg.windowHeight},
	}, nil
}

func handleNavigate(ctx context.Context, s *Session, params stdjson.RawMessage) (interface{}, error) {
	var p struct {
		URL string `json:"url"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.URL == "" {
		return nil, errRequiredParam("url")
	}

	drv := s.Driver()
	if err := drv.Navigate(ctx, p.URL); err != nil {
		return nil, err
	}
	s.applyHumanDelay(ctx)

	url, err := drv.CurrentURL(ctx)
	if err != nil {
		return nil, err
	}
	title, err := drv.Title(ctx)
	if err != nil {
		return nil, err
	}
	return navigateResult{URL: url, Title: title}, nil
}

// naturalApproach animates a human-looking pointer approach toward (x, y):
// a short hesitation at a random viewport point, then a Bézier glide to a
// jittered target. Every step is cosmetic; failures are swallowed and the
// caller's primary action proceeds regardless.
func naturalApproach(ctx context.Context, s *Session, x, y int) {
	cfg := s.Config()
	drv := s.Driver()

	start := s.human.ViewportPoint(cfg.windowWidth, cfg.windowHeight)
	target := s.human.NoisyPoint(x, y, humanize.DefaultNoiseOffset)

	s.human.Hesitate(ctx, drv, start, 150*time.Millisecond)
	s.human.MouseMove(ctx, drv, start, target)
}

func handleClickElement(ctx context.Context, s *Session, params stdjson.RawMessage) (interface{}, error) {
	var p struct {
		Selector string `json:"selector"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Selector == "" {
		return nil, errRequiredParam("selector")
	}

	drv := s.Driver()
	el, err := drv.FindElement(ctx, p.Selector)
	if err != nil {
		if errors.Is(err, driver.ErrElementNotFound) {
			return nil, errTargetNotFound(p.Selector)
		}
		return nil, err
	}

	if s.Config().naturalMouseMovement {
		// Geometry lookups for the approach are best-effort: an element
		// without a box still gets clicked, just without the animation.
		if cx, cy, err := el.Center(ctx); err == nil {
			naturalApproach(ctx, s, cx, cy)
		}
	}

	if err := el.Click(ctx); err != nil {
		return nil, err
	}
	s.applyHumanDelay(ctx)

	description, _ := el.Text(ctx)
	if len(description) > maxDescriptionLen {
		description = description[:maxDescriptionLen]
	}
	return clickElementResult{Success: true, ElementDescription: description}, nil
}

func handleClickXY(ctx context.Context, s *Session, params stdjson.RawMessage) (interface{}, error) {
	var p struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	if s.Config().naturalMouseMovement {
		naturalApproach(ctx, s, p.X, p.Y)
	}

	if err := s.Driver().ClickAt(ctx, p.X, p.Y); err != nil {
		return nil, err
	}
	s.applyHumanDelay(ctx)

	return clickXYResult{Success: true, X: p.X, Y: p.Y}, nil
}

func handleTypeText(ctx context.Context, s *Session, params stdjson.RawMessage) (interface{}, error) {
	p := struct {
		Selector    string `json:"selector"`
		Text        string `json:"text"`
		Clear       *bool  `json:"clear"`
		HumanTyping *bool  `json:"humanTyping"`
	}{}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Selector == "" {
		return nil, errRequiredParam("selector")
	}

	drv := s.Driver()
	el, err := drv.FindElement(ctx, p.Selector)
	if err != nil {
		if errors.Is(err, driver.ErrElementNotFound) {
			return nil, errTargetNotFound(p.Selector)
		}
		return nil, err
	}

	// clear and humanTyping default to true when omitted.
	if p.Clear == nil || *p.Clear {
		// A field that refuses to clear still gets typed into.
		_ = el.Clear(ctx)
	}

	if p.HumanTyping == nil || *p.HumanTyping {
		s.human.TypeText(ctx, el, p.Text, humanize.DefaultMinCharDelayMs, humanize.DefaultMaxCharDelayMs)
	} else {
		if err := el.InputText(ctx, p.Text); err != nil {
			return nil, err
		}
	}
	s.applyHumanDelay(ctx)

	return typeTextResult{Success: true, FieldDescription: p.Selector}, nil
}

func handleScreenshot(ctx context.Context, s *Session, params stdjson.RawMessage) (interface{}, error) {
	p := struct {
		Format   string `json:"format"`
		FullPage bool   `json:"fullPage"`
	}{Format: "png"}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	img, err := s.Driver().Screenshot(ctx, p.Format, p.FullPage)
	if err != nil {
		return nil, err
	}

	cfg := s.Config()
	return screenshotResult{
		Base64: base64.StdEncoding.EncodeToString(img),
		Format: p.Format,
		Width:  cfg.windowWidth,
		Height: cfg.windowHeight,
	}, nil
}

func handleGetDOMMap(ctx context.Context, s *Session, _ stdjson.RawMessage) (interface{}, error) {
	drv := s.Driver()

	elements, err := drv.RunScript(ctx, domMapScript)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 || string(elements) == "null" {
		elements = stdjson.RawMessage("[]")
	}

	url, err := drv.CurrentURL(ctx)
	if err != nil {
		return nil, err
	}
	title, err := drv.Title(ctx)
	if err != nil {
		return nil, err
	}
	return domMapResult{Elements: elements, URL: url, Title: title}, nil
}

func handleScroll(ctx context.Context, s *Session, params stdjson.RawMessage) (interface{}, error) {
	p := struct {
		Direction string `json:"direction"`
		Amount    int    `json:"amount"`
	}{Direction: "down", Amount: 300}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	drv := s.Driver()
	var err error
	switch p.Direction {
	case "down":
		err = drv.ScrollBy(ctx, p.Amount)
	case "up":
		err = drv.ScrollBy(ctx, -p.Amount)
	case "top":
		err = drv.ScrollToTop(ctx)
	case "bottom":
		err = drv.ScrollToBottom(ctx)
	default:
		return nil, &Error{Code: CodeGenericError, Message: "direction must be one of down, up, top, bottom"}
	}
	if err != nil {
		return nil, err
	}

	if s.Config().naturalMouseMovement {
		s.human.ScrollJitter(ctx, drv, 30)
	}
	s.applyHumanDelay(ctx)

	return scrollResult{Success: true, Direction: p.Direction}, nil
}

func handleWait(ctx context.Context, s *Session, params stdjson.RawMessage) (interface{}, error) {
	p := struct {
		Ms       int    `json:"ms"`
		Selector string `json:"selector"`
	}{Ms: 1000}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	if p.Selector != "" {
		visible, err := s.Driver().WaitVisible(ctx, p.Selector, time.Duration(p.Ms)*time.Millisecond)
		if err != nil {
			return nil, err
		}
		if !visible {
			return waitSelectorResult{Success: false, WaitedFor: p.Selector, TimedOut: true}, nil
		}
		return waitSelectorResult{Success: true, WaitedFor: p.Selector}, nil
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Duration(p.Ms) * time.Millisecond):
	}
	return waitElapsedResult{Success: true, WaitedMs: p.Ms}, nil
}

func handleExecuteJS(ctx context.Context, s *Session, params stdjson.RawMessage) (interface{}, error) {
	var p struct {
		Code string `json:"code"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Code == "" {
		return nil, errRequiredParam("code")
	}

	result, err := s.Driver().RunScript(ctx, p.Code)
	if err != nil {
		return nil, err
	}
	return executeJSResult{Result: result}, nil
}

func handleClose(ctx context.Context, s *Session, _ stdjson.RawMessage) (interface{}, error) {
	s.Close(ctx)
	return closeResult{Status: "closed"}, nil
}

func handleGetPageInfo(ctx context.Context, s *Session, _ stdjson.RawMessage) (interface{}, error) {
	drv := s.Driver()
	if drv == nil {
		return pageInfoResult{URL: "", Title: "", Ready: false}, nil
	}

	url, err := drv.CurrentURL(ctx)
	if err != nil {
		return nil, err
	}
	title, err := drv.Title(ctx)
	if err != nil {
		return nil, err
	}
	return pageInfoResult{URL: url, Title: title, Ready: true}, nil
}
