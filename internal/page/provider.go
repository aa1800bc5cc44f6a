package page

import (
	"context"
	"errors"

	"github.com/yixuan-h/pagemate/internal/chat"
)

// TextProbe is the injected page-side script that can hand back the
// document HTML of the tracked tab.
type TextProbe interface {
	DocumentHTML(ctx context.Context) (string, error)
}

// ProbeInjector installs the probe into a page that was loaded before the
// extension attached.
type ProbeInjector interface {
	InjectProbe(ctx context.Context) error
}

// ScreenCapturer captures the visible tab as a base64 JPEG.
type ScreenCapturer interface {
	CaptureScreenshot(ctx context.Context) (string, error)
}

// Provider produces the page context from the probe and the screenshot
// capability. If the probe is unreachable it is injected once and retried
// exactly once; a second failure propagates. There are no further retries,
// a persistently broken page must not loop.
type Provider struct {
	Probe    TextProbe
	Injector ProbeInjector
	Capturer ScreenCapturer
}

func NewProvider(probe TextProbe, injector ProbeInjector, capturer ScreenCapturer) *Provider {
	return &Provider{Probe: probe, Injector: injector, Capturer: capturer}
}

// Capture implements chat.ContextCapturer.
func (p *Provider) Capture(ctx context.Context) (chat.PageContext, error) {
	html, err := p.documentHTML(ctx)
	if err != nil {
		return chat.PageContext{}, err
	}

	text, err := ExtractReadable(html)
	if err != nil {
		return chat.PageContext{}, chat.E(chat.KindContextCapture, "page", err)
	}

	shot, err := p.Capturer.CaptureScreenshot(ctx)
	if err != nil {
		return chat.PageContext{}, capErr(err)
	}

	return chat.PageContext{ExtractedText: text, Screenshot: shot}, nil
}

func (p *Provider) documentHTML(ctx context.Context) (string, error) {
	html, err := p.Probe.DocumentHTML(ctx)
	if err == nil {
		return html, nil
	}
	if chat.KindOf(err) == chat.KindContextInvalidated {
		return "", err
	}
	if p.Injector == nil {
		return "", capErr(err)
	}
	if ierr := p.Injector.InjectProbe(ctx); ierr != nil {
		return "", capErr(ierr)
	}
	html, err = p.Probe.DocumentHTML(ctx)
	if err != nil {
		return "", capErr(err)
	}
	return html, nil
}

// capErr tags a capture failure while letting an already classified
// bridge-gone error keep its distinct kind.
func capErr(err error) error {
	if chat.KindOf(err) == chat.KindContextInvalidated {
		return err
	}
	var ce *chat.Error
	if errors.As(err, &ce) {
		return err
	}
	return chat.E(chat.KindContextCapture, "page", err)
}
