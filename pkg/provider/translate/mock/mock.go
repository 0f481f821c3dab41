// Package mock provides a test double for the translate package
// interfaces.
package mock

import (
	"context"
	"sync"

	"github.com/Frenzie/vmt/pkg/provider/translate"
)

// TranslateCall records a single invocation of Provider.Translate.
type TranslateCall struct {
	// Text is the source text passed to Translate.
	Text string
	// TargetLang is the language code passed to Translate.
	TargetLang string
}

// Provider is a mock implementation of translate.Provider.
type Provider struct {
	mu sync.Mutex

	// Result is returned by every Translate call. When empty and Err is
	// nil, the source text is echoed back.
	Result string

	// Err, if non-nil, is returned as the error from Translate.
	Err error

	// TranslateCalls records every call to Translate in order.
	TranslateCalls []TranslateCall
}

// Translate records the call and returns Result (or the input text), Err.
func (p *Provider) Translate(_ context.Context, text, targetLang string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranslateCalls = append(p.TranslateCalls, TranslateCall{Text: text, TargetLang: targetLang})
	if p.Err != nil {
		return "", p.Err
	}
	if p.Result != "" {
		return p.Result, nil
	}
	return text, nil
}

// CallCount returns the number of Translate calls. Thread-safe.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.TranslateCalls)
}

// Ensure Provider implements translate.Provider at compile time.
var _ translate.Provider = (*Provider)(nil)
