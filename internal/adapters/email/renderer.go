package email

import (
	"fmt"
	"strings"
	"sync"

	"github.com/osteele/liquid"

	"gedenkseiten/internal/domain"
)

// liquidRenderer renders database-stored email templates with the Liquid
// template language. The stored templates use plain {{placeholder}} tokens,
// which Liquid substitutes from the dispatcher's template data.
type liquidRenderer struct {
	engine *liquid.Engine
	cache  sync.Map // template source -> *liquid.Template
}

// NewLiquidRenderer returns a TemplateRenderer backed by a Liquid engine.
func NewLiquidRenderer() domain.TemplateRenderer {
	return &liquidRenderer{engine: liquid.NewEngine()}
}

func (r *liquidRenderer) Render(tpl *domain.EmailTemplate, data map[string]any) (subject, htmlBody, textBody string, err error) {
	subject, err = r.renderOne(tpl.Subject, data)
	if err != nil {
		return "", "", "", fmt.Errorf("render subject: %w", err)
	}
	htmlBody, err = r.renderOne(tpl.HTMLBody, data)
	if err != nil {
		return "", "", "", fmt.Errorf("render html: %w", err)
	}
	textBody, err = r.renderOne(tpl.TextBody, data)
	if err != nil {
		return "", "", "", fmt.Errorf("render text: %w", err)
	}
	return strings.TrimSpace(subject), htmlBody, textBody, nil
}

func (r *liquidRenderer) renderOne(source string, data map[string]any) (string, error) {
	if source == "" {
		return "", nil
	}
	var t *liquid.Template
	if cached, ok := r.cache.Load(source); ok {
		t = cached.(*liquid.Template)
	} else {
		parsed, err := r.engine.ParseString(source)
		if err != nil {
			return "", fmt.Errorf("parse template: %w", err)
		}
		r.cache.Store(source, parsed)
		t = parsed
	}
	out, err := t.Render(data)
	if err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return string(out), nil
}
