package errors

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"sync"
	"time"
)

// Severity represents the severity of a diagnostic
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Diagnostic is a non-fatal finding recorded while rendering, such as a
// missing partial or an unknown variable.
type Diagnostic struct {
	Severity  Severity
	Code      string
	Message   string
	Page      string
	Timestamp time.Time
}

// String formats the diagnostic for terminal output.
func (d Diagnostic) String() string {
	if d.Page == "" {
		return fmt.Sprintf("%s: %s (%s)", d.Severity, d.Message, d.Code)
	}
	return fmt.Sprintf("%s: %s: %s (%s)", d.Page, d.Severity, d.Message, d.Code)
}

// DiagnosticFromError converts a QuireError into a warning diagnostic.
func DiagnosticFromError(err *QuireError) Diagnostic {
	return Diagnostic{
		Severity: SeverityWarning,
		Code:     err.Code,
		Message:  err.Message,
		Page:     err.FilePath,
	}
}

// DiagnosticCollector collects diagnostics from concurrent renders.
type DiagnosticCollector struct {
	diagnostics []Diagnostic
	mutex       sync.RWMutex
}

// NewDiagnosticCollector creates a new collector
func NewDiagnosticCollector() *DiagnosticCollector {
	return &DiagnosticCollector{
		diagnostics: make([]Diagnostic, 0),
	}
}

// Add records a diagnostic.
func (dc *DiagnosticCollector) Add(d Diagnostic) {
	dc.mutex.Lock()
	defer dc.mutex.Unlock()
	if d.Timestamp.IsZero() {
		d.Timestamp = time.Now()
	}
	dc.diagnostics = append(dc.diagnostics, d)
}

// Merge appends every diagnostic, tagging those without a page with page.
func (dc *DiagnosticCollector) Merge(page string, ds []Diagnostic) {
	if len(ds) == 0 {
		return
	}
	dc.mutex.Lock()
	defer dc.mutex.Unlock()
	now := time.Now()
	for _, d := range ds {
		if d.Page == "" {
			d.Page = page
		}
		if d.Timestamp.IsZero() {
			d.Timestamp = now
		}
		dc.diagnostics = append(dc.diagnostics, d)
	}
}

// All returns a copy of every diagnostic, ordered by page then code.
func (dc *DiagnosticCollector) All() []Diagnostic {
	dc.mutex.RLock()
	result := make([]Diagnostic, len(dc.diagnostics))
	copy(result, dc.diagnostics)
	dc.mutex.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Page != result[j].Page {
			return result[i].Page < result[j].Page
		}
		return result[i].Code < result[j].Code
	})
	return result
}

// Len returns the number of recorded diagnostics.
func (dc *DiagnosticCollector) Len() int {
	dc.mutex.RLock()
	defer dc.mutex.RUnlock()
	return len(dc.diagnostics)
}

// HasErrors reports whether any diagnostic has error severity.
func (dc *DiagnosticCollector) HasErrors() bool {
	dc.mutex.RLock()
	defer dc.mutex.RUnlock()
	for _, d := range dc.diagnostics {
		if d.Severity >= SeverityError {
			return true
		}
	}
	return false
}

// Clear clears all diagnostics
func (dc *DiagnosticCollector) Clear() {
	dc.mutex.Lock()
	defer dc.mutex.Unlock()
	dc.diagnostics = dc.diagnostics[:0]
}

// PageFailure pairs a page with the error that stopped it.
type PageFailure struct {
	Page string
	Err  error
}

// ErrorOverlay renders failed pages as an HTML fragment the dev server shows
// in place of a stale page.
func ErrorOverlay(failures []PageFailure) string {
	if len(failures) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<div id="quire-error-overlay" style="position:fixed;inset:0;background:rgba(20,20,20,.92);color:#f5f5f5;font-family:monospace;padding:2rem;overflow:auto;z-index:99999">`)
	b.WriteString(`<h2 style="color:#ff6b6b;margin-top:0">Build failed</h2>`)
	for _, f := range failures {
		b.WriteString(`<div style="margin-bottom:1rem;padding:1rem;border-left:4px solid #ff6b6b;background:#2a2a2a">`)
		b.WriteString(`<strong>`)
		b.WriteString(html.EscapeString(f.Page))
		b.WriteString(`</strong><pre style="white-space:pre-wrap">`)
		if f.Err != nil {
			b.WriteString(html.EscapeString(f.Err.Error()))
		}
		b.WriteString(`</pre></div>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}
