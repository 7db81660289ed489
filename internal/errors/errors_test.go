package errors

import (
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuireErrorMessage(t *testing.T) {
	t.Run("code, component and location", func(t *testing.T) {
		err := NewTemplateSyntaxError(ErrCodeUnterminatedBlock, "unterminated block: if").
			WithComponent("liquid").
			WithLocation("posts/hello.md", 4)

		assert.Equal(t, "[ERR_UNTERMINATED_BLOCK] component:liquid posts/hello.md:4 unterminated block: if", err.Error())
	})

	t.Run("cause is appended", func(t *testing.T) {
		cause := stderrors.New("permission denied")
		err := NewIOError(ErrCodeWriteFailed, "cannot write page", cause)

		assert.Contains(t, err.Error(), "permission denied")
		assert.Equal(t, cause, stderrors.Unwrap(err))
	})
}

func TestErrorPredicates(t *testing.T) {
	syntax := NewTemplateSyntaxError(ErrCodeInvalidLimit, "invalid limit")
	recursion := NewRecursionLimitError(32, "card")
	conflict := NewLoadConflictError("nav/menu", "nav/menu.liquid", "nav/menu.html")
	miss := NewResolutionMiss(ErrCodeMissingPartial, "partial not found: foo")

	tests := []struct {
		name        string
		err         error
		syntax      bool
		recursion   bool
		conflict    bool
		fatalToPage bool
	}{
		{"syntax", syntax, true, false, false, true},
		{"recursion", recursion, false, true, false, true},
		{"conflict", conflict, false, false, true, false},
		{"miss", miss, false, false, false, false},
		{"wrapped syntax", fmt.Errorf("page about: %w", syntax), true, false, false, true},
		{"plain", stderrors.New("plain"), false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.syntax, IsTemplateSyntax(tt.err))
			assert.Equal(t, tt.recursion, IsRecursionLimit(tt.err))
			assert.Equal(t, tt.conflict, IsLoadConflict(tt.err))
			assert.Equal(t, tt.fatalToPage, IsFatalToPage(tt.err))
		})
	}

	assert.True(t, IsRecoverable(miss))
	assert.Equal(t, 32, recursion.Context["limit"])
}

func TestQuireErrorIs(t *testing.T) {
	a := NewTemplateSyntaxError(ErrCodeUnknownFilter, "unknown filter: sort")
	b := NewTemplateSyntaxError(ErrCodeUnknownFilter, "unknown filter: map")
	c := NewTemplateSyntaxError(ErrCodeInvalidLimit, "bad limit")

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}

func TestWrapPreservesLocation(t *testing.T) {
	inner := NewTemplateSyntaxError(ErrCodeMalformedTag, "bad tag").WithLocation("pages/a.md", 3)
	wrapped := Wrap(inner, ErrorTypeInternal, "ERR_X", "outer")

	require.NotNil(t, wrapped)
	assert.Equal(t, "pages/a.md", wrapped.FilePath)
	assert.Equal(t, 3, wrapped.Line)
	assert.Nil(t, Wrap(nil, ErrorTypeIO, "x", "y"))
}

func TestDiagnosticCollector(t *testing.T) {
	dc := NewDiagnosticCollector()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dc.Add(Diagnostic{
				Severity: SeverityWarning,
				Code:     ErrCodeMissingPartial,
				Message:  fmt.Sprintf("missing %d", i),
				Page:     fmt.Sprintf("page-%02d", i),
			})
		}(i)
	}
	wg.Wait()

	all := dc.All()
	require.Len(t, all, 20)
	assert.Equal(t, "page-00", all[0].Page)
	assert.False(t, dc.HasErrors())

	dc.Merge("about", []Diagnostic{{Severity: SeverityError, Code: "X", Message: "y"}})
	assert.True(t, dc.HasErrors())
	assert.Equal(t, 21, dc.Len())

	dc.Clear()
	assert.Equal(t, 0, dc.Len())
}

func TestErrorOverlay(t *testing.T) {
	assert.Empty(t, ErrorOverlay(nil))

	overlay := ErrorOverlay([]PageFailure{{Page: "<index>", Err: stderrors.New("unterminated block: if")}})
	assert.Contains(t, overlay, "&lt;index&gt;")
	assert.Contains(t, overlay, "unterminated block: if")
}
