package build

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// BenchmarkHashProviderUnchanged measures the skip check for outputs of
// typical page sizes once their hash is cached.
func BenchmarkHashProviderUnchanged(b *testing.B) {
	sizes := []int{
		1024,   // short post
		10240,  // long post
		102400, // listing page with many summaries
	}

	for _, size := range sizes {
		data := make([]byte, size)
		for i := range data {
			data[i] = byte('a' + i%26)
		}
		path := filepath.Join(b.TempDir(), "page.html")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			b.Fatal(err)
		}

		b.Run(strconv.Itoa(size), func(b *testing.B) {
			hp := NewHashProvider()
			hp.Record(path, data)
			b.SetBytes(int64(size))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if !hp.Unchanged(path, data) {
					b.Fatal("expected unchanged")
				}
			}
		})
	}
}

func BenchmarkMinifyHTML(b *testing.B) {
	page := "<html>\n  <body>\n" +
		"    <article>\n      <h1>Title</h1>\n      <p>Some   text   here</p>\n    </article>\n" +
		"    <pre>  keep\n  this  </pre>\n  </body>\n</html>\n"
	b.SetBytes(int64(len(page)))
	for i := 0; i < b.N; i++ {
		_ = MinifyHTML(page)
	}
}
