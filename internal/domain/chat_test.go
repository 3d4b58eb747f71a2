package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentChunkURL(t *testing.T) {
	t.Run("flattened path becomes docs url", func(t *testing.T) {
		chunk := DocumentChunk{SourcePath: "docs_app_building-your-application_data-fetching.txt"}
		assert.Equal(t, "docs/app/building-your-application/data-fetching", chunk.URL())
	})

	t.Run("only a trailing txt suffix is removed", func(t *testing.T) {
		chunk := DocumentChunk{SourcePath: "docs_guides.txt.txt"}
		assert.Equal(t, "docs/guides.txt", chunk.URL())
	})

	t.Run("path without suffix is left alone", func(t *testing.T) {
		chunk := DocumentChunk{SourcePath: "docs_pages"}
		assert.Equal(t, "docs/pages", chunk.URL())
	})
}
