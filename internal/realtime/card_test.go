package realtime_test

import (
	"context"
	"strings"
	"testing"

	"github.com/msomdec/postfeed/internal/domain"
	"github.com/msomdec/postfeed/internal/handler"
	"github.com/msomdec/postfeed/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostCard_EscapesContent(t *testing.T) {
	dto := handler.ToPostDTO(testEvent(domain.PostCreated, "p1").Post)
	dto.Content = `<script>alert("x")</script>`

	var sb strings.Builder
	require.NoError(t, realtime.PostCard(dto).Render(context.Background(), &sb))
	html := sb.String()

	assert.Contains(t, html, `id="post-p1"`)
	assert.Contains(t, html, "Posted by Ann on")
	assert.Contains(t, html, `src="/images/cat.png"`)
	assert.Contains(t, html, "2024-05-06")
	assert.NotContains(t, html, "<script>")
}

func TestPostCard_WithoutImage(t *testing.T) {
	dto := handler.ToPostDTO(testEvent(domain.PostCreated, "p2").Post)
	dto.ImageURL = ""

	var sb strings.Builder
	require.NoError(t, realtime.PostCard(dto).Render(context.Background(), &sb))

	assert.NotContains(t, sb.String(), "<img")
}
