package preview_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hgilabs/vibestudio/internal/preview"
)

const sampleDoc = `<!DOCTYPE html>
<html>
<head><title>Counter</title></head>
<body>
  <main>
    <p>first</p>
    <div id="x">hi</div>
  </main>
  <footer>end</footer>
</body>
</html>`

func TestOuterHTML_ResolvesChildIndexPath(t *testing.T) {
	t.Parallel()
	doc, err := preview.ParseDocument(sampleDoc)
	require.NoError(t, err)

	got, err := doc.OuterHTML("0-1")
	require.NoError(t, err)
	assert.Equal(t, `<div id="x">hi</div>`, got)
}

func TestOuterHTML_SkipsNonElementChildren(t *testing.T) {
	t.Parallel()
	// Text and comment nodes between elements do not shift indices.
	doc, err := preview.ParseDocument(`<body>text<!-- note --><p>a</p>more<span>b</span></body>`)
	require.NoError(t, err)

	first, err := doc.OuterHTML("0")
	require.NoError(t, err)
	assert.Equal(t, "<p>a</p>", first)

	second, err := doc.OuterHTML("1")
	require.NoError(t, err)
	assert.Equal(t, "<span>b</span>", second)
}

func TestOuterHTML_RootPathReturnsBody(t *testing.T) {
	t.Parallel()
	doc, err := preview.ParseDocument(`<body><p>only</p></body>`)
	require.NoError(t, err)

	got, err := doc.OuterHTML(preview.RootPath)
	require.NoError(t, err)
	assert.Equal(t, "<body><p>only</p></body>", got)
}

func TestOuterHTML_PathErrors(t *testing.T) {
	t.Parallel()
	doc, err := preview.ParseDocument(sampleDoc)
	require.NoError(t, err)

	_, err = doc.OuterHTML("0-9")
	assert.ErrorIs(t, err, preview.ErrPathNotFound)

	_, err = doc.OuterHTML("0-x")
	assert.ErrorIs(t, err, preview.ErrBadPath)

	_, err = doc.OuterHTML("-1")
	assert.ErrorIs(t, err, preview.ErrBadPath)
}

func TestUpdateElement_ReplacesNode(t *testing.T) {
	t.Parallel()
	doc, err := preview.ParseDocument(sampleDoc)
	require.NoError(t, err)

	require.NoError(t, doc.UpdateElement("0-1", `<div id="x" class="done">bye</div>`))

	got, err := doc.OuterHTML("0-1")
	require.NoError(t, err)
	assert.Equal(t, `<div id="x" class="done">bye</div>`, got)

	// Siblings are untouched.
	sibling, err := doc.OuterHTML("0-0")
	require.NoError(t, err)
	assert.Equal(t, "<p>first</p>", sibling)
}

func TestUpdateElement_MultiNodeFragment(t *testing.T) {
	t.Parallel()
	doc, err := preview.ParseDocument(`<body><p>a</p><p>b</p></body>`)
	require.NoError(t, err)

	require.NoError(t, doc.UpdateElement("0", "<span>x</span><span>y</span>"))

	body, err := doc.OuterHTML(preview.RootPath)
	require.NoError(t, err)
	assert.Equal(t, "<body><span>x</span><span>y</span><p>b</p></body>", body)
}

func TestUpdateElement_RootReplacesBodyContents(t *testing.T) {
	t.Parallel()
	doc, err := preview.ParseDocument(sampleDoc)
	require.NoError(t, err)

	require.NoError(t, doc.UpdateElement(preview.RootPath, "<h1>fresh</h1>"))

	body, err := doc.OuterHTML(preview.RootPath)
	require.NoError(t, err)
	assert.Equal(t, "<body><h1>fresh</h1></body>", body)

	rendered, err := doc.Render()
	require.NoError(t, err)
	assert.Contains(t, rendered, "<title>Counter</title>", "head survives a root update")
	assert.NotContains(t, rendered, "<footer>")
}

func TestUpdateElement_PathInvalidAfterMutation(t *testing.T) {
	t.Parallel()
	doc, err := preview.ParseDocument(`<body><div><p>inner</p></div></body>`)
	require.NoError(t, err)

	require.NoError(t, doc.UpdateElement("0", "<span>flat</span>"))

	// The old nested path no longer resolves.
	_, err = doc.OuterHTML("0-0")
	assert.ErrorIs(t, err, preview.ErrPathNotFound)
}
