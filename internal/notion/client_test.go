package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePage(t *testing.T) {
	var gotReq createPageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pages", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, `{"id": "page-1"}`)
	}))
	defer srv.Close()

	c := NewClient("secret-token", WithBaseURL(srv.URL))

	props := Properties{
		PropName:   TitleProperty("Hello"),
		PropDate:   DateProperty("2026-08-23T10:00"),
		PropSender: SelectProperty("SemiAnalysis"),
		PropStatus: SelectProperty(StatusPending),
	}
	children := []Block{NewTextBlock(BlockParagraph, []RichText{Text("body")})}

	page, err := c.CreatePage(context.Background(), "db-1", props, children)
	require.NoError(t, err)
	assert.Equal(t, "page-1", page.ID)

	assert.Equal(t, "db-1", gotReq.Parent.DatabaseID)
	assert.Equal(t, "Hello", gotReq.Properties[PropName].Title[0].Text.Content)
	assert.Equal(t, StatusPending, gotReq.Properties[PropStatus].Select.Name)
	require.Len(t, gotReq.Children, 1)
	assert.Equal(t, BlockParagraph, gotReq.Children[0].Type)
}

func TestCreatePageWithBlocksBatches(t *testing.T) {
	var createChildren int
	var appendCalls []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/pages":
			var req createPageRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			createChildren = len(req.Children)
			fmt.Fprint(w, `{"id": "page-1"}`)
		case r.URL.Path == "/blocks/page-1/children":
			assert.Equal(t, http.MethodPatch, r.Method)
			var req struct {
				Children []Block `json:"children"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			appendCalls = append(appendCalls, len(req.Children))
			fmt.Fprint(w, `{}`)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL))

	blocks := make([]Block, 250)
	for i := range blocks {
		blocks[i] = NewTextBlock(BlockParagraph, []RichText{Text("x")})
	}

	page, err := c.CreatePageWithBlocks(context.Background(), "db-1", Properties{}, blocks)
	require.NoError(t, err)
	assert.Equal(t, "page-1", page.ID)
	assert.Equal(t, 100, createChildren)
	assert.Equal(t, []int{100, 50}, appendCalls)
}

func TestQueryDatabasePagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/databases/db-1/query", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body["start_cursor"] == nil {
			fmt.Fprint(w, `{
				"results": [{"id": "p1", "properties": {
					"Name": {"title": [{"type": "text", "text": {"content": "First"}}]},
					"发件人": {"select": {"name": "Citrini"}},
					"Date": {"date": {"start": "2026-08-20T08:00"}}
				}}],
				"has_more": true,
				"next_cursor": "cur-2"
			}`)
			return
		}
		assert.Equal(t, "cur-2", body["start_cursor"])
		fmt.Fprint(w, `{"results": [{"id": "p2", "properties": {}}], "has_more": false}`)
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL))

	first, err := c.QueryDatabase(context.Background(), "db-1", "")
	require.NoError(t, err)
	require.Len(t, first.Results, 1)
	assert.True(t, first.HasMore)
	assert.Equal(t, "cur-2", first.NextCursor)

	page := first.Results[0]
	assert.Equal(t, "First", page.TitleText(PropName))
	assert.Equal(t, "Citrini", page.SelectName(PropSender))
	assert.Equal(t, "2026-08-20T08:00", page.DateStart(PropDate))

	second, err := c.QueryDatabase(context.Background(), "db-1", first.NextCursor)
	require.NoError(t, err)
	assert.False(t, second.HasMore)
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"object": "error", "status": 400, "code": "validation_error", "message": "Name is not a property"}`)
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL))

	_, err := c.CreatePage(context.Background(), "db-1", Properties{}, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "validation_error", apiErr.Code)
	assert.Contains(t, apiErr.Message, "Name is not a property")
}

func TestBlockHelpers(t *testing.T) {
	b := NewTextBlock(BlockHeading2, []RichText{Text("Title "), Text("here")})
	assert.Equal(t, "Title here", b.PlainText())
	assert.True(t, b.IsHeading())

	b.SetTexts([]RichText{Text("replaced")})
	assert.Equal(t, "replaced", b.PlainText())

	img := NewImageBlock("https://example.com/a.png")
	assert.Nil(t, img.Value())
	assert.Empty(t, img.PlainText())
	assert.False(t, img.IsHeading())
}
