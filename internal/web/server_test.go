package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ICE3BR/IA-Data-Analysis/internal/answer"
	"github.com/ICE3BR/IA-Data-Analysis/internal/table"
)

const peopleCSV = ` Name ,Age
Ana,34
Bruno,27
Carla,45
Diego,19
Eva,52
Fabio,31
Gabi,23
Hugo,40
Iris,29
Joao,36
`

func newTestServer(t *testing.T, engine answer.EngineFunc, chartDir string) *Server {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := answer.NewResponder(engine, answer.WithFallback(io.Discard), answer.WithLogger(quiet))
	return NewServer(r, Options{ChartDir: chartDir})
}

func upload(t *testing.T, s *Server, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func uploadPeople(t *testing.T, s *Server) string {
	t.Helper()
	rec := upload(t, s, "people.csv", peopleCSV)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/datasets/"), "location %q", loc)
	return loc
}

func ask(s *Server, datasetURL, prompt string) *httptest.ResponseRecorder {
	form := url.Values{"prompt": {prompt}}
	req := httptest.NewRequest(http.MethodPost, datasetURL+"/ask", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

// sortByAge stands in for a model that answers with the table reordered.
func sortByAge(_ context.Context, t *table.Table, _ string, w io.Writer) (any, error) {
	fmt.Fprintln(w, "sql: SELECT * FROM dataset ORDER BY Age")
	ai := t.Index("Age")
	rows := make([][]string, len(t.Rows))
	copy(rows, t.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		a, _ := strconv.Atoi(rows[i][ai])
		b, _ := strconv.Atoi(rows[j][ai])
		return a < b
	})
	return table.New(t.ColumnNames(), rows), nil
}

func TestUploadShowsTrimmedPreview(t *testing.T) {
	s := newTestServer(t, sortByAge, "")
	loc := uploadPeople(t, s)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, loc, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<th>Name</th>")
	assert.NotContains(t, body, "<th> Name </th>")
	assert.Contains(t, body, "10 rows")
	assert.Contains(t, body, "<td>Carla</td>")
	// preview stops at three rows
	assert.NotContains(t, body, "<td>Diego</td>")
	assert.Contains(t, body, `id="spinner"`)
}

func TestUploadSameContentSameDataset(t *testing.T) {
	s := newTestServer(t, sortByAge, "")
	assert.Equal(t, uploadPeople(t, s), uploadPeople(t, s))
}

func TestUploadRejectsMalformedFile(t *testing.T) {
	s := newTestServer(t, sortByAge, "")
	rec := upload(t, s, "bad.csv", "a,b\n1,2,3\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Could not read the file")
	assert.Contains(t, rec.Body.String(), `name="file"`)
}

func TestAskRendersTableResult(t *testing.T) {
	s := newTestServer(t, sortByAge, "")
	loc := uploadPeople(t, s)

	rec := ask(s, loc, "List names sorted by age")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `data-kind="table"`)

	result := body[strings.Index(body, `id="result"`):]
	order := []string{"Diego", "Gabi", "Bruno", "Iris", "Fabio", "Ana", "Joao", "Hugo", "Carla", "Eva"}
	last := -1
	for _, name := range order {
		i := strings.Index(result, "<td>"+name+"</td>")
		require.Greater(t, i, last, "%s out of order", name)
		last = i
	}
	assert.Contains(t, body, `<pre id="diagnostics">sql: SELECT * FROM dataset ORDER BY Age</pre>`)
}

func TestAskErrorShowsColumnsAndKeepsForm(t *testing.T) {
	fail := true
	engine := func(ctx context.Context, t *table.Table, prompt string, w io.Writer) (any, error) {
		if fail {
			fmt.Fprintln(w, "partial output")
			return nil, errors.New("could not understand the prompt")
		}
		return sortByAge(ctx, t, prompt, w)
	}
	s := newTestServer(t, engine, "")
	loc := uploadPeople(t, s)

	rec := ask(s, loc, "???")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "error processing the prompt: could not understand the prompt")
	assert.Contains(t, body, "Columns in the table: Name, Age")
	assert.Contains(t, body, `<form id="ask"`)
	assert.NotContains(t, body, `id="result"`)

	fail = false
	rec = ask(s, loc, "List names sorted by age")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-kind="table"`)
	assert.NotContains(t, rec.Body.String(), "Columns in the table")
}

func TestAskEmptyPromptWarns(t *testing.T) {
	called := false
	engine := func(context.Context, *table.Table, string, io.Writer) (any, error) {
		called = true
		return "unused", nil
	}
	s := newTestServer(t, engine, "")
	loc := uploadPeople(t, s)

	rec := ask(s, loc, "   ")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), PromptWarning)
	assert.False(t, called)
}

func TestAskTextAndImageResults(t *testing.T) {
	dir := t.TempDir()
	chart := filepath.Join(dir, "chart_1.png")
	require.NoError(t, os.WriteFile(chart, []byte("\x89PNG\r\n\x1a\nfake"), 0o644))

	reply := "The average is 33.6."
	engine := func(context.Context, *table.Table, string, io.Writer) (any, error) { return reply, nil }
	s := newTestServer(t, engine, dir)
	loc := uploadPeople(t, s)

	body := ask(s, loc, "average age?").Body.String()
	assert.Contains(t, body, `data-kind="text"`)
	assert.Contains(t, body, "<p>The average is 33.6.</p>")

	reply = chart
	body = ask(s, loc, "plot ages").Body.String()
	assert.Contains(t, body, `data-kind="image"`)
	assert.Contains(t, body, `src="/charts/chart_1.png"`)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/charts/chart_1.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/charts/notes.txt", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownDataset(t *testing.T) {
	s := newTestServer(t, sortByAge, "")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/datasets/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dataset not found")
}

func apiAsk(s *Server, datasetURL, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api"+datasetURL+"/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestAPIAsk(t *testing.T) {
	s := newTestServer(t, sortByAge, "")
	loc := uploadPeople(t, s)

	rec := apiAsk(s, loc, `{"prompt":"List names sorted by age"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var got askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, answer.KindTabular, got.Kind)
	assert.Equal(t, []string{"Name", "Age"}, got.Columns)
	require.Len(t, got.Rows, 10)
	assert.Equal(t, "Diego", got.Rows[0][0])
	assert.Contains(t, got.Diagnostics, "ORDER BY Age")

	rec = apiAsk(s, loc, `{"prompt":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIAskQueryError(t *testing.T) {
	engine := func(context.Context, *table.Table, string, io.Writer) (any, error) {
		panic("engine blew up")
	}
	s := newTestServer(t, engine, "")
	loc := uploadPeople(t, s)

	rec := apiAsk(s, loc, `{"prompt":"anything"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var got askError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Contains(t, got.Error, "engine blew up")
	assert.Equal(t, []string{"Name", "Age"}, got.Columns)
}

func TestViewResultKinds(t *testing.T) {
	tbl := table.New([]string{"Name"}, [][]string{{"Ana"}})
	cases := []struct {
		in   answer.Result
		want answer.Kind
	}{
		{answer.Tabular{Table: tbl}, answer.KindTabular},
		{answer.Tabular{}, answer.KindTabular},
		{answer.ImageReference{Path: "/tmp/charts/chart_1.png"}, answer.KindImage},
		{answer.Text{Value: "hi"}, answer.KindText},
		{nil, answer.KindText},
	}
	for _, tc := range cases {
		v := viewResult(tc.in)
		assert.Equal(t, tc.want, v.Kind)
	}
	assert.Equal(t, "/charts/chart_1.png", viewResult(answer.ImageReference{Path: "/tmp/charts/chart_1.png"}).ImageURL)
}
