package restyutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	mu       sync.Mutex
	messages map[string]string
}

func (m *memoryOutput) Write(id, contents string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.messages == nil {
		m.messages = map[string]string{}
	}
	m.messages[id] = contents
}

func TestFormatHeaders(t *testing.T) {
	require.Equal(t, "", formatHeaders(http.Header{}))
	require.Equal(t, "A: 1\nB: 2\nB: 3", formatHeaders(http.Header{
		"B": {"2", "3"},
		"A": {"1"},
	}))
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resty")
	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	out.Write("1", "hello")
	contents, err := os.ReadFile(filepath.Join(out.Dir(), "1.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(contents))

	// recreating the output clears previous dumps
	out, err = NewFilesystemOutput(dir)
	require.NoError(t, err)
	entries, err := os.ReadDir(out.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 0)
}

func TestInstrumentClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "yes")
		io.WriteString(w, "<html>ok</html>")
	}))
	defer server.Close()

	out := &memoryOutput{}
	client := resty.New()
	InstrumentClient(client, nil, out)

	res, err := client.R().SetHeader("User-Agent", "listingscraper-test").Get(server.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())
	require.Equal(t, "<html>ok</html>", res.String())

	dump := formatHttpMessage(res)
	require.True(t, strings.Contains(dump, "GET "+server.URL))
	require.True(t, strings.Contains(dump, "User-Agent: listingscraper-test"))
	require.True(t, strings.Contains(dump, "X-Test: yes"))
	require.True(t, strings.HasSuffix(dump, "<html>ok</html>"))
}

func TestInstrumentClientTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := resty.New()
	InstrumentClient(client, nil, nil)

	_, err := client.R().Get(url)
	require.Error(t, err)
}
