package static_test

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/envhttp/pkg/gateway"
	"github.com/shashiranjanraj/envhttp/pkg/static"
	"github.com/shashiranjanraj/envhttp/pkg/storage"
)

func request(method, pathInfo string, headers ...string) *gateway.Env {
	env := gateway.NewEnv(4)
	env.Set(gateway.RequestMethod, method)
	if pathInfo != "" {
		env.Set(gateway.PathInfo, pathInfo)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		env.Set(headers[i], headers[i+1])
	}
	return env
}

func publicDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>home</h1>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "css", "site.css"), []byte("body{}"), 0o644))
	return root
}

func TestServesFileWithSizedBody(t *testing.T) {
	app := static.New(storage.NewLocal(publicDir(t)), static.WithMaxAge(time.Hour))

	res, err := app.Call(request("GET", "/css/site.css"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.True(t, strings.HasPrefix(res.Headers.Get("Content-Type"), "text/css"))
	assert.Equal(t, "public, max-age=3600", res.Headers.Get("Cache-Control"))
	assert.NotEmpty(t, res.Headers.Get("Last-Modified"))

	sized, ok := res.Body.(gateway.Sized)
	require.True(t, ok)
	assert.EqualValues(t, 6, sized.Size())

	data, err := gateway.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(data))
}

func TestIndexForRootAndDirectories(t *testing.T) {
	app := static.New(storage.NewLocal(publicDir(t)))

	for _, p := range []string{"", "/"} {
		res, err := app.Call(request("GET", p))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.Status, "PATH_INFO=%q", p)
		data, err := gateway.ReadAll(res.Body)
		require.NoError(t, err)
		assert.Equal(t, "<h1>home</h1>", string(data))
	}
}

func TestMissingAndTraversal(t *testing.T) {
	root := publicDir(t)
	app := static.New(storage.NewLocal(filepath.Join(root, "css")))

	res, err := app.Call(request("GET", "/nope.css"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.Status)

	res, err = app.Call(request("GET", "/../index.html"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.Status, "must not escape the disk root")
}

func TestMethodsAndConditionalGet(t *testing.T) {
	app := static.New(storage.NewLocal(publicDir(t)))

	res, err := app.Call(request("POST", "/index.html"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, res.Status)
	assert.Equal(t, "GET, HEAD", res.Headers.Get("Allow"))

	res, err = app.Call(request("HEAD", "/index.html"))
	require.NoError(t, err)
	assert.Equal(t, "13", res.Headers.Get("Content-Length"))

	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	res, err = app.Call(request("GET", "/index.html", "HTTP_IF_MODIFIED_SINCE", future))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotModified, res.Status)
}

// trackingDisk records whether opened files get closed.
type trackingDisk struct {
	closed int
}

type trackedFile struct {
	io.Reader
	d *trackingDisk
}

func (f *trackedFile) Close() error { f.d.closed++; return nil }

func (d *trackingDisk) Open(context.Context, string) (io.ReadCloser, storage.Info, error) {
	return &trackedFile{Reader: strings.NewReader("abc"), d: d}, storage.Info{Size: 3}, nil
}
func (d *trackingDisk) Stat(context.Context, string) (storage.Info, error) {
	return storage.Info{Size: 3}, nil
}
func (d *trackingDisk) Exists(context.Context, string) bool { return true }

func TestBodyReleaseClosesFile(t *testing.T) {
	disk := &trackingDisk{}
	res, err := static.New(disk).Call(request("GET", "/blob.bin"))
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", res.Headers.Get("Content-Type"))

	require.NoError(t, gateway.Close(res.Body))
	assert.Equal(t, 1, disk.closed)
}
