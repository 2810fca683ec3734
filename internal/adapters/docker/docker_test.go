package docker

import (
	"archive/tar"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/registry"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/fs"

	"github.com/melih/lighthouse-build/internal/core/ports"
)

func readTar(t *testing.T, r io.ReadCloser) map[string]string {
	t.Helper()
	defer r.Close()
	files := map[string]string{}
	tr := tar.NewReader(r)
	for {
		h, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		assert.NilError(t, err)
		if h.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		assert.NilError(t, err)
		files[h.Name] = string(data)
	}
	return files
}

func keys(m map[string]string) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestBuildContextPinsParentsAndHonoursDockerignore(t *testing.T) {
	dir := fs.NewDir(t, "context",
		fs.WithFile("Dockerfile", "FROM acme/base\nCOPY app.txt /app.txt\n"),
		fs.WithFile("app.txt", "hello"),
		fs.WithFile("secret.txt", "hunter2"),
		fs.WithFile("notes.md", "draft"),
		fs.WithFile(".dockerignore", "secret.txt\nDockerfile\n"),
	)

	p := NewContextProvider([]string{"acme/base", "acme/app"}, []string{"*.md"})
	rc, err := p.BuildContext("r42", filepath.Join(dir.Path(), "Dockerfile"))
	assert.NilError(t, err)

	files := readTar(t, rc)
	assert.DeepEqual(t, keys(files), []string{".dockerignore", "Dockerfile", "app.txt"})
	assert.Equal(t, files["Dockerfile"], "FROM acme/base:r42\nCOPY app.txt /app.txt\n")
}

func TestBuildContextWithoutDockerignore(t *testing.T) {
	dir := fs.NewDir(t, "context",
		fs.WithFile("Dockerfile.dev", "FROM ubuntu\n"),
		fs.WithFile("main.go", "package main"),
	)

	p := NewContextProvider(nil, nil)
	rc, err := p.BuildContext("r1", filepath.Join(dir.Path(), "Dockerfile.dev"))
	assert.NilError(t, err)

	files := readTar(t, rc)
	assert.DeepEqual(t, keys(files), []string{"Dockerfile.dev", "main.go"})
	assert.Equal(t, files["Dockerfile.dev"], "FROM ubuntu\n")
}

func TestBuildContextMissingDirectory(t *testing.T) {
	p := NewContextProvider(nil, nil)
	missing := filepath.Join(t.TempDir(), "nope", "Dockerfile")
	_, err := os.Stat(filepath.Dir(missing))
	assert.Assert(t, errors.Is(err, os.ErrNotExist))

	rc, err := p.BuildContext("r1", missing)
	if err == nil {
		// TarWithOptions reports some failures only while streaming.
		_, err = io.Copy(io.Discard, rc)
		rc.Close()
	}
	assert.Assert(t, err != nil)
}

func TestBuildOptions(t *testing.T) {
	got := buildOptions(ports.BuildOptions{
		Tag:           "acme/app:r1",
		Dockerfile:    "Dockerfile",
		Remove:        true,
		CustomContext: true,
		Stream:        true,
	})
	assert.DeepEqual(t, got.Tags, []string{"acme/app:r1"})
	assert.Equal(t, got.Dockerfile, "Dockerfile")
	assert.Assert(t, got.Remove)
	assert.Equal(t, got.Version, types.BuilderV1)
}

func TestPushImage(t *testing.T) {
	t.Setenv("DOCKER_API_VERSION", "")
	t.Setenv("DOCKER_CERT_PATH", "")
	t.Setenv("DOCKER_TLS_VERIFY", "")

	var pushPath, pushTag, pushAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("API-Version", "1.44")
		if !strings.HasSuffix(r.URL.Path, "/push") {
			return
		}
		pushPath, pushTag = r.URL.Path, r.URL.Query().Get("tag")
		pushAuth = r.Header.Get(registry.AuthHeader)
		io.WriteString(w, "{\"status\":\"Pushed\",\"id\":\"abc\"}\r\n")
	}))
	defer srv.Close()

	a, err := NewAdapter("tcp://" + srv.Listener.Addr().String())
	assert.NilError(t, err)
	defer a.Close()
	assert.NilError(t, a.UseCredentials(registry.AuthConfig{Username: "ci", Password: "secret"}))

	body, err := a.PushImage(context.Background(), "acme/app:r1")
	assert.NilError(t, err)
	data, err := io.ReadAll(body)
	assert.NilError(t, err)
	assert.NilError(t, body.Close())

	assert.Equal(t, string(data), "{\"status\":\"Pushed\",\"id\":\"abc\"}\r\n")
	assert.Assert(t, strings.HasSuffix(pushPath, "/images/acme/app/push"), pushPath)
	assert.Equal(t, pushTag, "r1")
	creds, err := registry.DecodeAuthConfig(pushAuth)
	assert.NilError(t, err)
	assert.Equal(t, creds.Username, "ci")
	assert.Equal(t, creds.Password, "secret")
}
