package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func readLoader() Loader[string] {
	return LoaderFunc[string](func(path string) (string, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	})
}

func TestCatalogRegister(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "manifest.json", `{"list": [
		{"name": "a", "path": "a.dat"},
		{"name": "b", "path": "b.dat"}
	]}`)

	c := NewCatalog[string](&countingLoader{}, quiet())
	require.NoError(t, c.Register(manifest))

	a, err := c.Get("a")
	require.NoError(t, err)
	assert.NotNil(t, a)
	b, err := c.Get("b")
	require.NoError(t, err)
	assert.NotNil(t, b)

	_, err = c.Get("c")
	assert.ErrorIs(t, err, core.ErrAssetNotFound)

	assert.Equal(t, []string{"a", "b"}, c.Names())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, manifest, c.Manifest().Path)
}

func TestCatalogRegisterArrayManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "manifest.json", `[{"name": "a", "path": "a.dat"}]`)

	c := NewCatalog[string](&countingLoader{}, quiet())
	require.NoError(t, c.Register(manifest))

	p, err := c.FilePath("a")
	require.NoError(t, err)
	assert.Equal(t, "a.dat", p)
}

func TestCatalogRegisterTOMLManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "manifest.toml", `
[[list]]
name = "music"
path = "sounds/music.ogg"

[[list]]
name = "hero"
path = "sprites/hero.png"
`)

	c := NewCatalog[string](&countingLoader{}, quiet(), WithBasePath(dir))
	require.NoError(t, c.Register(manifest))

	p, err := c.FilePath("hero")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sprites/hero.png"), p)
}

func TestCatalogRegisterErrors(t *testing.T) {
	dir := t.TempDir()

	testCases := []struct {
		name    string
		path    string
		wantErr error
	}{
		{
			name:    "missing manifest",
			path:    filepath.Join(dir, "nope.json"),
			wantErr: core.ErrManifestNotFound,
		},
		{
			name:    "malformed json",
			path:    writeFile(t, dir, "broken.json", `{"list": [`),
			wantErr: core.ErrManifestInvalid,
		},
		{
			name:    "entry without path",
			path:    writeFile(t, dir, "nopath.json", `{"list": [{"name": "a"}]}`),
			wantErr: core.ErrManifestInvalid,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCatalog[string](&countingLoader{}, quiet())
			err := c.Register(tc.path)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, 0, c.Len())
			assert.Nil(t, c.Manifest())
		})
	}
}

func TestCatalogDuplicateNamesLastWins(t *testing.T) {
	c := NewCatalog[string](&countingLoader{}, quiet())
	c.RegisterEntries(
		ManifestEntry{Name: "a", Path: "first.dat"},
		ManifestEntry{Name: "a", Path: "second.dat"},
	)

	p, err := c.FilePath("a")
	require.NoError(t, err)
	assert.Equal(t, "second.dat", p)
	assert.Equal(t, 1, c.Len())
}

func TestCatalogManifestHook(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "manifest.json", `{"list": [{"name": "a", "path": "a.dat"}]}`)

	var seen *Manifest
	c := NewCatalog[string](&countingLoader{}, quiet(), WithManifestHook(func(m *Manifest) error {
		seen = m
		return nil
	}))
	require.NoError(t, c.Register(manifest))
	require.NotNil(t, seen)
	assert.Len(t, seen.List, 1)

	rejecting := NewCatalog[string](&countingLoader{}, quiet(), WithManifestHook(func(*Manifest) error {
		return errors.New("unknown schema")
	}))
	err := rejecting.Register(manifest)
	assert.ErrorIs(t, err, core.ErrManifestInvalid)
	assert.Equal(t, 0, rejecting.Len())
}

type memoryReader map[string]*Manifest

func (m memoryReader) ReadManifest(path string) (*Manifest, error) {
	if man, ok := m[path]; ok {
		return man, nil
	}
	return nil, core.ErrManifestNotFound
}

func TestCatalogManifestReader(t *testing.T) {
	reader := memoryReader{
		"levels": {List: []ManifestEntry{{Name: "intro", Path: "levels/intro.json"}}},
	}
	c := NewCatalog[string](&countingLoader{}, quiet(), WithManifestReader(reader))

	require.NoError(t, c.Register("levels"))
	assert.Equal(t, []string{"intro"}, c.Names())
	assert.ErrorIs(t, c.Register("missing"), core.ErrManifestNotFound)
}

func TestCatalogLoadAllIndependentFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", "hello")

	c := NewCatalog[string](readLoader(), quiet())
	c.RegisterEntries(
		ManifestEntry{Name: "good", Path: good},
		ManifestEntry{Name: "missing", Path: filepath.Join(dir, "missing.txt")},
	)

	err := c.LoadAll()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "missing"))

	ok, err := c.IsLoadSucceeded("good")
	require.NoError(t, err)
	assert.True(t, ok)
	payload, err := c.Payload("good")
	require.NoError(t, err)
	assert.Equal(t, "hello", payload)

	ok, err = c.IsLoadSucceeded("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, uint64(2), c.Metrics().Loads())
	assert.Equal(t, uint64(1), c.Metrics().Failures())
}

func TestCatalogLoadParallel(t *testing.T) {
	loader := &countingLoader{}
	c := NewCatalog[string](loader, quiet())
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		c.RegisterEntries(ManifestEntry{Name: n, Path: n + ".dat"})
	}

	require.NoError(t, c.LoadParallel(context.Background(), 2))
	assert.Equal(t, int32(5), loader.calls.Load())
	for _, n := range c.Names() {
		ok, err := c.IsLoaded(n)
		require.NoError(t, err)
		assert.True(t, ok, n)
	}
}

func TestCatalogByNameOperations(t *testing.T) {
	loader := &countingLoader{}
	c := NewCatalog[string](loader, quiet())
	c.RegisterEntries(ManifestEntry{Name: "a", Path: "a.dat"})

	ok, err := c.Load("a")
	require.NoError(t, err)
	assert.True(t, ok)

	once, err := c.IsLoadedOnlyOnce("a")
	require.NoError(t, err)
	assert.True(t, once)
	once, err = c.IsLoadedOnlyOnce("a")
	require.NoError(t, err)
	assert.False(t, once)

	require.NoError(t, c.ResetLoadedOnlyOnce("a"))
	once, err = c.IsLoadedOnlyOnce("a")
	require.NoError(t, err)
	assert.True(t, once)

	// Already attempted: a bare async load is a no-op, a forced one reloads.
	require.NoError(t, c.AsyncLoad("a", false))
	c.Wait()
	assert.Equal(t, int32(1), loader.calls.Load())
	require.NoError(t, c.AsyncLoad("a", true))
	c.Wait()
	assert.Equal(t, int32(2), loader.calls.Load())

	for _, fn := range []func() error{
		func() error { _, err := c.Load("x"); return err },
		func() error { return c.AsyncLoad("x", true) },
		func() error { _, err := c.IsLoaded("x"); return err },
		func() error { _, err := c.IsLoadedOnlyOnce("x"); return err },
		func() error { return c.ResetLoadedOnlyOnce("x") },
		func() error { _, err := c.FilePath("x"); return err },
		func() error { _, err := c.Payload("x"); return err },
		func() error { _, err := c.CopyPayload("x"); return err },
	} {
		assert.ErrorIs(t, fn(), core.ErrAssetNotFound)
	}
}

func TestCatalogCopyPayloadIsIndependent(t *testing.T) {
	c := NewCatalog[frames](LoaderFunc[frames](func(string) (frames, error) {
		return frames{10, 20}, nil
	}), quiet())
	c.RegisterEntries(ManifestEntry{Name: "walk", Path: "walk.anim"})
	_, err := c.Load("walk")
	require.NoError(t, err)

	cp, err := c.CopyPayload("walk")
	require.NoError(t, err)
	cp[1] = 99

	original, err := c.Payload("walk")
	require.NoError(t, err)
	assert.Equal(t, frames{10, 20}, original)
}

func TestCatalogAsyncLoadAllAndPoll(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", "hello")

	c := NewCatalog[string](readLoader(), quiet(), WithName("text"))
	c.RegisterEntries(
		ManifestEntry{Name: "good", Path: good},
		ManifestEntry{Name: "missing", Path: filepath.Join(dir, "missing.txt")},
	)

	bus := core.NewEventBus()
	loaded := map[string]core.EventContext{}
	failed := map[string]core.EventContext{}
	bus.Register(core.EVENT_CODE_ASSET_LOADED, t, func(_ core.SystemEventCode, _ interface{}, _ interface{}, data core.EventContext) bool {
		loaded[data.Name] = data
		return true
	})
	bus.Register(core.EVENT_CODE_ASSET_FAILED, t, func(_ core.SystemEventCode, _ interface{}, _ interface{}, data core.EventContext) bool {
		failed[data.Name] = data
		return true
	})

	assert.Equal(t, 2, c.AsyncLoadAll(false))
	assert.Equal(t, 0, c.AsyncLoadAll(false))
	c.Wait()

	assert.False(t, c.AllReported())
	assert.Equal(t, 2, c.Poll(bus))
	assert.Equal(t, 0, c.Poll(bus))
	assert.True(t, c.AllReported())

	require.Contains(t, loaded, "good")
	assert.Equal(t, "text", loaded["good"].Catalog)
	assert.Equal(t, uint32(1), loaded["good"].Generation)
	require.Contains(t, failed, "missing")
	assert.Error(t, failed["missing"].Err)
}

func TestCatalogReloadPath(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.txt", "v1")

	c := NewCatalog[string](readLoader(), quiet())
	c.RegisterEntries(ManifestEntry{Name: "a", Path: p})
	require.NoError(t, c.LoadAll())
	once, _ := c.IsLoadedOnlyOnce("a")
	require.True(t, once)

	writeFile(t, dir, "a.txt", "v2")
	assert.Equal(t, 1, c.ReloadPath(p))
	assert.Equal(t, 0, c.ReloadPath(filepath.Join(dir, "other.txt")))
	c.Wait()

	payload, err := c.Payload("a")
	require.NoError(t, err)
	assert.Equal(t, "v2", payload)
	once, _ = c.IsLoadedOnlyOnce("a")
	assert.True(t, once)
}

func TestCatalogRelease(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, dir, "manifest.json", `{"list": [{"name": "a", "path": "a.dat"}]}`)

	loader := &countingLoader{gate: make(chan struct{})}
	c := NewCatalog[string](loader, quiet())
	require.NoError(t, c.Register(manifest))
	require.NoError(t, c.AsyncLoad("a", false))

	released := make(chan struct{})
	go func() {
		c.Release()
		close(released)
	}()
	select {
	case <-released:
		t.Fatal("Release returned while a load was in flight")
	default:
	}
	close(loader.gate)
	<-released

	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.Manifest())
	c.Release()
}

// pathDoc is a minimal PathSource.
type pathDoc map[string]map[string]string

func (d pathDoc) LookupPath(keys ...string) (string, bool) {
	if len(keys) != 1 {
		return "", false
	}
	section, ok := d[keys[0]]
	if !ok {
		return "", false
	}
	p, ok := section["path"]
	return p, ok
}

func TestRegisterFrom(t *testing.T) {
	docs := NewCatalog[pathDoc](LoaderFunc[pathDoc](func(path string) (pathDoc, error) {
		return pathDoc{"texture": {"path": strings.TrimSuffix(path, ".json") + ".png"}}, nil
	}), quiet())
	docs.RegisterEntries(
		ManifestEntry{Name: "hero", Path: "hero.json"},
		ManifestEntry{Name: "villain", Path: "villain.json"},
	)
	require.True(t, mustGet(t, docs, "hero").Load())

	textures := NewCatalog[string](&countingLoader{}, quiet())
	require.NoError(t, RegisterFrom(textures, docs, "texture"))

	assert.Equal(t, []string{"hero", "villain"}, textures.Names())
	p, err := textures.FilePath("villain")
	require.NoError(t, err)
	assert.Equal(t, "villain.png", p)
}

func TestRegisterFromSkipsFailedDocuments(t *testing.T) {
	docs := NewCatalog[pathDoc](LoaderFunc[pathDoc](func(path string) (pathDoc, error) {
		if path == "broken.json" {
			return nil, errors.New("corrupt")
		}
		return pathDoc{"music": {"path": "sound.ogg"}}, nil
	}), quiet())
	docs.RegisterEntries(
		ManifestEntry{Name: "broken", Path: "broken.json"},
		ManifestEntry{Name: "theme", Path: "theme.json"},
	)

	sounds := NewCatalog[string](&countingLoader{}, quiet(), WithBasePath("audio"))
	require.NoError(t, RegisterFrom(sounds, docs, "music"))

	assert.Equal(t, []string{"theme"}, sounds.Names())
	p, err := sounds.FilePath("theme")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("audio", "sound.ogg"), p)
}

func mustGet[T any](t *testing.T, c *Catalog[T], name string) *Record[T] {
	t.Helper()
	r, err := c.Get(name)
	require.NoError(t, err)
	return r
}
