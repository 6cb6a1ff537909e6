package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ignitor/pkg/loader"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "start/app.yaml", `
providers:
  - Adonis/Providers/App
  - Adonis/Providers/Http
aceProviders:
  - Adonis/Providers/Commands
aliases:
  Route: Adonis/Src/Route
  Config: Adonis/Src/Config
  Env: Adonis/Src/Env
commands:
  - App/Commands/Greet
`)

	m, err := Load(root, DefaultFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"Adonis/Providers/App", "Adonis/Providers/Http"}, m.Providers)
	assert.Equal(t, []string{"Adonis/Providers/Commands"}, m.AceProviders)
	assert.Equal(t, []string{"Route", "Config", "Env"}, m.Aliases.Keys())
	v, ok := m.Aliases.Get("Config")
	assert.True(t, ok)
	assert.Equal(t, "Adonis/Src/Config", v)
	assert.Equal(t, []string{"App/Commands/Greet"}, m.Commands)
}

func TestLoad_YmlAndExplicitPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "start/app.yml", "providers: [A]\n")
	writeFile(t, root, "config/custom.yaml", "providers: [B]\n")

	m, err := Load(root, "start/app")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, m.Providers)

	m, err = Load(root, filepath.Join(root, "config/custom.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, m.Providers)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir(), DefaultFile)
	require.Error(t, err)
	assert.True(t, loader.IsNotFound(err))
}

func TestLoad_Malformed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "start/app.yaml", "providers: [unterminated\n")

	_, err := Load(root, DefaultFile)
	require.Error(t, err)
	assert.False(t, loader.IsNotFound(err))
	assert.ErrorIs(t, err, loader.ErrLoad)
}

func TestLoad_EmptyManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "start/app.yaml", "")

	m, err := Load(root, DefaultFile)
	require.NoError(t, err)
	assert.Empty(t, m.Providers)
	assert.Equal(t, 0, m.Aliases.Len())
}

func TestLoadPackage(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		pkg, err := LoadPackage(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, 0, pkg.Autoload.Len())
		assert.Empty(t, pkg.FrameworkVersion)
	})

	t.Run("yaml keeps autoload order", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "package.yaml", `
name: shop
version: 1.2.0
frameworkVersion: 4.1.0
autoload:
  Shop: ./app
  Lib: ./lib
  Admin: ./admin
`)
		pkg, err := LoadPackage(root)
		require.NoError(t, err)
		assert.Equal(t, "shop", pkg.Name)
		assert.Equal(t, "4.1.0", pkg.FrameworkVersion)
		assert.Equal(t, []string{"Shop", "Lib", "Admin"}, pkg.Autoload.Keys())

		ns, dir, ok := pkg.Autoload.First()
		require.True(t, ok)
		assert.Equal(t, "Shop", ns)
		assert.Equal(t, "./app", dir)
	})

	t.Run("json", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "package.json", `{"name": "api", "autoload": {"Api": "./src", "App": "./app"}}`)
		pkg, err := LoadPackage(root)
		require.NoError(t, err)
		assert.Equal(t, "api", pkg.Name)
		assert.Equal(t, []string{"Api", "App"}, pkg.Autoload.Keys())
	})

	t.Run("malformed", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "package.yaml", "autoload: [1, 2]\n")
		_, err := LoadPackage(root)
		assert.ErrorIs(t, err, loader.ErrLoad)
	})
}

func TestOrderedMap(t *testing.T) {
	var m OrderedMap
	_, _, ok := m.First()
	assert.False(t, ok)

	m.Set("b", "1")
	m.Set("a", "2")
	m.Set("b", "3")
	assert.Equal(t, []string{"b", "a"}, m.Keys())

	var pairs []string
	m.Range(func(k, v string) { pairs = append(pairs, k+"="+v) })
	assert.Equal(t, []string{"b=3", "a=2"}, pairs)
}
