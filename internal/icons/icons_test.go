package icons

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	assert.Equal(t, "noctiluca-scintillans", Slug("  Noctiluca  scintillans "))
	assert.Equal(t, "ceratium-furca-v2", Slug("Ceratium_furca (v2)"))
	assert.Equal(t, "", Slug("--"))
}

func TestBestMatch(t *testing.T) {
	files := []string{
		"Ceratium.svg",
		"ceratium-furca.svg",
		"Noctiluca scintillans.png",
		"skeletonema-costatum.svg",
		"diatom-chain.webp",
	}

	tests := []struct {
		name string
		want string
	}{
		{"Ceratium furca", "ceratium-furca.svg"},
		{"Ceratium tripos", "Ceratium.svg"},
		{"Noctiluca", "Noctiluca scintillans.png"},
		{"Skeletonema costatum", "skeletonema-costatum.svg"},
		{"Chain forming diatom", "diatom-chain.webp"},
		{"Noctiluka scintilans", "Noctiluca scintillans.png"},
		{"Zzyzx", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BestMatch(tt.name, files))
		})
	}
}

func TestBestMatch_TiePrefersShorter(t *testing.T) {
	files := []string{"alexandrium-minutum-large.svg", "alexandrium-minutum-x.svg"}
	assert.Equal(t, "alexandrium-minutum-x.svg", BestMatch("Alexandrium minutum", files))
}

func TestDir_List(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.SVG", "a.png", "notes.txt", "c.jpeg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.svg"), 0o755))

	files, err := Dir{Path: dir}.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.SVG", "c.jpeg"}, files)

	files, err = Dir{Path: filepath.Join(dir, "missing")}.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}
