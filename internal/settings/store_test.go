package settings

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-facet-browser/config"
	internalErrors "github.com/gcbaptista/go-facet-browser/internal/errors"
	"github.com/gcbaptista/go-facet-browser/internal/persistence"
	testutil "github.com/gcbaptista/go-facet-browser/internal/testing"
	"github.com/gcbaptista/go-facet-browser/model"
)

var defaultVisible = []string{
	testutil.FieldID,
	testutil.FieldTitle,
	testutil.FieldTaxon,
	testutil.FieldPartOf,
	testutil.FieldOccursIn,
	testutil.FieldGenes,
}

func TestOpen_Defaults(t *testing.T) {
	store, err := Open(t.TempDir(), "", testutil.GoCamRegistry(t))
	require.NoError(t, err)

	got := store.Get()
	assert.Equal(t, CurrentVersion, got.Version)
	assert.Equal(t, defaultVisible, got.VisibleFields)
	assert.Equal(t, model.DisplayList, got.ResultsDisplayType)
}

func TestOpen_NilRegistry(t *testing.T) {
	_, err := Open(t.TempDir(), "", nil)
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput))
}

func TestToggleField(t *testing.T) {
	store, err := Open("", "", testutil.GoCamRegistry(t))
	require.NoError(t, err)

	got, err := store.ToggleField(testutil.FieldTaxon)
	require.NoError(t, err)
	assert.NotContains(t, got.VisibleFields, testutil.FieldTaxon)

	// Shown again at the end, not at its registry position
	got, err = store.ToggleField(testutil.FieldTaxon)
	require.NoError(t, err)
	assert.Equal(t, testutil.FieldTaxon, got.VisibleFields[len(got.VisibleFields)-1])
	assert.Len(t, got.VisibleFields, len(defaultVisible))

	got, err = store.ToggleField(testutil.FieldActivities)
	require.NoError(t, err)
	assert.Contains(t, got.VisibleFields, testutil.FieldActivities)

	_, err = store.ToggleField("nope")
	assert.True(t, errors.Is(err, internalErrors.ErrFieldNotFound))
}

func TestGetReturnsCopy(t *testing.T) {
	store, err := Open("", "", testutil.GoCamRegistry(t))
	require.NoError(t, err)

	got := store.Get()
	got.VisibleFields[0] = "mutated"
	assert.Equal(t, testutil.FieldID, store.Get().VisibleFields[0])
}

func TestSetDisplay(t *testing.T) {
	store, err := Open("", "", testutil.GoCamRegistry(t))
	require.NoError(t, err)

	got, err := store.SetDisplay(model.DisplayTable)
	require.NoError(t, err)
	assert.Equal(t, model.DisplayTable, got.ResultsDisplayType)

	_, err = store.SetDisplay("Grid")
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput))
	assert.Equal(t, model.DisplayTable, store.Get().ResultsDisplayType)
}

func TestPersistenceAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	reg := testutil.GoCamRegistry(t)

	store, err := Open(dir, "prefs", reg)
	require.NoError(t, err)
	_, err = store.SetDisplay(model.DisplayTable)
	require.NoError(t, err)
	_, err = store.ToggleField(testutil.FieldGenes)
	require.NoError(t, err)

	reopened, err := Open(dir, "prefs", reg)
	require.NoError(t, err)
	got := reopened.Get()
	assert.Equal(t, model.DisplayTable, got.ResultsDisplayType)
	assert.NotContains(t, got.VisibleFields, testutil.FieldGenes)

	// A different key starts from the defaults
	other, err := Open(dir, "other", reg)
	require.NoError(t, err)
	assert.Equal(t, defaultVisible, other.Get().VisibleFields)
}

func TestReset(t *testing.T) {
	dir := t.TempDir()
	reg := testutil.GoCamRegistry(t)

	store, err := Open(dir, "", reg)
	require.NoError(t, err)
	_, err = store.SetDisplay(model.DisplayTable)
	require.NoError(t, err)

	got, err := store.Reset()
	require.NoError(t, err)
	assert.Equal(t, Defaults(reg), got)

	reopened, err := Open(dir, "", reg)
	require.NoError(t, err)
	assert.Equal(t, model.DisplayList, reopened.Get().ResultsDisplayType)
}

func TestOpen_SanitizesStoredSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultSettingsKey+".gob")
	require.NoError(t, persistence.SaveGob(path, model.UserSettings{
		Version:            CurrentVersion,
		VisibleFields:      []string{"gone", testutil.FieldTitle, testutil.FieldTitle},
		ResultsDisplayType: "Cards",
	}))

	store, err := Open(dir, "", testutil.GoCamRegistry(t))
	require.NoError(t, err)
	got := store.Get()
	assert.Equal(t, []string{testutil.FieldTitle}, got.VisibleFields)
	assert.Equal(t, model.DisplayList, got.ResultsDisplayType)
}

func TestOpen_VersionMismatchUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultSettingsKey+".gob")
	require.NoError(t, persistence.SaveGob(path, model.UserSettings{
		Version:            CurrentVersion + 1,
		VisibleFields:      []string{testutil.FieldTitle},
		ResultsDisplayType: model.DisplayTable,
	}))

	store, err := Open(dir, "", testutil.GoCamRegistry(t))
	require.NoError(t, err)
	assert.Equal(t, defaultVisible, store.Get().VisibleFields)
}
