package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return NewStore(filepath.Join(dir, "compresse_data.json"), dir)
}

func TestEnsureCreatesDefaults(t *testing.T) {
	s := newTestStore(t)

	cfg, err := s.Ensure(42)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)

	again, err := s.Ensure(42)
	require.NoError(t, err)

	b1, err := json.Marshal(cfg)
	require.NoError(t, err)
	b2, err := json.Marshal(again)
	require.NoError(t, err)
	assert.Equal(t, b1, b2, "repeated ensure must be byte-identical")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Ensure(1)
	require.NoError(t, err)
	_, err = s.Set(2, FieldBitrate, "1500k")
	require.NoError(t, err)

	before, err := os.ReadFile(s.path)
	require.NoError(t, err)

	data, err := s.Load()
	require.NoError(t, err)
	require.NoError(t, s.Save(data))

	after, err := os.ReadFile(s.path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "save(load()) must not change the document")
}

func TestSetRejectsValueOutsideSet(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Ensure(7)
	require.NoError(t, err)

	_, err = s.Set(7, FieldBitrate, "999k")
	require.ErrorIs(t, err, ErrInvalidValue)

	data, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "480k", data["7"].Bitrate, "rejected write must not mutate the store")
}

func TestSetAppliesEnumeratedValue(t *testing.T) {
	s := newTestStore(t)

	cfg, err := s.Set(7, FieldResolution, "1920:1080")
	require.NoError(t, err)
	assert.Equal(t, "1920:1080", cfg.Resolution)

	cfg, err = s.Set(7, FieldFormat, "ts")
	require.NoError(t, err)
	assert.Equal(t, "ts", cfg.Container)
	assert.Equal(t, "1920:1080", cfg.Resolution, "other fields untouched")
}

func TestSetTextStoredVerbatim(t *testing.T) {
	s := newTestStore(t)

	cfg, err := s.SetText(3, FieldPrefix, "archive")
	require.NoError(t, err)
	assert.Equal(t, "archive", cfg.Prefix)

	cfg, err = s.SetText(3, FieldSuffix, " [720p]")
	require.NoError(t, err)
	assert.Equal(t, " [720p]", cfg.Suffix)

	_, err = s.SetText(3, FieldBitrate, "whatever")
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestToggleUpload(t *testing.T) {
	s := newTestStore(t)

	cfg, err := s.ToggleUpload(5)
	require.NoError(t, err)
	assert.Equal(t, UploadDocument, cfg.UploadMode)

	cfg, err = s.ToggleUpload(5)
	require.NoError(t, err)
	assert.Equal(t, UploadMedia, cfg.UploadMode)
}

func TestResetLeavesOtherUsersAlone(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Set(1, FieldBitrate, "2000k")
	require.NoError(t, err)
	_, err = s.Set(2, FieldBitrate, "1000k")
	require.NoError(t, err)

	require.NoError(t, s.Reset(1))

	data, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), data["1"])
	assert.Equal(t, "1000k", data["2"].Bitrate)
}

func TestResetRemovesThumbnail(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Ensure(9)
	require.NoError(t, err)

	_, err = s.EnsureUserDir(9)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.ThumbnailPath(9), []byte("jpeg"), 0o644))
	require.True(t, s.HasThumbnail(9))

	require.NoError(t, s.Reset(9))
	assert.False(t, s.HasThumbnail(9))
}

func TestRemoveThumbnailMissingIsNoop(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.RemoveThumbnail(123))
}

func TestCorruptDocumentLoadsEmpty(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.path, []byte("{not json"), 0o644))

	data, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, data)

	// And first contact still works afterwards.
	cfg, err := s.Ensure(1)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestValidValue(t *testing.T) {
	assert.True(t, ValidValue(FieldBitrate, "1000k"))
	assert.False(t, ValidValue(FieldBitrate, "999k"))
	assert.True(t, ValidValue(FieldTune, "zerolatency"))
	assert.False(t, ValidValue(FieldTune, "speed"))
	assert.False(t, ValidValue(FieldPrefix, "anything"), "free-form fields have no choice set")
}
