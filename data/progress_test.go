package data

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProgress(t *testing.T) {
	for _, p := range Progresses {
		got, err := ParseProgress(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	for _, bad := range []string{"", "done", "100%", "not started", "Completed "} {
		_, err := ParseProgress(bad)
		assert.ErrorIs(t, err, ErrInvalidProgress, bad)
	}
}

func TestProgressJSON(t *testing.T) {
	var body struct {
		Progress Progress `json:"progress"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"progress":"50%"}`), &body))
	assert.Equal(t, ProgressHalf, body.Progress)

	err := json.Unmarshal([]byte(`{"progress":"60%"}`), &body)
	assert.ErrorIs(t, err, ErrInvalidProgress)

	b, err := json.Marshal(UserBook{Progress: ProgressCompleted})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"progress":"Completed"`)
}

func TestProgressSQL(t *testing.T) {
	v, err := ProgressThreeQuarters.Value()
	require.NoError(t, err)
	assert.Equal(t, "75%", v)

	_, err = Progress("bogus").Value()
	assert.ErrorIs(t, err, ErrInvalidProgress)

	var p Progress
	require.NoError(t, p.Scan([]byte("Not started")))
	assert.Equal(t, ProgressNotStarted, p)
	require.NoError(t, p.Scan("25%"))
	assert.Equal(t, ProgressQuarter, p)
	assert.Error(t, p.Scan(42))
	assert.ErrorIs(t, p.Scan("halfway"), ErrInvalidProgress)
}
