package geminiflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type chatRow struct {
	Sender string
	Body   string
}

func rowRole(r chatRow) string { return r.Sender }
func rowText(r chatRow) string { return r.Body }

func TestHistoryFromRecords(t *testing.T) {
	rows := []chatRow{
		{Sender: "user", Body: "hi"},
		{Sender: "model", Body: ""},
		{Sender: "model", Body: "hello"},
	}

	history := HistoryFromRecords(rows, rowRole, rowText)
	require.Len(t, history, 2)
	assert.Equal(t, UserText("hi"), history[0])
	assert.Equal(t, ModelText("hello"), history[1])
}

func TestHistoryFromRecords_Empty(t *testing.T) {
	history := HistoryFromRecords[chatRow](nil, rowRole, rowText)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestHistoryFromRecords_PreservesOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		bodies := rapid.SliceOf(rapid.StringMatching(`[a-z]{1,8}`)).Draw(rt, "bodies")
		rows := make([]chatRow, len(bodies))
		for i, b := range bodies {
			role := "user"
			if i%2 == 1 {
				role = "model"
			}
			rows[i] = chatRow{Sender: role, Body: b}
		}

		history := HistoryFromRecords(rows, rowRole, rowText)
		if len(history) != len(rows) {
			rt.Fatalf("got %d turns, want %d", len(history), len(rows))
		}
		for i, c := range history {
			if c.Role != rows[i].Sender || c.Parts[0].Text != rows[i].Body {
				rt.Fatalf("turn %d = %+v, want %+v", i, c, rows[i])
			}
		}
	})
}
