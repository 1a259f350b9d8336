package dashboard

import (
	"testing"

	"github.com/pyneda/stapi/pkg/client"
	"github.com/stretchr/testify/assert"
)

func TestTestBoard(t *testing.T) {
	board := NewTestBoard([]client.Test{
		{ID: 1, Name: "SQL Injection"},
		{ID: 2, Name: "Auth bypass"},
		{ID: 3, Name: "Rate limits"},
	})
	assert.ErrorIs(t, board.CanRun(), ErrNoAPISelected)

	board.SelectAPI(4)
	assert.NoError(t, board.CanRun())
	assert.Equal(t, 4, board.SelectedAPI())

	for _, row := range board.Rows() {
		assert.Equal(t, NotRun, row.Status)
		assert.Equal(t, NoDetail, row.Detail)
	}

	board.ApplyRunAll([]client.RunResult{
		{TestID: 1, Status: client.StatusVulnerable, Detail: "payload worked"},
		{TestID: 2, Status: client.StatusSafe},
	})
	rows := board.Rows()
	assert.Equal(t, "Vulnerable", rows[0].Status)
	assert.Equal(t, "payload worked", rows[0].Detail)
	assert.Equal(t, "Safe", rows[1].Status)
	assert.Equal(t, NoDetail, rows[1].Detail)
	assert.Equal(t, NotRun, rows[2].Status)

	board.ApplyRun(client.RunResult{TestID: 1, Status: client.StatusSafe, Detail: "fixed"})
	board.ApplyRun(client.RunResult{TestID: 3, Status: client.StatusError, Detail: "timeout"})
	rows = board.Rows()
	assert.Equal(t, "Safe", rows[0].Status)
	assert.Equal(t, "fixed", rows[0].Detail)
	assert.Equal(t, "Error", rows[2].Status)

	board.SelectAPI(5)
	_, ok := board.Result(1)
	assert.False(t, ok)
	assert.Equal(t, NotRun, board.Rows()[0].Status)
}
