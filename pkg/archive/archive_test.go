package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bentman/JARVISv5/pkg/jarvismodel"
)

func TestStore_WriteThenLoadRoundTrips(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	task := &jarvismodel.Task{
		TaskID:      "task-abc123",
		CreatedAt:   time.Now().UTC(),
		Goal:        "hello",
		State:       jarvismodel.StateArchive,
		Turn:        1,
		FinalOutput: "hi there",
	}
	require.NoError(t, s.Write(task))

	loaded, err := s.Load("task-abc123")
	require.NoError(t, err)
	require.Equal(t, task.TaskID, loaded.TaskID)
	require.Equal(t, task.FinalOutput, loaded.FinalOutput)
	require.Equal(t, jarvismodel.StateArchive, loaded.State)
}

func TestStore_LoadMissingReturnsNilNil(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	loaded, err := s.Load("task-does-not-exist")
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestStore_WriteOverwritesPreviousSnapshot(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	task := &jarvismodel.Task{TaskID: "task-xyz", Turn: 1, FinalOutput: "first"}
	require.NoError(t, s.Write(task))

	task.Turn = 2
	task.FinalOutput = "second"
	require.NoError(t, s.Write(task))

	loaded, err := s.Load("task-xyz")
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Turn)
	require.Equal(t, "second", loaded.FinalOutput)
}
