package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/strider/runtime/task"
	"github.com/viant/strider/service/dao"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	service := New()
	require.NoError(t, service.Save(ctx, &task.Record{ID: "b", PID: 2, Name: "spin", Status: "ready"}))
	require.NoError(t, service.Save(ctx, &task.Record{ID: "a", PID: 1, Name: "mmap", Status: "exited"}))
	require.NoError(t, service.Save(ctx, &task.Record{ID: "c", PID: 3, Name: "spin", Status: "exited"}))

	all, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{all[0].PID, all[1].PID, all[2].PID})

	exited, err := service.List(ctx, dao.NewParameter(dao.ParamStatus, "exited"), dao.NewParameter(dao.ParamName, "spin"))
	require.NoError(t, err)
	require.Len(t, exited, 1)
	assert.Equal(t, "c", exited[0].ID)

	_, err = service.Load(ctx, "zzz")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}
