package memory

import (
	"github.com/viant/strider/runtime/task"
	"github.com/viant/strider/service/dao"
	"github.com/viant/strider/service/dao/criteria"
	"github.com/viant/strider/service/dao/store"
)

// Service keeps task records in memory, listed in pid order.
type Service struct {
	*store.MemoryStore[string, task.Record]
}

var _ dao.Service[string, task.Record] = (*Service)(nil)

func matches(record *task.Record, parameters []*dao.Parameter) bool {
	return criteria.FilterByStatus(record.Status, parameters) &&
		criteria.Match(map[string]string{dao.ParamName: record.Name}, parameters)
}

// New creates an in-memory task record store
func New() *Service {
	return &Service{
		MemoryStore: store.NewMemoryStore[string, task.Record](func(r *task.Record) string { return r.ID }).
			WithFilter(matches).
			WithOrder(func(a, b *task.Record) bool { return a.PID < b.PID }),
	}
}
