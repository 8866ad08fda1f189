package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/fastygo/taskpoints/domain"
)

// ErrUnsupportedOperation is returned for actions nobody registered.
var ErrUnsupportedOperation = domain.NewError(domain.ErrCodeInvalid, "unsupported operation")

type CommandHandler func(ctx context.Context, op domain.Operation) (interface{}, error)
type QueryHandler func(ctx context.Context, op domain.Operation) (interface{}, error)

// Dispatcher routes assistant operations to the use cases that registered them.
type Dispatcher struct {
	cmdHandlers map[string]CommandHandler
	qryHandlers map[string]QueryHandler
	mu          sync.RWMutex
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		cmdHandlers: make(map[string]CommandHandler),
		qryHandlers: make(map[string]QueryHandler),
	}
}

func (d *Dispatcher) RegisterCommand(name string, handler CommandHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cmdHandlers[name] = handler
}

func (d *Dispatcher) RegisterQuery(name string, handler QueryHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.qryHandlers[name] = handler
}

// Dispatch runs the command or query named by op.Action().
func (d *Dispatcher) Dispatch(ctx context.Context, op domain.Operation) (interface{}, error) {
	name := op.Action()
	d.mu.RLock()
	cmd, isCmd := d.cmdHandlers[name]
	qry, isQry := d.qryHandlers[name]
	d.mu.RUnlock()

	switch {
	case isCmd:
		return cmd(ctx, op)
	case isQry:
		return qry(ctx, op)
	default:
		return nil, ErrUnsupportedOperation.With(domain.NewError(domain.ErrCodeInvalid, "action "+name))
	}
}

// Actions lists every registered action name, sorted.
func (d *Dispatcher) Actions() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.cmdHandlers)+len(d.qryHandlers))
	for name := range d.cmdHandlers {
		names = append(names, name)
	}
	for name := range d.qryHandlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
