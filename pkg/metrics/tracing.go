package metrics

import (
	"context"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// TraceMethodCall traces a method call with a given struct/package and method
// names. When the context carries no transaction, one is started against the
// application stored in the context, if any. A nil tracer is safe to use.
func TraceMethodCall(ctx context.Context, structOrPackageName, methodName string) *MethodTracer {
	name := fmt.Sprintf("%s %s", structOrPackageName, methodName)

	txn := newrelic.FromContext(ctx)
	if txn != nil {
		return &MethodTracer{
			txn: txn,
			seg: txn.StartSegment(name),
		}
	}

	if nr, ok := fromContext(ctx); ok {
		return &MethodTracer{
			txn:   nr.StartTransaction(name),
			ownTx: true,
		}
	}

	return nil
}

// MethodTracer collects analytics for a given method call
type MethodTracer struct {
	txn   *newrelic.Transaction
	seg   *newrelic.Segment
	ownTx bool
}

// AddAttribute adds a key-value pair metadata to the method trace
func (t *MethodTracer) AddAttribute(key string, value interface{}) {
	if t == nil {
		return
	}

	if t.ownTx {
		t.txn.AddAttribute(key, value)
		return
	}
	t.seg.AddAttribute(key, value)
}

// OnError observes an error within a method trace
func (t *MethodTracer) OnError(err error) {
	if t == nil || err == nil {
		return
	}

	t.txn.NoticeError(err)
}

// End completes the trace for the method call.
func (t *MethodTracer) End() {
	if t == nil {
		return
	}

	if t.ownTx {
		t.txn.End()
		return
	}
	t.seg.End()
}
