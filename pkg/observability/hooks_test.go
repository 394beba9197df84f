package observability

import (
	"context"
	"testing"
	"time"
)

type recordingPipelineHooks struct {
	NoopPipelineHooks
	scans      int
	resolves   int
	reconciles int
}

func (r *recordingPipelineHooks) OnScanStart(context.Context, string) { r.scans++ }
func (r *recordingPipelineHooks) OnResolveStart(context.Context, string, int) {
	r.resolves++
}
func (r *recordingPipelineHooks) OnReconcileComplete(context.Context, int, int, int, time.Duration) {
	r.reconciles++
}

func TestSetAndGetPipelineHooks(t *testing.T) {
	defer Reset()

	rec := &recordingPipelineHooks{}
	SetPipelineHooks(rec)

	ctx := context.Background()
	Pipeline().OnScanStart(ctx, "/src")
	Pipeline().OnResolveStart(ctx, "npm", 3)
	Pipeline().OnReconcileComplete(ctx, 1, 2, 3, time.Second)

	if rec.scans != 1 || rec.resolves != 1 || rec.reconciles != 1 {
		t.Errorf("events = (%d, %d, %d), want (1, 1, 1)", rec.scans, rec.resolves, rec.reconciles)
	}
}

func TestSetNilKeepsDefaults(t *testing.T) {
	defer Reset()

	SetPipelineHooks(nil)
	if Pipeline() == nil {
		t.Fatal("Pipeline() returned nil after SetPipelineHooks(nil)")
	}
}

func TestResetRestoresNoops(t *testing.T) {
	rec := &recordingPipelineHooks{}
	SetPipelineHooks(rec)
	Reset()

	Pipeline().OnScanStart(context.Background(), "/src")
	if rec.scans != 0 {
		t.Error("events still delivered to old hooks after Reset()")
	}
}
