package delivery_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"delisys/internal/delivery"
	"delisys/internal/logging"
	"delisys/internal/pathtemplate"
	"delisys/internal/scanner"
)

type recordingStub struct {
	summaries []*delivery.Summary
	err       error
}

func (r *recordingStub) Record(_ context.Context, s *delivery.Summary) error {
	r.summaries = append(r.summaries, s)
	return r.err
}

func fixedClock() time.Time {
	return time.Date(2024, 1, 2, 15, 30, 0, 0, time.Local)
}

func TestDeliverEndToEnd(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	writeFiles(t, src, "ProjA_Shot01_comp.0001.exr", "ProjA_Shot01_comp.0002.exr", "notes.txt")

	rec := &recordingStub{}
	d := delivery.NewDeliverer(logging.NewNop(), delivery.WithRecorder(rec), delivery.WithClock(fixedClock))

	summary, err := d.Deliver(context.Background(), delivery.Request{
		SourceDir:  src,
		OutputDir:  out,
		Pattern:    pathtemplate.DefaultPattern,
		DateFormat: "200601021504",
	})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if summary.Err() != nil {
		t.Fatalf("unexpected copy failures: %v", summary.Err())
	}
	if summary.Report.Copied != 2 || summary.SkippedCount() != 1 {
		t.Fatalf("copied=%d skipped=%d", summary.Report.Copied, summary.SkippedCount())
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}

	dir := filepath.Join(out, "ProjA", "202401021530", "ProjA_Shot01", "comp", "exr")
	for _, frame := range []string{"0001", "0002"} {
		name := "ProjA_Shot01_comp." + frame + ".exr"
		got, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("expected delivered frame %s: %v", frame, err)
		}
		if string(got) != "data:"+name {
			t.Fatalf("frame %s content mismatch: %q", frame, got)
		}
	}

	if len(rec.summaries) != 1 || rec.summaries[0] != summary {
		t.Fatalf("expected summary to be recorded once, got %d", len(rec.summaries))
	}
}

func TestDeliverAbortsOnEmptyPaths(t *testing.T) {
	d := delivery.NewDeliverer(nil)

	_, err := d.Deliver(context.Background(), delivery.Request{OutputDir: "/out"})
	if !errors.Is(err, scanner.ErrEmptyPath) {
		t.Fatalf("expected ErrEmptyPath, got %v", err)
	}
	_, err = d.Deliver(context.Background(), delivery.Request{SourceDir: t.TempDir()})
	if !errors.Is(err, delivery.ErrEmptyOutputDir) {
		t.Fatalf("expected ErrEmptyOutputDir, got %v", err)
	}
}

func TestDeliverAbortsOnMissingKeyWithoutCopying(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	writeFiles(t, src, "ProjA_Shot01_comp.0001.exr")
	rec := &recordingStub{}

	_, err := delivery.NewDeliverer(nil, delivery.WithRecorder(rec)).Deliver(context.Background(), delivery.Request{
		SourceDir: src,
		OutputDir: out,
		Pattern:   "{OUTPUT_DIR}/{VERSION}/{EXT}",
	})
	if !errors.Is(err, pathtemplate.ErrMissingKey) {
		t.Fatalf("expected ErrMissingKey, got %v", err)
	}
	if _, statErr := os.Stat(out); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("aborted run must not create output")
	}
	if len(rec.summaries) != 0 {
		t.Fatal("aborted run must not be recorded")
	}
}

func TestDeliverReportsPartialFailure(t *testing.T) {
	src := t.TempDir()
	outRoot := t.TempDir()
	writeFiles(t, src, "P_S_comp.0001.exr", "P_S_comp.0002.exr")

	// A regular file where the frame 0001 directory should be forces one
	// copy to fail while the other proceeds.
	pattern := "{OUTPUT_DIR}/{FRAMENUMBER}/{PROJECTNAME}.{EXT}"
	if err := os.WriteFile(filepath.Join(outRoot, "0001"), []byte("blocker"), 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := delivery.NewDeliverer(nil).Deliver(context.Background(), delivery.Request{
		SourceDir: src,
		OutputDir: outRoot,
		Pattern:   pattern,
	})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if !errors.Is(summary.Err(), delivery.ErrPartialDelivery) {
		t.Fatalf("expected partial delivery error, got %v", summary.Err())
	}
	if summary.Report.Copied != 1 || summary.Report.Failed != 1 {
		t.Fatalf("unexpected report %+v", summary.Report)
	}
	if _, err := os.Stat(filepath.Join(outRoot, "0002", "P.exr")); err != nil {
		t.Fatalf("expected frame 0002 delivered: %v", err)
	}
}

func TestDeliverDryRun(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	writeFiles(t, src, "ProjA_Shot01_comp.0001.exr")

	summary, err := delivery.NewDeliverer(nil).Deliver(context.Background(), delivery.Request{
		SourceDir: src,
		OutputDir: out,
		DryRun:    true,
	})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if !summary.DryRun || summary.Report.Copied != 1 {
		t.Fatalf("unexpected summary %+v", summary.Report)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("dry run must not create output")
	}
}

func TestDeliverRecorderFailureIsNotFatal(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, "ProjA_Shot01_comp.0001.exr")
	rec := &recordingStub{err: errors.New("disk full")}

	summary, err := delivery.NewDeliverer(nil, delivery.WithRecorder(rec)).Deliver(context.Background(), delivery.Request{
		SourceDir: src,
		OutputDir: filepath.Join(t.TempDir(), "out"),
	})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if summary.Report.Copied != 1 {
		t.Fatalf("expected copy despite recorder failure")
	}
}

func TestPlanDoesNotCopy(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	writeFiles(t, src, "ProjA_Shot01_comp.0001.exr", "bad.exr")

	catalog, plan, err := delivery.NewDeliverer(nil, delivery.WithClock(fixedClock)).Plan(context.Background(), delivery.Request{
		SourceDir: src,
		OutputDir: out,
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if catalog.Len() != 2 || len(plan.Pairs()) != 1 || len(plan.Skipped()) != 1 {
		t.Fatalf("unexpected plan: files=%d pairs=%d skipped=%d", catalog.Len(), len(plan.Pairs()), len(plan.Skipped()))
	}
	if plan.Context.Date != "202401021530" {
		t.Fatalf("unexpected date %q", plan.Context.Date)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("plan must not create output")
	}
}
