package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/gradscan/gradscan/internal/model"
)

// recordingStep is a test double that records whether it ran and can be
// told to fail.
type recordingStep struct {
	name string
	err  error
	ran  *[]string
}

func (s *recordingStep) Name() string { return s.name }

func (s *recordingStep) Do(_ context.Context, _ *model.RunReport) error {
	*s.ran = append(*s.ran, s.name)
	return s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		var ran []string
		p := New(WithLogger(quietLogger()))
		p.AddSteps(
			&recordingStep{name: "first", ran: &ran},
			&recordingStep{name: "second", ran: &ran},
			&recordingStep{name: "third", ran: &ran},
		)

		report := model.NewRunReport()
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		want := []string{"first", "second", "third"}
		if len(ran) != len(want) {
			t.Fatalf("ran %v, want %v", ran, want)
		}
		for i := range want {
			if ran[i] != want[i] {
				t.Errorf("ran[%d] = %q, want %q", i, ran[i], want[i])
			}
			if report.PerformedSteps[i] != want[i] {
				t.Errorf("PerformedSteps[%d] = %q, want %q", i, report.PerformedSteps[i], want[i])
			}
		}
	})

	t.Run("stops on first error by default", func(t *testing.T) {
		t.Parallel()

		var ran []string
		stepErr := errors.New("stage broke")
		p := New(WithLogger(quietLogger()))
		p.AddSteps(
			&recordingStep{name: "first", err: stepErr, ran: &ran},
			&recordingStep{name: "second", ran: &ran},
		)

		report := model.NewRunReport()
		if err := p.Execute(context.Background(), report); !errors.Is(err, stepErr) {
			t.Fatalf("Execute() error = %v, want %v", err, stepErr)
		}
		if len(ran) != 1 {
			t.Errorf("ran %v, want only the failing step", ran)
		}
		if report.ErrorMessage != "stage broke" {
			t.Errorf("ErrorMessage = %q, want %q", report.ErrorMessage, "stage broke")
		}
	})

	t.Run("continues past errors when configured", func(t *testing.T) {
		t.Parallel()

		var ran []string
		stepErr := errors.New("stage broke")
		p := New(WithLogger(quietLogger()), WithContinueOnError(true))
		p.AddSteps(
			&recordingStep{name: "first", err: stepErr, ran: &ran},
			&recordingStep{name: "second", ran: &ran},
		)

		report := model.NewRunReport()
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("Execute() error = %v, want nil", err)
		}
		if len(ran) != 2 {
			t.Errorf("ran %v, want both steps", ran)
		}
		if !errors.Is(report.Error, stepErr) {
			t.Errorf("report.Error = %v, want %v", report.Error, stepErr)
		}
	})

	t.Run("cancelled context stops before the next step", func(t *testing.T) {
		t.Parallel()

		var ran []string
		p := New(WithLogger(quietLogger()))
		p.AddStep(&recordingStep{name: "never", ran: &ran})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := p.Execute(ctx, model.NewRunReport()); !errors.Is(err, context.Canceled) {
			t.Fatalf("Execute() error = %v, want context.Canceled", err)
		}
		if len(ran) != 0 {
			t.Errorf("ran %v, want no steps", ran)
		}
	})

	t.Run("step bookkeeping", func(t *testing.T) {
		t.Parallel()

		var ran []string
		p := New(WithLogger(quietLogger()))
		p.AddSteps(
			&recordingStep{name: "a", ran: &ran},
			&recordingStep{name: "b", ran: &ran},
		)

		if p.StepCount() != 2 {
			t.Errorf("StepCount() = %d, want 2", p.StepCount())
		}
		names := p.StepNames()
		if len(names) != 2 || names[0] != "a" || names[1] != "b" {
			t.Errorf("StepNames() = %v, want [a b]", names)
		}
	})
}
