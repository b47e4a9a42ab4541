// Package notify delivers a rendered report.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"procreport/internal/graph"
	"procreport/internal/logging"
	"procreport/internal/report"
)

// Notifier delivers one report.
type Notifier interface {
	Notify(ctx context.Context, r *report.Report) error
}

// Mailer sends a message; *graph.Client satisfies it.
type Mailer interface {
	SendMail(ctx context.Context, m graph.Message) error
}

// GraphMailer mails the HTML report to a fixed recipient list.
type GraphMailer struct {
	Mail            Mailer
	To              []string
	SaveToSentItems bool
}

// Notify renders r as HTML and sends it.
func (g *GraphMailer) Notify(ctx context.Context, r *report.Report) error {
	if len(g.To) == 0 {
		return errors.New("notify: no recipients configured")
	}
	body, err := report.String(r, report.FormatHTML)
	if err != nil {
		return fmt.Errorf("render mail body: %w", err)
	}
	msg := graph.Message{
		Subject:         report.Subject(r),
		Body:            body,
		To:              g.To,
		SaveToSentItems: g.SaveToSentItems,
	}
	if err := g.Mail.SendMail(ctx, msg); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	logging.New("notify").Info("report mailed", "run_id", r.RunID, "recipients", len(g.To))
	return nil
}

// FileWriter writes the rendered report to Path, or to Stdout when Path is
// empty or "-".
type FileWriter struct {
	Path   string
	Format report.Format
	Stdout io.Writer
}

// Notify renders r and writes it.
func (f *FileWriter) Notify(_ context.Context, r *report.Report) error {
	if f.Path == "" || f.Path == "-" {
		w := f.Stdout
		if w == nil {
			w = os.Stdout
		}
		return report.Render(w, r, f.Format)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), ".report-*")
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := report.Render(tmp, r, f.Format); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("render report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write report: %w", err)
	}
	logging.New("notify").Info("report written", "path", f.Path, "format", string(f.Format))
	return nil
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, r *report.Report) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
