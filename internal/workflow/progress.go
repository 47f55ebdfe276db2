package workflow

import "github.com/foxycorps/commitsense/internal/progress"

// Reporter receives stage updates. *progress.Display implements it.
type Reporter interface {
	StartStage(info progress.StageInfo)
	CompleteStage(info progress.StageInfo, detail string)
	FailStage(info progress.StageInfo, err error)
}

// ProgressController numbers the pipeline stages and forwards them to a
// Reporter. A nil Reporter turns every method into a no-op.
type ProgressController struct {
	reporter Reporter
	total    int
	current  progress.StageInfo
}

// NewProgressController creates a controller for total stages.
func NewProgressController(reporter Reporter, total int) *ProgressController {
	return &ProgressController{reporter: reporter, total: total}
}

// Start begins the next stage.
func (p *ProgressController) Start(name string) {
	p.current = progress.StageInfo{Name: name, Number: p.current.Number + 1, Total: p.total}
	if p.reporter != nil {
		p.reporter.StartStage(p.current)
	}
}

// Done completes the current stage.
func (p *ProgressController) Done(detail string) {
	if p.reporter != nil {
		p.reporter.CompleteStage(p.current, detail)
	}
}

// Fail marks the current stage failed and returns err unchanged.
func (p *ProgressController) Fail(err error) error {
	if p.reporter != nil {
		p.reporter.FailStage(p.current, err)
	}
	return err
}
