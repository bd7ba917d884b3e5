package usecase

import (
	"context"
	"fmt"
)

type StepStatus string

const (
	StepDone    StepStatus = "done"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// Operation é um passo nomeado do fluxo. Passos fatais interrompem a
// sequência; os demais apenas registram a falha e seguem adiante.
type Operation struct {
	Name  string
	Fatal bool
	Fn    func(context.Context) error
}

type StepResult struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
	err    error
}

func (r StepResult) Err() error { return r.err }

type Report struct {
	Steps []StepResult `json:"steps"`
}

// FirstFailure devolve o primeiro passo que falhou, ou nil.
func (r Report) FirstFailure() *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Status == StepFailed {
			return &r.Steps[i]
		}
	}
	return nil
}

// Pending lista os passos que ainda precisam rodar numa retomada.
func (r Report) Pending() []string {
	var names []string
	for _, s := range r.Steps {
		if s.Status != StepDone {
			names = append(names, s.Name)
		}
	}
	return names
}

func (r Report) Status(name string) StepStatus {
	for _, s := range r.Steps {
		if s.Name == name {
			return s.Status
		}
	}
	return ""
}

// Transaction executa os passos em ordem. Não há compensação: o que já
// foi gravado permanece, e o relatório diz de onde retomar.
type Transaction struct {
	operations []Operation
}

func NewTransaction() *Transaction {
	return &Transaction{}
}

func (t *Transaction) AddOperation(name string, fatal bool, fn func(context.Context) error) {
	t.operations = append(t.operations, Operation{Name: name, Fatal: fatal, Fn: fn})
}

// Execute roda os passos que não estão em done. Devolve o relatório e o
// erro do primeiro passo fatal que falhou.
func (t *Transaction) Execute(ctx context.Context, done map[string]bool) (Report, error) {
	report := Report{Steps: make([]StepResult, 0, len(t.operations))}

	var fatalErr error
	for _, op := range t.operations {
		if fatalErr != nil {
			report.Steps = append(report.Steps, StepResult{Name: op.Name, Status: StepSkipped})
			continue
		}
		if done[op.Name] {
			report.Steps = append(report.Steps, StepResult{Name: op.Name, Status: StepDone})
			continue
		}
		if err := ctx.Err(); err != nil {
			fatalErr = fmt.Errorf("operation '%s' not started: %w", op.Name, err)
			report.Steps = append(report.Steps, StepResult{Name: op.Name, Status: StepFailed, Error: err.Error(), err: err})
			continue
		}

		if err := op.Fn(ctx); err != nil {
			report.Steps = append(report.Steps, StepResult{Name: op.Name, Status: StepFailed, Error: err.Error(), err: err})
			if op.Fatal {
				fatalErr = err
			}
			continue
		}
		report.Steps = append(report.Steps, StepResult{Name: op.Name, Status: StepDone})
	}

	return report, fatalErr
}
