package usecase

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultJournalSize = 1024
	defaultJournalTTL  = 24 * time.Hour
)

// journalEntry guarda o que já foi concluído num fluxo interrompido,
// para que a retomada não repita passos bem-sucedidos (ex.: não reenviar o webhook).
type journalEntry struct {
	Done    map[string]bool
	Capture *CaptureLeadInput
	Source  string
}

// StepJournal é seguro para uso concorrente (o LRU tem lock interno).
type StepJournal struct {
	entries *expirable.LRU[string, journalEntry]
}

func NewStepJournal(size int, ttl time.Duration) *StepJournal {
	if size <= 0 {
		size = defaultJournalSize
	}
	if ttl <= 0 {
		ttl = defaultJournalTTL
	}
	return &StepJournal{entries: expirable.NewLRU[string, journalEntry](size, nil, ttl)}
}

func journalKey(flow, leadID string) string {
	return flow + ":" + leadID
}

func (j *StepJournal) load(flow, leadID string) (journalEntry, bool) {
	return j.entries.Get(journalKey(flow, leadID))
}

// record salva os passos concluídos. Se nada ficou pendente, a entrada é removida.
func (j *StepJournal) record(flow, leadID string, report Report, entry journalEntry) {
	key := journalKey(flow, leadID)
	if len(report.Pending()) == 0 {
		j.entries.Remove(key)
		return
	}
	done := make(map[string]bool, len(report.Steps))
	for _, s := range report.Steps {
		if s.Status == StepDone {
			done[s.Name] = true
		}
	}
	entry.Done = done
	j.entries.Add(key, entry)
}

func (j *StepJournal) forget(flow, leadID string) {
	j.entries.Remove(journalKey(flow, leadID))
}
