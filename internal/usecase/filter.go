package usecase

import (
	"strings"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// FilterAll desliga o filtro de band/label.
const FilterAll = "all"

type LeadFilter struct {
	Search string
	Band   string
	Label  string
}

// FilterLeads é puro: não altera leads e devolve uma nova fatia na mesma ordem.
// Os três predicados são combinados com AND, então a ordem de aplicação não importa.
func FilterLeads(leads []entity.Lead, f LeadFilter) []entity.Lead {
	term := strings.ToLower(f.Search)
	out := make([]entity.Lead, 0, len(leads))
	for _, lead := range leads {
		if matchesSearch(lead, term) && matchesExact(string(lead.Band), f.Band) && matchesExact(string(lead.Label), f.Label) {
			out = append(out, lead)
		}
	}
	return out
}

func matchesSearch(lead entity.Lead, term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(lead.Name), term) || strings.Contains(strings.ToLower(lead.Email), term) {
		return true
	}
	// company ausente nunca casa com termo não vazio
	return lead.Company != "" && strings.Contains(strings.ToLower(lead.Company), term)
}

func matchesExact(value, want string) bool {
	if want == "" || want == FilterAll {
		return true
	}
	return value == want
}

// Stats reproduz os cards do dashboard.
func Stats(leads []entity.Lead) LeadStats {
	stats := LeadStats{Total: len(leads)}
	for _, lead := range leads {
		switch lead.Status {
		case entity.LeadStatusNew:
			stats.New++
		case entity.LeadStatusContacted:
			stats.Contacted++
		}
		if lead.Band == entity.BandHigh {
			stats.HighBand++
		}
	}
	return stats
}
