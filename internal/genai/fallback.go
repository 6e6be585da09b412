package genai

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/vilaweb/leadgen-cli/internal/model"
)

// SyntheticPrefix tags the reasoning of fallback candidates so operators
// can tell mock data from live provider output at a glance.
const SyntheticPrefix = "[synthetic] "

// sectorStems is the per-sector vocabulary of plausible company-name stems
// combined with the brief's location.
var sectorStems = map[string][]string{
	model.SectorTechnology:   {"Tech Solutions", "Digital Lab", "Cloudware", "Softek", "DataBridge", "Innofy", "CodiObert", "NetForge"},
	model.SectorFinance:      {"Capital Advisors", "Gestió Financera", "FinServ", "Inversions", "Patrimonia", "CreditPlus", "Asseguradora", "Fons"},
	model.SectorHealthcare:   {"Clínica", "Salut Integral", "MediCare", "Centre Mèdic", "Farma", "BioSalut", "Dental Care", "Fisio"},
	model.SectorRetail:       {"Comerços", "Botiga Central", "Mercat Digital", "Distribucions", "Moda", "Ultramarins", "Basar", "Outlet"},
	model.SectorHospitality:  {"Hotel", "Restaurant Grup", "Càtering", "Turisme", "Hostal", "Gastronomia", "Celler", "Allotjaments"},
	model.SectorConstruction: {"Construccions", "Obres i Reformes", "Edificacions", "Promocions", "Instal·lacions", "Arquitectura", "Immobiliària", "Urbanisme"},
	model.SectorEducation:    {"Acadèmia", "Centre de Formació", "Escola", "Idiomes", "Campus", "Tallers Educatius", "Formació Professional", "Estudis"},
	model.SectorLogistics:    {"Transports", "Logística", "Missatgeria", "Magatzems", "Distribució Express", "Càrrega", "Flota", "Enviaments"},
}

var defaultStems = []string{"Serveis", "Grup Empresarial", "Consultoria", "Gestió", "Comercial", "Indústries", "Projectes", "Associats"}

var nameSuffixes = []string{"", "SL", "Group", "Partners", "2000", "Pro", "Plus"}

// Fallback produces synthetic candidate batches when the live provider is
// unavailable. It never fails and always returns the requested quantity.
type Fallback struct {
	rng *rand.Rand
}

// NewFallback creates a Fallback generator. A nil rng gets a random source;
// tests pass a seeded one for deterministic batches.
func NewFallback(rng *rand.Rand) *Fallback {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Fallback{rng: rng}
}

// Generate returns exactly criteria.Quantity synthetic candidates plus the
// operator-facing warning for the failure reason that triggered fallback.
func (f *Fallback) Generate(criteria model.GenerationCriteria, reason model.FailureReason) ([]model.CandidateLead, string) {
	stems, ok := sectorStems[strings.ToUpper(criteria.Sector)]
	if !ok {
		stems = defaultStems
	}

	candidates := make([]model.CandidateLead, 0, criteria.Quantity)
	for i := 0; i < criteria.Quantity; i++ {
		stem := stems[i%len(stems)]
		suffix := nameSuffixes[(i/len(stems))%len(nameSuffixes)]

		name := fmt.Sprintf("%s %s", stem, criteria.Location)
		if suffix != "" {
			name = fmt.Sprintf("%s %s", name, suffix)
		}

		score := fallbackScoreMin + f.rng.IntN(fallbackScoreMax-fallbackScoreMin)
		employees := 5 + f.rng.IntN(245)
		slug := slugify(name)

		candidates = append(candidates, model.CandidateLead{
			ID:               uuid.New().String(),
			CompanyName:      name,
			Sector:           strings.ToUpper(criteria.Sector),
			Location:         criteria.Location,
			EmployeeCount:    employees,
			EstimatedRevenue: float64(employees) * (50000 + f.rng.Float64()*100000),
			ContactName:      "Direcció Comercial",
			ContactEmail:     fmt.Sprintf("info@%s.example.com", slug),
			ContactPhone:     fmt.Sprintf("+34 9%02d %03d %03d", f.rng.IntN(100), f.rng.IntN(1000), f.rng.IntN(1000)),
			SuitabilityScore: score,
			Priority:         model.PriorityForScore(score),
			Reasoning: fmt.Sprintf("%sSample profile matching the %s brief in %s.",
				SyntheticPrefix, strings.ToUpper(criteria.Sector), criteria.Location),
			Website: fmt.Sprintf("https://www.%s.example.com", slug),
		})
	}

	return candidates, reason.Warning()
}
